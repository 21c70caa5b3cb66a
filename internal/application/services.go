package application

import (
	"context"
	"fmt"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/pkg/cloudevents"
	"github.com/wms-platform/fulfillment-service/pkg/logging"
	"github.com/wms-platform/fulfillment-service/pkg/metrics"
)

// Services is the wired set of application services
type Services struct {
	UnitOfWork *UnitOfWorkManager
	Ledger     *LedgerService
	Inbound    *InboundService
	Outbound   *OutboundService
	Sorting    *TaskService
	Picking    *TaskService
	Packing    *TaskService
	Deliveries *DeliveryService
	StockMoves *StockMoveService
	Snapshots  *SnapshotService
}

// NewServices wires every service against one set of repositories and one
// transaction runner. Task completion hooks connect the task services to
// the document flows they drive.
func NewServices(tx TxRunner, repos *Repositories, eventFactory *cloudevents.EventFactory, logger *logging.Logger, m *metrics.Metrics) *Services {
	uow := NewUnitOfWorkManager(tx, repos, eventFactory, logger, m)
	master := &masterDataGuard{data: repos.MasterData}
	ledger := NewLedgerService(uow, repos, logger, m)

	sorting := newTaskService(domain.TaskTypeSorting, uow, repos, master, logger)
	picking := newTaskService(domain.TaskTypePicking, uow, repos, master, logger)
	packing := newTaskService(domain.TaskTypePacking, uow, repos, master, logger)

	inbound := &InboundService{
		uow:     uow,
		repos:   repos,
		master:  master,
		ledger:  ledger,
		sorting: sorting,
		logger:  logger.WithComponent("inbound"),
	}
	deliveries := &DeliveryService{
		uow:    uow,
		repos:  repos,
		logger: logger.WithComponent("delivery"),
	}
	outbound := &OutboundService{
		uow:          uow,
		repos:        repos,
		master:       master,
		ledger:       ledger,
		pickingTasks: picking,
		packingTasks: packing,
		deliveries:   deliveries,
		logger:       logger.WithComponent("outbound"),
	}
	deliveries.outbound = outbound

	stockMoves := &StockMoveService{
		uow:    uow,
		repos:  repos,
		master: master,
		ledger: ledger,
		logger: logger.WithComponent("stock-move"),
	}

	sorting.documentGoods = inbound.documentGoods
	sorting.onCompleted = func(ctx context.Context, uow *UnitOfWork, task *domain.Task) error {
		_, err := inbound.complete(ctx, uow, task.DocumentID)
		return err
	}

	picking.documentGoods = outbound.documentGoods
	picking.onCompleted = func(ctx context.Context, uow *UnitOfWork, task *domain.Task) error {
		if err := stockMoves.pickingRemoval(ctx, uow, task); err != nil {
			return err
		}
		_, err := outbound.picking(ctx, uow, task.DocumentID)
		return err
	}

	packing.documentGoods = outbound.documentGoods
	packing.onCompleted = func(ctx context.Context, uow *UnitOfWork, task *domain.Task) error {
		_, err := outbound.packing(ctx, uow, task.DocumentID)
		return err
	}

	return &Services{
		UnitOfWork: uow,
		Ledger:     ledger,
		Inbound:    inbound,
		Outbound:   outbound,
		Sorting:    sorting,
		Picking:    picking,
		Packing:    packing,
		Deliveries: deliveries,
		StockMoves: stockMoves,
		Snapshots:  NewSnapshotService(repos, logger, m),
	}
}

// Tasks returns the task service of a task type
func (s *Services) Tasks(taskType domain.TaskType) (*TaskService, bool) {
	switch taskType {
	case domain.TaskTypeSorting:
		return s.Sorting, true
	case domain.TaskTypePicking:
		return s.Picking, true
	case domain.TaskTypePacking:
		return s.Packing, true
	}
	return nil, false
}

// masterDataGuard checks references against master data
type masterDataGuard struct {
	data domain.MasterData
}

func (g *masterDataGuard) warehouse(ctx context.Context, warehouseID string) error {
	ok, err := g.data.WarehouseExists(ctx, warehouseID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrWarehouseNotFound, warehouseID)
	}
	return nil
}

func (g *masterDataGuard) goods(ctx context.Context, lines ...domain.DetailLine) error {
	for _, l := range lines {
		ok, err := g.data.GoodsExists(ctx, l.GoodsID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrGoodsNotFound, l.GoodsID)
		}
	}
	return nil
}

// stockableLocation resolves a location that holds ledger stock in warehouseID
func (g *masterDataGuard) stockableLocation(ctx context.Context, locationID, warehouseID string) (*domain.Location, error) {
	if locationID == "" {
		return nil, domain.ErrLocationRequired
	}
	location, err := g.data.FindLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrLocationNotFound, locationID)
	}
	if location.WarehouseID != warehouseID {
		return nil, fmt.Errorf("%w: %s is in %s", domain.ErrLocationWarehouseMismatch, locationID, location.WarehouseID)
	}
	if !location.Type.IsStockable() {
		return nil, fmt.Errorf("%w: %s is %s", domain.ErrLocationNotStockable, locationID, location.Type)
	}
	return location, nil
}
