package application

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/pkg/outbox"
)

// memStore keeps every collection in maps of immutable copies, so a
// transaction can be rolled back by restoring the map headers
type memStore struct {
	inventory  map[string]*domain.Inventory
	asns       map[string]*domain.ASN
	dns        map[string]*domain.DN
	tasks      map[string]*domain.Task
	deliveries map[string]*domain.DeliveryTask
	stock      map[string]*domain.LocationStock
	logs       []*domain.StatusLog
	putaways   []*domain.PutawayRecord
	removals   []*domain.RemovalRecord
	snapshots  []domain.LocationSnapshot
	outbox     []*outbox.OutboxEvent

	warehouses map[string]bool
	goods      map[string]bool
	locations  map[string]*domain.Location

	transactions int
	rollbacks    int
}

func newMemStore() *memStore {
	return &memStore{
		inventory:  map[string]*domain.Inventory{},
		asns:       map[string]*domain.ASN{},
		dns:        map[string]*domain.DN{},
		tasks:      map[string]*domain.Task{},
		deliveries: map[string]*domain.DeliveryTask{},
		stock:      map[string]*domain.LocationStock{},
		warehouses: map[string]bool{},
		goods:      map[string]bool{},
		locations:  map[string]*domain.Location{},
	}
}

func clone[T any](v *T) *T {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	out := new(T)
	if err := json.Unmarshal(b, out); err != nil {
		panic(err)
	}
	return out
}

func copyMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type memState struct {
	inventory  map[string]*domain.Inventory
	asns       map[string]*domain.ASN
	dns        map[string]*domain.DN
	tasks      map[string]*domain.Task
	deliveries map[string]*domain.DeliveryTask
	stock      map[string]*domain.LocationStock
	logs       []*domain.StatusLog
	putaways   []*domain.PutawayRecord
	removals   []*domain.RemovalRecord
	snapshots  []domain.LocationSnapshot
	outbox     []*outbox.OutboxEvent
}

func (s *memStore) snapshot() memState {
	return memState{
		inventory:  copyMap(s.inventory),
		asns:       copyMap(s.asns),
		dns:        copyMap(s.dns),
		tasks:      copyMap(s.tasks),
		deliveries: copyMap(s.deliveries),
		stock:      copyMap(s.stock),
		logs:       s.logs[:len(s.logs):len(s.logs)],
		putaways:   s.putaways[:len(s.putaways):len(s.putaways)],
		removals:   s.removals[:len(s.removals):len(s.removals)],
		snapshots:  s.snapshots[:len(s.snapshots):len(s.snapshots)],
		outbox:     s.outbox[:len(s.outbox):len(s.outbox)],
	}
}

func (s *memStore) restore(st memState) {
	s.inventory, s.asns, s.dns = st.inventory, st.asns, st.dns
	s.tasks, s.deliveries, s.stock = st.tasks, st.deliveries, st.stock
	s.logs, s.putaways, s.removals = st.logs, st.putaways, st.removals
	s.snapshots, s.outbox = st.snapshots, st.outbox
}

func (s *memStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.transactions++
	st := s.snapshot()
	if err := fn(ctx); err != nil {
		s.rollbacks++
		s.restore(st)
		return err
	}
	return nil
}

func (s *memStore) repositories() *Repositories {
	return &Repositories{
		Inventory:     memInventory{s},
		ASNs:          memASNs{s},
		DNs:           memDNs{s},
		Tasks:         memTasks{s},
		Deliveries:    memDeliveries{s},
		StatusLogs:    memStatusLogs{s},
		StockMoves:    memStockMoves{s},
		LocationStock: memLocationStock{s},
		Snapshots:     memSnapshots{s},
		MasterData:    memMasterData{s},
		Outbox:        memOutbox{s},
	}
}

func (s *memStore) addLocation(id, warehouseID string, t domain.LocationType) *domain.Location {
	loc := &domain.Location{ID: id, WarehouseID: warehouseID, Code: id, Type: t}
	s.locations[id] = loc
	return loc
}

func key(parts ...string) string {
	return fmt.Sprint(parts)
}

type memInventory struct{ s *memStore }

func (r memInventory) FindByGoodsAndWarehouse(_ context.Context, goodsID, warehouseID string) (*domain.Inventory, error) {
	if inv, ok := r.s.inventory[key(goodsID, warehouseID)]; ok {
		return clone(inv), nil
	}
	return nil, nil
}

func (r memInventory) FindByWarehouse(_ context.Context, warehouseID string, limit, offset int) ([]*domain.Inventory, error) {
	var out []*domain.Inventory
	for _, inv := range r.s.inventory {
		if inv.WarehouseID == warehouseID {
			out = append(out, clone(inv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GoodsID < out[j].GoodsID })
	return page(out, limit, offset), nil
}

func (r memInventory) CountByWarehouse(ctx context.Context, warehouseID string) (int64, error) {
	rows, _ := r.FindByWarehouse(ctx, warehouseID, 0, 0)
	return int64(len(rows)), nil
}

func (r memInventory) Save(_ context.Context, inv *domain.Inventory) error {
	r.s.inventory[key(inv.GoodsID, inv.WarehouseID)] = clone(inv)
	return nil
}

func page[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return nil
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

type memASNs struct{ s *memStore }

func (r memASNs) FindByID(_ context.Context, id string) (*domain.ASN, error) {
	if a, ok := r.s.asns[id]; ok {
		return clone(a), nil
	}
	return nil, nil
}

func (r memASNs) List(_ context.Context, f domain.DocumentFilter, limit, offset int) ([]*domain.ASN, error) {
	var out []*domain.ASN
	for _, a := range r.s.asns {
		if (f.WarehouseID == "" || a.WarehouseID == f.WarehouseID) && (f.Status == "" || string(a.Status) == f.Status) {
			out = append(out, clone(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return page(out, limit, offset), nil
}

func (r memASNs) Count(ctx context.Context, f domain.DocumentFilter) (int64, error) {
	rows, _ := r.List(ctx, f, 0, 0)
	return int64(len(rows)), nil
}

func (r memASNs) Save(_ context.Context, a *domain.ASN) error {
	r.s.asns[a.ID] = clone(a)
	return nil
}

func (r memASNs) Delete(_ context.Context, id string) error {
	delete(r.s.asns, id)
	return nil
}

func (r memASNs) SumOutstanding(_ context.Context, goodsID, warehouseID string) (int64, error) {
	var sum int64
	for _, a := range r.s.asns {
		if a.WarehouseID != warehouseID || a.Status != domain.ASNStatusPending {
			continue
		}
		for _, d := range a.Details {
			if d.GoodsID == goodsID {
				sum += d.Quantity
			}
		}
	}
	return sum, nil
}

type memDNs struct{ s *memStore }

func (r memDNs) FindByID(_ context.Context, id string) (*domain.DN, error) {
	if d, ok := r.s.dns[id]; ok {
		return clone(d), nil
	}
	return nil, nil
}

func (r memDNs) List(_ context.Context, f domain.DocumentFilter, limit, offset int) ([]*domain.DN, error) {
	var out []*domain.DN
	for _, d := range r.s.dns {
		if (f.WarehouseID == "" || d.WarehouseID == f.WarehouseID) && (f.Status == "" || string(d.Status) == f.Status) {
			out = append(out, clone(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return page(out, limit, offset), nil
}

func (r memDNs) Count(ctx context.Context, f domain.DocumentFilter) (int64, error) {
	rows, _ := r.List(ctx, f, 0, 0)
	return int64(len(rows)), nil
}

func (r memDNs) Save(_ context.Context, d *domain.DN) error {
	r.s.dns[d.ID] = clone(d)
	return nil
}

func (r memDNs) Delete(_ context.Context, id string) error {
	delete(r.s.dns, id)
	return nil
}

func (r memDNs) SumOutstanding(_ context.Context, goodsID, warehouseID string) (int64, error) {
	var sum int64
	for _, d := range r.s.dns {
		if d.WarehouseID != warehouseID || !d.Status.IsOutstanding() {
			continue
		}
		for _, l := range d.Details {
			if l.GoodsID == goodsID {
				sum += l.Quantity
			}
		}
	}
	return sum, nil
}

type memTasks struct{ s *memStore }

func (r memTasks) FindByID(_ context.Context, t domain.TaskType, id string) (*domain.Task, error) {
	if task, ok := r.s.tasks[id]; ok && task.Type == t {
		return clone(task), nil
	}
	return nil, nil
}

func (r memTasks) FindByDocument(_ context.Context, t domain.TaskType, documentID string) (*domain.Task, error) {
	for _, task := range r.s.tasks {
		if task.Type == t && task.DocumentID == documentID {
			return clone(task), nil
		}
	}
	return nil, nil
}

func (r memTasks) Save(_ context.Context, task *domain.Task) error {
	r.s.tasks[task.ID] = clone(task)
	return nil
}

type memDeliveries struct{ s *memStore }

func (r memDeliveries) FindByID(_ context.Context, id string) (*domain.DeliveryTask, error) {
	if task, ok := r.s.deliveries[id]; ok {
		return clone(task), nil
	}
	return nil, nil
}

func (r memDeliveries) FindByDN(_ context.Context, dnID string) (*domain.DeliveryTask, error) {
	for _, task := range r.s.deliveries {
		if task.DNID == dnID {
			return clone(task), nil
		}
	}
	return nil, nil
}

func (r memDeliveries) Save(_ context.Context, task *domain.DeliveryTask) error {
	r.s.deliveries[task.ID] = clone(task)
	return nil
}

type memStatusLogs struct{ s *memStore }

func (r memStatusLogs) Append(_ context.Context, logs ...*domain.StatusLog) error {
	r.s.logs = append(r.s.logs, logs...)
	return nil
}

func (r memStatusLogs) FindByEntity(_ context.Context, t domain.EntityType, id string) ([]*domain.StatusLog, error) {
	var out []*domain.StatusLog
	for _, l := range r.s.logs {
		if l.EntityType == t && l.EntityID == id {
			out = append(out, l)
		}
	}
	return out, nil
}

type memStockMoves struct{ s *memStore }

func (r memStockMoves) SavePutaway(_ context.Context, rec *domain.PutawayRecord) error {
	r.s.putaways = append(r.s.putaways, rec)
	return nil
}

func (r memStockMoves) SaveRemoval(_ context.Context, rec *domain.RemovalRecord) error {
	r.s.removals = append(r.s.removals, rec)
	return nil
}

func matchesMove(f domain.StockMoveFilter, m domain.StockMove) bool {
	return (f.WarehouseID == "" || f.WarehouseID == m.WarehouseID) &&
		(f.GoodsID == "" || f.GoodsID == m.GoodsID) &&
		(f.LocationID == "" || f.LocationID == m.LocationID)
}

func (r memStockMoves) ListPutaways(_ context.Context, f domain.StockMoveFilter, limit, offset int) ([]*domain.PutawayRecord, error) {
	var out []*domain.PutawayRecord
	for _, rec := range r.s.putaways {
		if matchesMove(f, rec.StockMove) {
			out = append(out, rec)
		}
	}
	return page(out, limit, offset), nil
}

func (r memStockMoves) ListRemovals(_ context.Context, f domain.StockMoveFilter, limit, offset int) ([]*domain.RemovalRecord, error) {
	var out []*domain.RemovalRecord
	for _, rec := range r.s.removals {
		if matchesMove(f, rec.StockMove) {
			out = append(out, rec)
		}
	}
	return page(out, limit, offset), nil
}

type memLocationStock struct{ s *memStore }

func (r memLocationStock) Adjust(_ context.Context, goodsID string, loc *domain.Location, delta int64) (*domain.LocationStock, error) {
	k := key(goodsID, loc.ID)
	row := &domain.LocationStock{
		ID:           k,
		GoodsID:      goodsID,
		WarehouseID:  loc.WarehouseID,
		LocationID:   loc.ID,
		LocationType: loc.Type,
	}
	if existing, ok := r.s.stock[k]; ok {
		row = clone(existing)
	}
	if row.Quantity+delta < 0 {
		return nil, fmt.Errorf("%w: %s holds %d", domain.ErrInsufficientLocationStock, loc.ID, row.Quantity)
	}
	row.Quantity += delta
	row.UpdatedAt = time.Now().UTC()
	r.s.stock[k] = row
	return clone(row), nil
}

func (r memLocationStock) FindByGoods(_ context.Context, goodsID, warehouseID string) ([]domain.LocationStock, error) {
	var out []domain.LocationStock
	for _, row := range r.s.stock {
		if row.GoodsID == goodsID && row.WarehouseID == warehouseID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (r memLocationStock) ListAll(_ context.Context) ([]domain.LocationStock, error) {
	var out []domain.LocationStock
	for _, row := range r.s.stock {
		out = append(out, *row)
	}
	return out, nil
}

type memSnapshots struct{ s *memStore }

func (r memSnapshots) SaveAll(_ context.Context, rows []domain.LocationSnapshot) error {
	r.s.snapshots = append(r.s.snapshots, rows...)
	return nil
}

func (r memSnapshots) Find(_ context.Context, warehouseID string, from, to time.Time, limit int) ([]domain.LocationSnapshot, error) {
	var out []domain.LocationSnapshot
	for _, row := range r.s.snapshots {
		if row.WarehouseID == warehouseID && !row.CapturedAt.Before(from) && !row.CapturedAt.After(to) {
			out = append(out, row)
		}
	}
	return page(out, limit, 0), nil
}

type memMasterData struct{ s *memStore }

func (r memMasterData) WarehouseExists(_ context.Context, id string) (bool, error) {
	return r.s.warehouses[id], nil
}

func (r memMasterData) GoodsExists(_ context.Context, id string) (bool, error) {
	return r.s.goods[id], nil
}

func (r memMasterData) FindLocation(_ context.Context, id string) (*domain.Location, error) {
	return r.s.locations[id], nil
}

type memOutbox struct{ s *memStore }

func (r memOutbox) SaveAll(_ context.Context, events []*outbox.OutboxEvent) error {
	r.s.outbox = append(r.s.outbox, events...)
	return nil
}

func (r memOutbox) FindUnpublished(_ context.Context, limit int) ([]*outbox.OutboxEvent, error) {
	return page(r.s.outbox, limit, 0), nil
}

func (r memOutbox) MarkPublished(_ context.Context, _ string) error { return nil }

func (r memOutbox) IncrementRetry(_ context.Context, _ string, _ string) error { return nil }
