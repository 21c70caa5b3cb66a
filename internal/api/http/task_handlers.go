package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/fulfillment-service/internal/application"
	"github.com/wms-platform/fulfillment-service/pkg/api"
	"github.com/wms-platform/fulfillment-service/pkg/errors"
)

// AddBatchRequest is the body of POST /:id/batches
type AddBatchRequest struct {
	Remark string `json:"remark" binding:"max=500,safe_string"`
}

// TaskDetailRequest records goods against a batch. Sorting details may carry
// a damaged quantity; picking details name the source location.
type TaskDetailRequest struct {
	GoodsID        string `json:"goodsId" binding:"required,entity_id"`
	LocationID     string `json:"locationId" binding:"omitempty,entity_id"`
	Quantity       int64  `json:"quantity" binding:"gte=0"`
	DamageQuantity int64  `json:"damageQuantity" binding:"gte=0"`
}

// taskHandlers serves one task type
type taskHandlers struct {
	*Handlers
	tasks *application.TaskService
}

func (t taskHandlers) get(c *gin.Context) {
	task, err := t.tasks.GetTask(c.Request.Context(), c.Param("id"))
	respond(t.Handlers, c, http.StatusOK, task, err)
}

// documentTask serves the task generated for an ASN or DN
func documentTask(h *Handlers, tasks *application.TaskService) gin.HandlerFunc {
	return func(c *gin.Context) {
		task, err := tasks.GetTaskByDocument(c.Request.Context(), c.Param("id"))
		respond(h, c, http.StatusOK, task, err)
	}
}

func (t taskHandlers) statusLogs(c *gin.Context) {
	logs, err := t.tasks.StatusLogs(c.Request.Context(), c.Param("id"))
	respond(t.Handlers, c, http.StatusOK, logs, err)
}

func (t taskHandlers) addBatch(c *gin.Context) {
	var req AddBatchRequest
	if !t.bind(c, &req) {
		return
	}
	task, err := t.tasks.AddBatch(c.Request.Context(), application.AddBatchCommand{
		TaskID: c.Param("id"), Remark: req.Remark, OperatorID: operator(c),
	})
	respond(t.Handlers, c, http.StatusCreated, task, err)
}

func (t taskHandlers) removeBatch(c *gin.Context) {
	task, err := t.tasks.RemoveBatch(c.Request.Context(), application.RemoveBatchCommand{
		TaskID: c.Param("id"), BatchID: c.Param("batchId"), OperatorID: operator(c),
	})
	respond(t.Handlers, c, http.StatusOK, task, err)
}

func (t taskHandlers) detailCommand(c *gin.Context) (application.TaskDetailCommand, bool) {
	var req TaskDetailRequest
	if !t.bind(c, &req) {
		return application.TaskDetailCommand{}, false
	}
	return application.TaskDetailCommand{
		TaskID:         c.Param("id"),
		BatchID:        c.Param("batchId"),
		DetailID:       c.Param("detailId"),
		GoodsID:        req.GoodsID,
		LocationID:     req.LocationID,
		Quantity:       req.Quantity,
		DamageQuantity: req.DamageQuantity,
		OperatorID:     operator(c),
	}, true
}

func (t taskHandlers) addDetail(c *gin.Context) {
	cmd, ok := t.detailCommand(c)
	if !ok {
		return
	}
	task, err := t.tasks.AddDetail(c.Request.Context(), cmd)
	respond(t.Handlers, c, http.StatusCreated, task, err)
}

func (t taskHandlers) updateDetail(c *gin.Context) {
	cmd, ok := t.detailCommand(c)
	if !ok {
		return
	}
	task, err := t.tasks.UpdateDetail(c.Request.Context(), cmd)
	respond(t.Handlers, c, http.StatusOK, task, err)
}

func (t taskHandlers) removeDetail(c *gin.Context) {
	task, err := t.tasks.RemoveDetail(c.Request.Context(), application.RemoveTaskDetailCommand{
		TaskID: c.Param("id"), DetailID: c.Param("detailId"), OperatorID: operator(c),
	})
	respond(t.Handlers, c, http.StatusOK, task, err)
}

// ShippingRequest is the body of PUT /delivery-tasks/:id/shipping
type ShippingRequest struct {
	CarrierID       string `json:"carrierId" binding:"omitempty,carrier_code"`
	TrackingNumber  string `json:"trackingNumber" binding:"omitempty,max=64,safe_string"`
	RecipientID     string `json:"recipientId" binding:"omitempty,entity_id"`
	ShippingAddress string `json:"shippingAddress" binding:"max=500,safe_string"`
}

// SignRequest is the body of POST /delivery-tasks/:id/sign
type SignRequest struct {
	SignedBy string `json:"signedBy" binding:"required,max=128,safe_string"`
}

// GetDeliveryTask handles GET /api/v1/delivery-tasks/:id
func (h *Handlers) GetDeliveryTask(c *gin.Context) {
	task, err := h.services.Deliveries.GetDeliveryTask(c.Request.Context(), c.Param("id"))
	respond(h, c, http.StatusOK, task, err)
}

// GetDNDeliveryTask handles GET /api/v1/dns/:id/delivery-task
func (h *Handlers) GetDNDeliveryTask(c *gin.Context) {
	task, err := h.services.Deliveries.GetDeliveryTaskByDN(c.Request.Context(), c.Param("id"))
	respond(h, c, http.StatusOK, task, err)
}

// DeliveryStatusLogs handles GET /api/v1/delivery-tasks/:id/status-logs
func (h *Handlers) DeliveryStatusLogs(c *gin.Context) {
	logs, err := h.services.Deliveries.StatusLogs(c.Request.Context(), c.Param("id"))
	respond(h, c, http.StatusOK, logs, err)
}

// UpdateShipping handles PUT /api/v1/delivery-tasks/:id/shipping
func (h *Handlers) UpdateShipping(c *gin.Context) {
	var req ShippingRequest
	if !h.bind(c, &req) {
		return
	}
	task, err := h.services.Deliveries.UpdateShipping(c.Request.Context(), application.UpdateShippingCommand{
		TaskID:          c.Param("id"),
		CarrierID:       req.CarrierID,
		TrackingNumber:  req.TrackingNumber,
		RecipientID:     req.RecipientID,
		ShippingAddress: req.ShippingAddress,
		OperatorID:      operator(c),
	})
	respond(h, c, http.StatusOK, task, err)
}

// SignDelivery handles POST /api/v1/delivery-tasks/:id/sign
func (h *Handlers) SignDelivery(c *gin.Context) {
	var req SignRequest
	if !h.bind(c, &req) {
		return
	}
	task, err := h.services.Deliveries.Sign(c.Request.Context(), application.SignDeliveryCommand{
		TaskID: c.Param("id"), SignedBy: req.SignedBy, OperatorID: operator(c),
	})
	respond(h, c, http.StatusOK, task, err)
}

// StockMoveRequest is the body of POST /putaways and POST /removals
type StockMoveRequest struct {
	GoodsID     string `json:"goodsId" binding:"required,entity_id"`
	WarehouseID string `json:"warehouseId" binding:"required,entity_id"`
	LocationID  string `json:"locationId" binding:"required,entity_id"`
	Quantity    int64  `json:"quantity" binding:"quantity"`
	Reason      string `json:"reason" binding:"max=200,safe_string"`
}

func (h *Handlers) stockMove(c *gin.Context, fn func(*gin.Context, application.StockMoveCommand) (*application.StockMoveDTO, error)) {
	var req StockMoveRequest
	if !h.bind(c, &req) {
		return
	}
	record, err := fn(c, application.StockMoveCommand{
		GoodsID:     req.GoodsID,
		WarehouseID: req.WarehouseID,
		LocationID:  req.LocationID,
		Quantity:    req.Quantity,
		Reason:      req.Reason,
		OperatorID:  operator(c),
	})
	respond(h, c, http.StatusCreated, record, err)
}

// CreatePutaway handles POST /api/v1/putaways
func (h *Handlers) CreatePutaway(c *gin.Context) {
	h.stockMove(c, func(c *gin.Context, cmd application.StockMoveCommand) (*application.StockMoveDTO, error) {
		return h.services.StockMoves.Putaway(c.Request.Context(), cmd)
	})
}

// CreateRemoval handles POST /api/v1/removals
func (h *Handlers) CreateRemoval(c *gin.Context) {
	h.stockMove(c, func(c *gin.Context, cmd application.StockMoveCommand) (*application.StockMoveDTO, error) {
		return h.services.StockMoves.Removal(c.Request.Context(), cmd)
	})
}

func stockMovesQuery(c *gin.Context, page api.PageRequest) application.ListStockMovesQuery {
	return application.ListStockMovesQuery{
		WarehouseID: c.Query("warehouseId"),
		GoodsID:     c.Query("goodsId"),
		LocationID:  c.Query("locationId"),
		Limit:       page.Limit(),
		Offset:      page.Offset(),
	}
}

// ListPutaways handles GET /api/v1/putaways
func (h *Handlers) ListPutaways(c *gin.Context) {
	rows, err := h.services.StockMoves.ListPutaways(c.Request.Context(), stockMovesQuery(c, api.ParsePagination(c)))
	respond(h, c, http.StatusOK, rows, err)
}

// ListRemovals handles GET /api/v1/removals
func (h *Handlers) ListRemovals(c *gin.Context) {
	rows, err := h.services.StockMoves.ListRemovals(c.Request.Context(), stockMovesQuery(c, api.ParsePagination(c)))
	respond(h, c, http.StatusOK, rows, err)
}

// ListSnapshots handles GET /api/v1/snapshots?warehouseId=&from=&to=&limit=
func (h *Handlers) ListSnapshots(c *gin.Context) {
	query := application.ListSnapshotsQuery{WarehouseID: c.Query("warehouseId")}
	if query.WarehouseID == "" {
		h.fail(c, errors.ErrBadRequest("warehouseId is required"))
		return
	}
	for key, dst := range map[string]*time.Time{"from": &query.From, "to": &query.To} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.fail(c, errors.ErrBadRequest(key+" must be an RFC3339 timestamp"))
			return
		}
		*dst = t
	}
	limit, err := queryInt(c, "limit", 500)
	if err != nil {
		h.fail(c, err)
		return
	}
	query.Limit = limit

	rows, err := h.services.Snapshots.List(c.Request.Context(), query)
	respond(h, c, http.StatusOK, rows, err)
}
