package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/fulfillment-service/internal/application"
	"github.com/wms-platform/fulfillment-service/pkg/api"
	"github.com/wms-platform/fulfillment-service/pkg/errors"
)

// QuantityRequest carries a positive quantity
type QuantityRequest struct {
	Quantity int64 `json:"quantity" binding:"quantity"`
}

// ThresholdsRequest sets either threshold; -1 disables one
type ThresholdsRequest struct {
	Low  *int64 `json:"lowStockThreshold" binding:"omitempty,threshold"`
	High *int64 `json:"highStockThreshold" binding:"omitempty,threshold"`
}

func inventoryKey(c *gin.Context) application.GetInventoryQuery {
	return application.GetInventoryQuery{GoodsID: c.Param("goodsId"), WarehouseID: c.Param("warehouseId")}
}

// ListInventory handles GET /api/v1/inventory?warehouseId=
func (h *Handlers) ListInventory(c *gin.Context) {
	warehouseID := c.Query("warehouseId")
	if warehouseID == "" {
		h.fail(c, errors.ErrBadRequest("warehouseId is required"))
		return
	}
	page := api.ParsePagination(c)
	rows, total, err := h.services.Ledger.ListInventory(c.Request.Context(), application.ListInventoryQuery{
		WarehouseID: warehouseID,
		Limit:       page.Limit(),
		Offset:      page.Offset(),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pageOf(rows, page, total))
}

// GetInventory handles GET /api/v1/inventory/:goodsId/:warehouseId
func (h *Handlers) GetInventory(c *gin.Context) {
	inv, err := h.services.Ledger.GetInventory(c.Request.Context(), inventoryKey(c))
	respond(h, c, http.StatusOK, inv, err)
}

// LockInventory handles POST /api/v1/inventory/:goodsId/:warehouseId/lock
func (h *Handlers) LockInventory(c *gin.Context) {
	var req QuantityRequest
	if !h.bind(c, &req) {
		return
	}
	key := inventoryKey(c)
	inv, err := h.services.Ledger.Lock(c.Request.Context(), application.LockCommand{
		GoodsID: key.GoodsID, WarehouseID: key.WarehouseID, Quantity: req.Quantity, OperatorID: operator(c),
	})
	respond(h, c, http.StatusOK, inv, err)
}

// UnlockInventory handles POST /api/v1/inventory/:goodsId/:warehouseId/unlock
func (h *Handlers) UnlockInventory(c *gin.Context) {
	var req QuantityRequest
	if !h.bind(c, &req) {
		return
	}
	key := inventoryKey(c)
	inv, err := h.services.Ledger.Unlock(c.Request.Context(), application.LockCommand{
		GoodsID: key.GoodsID, WarehouseID: key.WarehouseID, Quantity: req.Quantity, OperatorID: operator(c),
	})
	respond(h, c, http.StatusOK, inv, err)
}

// SetThresholds handles PUT /api/v1/inventory/:goodsId/:warehouseId/thresholds
func (h *Handlers) SetThresholds(c *gin.Context) {
	var req ThresholdsRequest
	if !h.bind(c, &req) {
		return
	}
	if req.Low == nil && req.High == nil {
		h.fail(c, errors.ErrBadRequest("lowStockThreshold or highStockThreshold is required"))
		return
	}
	key := inventoryKey(c)
	inv, err := h.services.Ledger.SetThresholds(c.Request.Context(), application.SetThresholdsCommand{
		GoodsID: key.GoodsID, WarehouseID: key.WarehouseID, Low: req.Low, High: req.High, OperatorID: operator(c),
	})
	respond(h, c, http.StatusOK, inv, err)
}

// CheckThresholds handles GET /api/v1/inventory/:goodsId/:warehouseId/thresholds/check
func (h *Handlers) CheckThresholds(c *gin.Context) {
	status, err := h.services.Ledger.CheckThresholds(c.Request.Context(), inventoryKey(c))
	respond(h, c, http.StatusOK, status, err)
}

// RecomputeInventory handles POST /api/v1/inventory/:goodsId/:warehouseId/recompute
func (h *Handlers) RecomputeInventory(c *gin.Context) {
	key := inventoryKey(c)
	inv, err := h.services.Ledger.Recompute(c.Request.Context(), application.RecomputeCommand{
		GoodsID: key.GoodsID, WarehouseID: key.WarehouseID, OperatorID: operator(c),
	})
	respond(h, c, http.StatusOK, inv, err)
}

// ListLocationStock handles GET /api/v1/inventory/:goodsId/:warehouseId/locations
func (h *Handlers) ListLocationStock(c *gin.Context) {
	key := inventoryKey(c)
	rows, err := h.services.StockMoves.LocationStock(c.Request.Context(), key.GoodsID, key.WarehouseID)
	respond(h, c, http.StatusOK, rows, err)
}
