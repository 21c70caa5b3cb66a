package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/fulfillment-service/internal/application"
	"github.com/wms-platform/fulfillment-service/pkg/api"
)

// CreateASNRequest is the body of POST /asns
type CreateASNRequest struct {
	WarehouseID string              `json:"warehouseId" binding:"required,entity_id"`
	SupplierID  string              `json:"supplierId" binding:"omitempty,entity_id"`
	Remark      string              `json:"remark" binding:"max=500,safe_string"`
	Details     []DetailLineRequest `json:"details" binding:"required,min=1,dive"`
}

// UpdateASNRequest is the body of PUT /asns/:id
type UpdateASNRequest struct {
	SupplierID string `json:"supplierId" binding:"omitempty,entity_id"`
	Remark     string `json:"remark" binding:"max=500,safe_string"`
}

// CreateDNRequest is the body of POST /dns
type CreateDNRequest struct {
	WarehouseID string              `json:"warehouseId" binding:"required,entity_id"`
	CustomerID  string              `json:"customerId" binding:"omitempty,entity_id"`
	Remark      string              `json:"remark" binding:"max=500,safe_string"`
	Details     []DetailLineRequest `json:"details" binding:"required,min=1,dive"`
}

// UpdateDNRequest is the body of PUT /dns/:id
type UpdateDNRequest struct {
	CustomerID string `json:"customerId" binding:"omitempty,entity_id"`
	Remark     string `json:"remark" binding:"max=500,safe_string"`
}

// SyncDetailsRequest replaces every line of a document
type SyncDetailsRequest struct {
	Details []DetailLineRequest `json:"details" binding:"required,min=1,dive"`
}

func listDocumentsQuery(c *gin.Context, page api.PageRequest) application.ListDocumentsQuery {
	return application.ListDocumentsQuery{
		WarehouseID: c.Query("warehouseId"),
		Status:      c.Query("status"),
		Limit:       page.Limit(),
		Offset:      page.Offset(),
	}
}

// CreateASN handles POST /api/v1/asns
func (h *Handlers) CreateASN(c *gin.Context) {
	var req CreateASNRequest
	if !h.bind(c, &req) {
		return
	}
	asn, err := h.services.Inbound.CreateASN(c.Request.Context(), application.CreateASNCommand{
		WarehouseID: req.WarehouseID,
		SupplierID:  req.SupplierID,
		Remark:      req.Remark,
		Details:     toDetailLines(req.Details),
		OperatorID:  operator(c),
	})
	respond(h, c, http.StatusCreated, asn, err)
}

// ListASNs handles GET /api/v1/asns
func (h *Handlers) ListASNs(c *gin.Context) {
	page := api.ParsePagination(c)
	rows, total, err := h.services.Inbound.ListASNs(c.Request.Context(), listDocumentsQuery(c, page))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pageOf(rows, page, total))
}

// GetASN handles GET /api/v1/asns/:id
func (h *Handlers) GetASN(c *gin.Context) {
	asn, err := h.services.Inbound.GetASN(c.Request.Context(), c.Param("id"))
	respond(h, c, http.StatusOK, asn, err)
}

// UpdateASN handles PUT /api/v1/asns/:id
func (h *Handlers) UpdateASN(c *gin.Context) {
	var req UpdateASNRequest
	if !h.bind(c, &req) {
		return
	}
	asn, err := h.services.Inbound.UpdateASN(c.Request.Context(), application.UpdateASNCommand{
		ASNID: c.Param("id"), SupplierID: req.SupplierID, Remark: req.Remark, OperatorID: operator(c),
	})
	respond(h, c, http.StatusOK, asn, err)
}

// DeleteASN handles DELETE /api/v1/asns/:id
func (h *Handlers) DeleteASN(c *gin.Context) {
	err := h.services.Inbound.DeleteASN(c.Request.Context(), application.TransitionCommand{ID: c.Param("id"), OperatorID: operator(c)})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddASNDetail handles POST /api/v1/asns/:id/details
func (h *Handlers) AddASNDetail(c *gin.Context) {
	var req DetailLineRequest
	if !h.bind(c, &req) {
		return
	}
	asn, err := h.services.Inbound.AddDetail(c.Request.Context(), application.AddDetailCommand{
		DocumentID: c.Param("id"), GoodsID: req.GoodsID, Quantity: req.Quantity, OperatorID: operator(c),
	})
	respond(h, c, http.StatusCreated, asn, err)
}

// UpdateASNDetail handles PUT /api/v1/asns/:id/details/:detailId
func (h *Handlers) UpdateASNDetail(c *gin.Context) {
	var req QuantityRequest
	if !h.bind(c, &req) {
		return
	}
	asn, err := h.services.Inbound.UpdateDetail(c.Request.Context(), application.UpdateDetailCommand{
		DocumentID: c.Param("id"), DetailID: c.Param("detailId"), Quantity: req.Quantity, OperatorID: operator(c),
	})
	respond(h, c, http.StatusOK, asn, err)
}

// RemoveASNDetail handles DELETE /api/v1/asns/:id/details/:detailId
func (h *Handlers) RemoveASNDetail(c *gin.Context) {
	asn, err := h.services.Inbound.RemoveDetail(c.Request.Context(), application.RemoveDetailCommand{
		DocumentID: c.Param("id"), DetailID: c.Param("detailId"), OperatorID: operator(c),
	})
	respond(h, c, http.StatusOK, asn, err)
}

// SyncASNDetails handles PUT /api/v1/asns/:id/details
func (h *Handlers) SyncASNDetails(c *gin.Context) {
	var req SyncDetailsRequest
	if !h.bind(c, &req) {
		return
	}
	asn, err := h.services.Inbound.SyncDetails(c.Request.Context(), application.SyncDetailsCommand{
		DocumentID: c.Param("id"), Details: toDetailLines(req.Details), OperatorID: operator(c),
	})
	respond(h, c, http.StatusOK, asn, err)
}

// ASNStatusLogs handles GET /api/v1/asns/:id/status-logs
func (h *Handlers) ASNStatusLogs(c *gin.Context) {
	logs, err := h.services.Inbound.StatusLogs(c.Request.Context(), c.Param("id"))
	respond(h, c, http.StatusOK, logs, err)
}

// CreateDN handles POST /api/v1/dns
func (h *Handlers) CreateDN(c *gin.Context) {
	var req CreateDNRequest
	if !h.bind(c, &req) {
		return
	}
	dn, err := h.services.Outbound.CreateDN(c.Request.Context(), application.CreateDNCommand{
		WarehouseID: req.WarehouseID,
		CustomerID:  req.CustomerID,
		Remark:      req.Remark,
		Details:     toDetailLines(req.Details),
		OperatorID:  operator(c),
	})
	respond(h, c, http.StatusCreated, dn, err)
}

// ListDNs handles GET /api/v1/dns
func (h *Handlers) ListDNs(c *gin.Context) {
	page := api.ParsePagination(c)
	rows, total, err := h.services.Outbound.ListDNs(c.Request.Context(), listDocumentsQuery(c, page))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pageOf(rows, page, total))
}

// GetDN handles GET /api/v1/dns/:id
func (h *Handlers) GetDN(c *gin.Context) {
	dn, err := h.services.Outbound.GetDN(c.Request.Context(), c.Param("id"))
	respond(h, c, http.StatusOK, dn, err)
}

// UpdateDN handles PUT /api/v1/dns/:id
func (h *Handlers) UpdateDN(c *gin.Context) {
	var req UpdateDNRequest
	if !h.bind(c, &req) {
		return
	}
	dn, err := h.services.Outbound.UpdateDN(c.Request.Context(), application.UpdateDNCommand{
		DNID: c.Param("id"), CustomerID: req.CustomerID, Remark: req.Remark, OperatorID: operator(c),
	})
	respond(h, c, http.StatusOK, dn, err)
}

// DeleteDN handles DELETE /api/v1/dns/:id
func (h *Handlers) DeleteDN(c *gin.Context) {
	err := h.services.Outbound.DeleteDN(c.Request.Context(), application.TransitionCommand{ID: c.Param("id"), OperatorID: operator(c)})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddDNDetail handles POST /api/v1/dns/:id/details
func (h *Handlers) AddDNDetail(c *gin.Context) {
	var req DetailLineRequest
	if !h.bind(c, &req) {
		return
	}
	dn, err := h.services.Outbound.AddDetail(c.Request.Context(), application.AddDetailCommand{
		DocumentID: c.Param("id"), GoodsID: req.GoodsID, Quantity: req.Quantity, OperatorID: operator(c),
	})
	respond(h, c, http.StatusCreated, dn, err)
}

// UpdateDNDetail handles PUT /api/v1/dns/:id/details/:detailId
func (h *Handlers) UpdateDNDetail(c *gin.Context) {
	var req QuantityRequest
	if !h.bind(c, &req) {
		return
	}
	dn, err := h.services.Outbound.UpdateDetail(c.Request.Context(), application.UpdateDetailCommand{
		DocumentID: c.Param("id"), DetailID: c.Param("detailId"), Quantity: req.Quantity, OperatorID: operator(c),
	})
	respond(h, c, http.StatusOK, dn, err)
}

// RemoveDNDetail handles DELETE /api/v1/dns/:id/details/:detailId
func (h *Handlers) RemoveDNDetail(c *gin.Context) {
	dn, err := h.services.Outbound.RemoveDetail(c.Request.Context(), application.RemoveDetailCommand{
		DocumentID: c.Param("id"), DetailID: c.Param("detailId"), OperatorID: operator(c),
	})
	respond(h, c, http.StatusOK, dn, err)
}

// SyncDNDetails handles PUT /api/v1/dns/:id/details
func (h *Handlers) SyncDNDetails(c *gin.Context) {
	var req SyncDetailsRequest
	if !h.bind(c, &req) {
		return
	}
	dn, err := h.services.Outbound.SyncDetails(c.Request.Context(), application.SyncDetailsCommand{
		DocumentID: c.Param("id"), Details: toDetailLines(req.Details), OperatorID: operator(c),
	})
	respond(h, c, http.StatusOK, dn, err)
}

// DNStatusLogs handles GET /api/v1/dns/:id/status-logs
func (h *Handlers) DNStatusLogs(c *gin.Context) {
	logs, err := h.services.Outbound.StatusLogs(c.Request.Context(), c.Param("id"))
	respond(h, c, http.StatusOK, logs, err)
}
