package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/fulfillment-service/internal/application"
	"github.com/wms-platform/fulfillment-service/pkg/api"
	"github.com/wms-platform/fulfillment-service/pkg/errors"
	"github.com/wms-platform/fulfillment-service/pkg/logging"
	"github.com/wms-platform/fulfillment-service/pkg/middleware"
)

// Handlers holds the HTTP handlers of the fulfillment service
type Handlers struct {
	services *application.Services
	logger   *logging.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services *application.Services, logger *logging.Logger) *Handlers {
	return &Handlers{services: services, logger: logger.WithComponent("http")}
}

func (h *Handlers) fail(c *gin.Context, err error) {
	middleware.NewErrorResponder(c, h.logger).RespondWithError(err)
}

// bind decodes and validates the body, writing the error response itself
func (h *Handlers) bind(c *gin.Context, req interface{}) bool {
	if appErr := middleware.BindAndValidate(c, req); appErr != nil {
		middleware.NewErrorResponder(c, h.logger).RespondWithAppError(appErr)
		return false
	}
	return true
}

// respond writes result, or the error when err is set
func respond[T any](h *Handlers, c *gin.Context, status int, result T, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(status, result)
}

func operator(c *gin.Context) string {
	return middleware.GetOperatorID(c)
}

// transition adapts a TransitionCommand operation on the :id path parameter
func transition[T any](h *Handlers, fn func(ctx context.Context, cmd application.TransitionCommand) (T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := fn(c.Request.Context(), application.TransitionCommand{ID: c.Param("id"), OperatorID: operator(c)})
		respond(h, c, http.StatusOK, result, err)
	}
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.ErrBadRequest(key + " must be a non-negative integer")
	}
	return n, nil
}

func pageOf[T any](rows []T, page api.PageRequest, total int64) api.PageResponse[T] {
	return api.NewPageResponse(rows, page.Page, page.PageSize, total)
}

// DetailLineRequest is one goods line of a document request
type DetailLineRequest struct {
	GoodsID  string `json:"goodsId" binding:"required,entity_id"`
	Quantity int64  `json:"quantity" binding:"quantity"`
}

func toDetailLines(lines []DetailLineRequest) []application.DetailLineCommand {
	out := make([]application.DetailLineCommand, len(lines))
	for i, l := range lines {
		out[i] = application.DetailLineCommand{GoodsID: l.GoodsID, Quantity: l.Quantity}
	}
	return out
}
