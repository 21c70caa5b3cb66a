package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/fulfillment-service/pkg/errors"
	"github.com/wms-platform/fulfillment-service/pkg/logging"
)

// HeaderOperatorID carries the identifier of the acting operator
const HeaderOperatorID = "X-Operator-ID"

// ContextKeyOperatorID is the gin context key for the operator
const ContextKeyOperatorID = "operatorId"

// OperatorConfig configures the Operator middleware
type OperatorConfig struct {
	// Required rejects mutating requests without an operator header
	Required bool
}

// Operator extracts the acting operator from X-Operator-ID. Safe methods are
// let through without one.
func Operator(config *OperatorConfig) gin.HandlerFunc {
	if config == nil {
		config = &OperatorConfig{Required: true}
	}

	return func(c *gin.Context) {
		operatorID := strings.TrimSpace(c.GetHeader(HeaderOperatorID))

		if operatorID == "" {
			if config.Required && isMutating(c.Request.Method) {
				AbortWithAppError(c, errors.ErrUnauthorized("operator identity required"))
				return
			}
			c.Next()
			return
		}

		c.Set(ContextKeyOperatorID, operatorID)
		c.Request = c.Request.WithContext(logging.ContextWithOperatorID(c.Request.Context(), operatorID))
		c.Next()
	}
}

// GetOperatorID returns the operator set by Operator, or ""
func GetOperatorID(c *gin.Context) string {
	return c.GetString(ContextKeyOperatorID)
}

func isMutating(method string) bool {
	switch method {
	case "POST", "PUT", "PATCH", "DELETE":
		return true
	}
	return false
}
