package idempotency

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/fulfillment-service/pkg/logging"
	"github.com/wms-platform/fulfillment-service/pkg/metrics"
)

const (
	// DefaultMaxKeyLength is the maximum length for an idempotency key
	DefaultMaxKeyLength = 255

	// DefaultLockTimeout is how long an unfinished request holds its key
	DefaultLockTimeout = 5 * time.Minute

	// DefaultRetentionPeriod is how long completed responses are replayed
	DefaultRetentionPeriod = 24 * time.Hour

	// DefaultMaxResponseSize is the largest response body that is cached (1MB)
	DefaultMaxResponseSize = 1 * 1024 * 1024
)

// Config holds configuration for the idempotency middleware
type Config struct {
	// ServiceName scopes keys to one service
	ServiceName string

	// Repository is the storage backend for idempotency keys
	Repository KeyRepository

	Logger  *logging.Logger
	Metrics *metrics.Metrics

	// RequireKey rejects mutating requests that carry no Idempotency-Key.
	// When false such requests proceed without deduplication.
	RequireKey bool

	// OnlyMutating skips GET, HEAD and OPTIONS requests
	OnlyMutating bool

	// UserIDExtractor scopes keys per caller, e.g. per operator
	UserIDExtractor func(*gin.Context) string

	MaxKeyLength    int
	LockTimeout     time.Duration
	RetentionPeriod time.Duration

	// MaxResponseSize caps the cached body; larger bodies are replaced by a marker
	MaxResponseSize int
}

// DefaultConfig returns a default configuration for the given service
func DefaultConfig(serviceName string, repository KeyRepository) *Config {
	return &Config{
		ServiceName:     serviceName,
		Repository:      repository,
		RequireKey:      false,
		OnlyMutating:    true,
		MaxKeyLength:    DefaultMaxKeyLength,
		LockTimeout:     DefaultLockTimeout,
		RetentionPeriod: DefaultRetentionPeriod,
		MaxResponseSize: DefaultMaxResponseSize,
	}
}

func (c *Config) logger() *logging.Logger {
	if c.Logger == nil {
		return logging.NewNop()
	}
	return c.Logger
}
