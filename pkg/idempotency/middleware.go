package idempotency

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/fulfillment-service/pkg/errors"
)

const (
	// HeaderIdempotencyKey is the HTTP header name for the idempotency key
	HeaderIdempotencyKey = "Idempotency-Key"

	// HeaderReplayed is set on responses served from the cache
	HeaderReplayed = "Idempotent-Replayed"

	CodeKeyRequired        = "IDEMPOTENCY_KEY_REQUIRED"
	CodeKeyInvalid         = "IDEMPOTENCY_KEY_INVALID"
	CodeParameterMismatch  = "IDEMPOTENCY_PARAMETER_MISMATCH"
	CodeConcurrentRequest  = "IDEMPOTENCY_CONCURRENT_REQUEST"
	CodeStorageUnavailable = "IDEMPOTENCY_STORAGE_UNAVAILABLE"
)

// per-request headers that must not be replayed from the first response
var skipReplayHeaders = map[string]bool{
	http.CanonicalHeaderKey("X-Request-ID"):     true,
	http.CanonicalHeaderKey("X-Correlation-ID"): true,
	http.CanonicalHeaderKey("Content-Length"):   true,
}

// responseWriter captures the body written by downstream handlers
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Middleware deduplicates mutating requests carrying an Idempotency-Key.
// The first request runs; later requests with the same key and body get the
// stored response. Errors are attached with c.Error so the error handler
// renders them.
func Middleware(config *Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if config.OnlyMutating && !isMutatingMethod(c.Request.Method) {
			c.Next()
			return
		}

		key := NormalizeKey(c.GetHeader(HeaderIdempotencyKey))
		if key == "" {
			if config.RequireKey {
				abort(c, errors.NewAppError(CodeKeyRequired, "Idempotency-Key header is required for this operation", http.StatusBadRequest))
				return
			}
			c.Next()
			return
		}

		if err := ValidateKeyWithMaxLength(key, config.MaxKeyLength); err != nil {
			abort(c, errors.NewAppError(CodeKeyInvalid, fmt.Sprintf("Invalid idempotency key: %v", err), http.StatusBadRequest))
			return
		}

		var userID string
		if config.UserIDExtractor != nil {
			userID = config.UserIDExtractor(c)
		}

		var body []byte
		if c.Request.Body != nil {
			body, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		process(c, config, key, userID, ComputeFingerprint(c.Request.Method, c.Request.URL.Path, body))
	}
}

func process(c *gin.Context, config *Config, key, userID, fingerprint string) {
	ctx := c.Request.Context()
	logger := config.logger().WithContext(ctx).WithFields(map[string]any{
		"idempotency_key": key,
		"path":            c.Request.URL.Path,
	})
	now := time.Now().UTC()

	stored, isNew, err := config.Repository.AcquireLock(ctx, &IdempotencyKey{
		Key:                key,
		UserID:             userID,
		ServiceID:          config.ServiceName,
		RequestPath:        c.Request.URL.Path,
		RequestMethod:      c.Request.Method,
		RequestFingerprint: fingerprint,
		CreatedAt:          now,
		ExpiresAt:          now.Add(config.RetentionPeriod),
	})
	if err != nil {
		logger.WithError(err).Error("Failed to acquire idempotency lock")
		record(c, config, "storage_error")
		abort(c, errors.NewAppError(CodeStorageUnavailable, "Idempotency storage is temporarily unavailable", http.StatusServiceUnavailable).Wrap(err))
		return
	}

	if !isNew {
		if stored.RequestFingerprint != fingerprint {
			logger.Warn("Idempotency parameter mismatch")
			record(c, config, "mismatch")
			abort(c, errors.NewAppError(CodeParameterMismatch, "Request parameters differ from original request with this idempotency key", http.StatusUnprocessableEntity))
			return
		}

		if stored.IsCompleted() {
			logger.Info("Idempotency cache hit", "status", stored.ResponseCode)
			record(c, config, "hit")
			replay(c, stored)
			return
		}

		if stored.IsLocked() && time.Since(*stored.LockedAt) < config.LockTimeout {
			logger.Warn("Concurrent idempotency request")
			record(c, config, "conflict")
			abort(c, errors.NewAppError(CodeConcurrentRequest, "A request with this idempotency key is currently being processed", http.StatusConflict))
			return
		}
		logger.Info("Reusing released or stale idempotency key")
	}

	record(c, config, "miss")
	keyID := stored.ID.Hex()

	writer := &responseWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
	c.Writer = writer

	c.Next()

	// nothing was applied: let a retry run again
	if !writer.Written() || writer.Status() >= http.StatusInternalServerError {
		if err := config.Repository.ReleaseLock(ctx, keyID); err != nil {
			logger.WithError(err).Error("Failed to release idempotency lock")
			record(c, config, "storage_error")
		}
		return
	}

	responseBody := writer.body.Bytes()
	if len(responseBody) > config.MaxResponseSize {
		logger.Warn("Response too large to cache", "size", len(responseBody))
		responseBody = []byte(fmt.Sprintf(`{"error":"Response too large to cache","size":%d}`, len(responseBody)))
	}

	if err := config.Repository.StoreResponse(ctx, keyID, writer.Status(), responseBody, responseHeaders(writer)); err != nil {
		logger.WithError(err).Error("Failed to store idempotency response")
		record(c, config, "storage_error")
	}
}

func replay(c *gin.Context, stored *IdempotencyKey) {
	contentType := "application/json; charset=utf-8"
	for k, v := range stored.ResponseHeaders {
		if k == "Content-Type" {
			contentType = v
			continue
		}
		if skipReplayHeaders[k] {
			continue
		}
		c.Header(k, v)
	}
	c.Header(HeaderReplayed, "true")
	c.Data(stored.ResponseCode, contentType, stored.ResponseBody)
	c.Abort()
}

func abort(c *gin.Context, appErr *errors.AppError) {
	_ = c.Error(appErr)
	c.Abort()
}

func record(c *gin.Context, config *Config, outcome string) {
	if config.Metrics == nil {
		return
	}
	path := c.FullPath()
	if path == "" {
		path = "unmatched"
	}
	config.Metrics.RecordIdempotency(c.Request.Method, path, outcome)
}

func isMutatingMethod(method string) bool {
	return method == http.MethodPost ||
		method == http.MethodPut ||
		method == http.MethodPatch ||
		method == http.MethodDelete
}

func responseHeaders(w gin.ResponseWriter) map[string]string {
	headers := make(map[string]string)
	for k, v := range w.Header() {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}
	return headers
}
