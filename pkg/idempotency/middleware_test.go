package idempotency

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wms-platform/fulfillment-service/pkg/errors"
)

// mockKeyRepository is a mock implementation of KeyRepository for testing
type mockKeyRepository struct {
	acquireLockFunc   func(ctx context.Context, key *IdempotencyKey) (*IdempotencyKey, bool, error)
	storeResponseFunc func(ctx context.Context, keyID string, responseCode int, responseBody []byte, headers map[string]string) error
	released          []string
}

func (m *mockKeyRepository) AcquireLock(ctx context.Context, key *IdempotencyKey) (*IdempotencyKey, bool, error) {
	if m.acquireLockFunc != nil {
		return m.acquireLockFunc(ctx, key)
	}
	key.ID = primitive.NewObjectID()
	return key, true, nil
}

func (m *mockKeyRepository) ReleaseLock(_ context.Context, keyID string) error {
	m.released = append(m.released, keyID)
	return nil
}

func (m *mockKeyRepository) StoreResponse(ctx context.Context, keyID string, responseCode int, responseBody []byte, headers map[string]string) error {
	if m.storeResponseFunc != nil {
		return m.storeResponseFunc(ctx, keyID, responseCode, responseBody, headers)
	}
	return nil
}

func (m *mockKeyRepository) EnsureIndexes(context.Context) error {
	return nil
}

const testBody = `{"goodsId":"g-1","quantity":5}`

func testConfig(repo KeyRepository) *Config {
	return DefaultConfig("test-service", repo)
}

// newRouter renders errors attached by the middleware the way the service's
// error handler does
func newRouter(config *Config, status int, calls *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Next()
		if len(c.Errors) > 0 && !c.Writer.Written() {
			appErr := errors.FromError(c.Errors.Last().Err)
			c.JSON(appErr.HTTPStatus, gin.H{"code": appErr.Code})
		}
	})
	router.Use(Middleware(config))
	handler := func(c *gin.Context) {
		*calls++
		c.JSON(status, gin.H{"call": *calls})
	}
	router.POST("/test", handler)
	router.GET("/test", handler)
	return router
}

func send(router *gin.Engine, method, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/test", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Code
}

func TestMiddleware_NoKey_Optional(t *testing.T) {
	repo := &mockKeyRepository{acquireLockFunc: func(context.Context, *IdempotencyKey) (*IdempotencyKey, bool, error) {
		t.Fatal("no key must not touch storage")
		return nil, false, nil
	}}
	calls := 0
	router := newRouter(testConfig(repo), http.StatusCreated, &calls)

	w := send(router, http.MethodPost, "", testBody)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, calls)
}

func TestMiddleware_KeyValidation(t *testing.T) {
	tests := []struct {
		name       string
		requireKey bool
		key        string
		code       string
	}{
		{"missing when required", true, "", CodeKeyRequired},
		{"bad characters", false, "key with spaces!", CodeKeyInvalid},
		{"too long", false, string(bytes.Repeat([]byte("a"), DefaultMaxKeyLength+1)), CodeKeyInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := testConfig(&mockKeyRepository{})
			config.RequireKey = tt.requireKey
			calls := 0
			router := newRouter(config, http.StatusCreated, &calls)

			w := send(router, http.MethodPost, tt.key, testBody)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
			assert.Zero(t, calls)
		})
	}
}

func TestMiddleware_SafeMethodsSkipped(t *testing.T) {
	repo := &mockKeyRepository{acquireLockFunc: func(context.Context, *IdempotencyKey) (*IdempotencyKey, bool, error) {
		t.Fatal("GET must not touch storage")
		return nil, false, nil
	}}
	calls := 0
	router := newRouter(testConfig(repo), http.StatusOK, &calls)

	w := send(router, http.MethodGet, "key-1", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, calls)
}

func TestMiddleware_StoresFirstResponse(t *testing.T) {
	var storedCode int
	var storedBody []byte
	repo := &mockKeyRepository{
		storeResponseFunc: func(_ context.Context, _ string, code int, body []byte, _ map[string]string) error {
			storedCode = code
			storedBody = append([]byte(nil), body...)
			return nil
		},
	}
	calls := 0
	router := newRouter(testConfig(repo), http.StatusCreated, &calls)

	w := send(router, http.MethodPost, "key-1", testBody)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusCreated, storedCode)
	assert.JSONEq(t, w.Body.String(), string(storedBody))
	assert.Empty(t, repo.released)
}

func TestMiddleware_ReplaysCompletedResponse(t *testing.T) {
	completed := time.Now().UTC()
	repo := &mockKeyRepository{
		acquireLockFunc: func(_ context.Context, key *IdempotencyKey) (*IdempotencyKey, bool, error) {
			return &IdempotencyKey{
				ID:                 primitive.NewObjectID(),
				Key:                key.Key,
				RequestFingerprint: ComputeFingerprint(http.MethodPost, "/test", []byte(testBody)),
				ResponseCode:       http.StatusCreated,
				ResponseBody:       []byte(`{"call":1}`),
				ResponseHeaders:    map[string]string{"Content-Type": "application/json", "X-Request-Id": "first"},
				CompletedAt:        &completed,
			}, false, nil
		},
	}
	calls := 0
	router := newRouter(testConfig(repo), http.StatusCreated, &calls)

	w := send(router, http.MethodPost, "key-1", testBody)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"call":1}`, w.Body.String())
	assert.Equal(t, "true", w.Header().Get(HeaderReplayed))
	assert.Empty(t, w.Header().Get("X-Request-Id"))
	assert.Zero(t, calls)
}

func TestMiddleware_ParameterMismatch(t *testing.T) {
	completed := time.Now().UTC()
	repo := &mockKeyRepository{
		acquireLockFunc: func(_ context.Context, key *IdempotencyKey) (*IdempotencyKey, bool, error) {
			return &IdempotencyKey{
				ID:                 primitive.NewObjectID(),
				RequestFingerprint: ComputeFingerprint(http.MethodPost, "/test", []byte(`{"goodsId":"g-1","quantity":7}`)),
				ResponseCode:       http.StatusCreated,
				CompletedAt:        &completed,
			}, false, nil
		},
	}
	calls := 0
	router := newRouter(testConfig(repo), http.StatusCreated, &calls)

	w := send(router, http.MethodPost, "key-1", testBody)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, CodeParameterMismatch, errorCode(t, w))
	assert.Zero(t, calls)
}

func TestMiddleware_LockedKey(t *testing.T) {
	tests := []struct {
		name     string
		lockAge  time.Duration
		wantCode int
		calls    int
	}{
		{"in flight", time.Second, http.StatusConflict, 0},
		{"stale lock", DefaultLockTimeout + time.Minute, http.StatusCreated, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lockedAt := time.Now().UTC().Add(-tt.lockAge)
			repo := &mockKeyRepository{
				acquireLockFunc: func(_ context.Context, key *IdempotencyKey) (*IdempotencyKey, bool, error) {
					return &IdempotencyKey{
						ID:                 primitive.NewObjectID(),
						RequestFingerprint: key.RequestFingerprint,
						LockedAt:           &lockedAt,
					}, false, nil
				},
			}
			calls := 0
			router := newRouter(testConfig(repo), http.StatusCreated, &calls)

			w := send(router, http.MethodPost, "key-1", testBody)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.calls, calls)
		})
	}
}

func TestMiddleware_ServerErrorReleasesKey(t *testing.T) {
	repo := &mockKeyRepository{
		storeResponseFunc: func(context.Context, string, int, []byte, map[string]string) error {
			t.Fatal("a failed request must not be cached")
			return nil
		},
	}
	calls := 0
	router := newRouter(testConfig(repo), http.StatusInternalServerError, &calls)

	w := send(router, http.MethodPost, "key-1", testBody)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Len(t, repo.released, 1)
}

func TestMiddleware_StorageFailure(t *testing.T) {
	repo := &mockKeyRepository{
		acquireLockFunc: func(context.Context, *IdempotencyKey) (*IdempotencyKey, bool, error) {
			return nil, false, context.DeadlineExceeded
		},
	}
	calls := 0
	router := newRouter(testConfig(repo), http.StatusCreated, &calls)

	w := send(router, http.MethodPost, "key-1", testBody)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, CodeStorageUnavailable, errorCode(t, w))
	assert.Zero(t, calls)
}

func TestComputeFingerprint(t *testing.T) {
	body := []byte(testBody)

	assert.Equal(t, ComputeFingerprint("POST", "/a", body), ComputeFingerprint("POST", "/a", body))
	assert.NotEqual(t, ComputeFingerprint("POST", "/a", body), ComputeFingerprint("POST", "/b", body))
	assert.NotEqual(t, ComputeFingerprint("POST", "/a", body), ComputeFingerprint("POST", "/a", []byte(`{}`)))
}
