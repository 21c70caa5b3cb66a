package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLevel(" warn "))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}

func TestLogger_BaseAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: LevelInfo, ServiceName: "fulfillment", Environment: "test", Version: "1.2.3", Output: &buf})

	logger.Info("hello", "asnId", "a-1")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "fulfillment", entry["service"])
	assert.Equal(t, "test", entry["environment"])
	assert.Equal(t, "1.2.3", entry["version"])
	assert.Equal(t, "a-1", entry["asnId"])
}

func TestLogger_WithContextAndError(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: LevelInfo, ServiceName: "fulfillment", Output: &buf})

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithOperatorID(ctx, "op-7")

	logger.WithContext(ctx).WithError(errors.New("boom")).WithComponent("ledger").Warn("failed")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "req-1", entry["requestId"])
	assert.Equal(t, "op-7", entry["operatorId"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "ledger", entry["component"])
}

func TestLogger_DebugSuppressedAtInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: LevelInfo, ServiceName: "fulfillment", Output: &buf})

	logger.DatabaseQuery(context.Background(), "asns", "find", 0, true)

	assert.Zero(t, buf.Len())
}
