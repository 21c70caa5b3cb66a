package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wms-platform/fulfillment-service/pkg/logging"
)

func TestDurationEnv(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"unset", "", defaultSnapshotRetention},
		{"valid", "48h", 48 * time.Hour},
		{"zero disables expiry", "0", 0},
		{"malformed", "thirty days", defaultSnapshotRetention},
		{"negative", "-1h", defaultSnapshotRetention},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SNAPSHOT_RETENTION", tt.value)

			got := durationEnv(logging.NewNop(), "SNAPSHOT_RETENTION", defaultSnapshotRetention)

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadConfig_MalformedRetentionKeepsDefault(t *testing.T) {
	t.Setenv("SNAPSHOT_RETENTION", "720")

	config := loadConfig(logging.NewNop())

	assert.Equal(t, 720*time.Hour, config.SnapshotRetention)
}
