package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewJSONCarriesService(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "ledgersync", "info", "production")

	logger.Info("hello", "alias", "US")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "ledgersync", rec["service"])
	assert.Equal(t, "US", rec["alias"])
}

func TestNewDevelopmentUsesText(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "ledgersync", "debug", "development").Debug("hi")

	assert.True(t, strings.Contains(buf.String(), "msg=hi"))
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "svc", "info", "production")

	ctx := With(WithLogger(context.Background(), logger), "event_id", "evt_1")
	FromContext(ctx).Info("dispatch")

	assert.Contains(t, buf.String(), `"event_id":"evt_1"`)
	assert.Equal(t, slog.Default(), FromContext(context.Background()))
}

func TestStripeLoggerDemotesInfo(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStripeLogger(New(&buf, "svc", "info", "production"))

	sl.Infof("Requesting %s %s", "POST", "/v1/invoices")
	assert.Empty(t, buf.String())

	sl.Errorf("request failed: %d", 402)
	assert.Contains(t, buf.String(), "request failed: 402")
	assert.Contains(t, buf.String(), `"component":"stripe"`)
}
