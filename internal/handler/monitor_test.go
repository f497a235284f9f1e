package handler

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/ledgersync/internal/domain"
	"github.com/josh-kwaku/ledgersync/internal/monitor"
)

func openStream(t *testing.T, h *MonitorHandler) (*bufio.Reader, context.CancelFunc) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(h.Stream))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "no", resp.Header.Get("X-Accel-Buffering"))
	return bufio.NewReader(resp.Body), cancel
}

// readFrame returns the lines of the next SSE frame.
func readFrame(t *testing.T, r *bufio.Reader) []string {
	t.Helper()
	var lines []string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		if line == "" {
			return lines
		}
		lines = append(lines, line)
	}
}

func TestMonitorHandler_Stream(t *testing.T) {
	hub := monitor.NewHub()
	h := NewMonitorHandler(hub, 10)
	h.keepalive = time.Hour

	r, cancel := openStream(t, h)
	assert.Equal(t, []string{"event: hello", "data: {}"}, readFrame(t, r))
	assert.Equal(t, 1, hub.Subscribers())

	hub.Publish(domain.MonitorEvent{ReceivedAt: 1, Alias: "EU", AccountID: "acct_eu", EventID: "evt_1", Type: "invoice.paid"})

	frame := readFrame(t, r)
	require.Len(t, frame, 2)
	assert.Equal(t, "event: webhook", frame[0])
	assert.JSONEq(t, `{"received_at":1,"alias":"EU","account_id":"acct_eu","event_id":"evt_1","type":"invoice.paid"}`,
		strings.TrimPrefix(frame[1], "data: "))

	cancel()
	assert.Eventually(t, func() bool { return hub.Subscribers() == 0 }, time.Second, 5*time.Millisecond)
}

func TestMonitorHandler_Keepalive(t *testing.T) {
	hub := monitor.NewHub()
	h := NewMonitorHandler(hub, 10)
	h.keepalive = 10 * time.Millisecond

	r, cancel := openStream(t, h)
	defer cancel()

	readFrame(t, r)
	assert.Equal(t, []string{": keepalive"}, readFrame(t, r))
}
