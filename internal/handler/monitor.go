package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/josh-kwaku/ledgersync/internal/logging"
	"github.com/josh-kwaku/ledgersync/internal/monitor"
)

const keepaliveInterval = 15 * time.Second

type monitorHub interface {
	Subscribe(size int) *monitor.Subscription
	Unsubscribe(s *monitor.Subscription)
}

// MonitorHandler streams accepted notifications to live viewers as
// server-sent events.
type MonitorHandler struct {
	hub       monitorHub
	queueSize int
	keepalive time.Duration
}

func NewMonitorHandler(hub monitorHub, queueSize int) *MonitorHandler {
	return &MonitorHandler{hub: hub, queueSize: queueSize, keepalive: keepaliveInterval}
}

func (h *MonitorHandler) Stream(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	rc := http.NewResponseController(w)

	sub := h.hub.Subscribe(h.queueSize)
	defer func() {
		h.hub.Unsubscribe(sub)
		if n := sub.Dropped(); n > 0 {
			log.Warn("monitor subscriber fell behind", "dropped", n)
		}
	}()

	// The server write timeout would otherwise cut long-lived streams.
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	send := func(frame string) bool {
		if _, err := fmt.Fprint(w, frame); err != nil {
			return false
		}
		return rc.Flush() == nil
	}

	if !send("event: hello\ndata: {}\n\n") {
		return
	}

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-sub.Events():
			data, err := json.Marshal(ev)
			if err != nil {
				log.Error("failed to encode monitor event", "event_id", ev.EventID, "error", err)
				continue
			}
			if !send(fmt.Sprintf("event: webhook\ndata: %s\n\n", data)) {
				return
			}
			ticker.Reset(h.keepalive)
		case <-ticker.C:
			if !send(": keepalive\n\n") {
				return
			}
		}
	}
}
