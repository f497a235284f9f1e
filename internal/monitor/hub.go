package monitor

import (
	"sync"
	"sync/atomic"

	"github.com/josh-kwaku/ledgersync/internal/domain"
)

const DefaultQueueSize = 200

// Subscription receives published events until it is removed from the hub.
type Subscription struct {
	events  chan domain.MonitorEvent
	dropped atomic.Int64
}

func (s *Subscription) Events() <-chan domain.MonitorEvent { return s.events }

// Dropped counts events discarded because the subscriber fell behind.
func (s *Subscription) Dropped() int64 { return s.dropped.Load() }

// Hub fans accepted notifications out to live subscribers. Nothing is kept
// for subscribers that connect later.
type Hub struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscription]struct{})}
}

func (h *Hub) Subscribe(size int) *Subscription {
	if size <= 0 {
		size = DefaultQueueSize
	}
	s := &Subscription{events: make(chan domain.MonitorEvent, size)}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

func (h *Hub) Unsubscribe(s *Subscription) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()
}

// Publish never blocks: a subscriber whose queue is full misses the event.
func (h *Hub) Publish(ev domain.MonitorEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		select {
		case s.events <- ev:
		default:
			s.dropped.Add(1)
		}
	}
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
