package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/ledgersync/internal/domain"
)

func TestHubFansOut(t *testing.T) {
	h := NewHub()
	a := h.Subscribe(4)
	b := h.Subscribe(4)

	ev := domain.MonitorEvent{Alias: "eu", EventID: "evt_1", Type: "invoice.paid"}
	h.Publish(ev)

	require.Len(t, a.Events(), 1)
	require.Len(t, b.Events(), 1)
	assert.Equal(t, ev, <-a.Events())
	assert.Equal(t, ev, <-b.Events())
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	h := NewHub()
	slow := h.Subscribe(1)
	fast := h.Subscribe(10)

	for i := 0; i < 3; i++ {
		h.Publish(domain.MonitorEvent{EventID: "evt"})
	}

	assert.Len(t, slow.Events(), 1)
	assert.Equal(t, int64(2), slow.Dropped())
	assert.Len(t, fast.Events(), 3)
	assert.Zero(t, fast.Dropped())
}

func TestHubUnsubscribe(t *testing.T) {
	h := NewHub()
	s := h.Subscribe(0)
	assert.Equal(t, 1, h.Subscribers())
	assert.Equal(t, DefaultQueueSize, cap(s.events))

	h.Unsubscribe(s)
	h.Publish(domain.MonitorEvent{EventID: "evt_1"})

	assert.Zero(t, h.Subscribers())
	assert.Empty(t, s.Events())
}

func TestHubPublishWithoutSubscribers(t *testing.T) {
	assert.NotPanics(t, func() { NewHub().Publish(domain.MonitorEvent{EventID: "evt_1"}) })
}
