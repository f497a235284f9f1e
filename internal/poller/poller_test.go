package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/ledgersync/internal/domain"
)

var fast = Policy{Interval: time.Millisecond, MaxAttempts: 5}

func TestPollReturnsFirstReadyValue(t *testing.T) {
	reads := 0
	got, err := Poll(context.Background(), fast,
		func(context.Context) (int, error) {
			reads++
			return reads, nil
		},
		func(v int) bool { return v >= 3 },
	)

	require.NoError(t, err)
	assert.Equal(t, 3, got)
	assert.Equal(t, 3, reads)
}

func TestPollTimesOutAfterMaxAttempts(t *testing.T) {
	reads := 0
	got, err := Poll(context.Background(), fast,
		func(context.Context) (string, error) {
			reads++
			return "pending", nil
		},
		func(string) bool { return false },
	)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPropagationTimeout))
	assert.Equal(t, "pending", got)
	assert.Equal(t, fast.MaxAttempts, reads)
}

func TestPollStopsOnReadError(t *testing.T) {
	boom := errors.New("remote unavailable")
	reads := 0

	_, err := Poll(context.Background(), fast,
		func(context.Context) (int, error) {
			reads++
			return 0, boom
		},
		func(int) bool { return true },
	)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, reads)
}

func TestPollHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reads := 0

	_, err := Poll(ctx, Policy{Interval: 10 * time.Millisecond, MaxAttempts: 1000},
		func(context.Context) (int, error) {
			reads++
			if reads == 2 {
				cancel()
			}
			return reads, nil
		},
		func(int) bool { return false },
	)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, reads, 1000)
}

func TestUntilSingleAttempt(t *testing.T) {
	err := Until(context.Background(), Policy{MaxAttempts: 0}, func(context.Context) (bool, error) {
		return false, nil
	})
	assert.True(t, errors.Is(err, domain.ErrPropagationTimeout))

	err = Until(context.Background(), Policy{MaxAttempts: 1}, func(context.Context) (bool, error) {
		return true, nil
	})
	assert.NoError(t, err)
}
