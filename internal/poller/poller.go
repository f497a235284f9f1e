package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/josh-kwaku/ledgersync/internal/domain"
)

// Policy bounds a poll: at most MaxAttempts reads, Interval apart.
type Policy struct {
	Interval    time.Duration
	MaxAttempts int
}

var errNotReady = errors.New("not ready")

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Interval), uint64(attempts-1))
	return backoff.WithContext(b, ctx)
}

// Poll calls read until ready accepts its value and returns that value. A read
// error ends the poll immediately. When the attempts run out the last value is
// returned with ErrPropagationTimeout.
func Poll[T any](ctx context.Context, p Policy, read func(context.Context) (T, error), ready func(T) bool) (T, error) {
	var last T
	attempts := 0

	op := func() error {
		attempts++
		v, err := read(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		last = v
		if !ready(v) {
			return errNotReady
		}
		return nil
	}

	err := backoff.Retry(op, p.backOff(ctx))
	switch {
	case err == nil:
		return last, nil
	case errors.Is(err, errNotReady):
		return last, fmt.Errorf("%w after %d reads", domain.ErrPropagationTimeout, attempts)
	default:
		return last, err
	}
}

// Until polls a condition that has no value of its own.
func Until(ctx context.Context, p Policy, check func(context.Context) (bool, error)) error {
	_, err := Poll(ctx, p, check, func(done bool) bool { return done })
	return err
}
