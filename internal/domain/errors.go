package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrConfiguration      = errors.New("configuration error")
	ErrMissingCorrelation = errors.New("missing correlation")
	ErrPropagationTimeout = errors.New("timed out waiting for remote propagation")
	ErrUnknownAlias       = errors.New("unknown ledger alias")
)

// MissingCorrelation reports a required annotation or field that is absent on a
// remote entity or notification payload.
func MissingCorrelation(what string) error {
	return fmt.Errorf("%w: %s", ErrMissingCorrelation, what)
}

func Configuration(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// RemoteWriteError wraps a rejection returned by a remote ledger.
type RemoteWriteError struct {
	Op  string
	Err error
}

func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("remote ledger rejected %s: %v", e.Op, e.Err)
}

func (e *RemoteWriteError) Unwrap() error { return e.Err }
