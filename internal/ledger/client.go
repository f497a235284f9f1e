package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v76"

	"github.com/josh-kwaku/ledgersync/internal/domain"
	"github.com/josh-kwaku/ledgersync/internal/logging"
)

const (
	// DefaultAPIVersion is sent on every request unless a call pins another.
	DefaultAPIVersion = "2025-09-30.clover"
	// LegacyAPIVersion still exposes invoice.payment_intent and
	// payment_intent.invoice, which newer versions removed.
	LegacyAPIVersion = "2020-08-27"
)

type BackendConfig struct {
	URL               string
	MaxNetworkRetries int64
	Timeout           time.Duration
	Logger            stripe.LeveledLoggerInterface
}

// NewBackend builds the HTTP backend shared by every ledger client.
func NewBackend(cfg BackendConfig) stripe.Backend {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	bc := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		MaxNetworkRetries: stripe.Int64(cfg.MaxNetworkRetries),
		EnableTelemetry:   stripe.Bool(false),
	}
	if cfg.Logger != nil {
		bc.LeveledLogger = cfg.Logger
	}
	if cfg.URL != "" {
		bc.URL = stripe.String(cfg.URL)
	}
	return stripe.GetBackendWithConfig(stripe.APIBackend, bc)
}

// Client talks to one remote ledger with one secret key.
type Client struct {
	alias      string
	accountID  string
	key        string
	apiVersion string
	backend    stripe.Backend
}

func NewClient(backend stripe.Backend, account domain.LedgerAccount) *Client {
	return &Client{
		alias:      account.Alias,
		accountID:  account.AccountID,
		key:        account.SecretKey,
		apiVersion: DefaultAPIVersion,
		backend:    backend,
	}
}

func (c *Client) Alias() string     { return c.alias }
func (c *Client) AccountID() string { return c.accountID }

// result adapts a domain entity to the backend's response contract.
type result[T any] struct {
	stripe.APIResource
	value T
}

func (r *result[T]) UnmarshalJSON(b []byte) error {
	return json.Unmarshal(b, &r.value)
}

type callOpts struct {
	apiVersion string
}

func (c *Client) prepare(ctx context.Context, method, path string, params stripe.ParamsContainer, opts callOpts) {
	p := params.GetParams()
	p.Context = ctx

	version := c.apiVersion
	if opts.apiVersion != "" {
		version = opts.apiVersion
	}
	if p.Headers == nil {
		p.Headers = http.Header{}
	}
	p.Headers.Set("Stripe-Version", version)

	if method == http.MethodPost && p.IdempotencyKey == nil {
		if key, ok := idempotencyKey(ctx, c.alias, path, params); ok {
			p.IdempotencyKey = stripe.String(key)
		}
	}
}

func call[T any](ctx context.Context, c *Client, op, method, path string, params stripe.ParamsContainer, opts callOpts) (*T, error) {
	c.prepare(ctx, method, path, params, opts)

	log := logging.FromContext(ctx)
	start := time.Now()

	res := &result[T]{}
	err := c.backend.Call(method, path, c.key, params, res)

	attrs := []any{
		"ledger", c.alias,
		"op", op,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if res.LastResponse != nil {
		attrs = append(attrs, "request_id", res.LastResponse.RequestID)
	}
	if err != nil {
		log.Warn("ledger call failed", append(attrs, "error", err)...)
		if method == http.MethodGet {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return nil, &domain.RemoteWriteError{Op: op, Err: err}
	}
	log.Debug("ledger call", attrs...)
	return &res.value, nil
}

// IsNotFound reports whether err is a 404 from the remote ledger.
func IsNotFound(err error) bool {
	var se *stripe.Error
	if errors.As(err, &se) {
		return se.HTTPStatusCode == http.StatusNotFound || se.Code == stripe.ErrorCodeResourceMissing
	}
	return false
}
