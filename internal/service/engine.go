package service

import (
	"context"
	"fmt"
	"time"

	"github.com/josh-kwaku/ledgersync/internal/correlation"
	"github.com/josh-kwaku/ledgersync/internal/domain"
	"github.com/josh-kwaku/ledgersync/internal/ledger"
	"github.com/josh-kwaku/ledgersync/internal/logging"
	"github.com/josh-kwaku/ledgersync/internal/poller"
)

type route struct {
	role domain.Role
	kind domain.EventKind
}

type transition struct {
	scenario string
	run      func(ctx context.Context, in invocation) error
}

// invocation is one notification being handled for one ledger alias.
type invocation struct {
	alias     string
	accountID string
	event     domain.Notification
}

// Engine keeps the master ledger and the processing ledgers in step. It holds
// no state between notifications: everything it needs is on the notification
// or in annotations on remote entities.
type Engine struct {
	dir     engineDirectory
	clients ClientSource
	poll    poller.Policy
	now     func() time.Time
	routes  map[route]transition
}

func NewEngine(dir engineDirectory, clients ClientSource, poll poller.Policy) *Engine {
	e := &Engine{
		dir:     dir,
		clients: clients,
		poll:    poll,
		now:     time.Now,
	}
	e.routes = map[route]transition{
		{domain.RoleProcessing, domain.EventPaymentIntentSucceeded}:    {"initial_payment", e.initialPayment},
		{domain.RoleMaster, domain.EventInvoicePaymentAttemptRequired}: {"invoice_payment_attempt_required", e.paymentAttemptRequired},
		{domain.RoleProcessing, domain.EventInvoicePaid}:               {"processing_invoice_paid", e.invoicePaid},
		{domain.RoleProcessing, domain.EventInvoicePaymentFailed}:      {"processing_invoice_payment_failed", e.invoicePaymentFailed},
		{domain.RoleProcessing, domain.EventRefundCreated}:             {"processing_refund_created", e.refundCreated},
		{domain.RoleProcessing, domain.EventChargeDisputeClosed}:       {"processing_dispute_closed_lost", e.disputeClosed},
		{domain.RoleProcessing, domain.EventCustomerUpdated}:           {"customer_updated_processing_default_pm_changed", e.customerUpdated},
	}
	return e
}

// Scenario names the transition a notification of kind received on alias
// would run, or "" when it is ignored.
func (e *Engine) Scenario(alias string, kind domain.EventKind) string {
	return e.routes[route{e.dir.Role(alias), kind}].scenario
}

// Handle runs the transition for n received on alias, whose ledger identity is
// accountID. Unrouted notifications are a no-op. Every error is returned so
// the sender redelivers.
func (e *Engine) Handle(ctx context.Context, alias string, n domain.Notification, accountID string) error {
	role := e.dir.Role(alias)
	t, ok := e.routes[route{role, n.Type}]
	if !ok {
		logging.FromContext(ctx).Debug("notification ignored",
			"alias", alias,
			"role", role,
			"event_id", n.ID,
			"event_type", n.Type,
		)
		return nil
	}

	ctx = logging.With(ctx,
		"scenario", t.scenario,
		"alias", alias,
		"master_alias", e.dir.MasterAlias(),
		"event_id", n.ID,
	)
	ctx = ledger.WithIdempotencyScope(ctx, n.ID)

	if err := t.run(ctx, invocation{alias: alias, accountID: accountID, event: n}); err != nil {
		return fmt.Errorf("%s: %w", t.scenario, err)
	}
	return nil
}

func (e *Engine) master() (LedgerClient, error) {
	return e.clients(e.dir.MasterAlias())
}

// clamp keeps ts at or before the notification's creation time so every
// delivery of one notification reports the same timestamps. The wall clock is
// the reference only when the notification carries no creation time.
func (e *Engine) clamp(in invocation, ts int64) int64 {
	ref := in.event.Created
	if ref == 0 {
		ref = e.now().Unix()
	}
	return correlation.ClampTimestamp(ts, ref)
}

func requireField(value, what string) (string, error) {
	if value == "" {
		return "", domain.MissingCorrelation(what)
	}
	return value, nil
}

func firstNonZero(vals ...int64) int64 {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}
