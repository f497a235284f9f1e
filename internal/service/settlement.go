package service

import (
	"context"
	"fmt"

	"github.com/josh-kwaku/ledgersync/internal/correlation"
	"github.com/josh-kwaku/ledgersync/internal/domain"
	"github.com/josh-kwaku/ledgersync/internal/ledger"
	"github.com/josh-kwaku/ledgersync/internal/logging"
	"github.com/josh-kwaku/ledgersync/internal/poller"
)

// invoicePaid reports a processing invoice payment as a guaranteed
// settlement on the master invoice it was raised for.
func (e *Engine) invoicePaid(ctx context.Context, in invocation) error {
	log := logging.FromContext(ctx)

	inv, err := e.pollProcessingInvoice(ctx, in, func(inv *domain.Invoice) bool {
		if correlation.Ref(inv.Metadata).IsInitialPayment() {
			return true
		}
		return inv.PaymentIntent.ID != "" && inv.DefaultPaymentMethod.ID != "" && inv.StatusTransitions.PaidAt != 0
	})
	if err != nil {
		return err
	}
	if correlation.Ref(inv.Metadata).IsInitialPayment() {
		log.Info("initial payment already settled", "processing_invoice", inv.ID)
		return nil
	}

	s, err := e.reportSettlement(ctx, in, settlement{
		invoice: inv,
		outcome: ledger.OutcomeGuaranteed,
		at:      inv.StatusTransitions.PaidAt,
		amount:  firstNonZero(inv.AmountPaid, inv.Due(), inv.Total),
	})
	if err != nil {
		return err
	}

	if _, err := s.master.UpdateInvoiceAnnotations(ctx, s.links.InvoiceID, correlation.Annotations(
		correlation.MasterPaymentRecordID, s.record.ID,
	)); err != nil {
		return err
	}

	log.Info("transition complete",
		"processing_invoice", inv.ID,
		"payment_intent", inv.PaymentIntent.ID,
		"master_invoice", s.links.InvoiceID,
		"payment_record", s.record.ID,
	)
	return nil
}

// invoicePaymentFailed reports a failed processing invoice payment on the
// master invoice.
func (e *Engine) invoicePaymentFailed(ctx context.Context, in invocation) error {
	inv, err := e.pollProcessingInvoice(ctx, in, func(inv *domain.Invoice) bool {
		return inv.PaymentIntent.ID != "" && inv.DefaultPaymentMethod.ID != "" && failureTimestamp(inv) != 0
	})
	if err != nil {
		return err
	}

	s, err := e.reportSettlement(ctx, in, settlement{
		invoice: inv,
		outcome: ledger.OutcomeFailed,
		at:      failureTimestamp(inv),
		amount:  firstNonZero(inv.Due(), inv.Total),
	})
	if err != nil {
		return err
	}

	logging.FromContext(ctx).Info("transition complete",
		"processing_invoice", inv.ID,
		"payment_intent", inv.PaymentIntent.ID,
		"master_invoice", s.links.InvoiceID,
		"payment_record", s.record.ID,
	)
	return nil
}

func failureTimestamp(inv *domain.Invoice) int64 {
	st := inv.StatusTransitions
	return firstNonZero(st.PaidAt, st.FinalizedAt, st.MarkedUncollectibleAt, st.VoidedAt, inv.Created)
}

// pollProcessingInvoice re-reads the notification's invoice until ready
// accepts it. The payment intent and default payment method are populated
// asynchronously and only exposed under the legacy API version.
func (e *Engine) pollProcessingInvoice(ctx context.Context, in invocation, ready func(*domain.Invoice) bool) (*domain.Invoice, error) {
	var stub domain.Invoice
	if err := in.event.DecodeObject(&stub); err != nil {
		return nil, err
	}
	id, err := requireField(stub.ID, "invoice id")
	if err != nil {
		return nil, err
	}
	processing, err := e.clients(in.alias)
	if err != nil {
		return nil, err
	}

	inv, err := poller.Poll(ctx, e.poll, func(ctx context.Context) (*domain.Invoice, error) {
		return processing.GetInvoiceLegacy(ctx, id)
	}, ready)
	if err != nil {
		return nil, fmt.Errorf("processing invoice %s: %w", id, err)
	}
	return inv, nil
}

type settlement struct {
	invoice *domain.Invoice
	outcome ledger.Outcome
	at      int64
	amount  int64
}

type reportedSettlement struct {
	master LedgerClient
	links  correlation.MasterLinks
	record *domain.PaymentRecord
}

// reportSettlement records the processing invoice outcome on master and
// attaches the record to the master invoice.
func (e *Engine) reportSettlement(ctx context.Context, in invocation, s settlement) (*reportedSettlement, error) {
	inv := s.invoice
	ref := correlation.Ref(inv.Metadata)

	links := ref.MasterLinks()
	for _, key := range []string{
		correlation.MasterCustomerID,
		correlation.MasterInvoiceID,
		correlation.MasterSubscriptionID,
		correlation.MasterAccountID,
	} {
		if _, err := ref.Require("processing invoice", key); err != nil {
			return nil, err
		}
	}
	processingPI, err := requireField(inv.PaymentIntent.ID, "processing invoice payment_intent")
	if err != nil {
		return nil, err
	}
	processingPM, err := requireField(inv.DefaultPaymentMethod.ID, "processing invoice default_payment_method")
	if err != nil {
		return nil, err
	}
	currency, err := requireField(inv.Currency, "processing invoice currency")
	if err != nil {
		return nil, err
	}
	if s.amount == 0 {
		return nil, domain.MissingCorrelation("processing invoice amount")
	}
	if s.at == 0 {
		return nil, domain.MissingCorrelation("processing invoice status timestamp")
	}

	master, err := e.master()
	if err != nil {
		return nil, err
	}
	sub, err := master.GetSubscription(ctx, links.SubscriptionID)
	if err != nil {
		return nil, err
	}
	masterPM, err := requireField(sub.DefaultPaymentMethod.ID, "master subscription default_payment_method")
	if err != nil {
		return nil, err
	}

	reportedAt := e.clamp(in, s.at)
	record, err := master.ReportPayment(ctx, ledger.ReportPaymentRequest{
		Amount:           s.amount,
		Currency:         currency,
		InitiatedAt:      reportedAt,
		Customer:         links.CustomerID,
		PaymentMethod:    masterPM,
		Outcome:          s.outcome,
		OutcomeAt:        reportedAt,
		PaymentReference: processingPI,
		Metadata: correlation.Annotations(
			correlation.ProcessingPaymentIntentID, processingPI,
			correlation.ProcessingPaymentMethodID, processingPM,
			correlation.MasterAccountID, links.AccountID,
			correlation.MasterInvoiceID, links.InvoiceID,
			correlation.MasterSubscriptionID, links.SubscriptionID,
		),
	})
	if err != nil {
		return nil, err
	}
	if _, err := master.AttachInvoicePayment(ctx, links.InvoiceID, ledger.AttachTarget{PaymentRecord: record.ID}); err != nil {
		return nil, err
	}
	return &reportedSettlement{master: master, links: links, record: record}, nil
}
