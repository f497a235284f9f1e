package service

import (
	"context"
	"strings"

	"github.com/josh-kwaku/ledgersync/internal/correlation"
	"github.com/josh-kwaku/ledgersync/internal/domain"
	"github.com/josh-kwaku/ledgersync/internal/ledger"
	"github.com/josh-kwaku/ledgersync/internal/logging"
)

// reversal is money returned to the payer on a processing ledger.
type reversal struct {
	id            string
	paymentIntent string
	amount        int64
	currency      string
	created       int64
	// annotation key carrying id on the master records
	referenceKey string
}

func (e *Engine) refundCreated(ctx context.Context, in invocation) error {
	var refund domain.Refund
	if err := in.event.DecodeObject(&refund); err != nil {
		return err
	}
	return e.reportReversal(ctx, in, "refund", reversal{
		id:            refund.ID,
		paymentIntent: refund.PaymentIntent.ID,
		amount:        refund.Amount,
		currency:      refund.Currency,
		created:       refund.Created,
		referenceKey:  correlation.ProcessingRefundID,
	})
}

func (e *Engine) disputeClosed(ctx context.Context, in invocation) error {
	var dispute domain.Dispute
	if err := in.event.DecodeObject(&dispute); err != nil {
		return err
	}
	if status := strings.ToLower(strings.TrimSpace(dispute.Status)); status != "lost" {
		logging.FromContext(ctx).Debug("dispute not lost", "dispute", dispute.ID, "status", status)
		return nil
	}
	return e.reportReversal(ctx, in, "dispute", reversal{
		id:            dispute.ID,
		paymentIntent: dispute.PaymentIntent.ID,
		amount:        dispute.Amount,
		currency:      dispute.Currency,
		created:       dispute.Created,
		referenceKey:  correlation.ProcessingDisputeID,
	})
}

// reportReversal records a refund outcome against the master settlement
// record, then credits the master invoice out of band.
func (e *Engine) reportReversal(ctx context.Context, in invocation, entity string, r reversal) error {
	log := logging.FromContext(ctx)

	if r.paymentIntent == "" {
		return domain.MissingCorrelation(entity + " payment_intent")
	}
	if r.id == "" {
		return domain.MissingCorrelation(entity + " id")
	}
	if r.amount == 0 {
		return domain.MissingCorrelation(entity + " amount")
	}
	if r.currency == "" {
		return domain.MissingCorrelation(entity + " currency")
	}
	if r.created == 0 {
		return domain.MissingCorrelation(entity + " created")
	}

	processing, err := e.clients(in.alias)
	if err != nil {
		return err
	}
	pi, err := processing.GetPaymentIntent(ctx, r.paymentIntent)
	if err != nil {
		return err
	}
	links := masterLinks(pi)
	masterInvoiceID, err := requireField(links.InvoiceID, "metadata "+correlation.MasterInvoiceID)
	if err != nil {
		return err
	}

	master, err := e.master()
	if err != nil {
		return err
	}
	masterInvoice, err := master.GetInvoice(ctx, masterInvoiceID)
	if err != nil {
		return err
	}
	recordID, err := correlation.Ref(masterInvoice.Metadata).Require("master invoice", correlation.MasterPaymentRecordID)
	if err != nil {
		return err
	}

	reportedAt := e.clamp(in, r.created)
	annotations := map[string]string{r.referenceKey: r.id}
	refunded, err := master.ReportRefund(ctx, ledger.ReportRefundRequest{
		PaymentRecord:   recordID,
		Amount:          r.amount,
		Currency:        r.currency,
		RefundedAt:      reportedAt,
		RefundReference: r.id,
		Metadata:        annotations,
	})
	if err != nil {
		return err
	}

	if err := creditMasterInvoice(ctx, master, masterInvoice, r.amount, annotations); err != nil {
		log.Warn("credit note on master invoice failed", "master_invoice", masterInvoiceID, "error", err)
	}

	log.Info("transition complete",
		"payment_intent", r.paymentIntent,
		entity, r.id,
		"master_invoice", masterInvoiceID,
		"payment_record", recordID,
		"reversal_record", refunded.ID,
	)
	return nil
}

// masterLinks prefers the expanded invoice's annotations over the payment
// intent's own, which are absent on renewal payments.
func masterLinks(pi *domain.PaymentIntent) correlation.MasterLinks {
	if inv := pi.Invoice.Object; inv != nil && len(inv.Metadata) > 0 {
		return correlation.Ref(inv.Metadata).MasterLinks()
	}
	return correlation.Ref(pi.Metadata).MasterLinks()
}

func creditMasterInvoice(ctx context.Context, master LedgerClient, inv *domain.Invoice, amount int64, annotations map[string]string) error {
	if len(inv.Lines.Data) == 0 || inv.Lines.Data[0].ID == "" {
		return domain.MissingCorrelation("line items on master invoice " + inv.ID)
	}
	_, err := master.CreateCreditNote(ctx, ledger.CreditNoteRequest{
		Invoice:         inv.ID,
		LineItem:        inv.Lines.Data[0].ID,
		OutOfBandAmount: amount,
		Metadata:        annotations,
	})
	return err
}
