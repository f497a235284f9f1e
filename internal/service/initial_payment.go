package service

import (
	"context"
	"fmt"

	"github.com/josh-kwaku/ledgersync/internal/correlation"
	"github.com/josh-kwaku/ledgersync/internal/domain"
	"github.com/josh-kwaku/ledgersync/internal/ledger"
	"github.com/josh-kwaku/ledgersync/internal/logging"
)

// initialPayment books the first payment of a subscription, captured on a
// processing ledger, onto the master ledger.
func (e *Engine) initialPayment(ctx context.Context, in invocation) error {
	log := logging.FromContext(ctx)

	var pi domain.PaymentIntent
	if err := in.event.DecodeObject(&pi); err != nil {
		return err
	}
	ref := correlation.Ref(pi.Metadata)
	if !ref.InitialPayment() {
		log.Debug("payment intent is not an initial payment", "payment_intent", pi.ID)
		return nil
	}

	masterInvoiceID, err := ref.Require("payment intent", correlation.MasterInvoiceID)
	if err != nil {
		return err
	}
	masterSubscriptionID, err := ref.Require("payment intent", correlation.MasterSubscriptionID)
	if err != nil {
		return err
	}
	processingPM, err := requireField(pi.PaymentMethod.ID, "payment intent payment_method")
	if err != nil {
		return err
	}
	currency, err := requireField(pi.Currency, "payment intent currency")
	if err != nil {
		return err
	}
	amount := firstNonZero(pi.AmountReceived, pi.Amount)
	if amount == 0 {
		return domain.MissingCorrelation("payment intent amount")
	}
	if pi.Created == 0 {
		return domain.MissingCorrelation("payment intent created")
	}

	kind, err := e.dir.SyntheticCredentialKind(in.alias)
	if err != nil {
		return err
	}
	master, err := e.master()
	if err != nil {
		return err
	}

	invoice, err := master.GetInvoice(ctx, masterInvoiceID)
	if err != nil {
		return err
	}
	customerID, err := requireField(invoice.Customer.ID, "master invoice customer")
	if err != nil {
		return err
	}

	pm, err := master.CreateSyntheticPaymentMethod(ctx, kind, correlation.Annotations(
		correlation.ProcessingPaymentMethodID, processingPM,
		correlation.MasterCustomerID, customerID,
		correlation.ProcessingCustomerID, pi.Customer.ID,
	))
	if err != nil {
		return err
	}
	if _, err := master.AttachPaymentMethod(ctx, pm.ID, customerID); err != nil {
		return err
	}

	reportedAt := e.clamp(in, pi.Created)
	record, err := master.ReportPayment(ctx, ledger.ReportPaymentRequest{
		Amount:           amount,
		Currency:         currency,
		InitiatedAt:      reportedAt,
		Customer:         customerID,
		PaymentMethod:    pm.ID,
		Outcome:          ledger.OutcomeGuaranteed,
		OutcomeAt:        reportedAt,
		PaymentReference: pi.ID,
		Metadata: correlation.Annotations(
			correlation.ProcessingPaymentIntentID, pi.ID,
			correlation.MasterInvoiceID, masterInvoiceID,
			correlation.MasterSubscriptionID, masterSubscriptionID,
		),
	})
	if err != nil {
		return err
	}
	if _, err := master.AttachInvoicePayment(ctx, masterInvoiceID, ledger.AttachTarget{PaymentRecord: record.ID}); err != nil {
		return err
	}
	if _, err := master.UpdateInvoiceAnnotations(ctx, masterInvoiceID, correlation.Annotations(
		correlation.MasterPaymentRecordID, record.ID,
	)); err != nil {
		return err
	}
	if _, err := master.SetSubscriptionDefaultPaymentMethod(ctx, masterSubscriptionID, pm.ID); err != nil {
		return err
	}

	if e.dir.Flags().PropagateTaxToProcessing {
		src := mirrorSource{
			invoice:              invoice,
			customer:             firstNonEmpty(pi.Customer.ID, customerID),
			currency:             currency,
			paymentIntentID:      pi.ID,
			masterSubscriptionID: masterSubscriptionID,
		}
		if mirrorID, err := e.mirrorInvoice(ctx, in.alias, master, src); err != nil {
			log.Warn("mirroring master invoice to processing ledger failed", "master_invoice", masterInvoiceID, "error", err)
		} else {
			log.Info("master invoice mirrored", "master_invoice", masterInvoiceID, "processing_invoice", mirrorID)
		}
	}

	log.Info("transition complete",
		"payment_intent", pi.ID,
		"master_invoice", masterInvoiceID,
		"master_payment_method", pm.ID,
		"payment_record", record.ID,
	)
	return nil
}

type mirrorSource struct {
	invoice              *domain.Invoice
	customer             string
	currency             string
	paymentIntentID      string
	masterSubscriptionID string
}

// mirrorLine is one master invoice line ready to be written to the
// processing ledger.
type mirrorLine struct {
	amount      int64
	currency    string
	description string
	taxes       string
}

// planMirrorLines resolves every master line, tax breakdown included, before
// anything is written to the processing ledger.
func planMirrorLines(ctx context.Context, rates *taxRateCache, src mirrorSource) ([]mirrorLine, error) {
	lines := make([]mirrorLine, 0, len(src.invoice.Lines.Data))
	for _, line := range src.invoice.Lines.Data {
		amount := line.Amount
		if amount == nil {
			amount = line.Subtotal
		}
		if amount == nil {
			return nil, domain.MissingCorrelation(fmt.Sprintf("amount on master invoice line %s", line.ID))
		}
		taxes, err := rates.breakdown(ctx, line)
		if err != nil {
			return nil, fmt.Errorf("tax breakdown for master invoice line %s: %w", line.ID, err)
		}
		encoded, err := encodeTaxes(taxes)
		if err != nil {
			return nil, err
		}
		lines = append(lines, mirrorLine{
			amount:      *amount,
			currency:    firstNonEmpty(line.Currency, src.currency),
			description: line.Description,
			taxes:       encoded,
		})
	}
	return lines, nil
}

// mirrorInvoice copies the master invoice lines, with their tax breakdown, to
// a send_invoice invoice on the processing ledger and tags it as the initial
// payment so a later invoice.paid for it is skipped. Items are attached to the
// mirror directly and removed again if it cannot be finalized.
func (e *Engine) mirrorInvoice(ctx context.Context, alias string, master LedgerClient, src mirrorSource) (string, error) {
	processing, err := e.clients(alias)
	if err != nil {
		return "", err
	}

	lines, err := planMirrorLines(ctx, newTaxRateCache(master), src)
	if err != nil {
		return "", err
	}

	number := src.invoice.Number
	if number == "" {
		if again, err := master.GetInvoice(ctx, src.invoice.ID); err == nil {
			number = again.Number
		}
	}

	mirror, err := processing.CreateInvoice(ctx, ledger.InvoiceRequest{
		Customer:            src.customer,
		CollectionMethod:    ledger.SendInvoice,
		DaysUntilDue:        1,
		Number:              number,
		ExcludePendingItems: true,
		Metadata: correlation.Annotations(
			correlation.MasterInvoiceID, src.invoice.ID,
			correlation.MasterSubscriptionID, src.masterSubscriptionID,
			correlation.MasterAccountID, master.AccountID(),
		),
	})
	if err != nil {
		return "", err
	}

	var itemIDs []string
	discard := func(cause error) (string, error) {
		discardMirror(ctx, processing, mirror.ID, itemIDs)
		return "", cause
	}

	for _, l := range lines {
		item, err := processing.CreateInvoiceItem(ctx, ledger.InvoiceItemRequest{
			Customer:    src.customer,
			Invoice:     mirror.ID,
			Currency:    l.currency,
			Amount:      l.amount,
			Description: l.description,
			Metadata:    map[string]string{correlation.Taxes: l.taxes},
		})
		if err != nil {
			return discard(err)
		}
		itemIDs = append(itemIDs, item.ID)
	}

	filled, err := processing.GetInvoice(ctx, mirror.ID)
	if err != nil {
		return discard(err)
	}
	for _, line := range filled.Lines.Data {
		taxes := decodeTaxes(correlation.Ref(line.Metadata).Get(correlation.Taxes))
		if len(taxes) == 0 {
			continue
		}
		if _, err := processing.UpdateInvoiceLineItemTaxes(ctx, mirror.ID, line.ID, taxes); err != nil {
			return discard(err)
		}
	}

	if _, err := processing.FinalizeInvoice(ctx, mirror.ID); err != nil {
		return discard(err)
	}

	log := logging.FromContext(ctx)
	if _, err := processing.UpdateInvoiceAnnotations(ctx, mirror.ID, correlation.Annotations(
		correlation.ProcessingPaymentIntentID, src.paymentIntentID,
		correlation.IsInitialPayment, correlation.FormatBool(true),
	)); err != nil {
		log.Warn("tagging mirrored invoice failed", "processing_invoice", mirror.ID, "error", err)
	}
	if _, err := processing.AttachInvoicePayment(ctx, mirror.ID, ledger.AttachTarget{PaymentIntent: src.paymentIntentID}); err != nil {
		log.Warn("attaching payment intent to mirrored invoice failed", "processing_invoice", mirror.ID, "error", err)
	}
	return mirror.ID, nil
}

// discardMirror removes an unfinished mirror and its items. Failures are only
// logged.
func discardMirror(ctx context.Context, processing LedgerClient, invoiceID string, itemIDs []string) {
	log := logging.FromContext(ctx)
	for _, id := range itemIDs {
		if err := processing.DeleteInvoiceItem(ctx, id); err != nil {
			log.Warn("removing mirrored invoice item failed", "invoice_item", id, "processing_invoice", invoiceID, "error", err)
		}
	}
	if err := processing.DeleteInvoice(ctx, invoiceID); err != nil {
		log.Warn("removing draft mirror invoice failed", "processing_invoice", invoiceID, "error", err)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
