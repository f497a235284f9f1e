package service

import (
	"context"

	"github.com/josh-kwaku/ledgersync/internal/correlation"
	"github.com/josh-kwaku/ledgersync/internal/domain"
	"github.com/josh-kwaku/ledgersync/internal/ledger"
	"github.com/josh-kwaku/ledgersync/internal/logging"
)

// paymentAttemptRequired charges a renewal invoice raised on the master
// ledger through the processing ledger that holds the real credential.
func (e *Engine) paymentAttemptRequired(ctx context.Context, in invocation) error {
	log := logging.FromContext(ctx)

	var inv domain.Invoice
	if err := in.event.DecodeObject(&inv); err != nil {
		return err
	}

	masterInvoiceID, err := requireField(inv.ID, "invoice id")
	if err != nil {
		return err
	}
	currency, err := requireField(inv.Currency, "invoice currency")
	if err != nil {
		return err
	}
	if inv.AmountDue == nil {
		return domain.MissingCorrelation("invoice amount_due")
	}
	masterCustomerID, err := requireField(inv.Customer.ID, "invoice customer")
	if err != nil {
		return err
	}
	if inv.PeriodStart == 0 || inv.PeriodEnd == 0 {
		return domain.MissingCorrelation("invoice period_start/period_end")
	}

	var details domain.SubscriptionDetails
	if inv.Parent != nil && inv.Parent.SubscriptionDetails != nil {
		details = *inv.Parent.SubscriptionDetails
	}
	masterSubscriptionID, err := requireField(details.Subscription, "parent.subscription_details.subscription")
	if err != nil {
		return err
	}
	detailsRef := correlation.Ref(details.Metadata)
	processingAccountID, err := detailsRef.Require("parent.subscription_details", correlation.ProcessingAccountID)
	if err != nil {
		return err
	}

	master, err := e.master()
	if err != nil {
		return err
	}

	if skip := detailsRef.Get(correlation.SkipNonMasterInvoiceSync); skip != "" && e.dir.Flags().SkipSyncNonMasterInvoice {
		if _, err := master.UpdateInvoiceAnnotations(ctx, masterInvoiceID, map[string]string{
			correlation.SkipNonMasterInvoiceSync: skip,
		}); err != nil {
			log.Warn("copying skip-sync flag to master invoice failed", "master_invoice", masterInvoiceID, "error", err)
		}
	}

	sub, err := master.GetSubscription(ctx, masterSubscriptionID)
	if err != nil {
		return err
	}
	if sub.DefaultPaymentMethod.ID == "" {
		return domain.MissingCorrelation("master subscription default_payment_method")
	}
	var pmRef correlation.Ref
	if sub.DefaultPaymentMethod.Object != nil {
		pmRef = sub.DefaultPaymentMethod.Object.Metadata
	}
	processingPM, err := pmRef.Require("subscription default_payment_method", correlation.ProcessingPaymentMethodID)
	if err != nil {
		return err
	}
	processingCustomer, err := pmRef.Require("subscription default_payment_method", correlation.ProcessingCustomerID)
	if err != nil {
		return err
	}

	current, err := master.GetInvoice(ctx, masterInvoiceID)
	if err != nil {
		return err
	}

	processingAlias, err := e.dir.ReverseResolve(processingAccountID)
	if err != nil {
		return err
	}
	processing, err := e.clients(processingAlias)
	if err != nil {
		return err
	}

	existing, err := processing.SearchInvoices(ctx, ledger.MetadataQuery(correlation.MasterInvoiceID, masterInvoiceID), 1)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Info("processing invoice already exists",
			"master_invoice", masterInvoiceID,
			"processing_alias", processingAlias,
			"processing_invoice", existing[0].ID,
		)
		return nil
	}

	var description string
	if len(inv.Lines.Data) > 0 {
		description = inv.Lines.Data[0].Description
	}
	if _, err := processing.CreateInvoiceItem(ctx, ledger.InvoiceItemRequest{
		Customer:    processingCustomer,
		Currency:    currency,
		Amount:      *inv.AmountDue,
		Description: description,
		Period:      &domain.Period{Start: inv.PeriodStart, End: inv.PeriodEnd},
	}); err != nil {
		return err
	}

	autoAdvance := true
	created, err := processing.CreateInvoice(ctx, ledger.InvoiceRequest{
		Customer:             processingCustomer,
		Currency:             currency,
		CollectionMethod:     ledger.ChargeAutomatically,
		AutoAdvance:          &autoAdvance,
		DefaultPaymentMethod: processingPM,
		Number:               current.Number,
		Metadata: correlation.Annotations(
			correlation.MasterInvoiceID, masterInvoiceID,
			correlation.MasterCustomerID, masterCustomerID,
			correlation.MasterSubscriptionID, masterSubscriptionID,
			correlation.MasterAccountID, in.accountID,
		),
	})
	if err != nil {
		return err
	}

	// The processing ledger reports the outcome through invoice.paid or
	// invoice.payment_failed.
	if _, err := processing.PayInvoice(ctx, created.ID, true); err != nil {
		log.Warn("paying processing invoice failed", "processing_invoice", created.ID, "error", err)
	}

	log.Info("transition complete",
		"master_invoice", masterInvoiceID,
		"processing_alias", processingAlias,
		"processing_invoice", created.ID,
	)
	return nil
}
