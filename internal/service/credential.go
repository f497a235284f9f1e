package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/josh-kwaku/ledgersync/internal/correlation"
	"github.com/josh-kwaku/ledgersync/internal/domain"
	"github.com/josh-kwaku/ledgersync/internal/logging"
)

// customerUpdated repoints the payer's synthetic credentials on master when
// the processing payer's default payment method changes.
func (e *Engine) customerUpdated(ctx context.Context, in invocation) error {
	log := logging.FromContext(ctx)

	changed, err := defaultPaymentMethodChanged(in.event.PreviousAttributes)
	if err != nil {
		return err
	}
	if !changed {
		log.Debug("default payment method unchanged")
		return nil
	}

	var customer domain.Customer
	if err := in.event.DecodeObject(&customer); err != nil {
		return err
	}
	customerID, err := requireField(customer.ID, "customer id")
	if err != nil {
		return err
	}
	processingPM, err := requireField(customer.InvoiceSettings.DefaultPaymentMethod.ID, "customer invoice_settings.default_payment_method")
	if err != nil {
		return err
	}

	master, err := e.master()
	if err != nil {
		return err
	}
	methods, err := master.ListCustomerPaymentMethods(ctx, customerID, "custom")
	if err != nil {
		return err
	}

	updated := 0
	for _, pm := range methods {
		if pm.ID == "" {
			continue
		}
		if _, err := master.UpdatePaymentMethodAnnotations(ctx, pm.ID, correlation.Annotations(
			correlation.ProcessingPaymentMethodID, processingPM,
		)); err != nil {
			return err
		}
		updated++
	}

	log.Info("transition complete",
		"processing_account", in.accountID,
		"customer", customerID,
		"processing_payment_method", processingPM,
		"updated_master_payment_methods", updated,
	)
	return nil
}

func defaultPaymentMethodChanged(previous json.RawMessage) (bool, error) {
	if len(previous) == 0 {
		return false, nil
	}
	var prev struct {
		InvoiceSettings map[string]json.RawMessage `json:"invoice_settings"`
	}
	if err := json.Unmarshal(previous, &prev); err != nil {
		return false, fmt.Errorf("previous_attributes: %w", err)
	}
	_, ok := prev.InvoiceSettings["default_payment_method"]
	return ok, nil
}
