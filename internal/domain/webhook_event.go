package domain

import (
	"encoding/json"
	"fmt"
)

type EventKind string

const (
	EventPaymentIntentSucceeded        EventKind = "payment_intent.succeeded"
	EventInvoicePaymentAttemptRequired EventKind = "invoice.payment_attempt_required"
	EventInvoicePaid                   EventKind = "invoice.paid"
	EventInvoicePaymentFailed          EventKind = "invoice.payment_failed"
	EventRefundCreated                 EventKind = "refund.created"
	EventChargeDisputeClosed           EventKind = "charge.dispute.closed"
	EventCustomerUpdated               EventKind = "customer.updated"
)

// Notification is a verified event pushed by a remote ledger.
type Notification struct {
	ID                 string          `json:"id"`
	Type               EventKind       `json:"type"`
	Account            string          `json:"account,omitempty"`
	Created            int64           `json:"created"`
	Object             json.RawMessage `json:"object"`
	PreviousAttributes json.RawMessage `json:"previous_attributes,omitempty"`
}

// DecodeObject unmarshals the notification's data.object into v.
func (n Notification) DecodeObject(v any) error {
	if len(n.Object) == 0 {
		return MissingCorrelation("data.object")
	}
	if err := json.Unmarshal(n.Object, v); err != nil {
		return fmt.Errorf("DecodeObject %s: %w", n.Type, err)
	}
	return nil
}

// MonitorEvent is the summary published to live monitoring subscribers for
// every accepted notification.
type MonitorEvent struct {
	ReceivedAt int64  `json:"received_at"`
	Alias      string `json:"alias"`
	AccountID  string `json:"account_id"`
	Country    string `json:"country,omitempty"`
	EventID    string `json:"event_id"`
	Type       string `json:"type"`
}
