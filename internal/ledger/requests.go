package ledger

import "github.com/josh-kwaku/ledgersync/internal/domain"

type CollectionMethod string

const (
	ChargeAutomatically CollectionMethod = "charge_automatically"
	SendInvoice         CollectionMethod = "send_invoice"
)

type Outcome string

const (
	OutcomeGuaranteed Outcome = "guaranteed"
	OutcomeFailed     Outcome = "failed"
)

type CustomerRequest struct {
	Email    string
	Name     string
	Address  *domain.Address
	Metadata map[string]string
}

type InvoiceItemRequest struct {
	Customer string
	// Invoice attaches the item to a draft invoice instead of leaving it
	// pending on the customer.
	Invoice     string
	Currency    string
	Amount      int64
	Description string
	Period      *domain.Period
	Metadata    map[string]string
}

type InvoiceRequest struct {
	Customer             string
	Currency             string
	CollectionMethod     CollectionMethod
	AutoAdvance          *bool
	DaysUntilDue         int64
	DefaultPaymentMethod string
	Number               string
	Metadata             map[string]string
	// ExcludePendingItems leaves the customer's pending invoice items out of
	// the new invoice.
	ExcludePendingItems bool
}

type SubscriptionRequest struct {
	Customer     string
	Price        string
	AutomaticTax bool
	Metadata     map[string]string
}

type PaymentIntentRequest struct {
	Customer    string
	Amount      int64
	Currency    string
	Description string
	Metadata    map[string]string
}

// ReportPaymentRequest reports money that moved elsewhere as a settlement
// record on this ledger.
type ReportPaymentRequest struct {
	Amount           int64
	Currency         string
	InitiatedAt      int64
	Customer         string
	PaymentMethod    string
	Outcome          Outcome
	OutcomeAt        int64
	PaymentReference string
	Metadata         map[string]string
}

type ReportRefundRequest struct {
	PaymentRecord   string
	Amount          int64
	Currency        string
	RefundedAt      int64
	RefundReference string
	Metadata        map[string]string
}

type CreditNoteRequest struct {
	Invoice         string
	LineItem        string
	OutOfBandAmount int64
	Metadata        map[string]string
}

// AttachTarget names what gets attached to an invoice as a payment. Exactly one
// field is set.
type AttachTarget struct {
	PaymentRecord string
	PaymentIntent string
}
