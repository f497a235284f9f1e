package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Expandable holds a reference that the remote ledger returns either as a bare
// id or as the expanded object.
type Expandable[T any] struct {
	ID     string
	Object *T
}

func (e *Expandable[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		return json.Unmarshal(b, &e.ID)
	}

	var ref struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(b, &ref); err != nil {
		return fmt.Errorf("Expandable: %w", err)
	}
	var obj T
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("Expandable: %w", err)
	}
	e.ID = ref.ID
	e.Object = &obj
	return nil
}

func (e Expandable[T]) MarshalJSON() ([]byte, error) {
	if e.Object != nil {
		return json.Marshal(e.Object)
	}
	if e.ID == "" {
		return []byte("null"), nil
	}
	return json.Marshal(e.ID)
}

func Ref[T any](id string) Expandable[T] {
	return Expandable[T]{ID: id}
}

type List[T any] struct {
	Data    []T  `json:"data"`
	HasMore bool `json:"has_more"`
}

type Address struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

type InvoiceSettings struct {
	DefaultPaymentMethod Expandable[PaymentMethod] `json:"default_payment_method"`
}

type Customer struct {
	ID              string            `json:"id"`
	Email           string            `json:"email"`
	Name            string            `json:"name"`
	Address         *Address          `json:"address"`
	InvoiceSettings InvoiceSettings   `json:"invoice_settings"`
	Metadata        map[string]string `json:"metadata"`
}

type CustomPaymentMethod struct {
	Type string `json:"type"`
}

type BillingDetails struct {
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Phone   string   `json:"phone"`
	Address *Address `json:"address"`
}

type Card struct {
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int64  `json:"exp_month"`
	ExpYear  int64  `json:"exp_year"`
	Funding  string `json:"funding"`
	Country  string `json:"country"`
}

type PaymentMethod struct {
	ID             string               `json:"id"`
	Type           string               `json:"type"`
	Created        int64                `json:"created"`
	Livemode       bool                 `json:"livemode"`
	Customer       Expandable[Customer] `json:"customer"`
	BillingDetails *BillingDetails      `json:"billing_details"`
	Card           *Card                `json:"card"`
	Custom         *CustomPaymentMethod `json:"custom"`
	Metadata       map[string]string    `json:"metadata"`
}

type StatusTransitions struct {
	PaidAt                int64 `json:"paid_at"`
	FinalizedAt           int64 `json:"finalized_at"`
	MarkedUncollectibleAt int64 `json:"marked_uncollectible_at"`
	VoidedAt              int64 `json:"voided_at"`
}

type Period struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

type TaxRateDetails struct {
	TaxRate string `json:"tax_rate"`
}

type LineTax struct {
	Amount         int64           `json:"amount"`
	TaxableAmount  int64           `json:"taxable_amount"`
	TaxBehavior    string          `json:"tax_behavior"`
	TaxRateDetails *TaxRateDetails `json:"tax_rate_details"`
}

type InvoiceLineItem struct {
	ID          string            `json:"id"`
	Amount      *int64            `json:"amount"`
	Subtotal    *int64            `json:"subtotal"`
	Currency    string            `json:"currency"`
	Description string            `json:"description"`
	Period      Period            `json:"period"`
	Taxes       []LineTax         `json:"taxes"`
	Metadata    map[string]string `json:"metadata"`
}

type SubscriptionDetails struct {
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

type InvoiceParent struct {
	Type                string               `json:"type"`
	SubscriptionDetails *SubscriptionDetails `json:"subscription_details"`
}

type ConfirmationSecret struct {
	ClientSecret string `json:"client_secret"`
	Type         string `json:"type"`
}

type TotalTax struct {
	Amount        int64 `json:"amount"`
	TaxableAmount int64 `json:"taxable_amount"`
}

type Invoice struct {
	ID                   string                    `json:"id"`
	Number               string                    `json:"number"`
	Status               string                    `json:"status"`
	Customer             Expandable[Customer]      `json:"customer"`
	Currency             string                    `json:"currency"`
	AmountDue            *int64                    `json:"amount_due"`
	AmountPaid           int64                     `json:"amount_paid"`
	Total                int64                     `json:"total"`
	TotalExcludingTax    int64                     `json:"total_excluding_tax"`
	TotalTaxes           []TotalTax                `json:"total_taxes"`
	Created              int64                     `json:"created"`
	PeriodStart          int64                     `json:"period_start"`
	PeriodEnd            int64                     `json:"period_end"`
	PaymentIntent        Expandable[PaymentIntent] `json:"payment_intent"`
	DefaultPaymentMethod Expandable[PaymentMethod] `json:"default_payment_method"`
	StatusTransitions    StatusTransitions         `json:"status_transitions"`
	Lines                List[InvoiceLineItem]     `json:"lines"`
	Parent               *InvoiceParent            `json:"parent"`
	HostedInvoiceURL     string                    `json:"hosted_invoice_url"`
	ConfirmationSecret   *ConfirmationSecret       `json:"confirmation_secret"`
	Metadata             map[string]string         `json:"metadata"`
}

func (inv *Invoice) Due() int64 {
	if inv.AmountDue == nil {
		return 0
	}
	return *inv.AmountDue
}

type SetupIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

type Subscription struct {
	ID                   string                    `json:"id"`
	Status               string                    `json:"status"`
	Customer             Expandable[Customer]      `json:"customer"`
	DefaultPaymentMethod Expandable[PaymentMethod] `json:"default_payment_method"`
	LatestInvoice        Expandable[Invoice]       `json:"latest_invoice"`
	PendingSetupIntent   Expandable[SetupIntent]   `json:"pending_setup_intent"`
	Metadata             map[string]string         `json:"metadata"`
}

type PaymentIntent struct {
	ID             string                    `json:"id"`
	Status         string                    `json:"status"`
	Amount         int64                     `json:"amount"`
	AmountReceived int64                     `json:"amount_received"`
	Currency       string                    `json:"currency"`
	Created        int64                     `json:"created"`
	ClientSecret   string                    `json:"client_secret"`
	Customer       Expandable[Customer]      `json:"customer"`
	PaymentMethod  Expandable[PaymentMethod] `json:"payment_method"`
	Invoice        Expandable[Invoice]       `json:"invoice"`
	Metadata       map[string]string         `json:"metadata"`
}

type Refund struct {
	ID            string                    `json:"id"`
	Status        string                    `json:"status"`
	Amount        int64                     `json:"amount"`
	Currency      string                    `json:"currency"`
	Created       int64                     `json:"created"`
	PaymentIntent Expandable[PaymentIntent] `json:"payment_intent"`
	Metadata      map[string]string         `json:"metadata"`
}

type Dispute struct {
	ID            string                    `json:"id"`
	Status        string                    `json:"status"`
	Amount        int64                     `json:"amount"`
	Currency      string                    `json:"currency"`
	Created       int64                     `json:"created"`
	PaymentIntent Expandable[PaymentIntent] `json:"payment_intent"`
	Metadata      map[string]string         `json:"metadata"`
}

type TaxRate struct {
	ID                  string   `json:"id"`
	DisplayName         string   `json:"display_name"`
	Jurisdiction        string   `json:"jurisdiction"`
	Inclusive           bool     `json:"inclusive"`
	Percentage          float64  `json:"percentage"`
	EffectivePercentage *float64 `json:"effective_percentage"`
}

// PaymentRecord is a settlement record reported on the master ledger for money
// that actually moved on a processing ledger.
type PaymentRecord struct {
	ID       string            `json:"id"`
	Metadata map[string]string `json:"metadata"`
}

// Deleted is the remote ledger's acknowledgement of a deletion.
type Deleted struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

type CreditNote struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
}
