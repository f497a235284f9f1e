package ledger

import (
	"strconv"

	"github.com/stripe/stripe-go/v76"

	"github.com/josh-kwaku/ledgersync/internal/domain"
)

// Parameter structs encoded with stripe-go's form encoder. Each declares its own
// Metadata and Expand so the embedded Params fields stay nil.

type retrieveParams struct {
	stripe.Params `form:"*"`
	Expand        []*string `form:"expand"`
}

type addressParams struct {
	Line1      *string `form:"line1"`
	Line2      *string `form:"line2"`
	City       *string `form:"city"`
	State      *string `form:"state"`
	PostalCode *string `form:"postal_code"`
	Country    *string `form:"country"`
}

type customerParams struct {
	stripe.Params `form:"*"`
	Email         *string           `form:"email"`
	Name          *string           `form:"name"`
	Address       *addressParams    `form:"address"`
	Metadata      map[string]string `form:"metadata"`
}

type metadataParams struct {
	stripe.Params `form:"*"`
	Metadata      map[string]string `form:"metadata"`
}

type customPaymentMethodParams struct {
	Type *string `form:"type"`
}

type paymentMethodParams struct {
	stripe.Params `form:"*"`
	Type          *string                    `form:"type"`
	Custom        *customPaymentMethodParams `form:"custom"`
	Metadata      map[string]string          `form:"metadata"`
}

type attachPaymentMethodParams struct {
	stripe.Params `form:"*"`
	Customer      *string `form:"customer"`
}

type listPaymentMethodsParams struct {
	stripe.Params `form:"*"`
	Type          *string `form:"type"`
	Limit         *int64  `form:"limit"`
}

type periodParams struct {
	Start *int64 `form:"start"`
	End   *int64 `form:"end"`
}

type invoiceItemParams struct {
	stripe.Params `form:"*"`
	Customer      *string           `form:"customer"`
	Invoice       *string           `form:"invoice"`
	Currency      *string           `form:"currency"`
	Amount        *int64            `form:"amount"`
	Description   *string           `form:"description"`
	Period        *periodParams     `form:"period"`
	Metadata      map[string]string `form:"metadata"`
}

type invoiceParams struct {
	stripe.Params               `form:"*"`
	Customer                    *string           `form:"customer"`
	Currency                    *string           `form:"currency"`
	CollectionMethod            *string           `form:"collection_method"`
	AutoAdvance                 *bool             `form:"auto_advance"`
	PendingInvoiceItemsBehavior *string           `form:"pending_invoice_items_behavior"`
	DaysUntilDue                *int64            `form:"days_until_due"`
	DefaultPaymentMethod        *string           `form:"default_payment_method"`
	Number                      *string           `form:"number"`
	Metadata                    map[string]string `form:"metadata"`
}

type deleteParams struct {
	stripe.Params `form:"*"`
}

type payInvoiceParams struct {
	stripe.Params `form:"*"`
	OffSession    *bool `form:"off_session"`
}

type finalizeInvoiceParams struct {
	stripe.Params `form:"*"`
}

type searchParams struct {
	stripe.Params `form:"*"`
	Query         *string `form:"query"`
	Limit         *int64  `form:"limit"`
}

type attachPaymentParams struct {
	stripe.Params `form:"*"`
	PaymentRecord *string `form:"payment_record"`
	PaymentIntent *string `form:"payment_intent"`
}

type taxRateDataParams struct {
	DisplayName *string `form:"display_name"`
	Inclusive   *bool   `form:"inclusive"`
	Percentage  *string `form:"percentage"`
}

type taxAmountParams struct {
	Amount        *int64             `form:"amount"`
	TaxableAmount *int64             `form:"taxable_amount"`
	TaxRateData   *taxRateDataParams `form:"tax_rate_data"`
}

type lineItemTaxParams struct {
	stripe.Params `form:"*"`
	TaxAmounts    []*taxAmountParams `form:"tax_amounts"`
}

type subscriptionItemParams struct {
	Price    *string `form:"price"`
	Quantity *int64  `form:"quantity"`
}

type paymentSettingsParams struct {
	SaveDefaultPaymentMethod *string `form:"save_default_payment_method"`
}

type enabledParams struct {
	Enabled *bool `form:"enabled"`
}

type subscriptionParams struct {
	stripe.Params        `form:"*"`
	Customer             *string                   `form:"customer"`
	Items                []*subscriptionItemParams `form:"items"`
	CollectionMethod     *string                   `form:"collection_method"`
	PaymentBehavior      *string                   `form:"payment_behavior"`
	PaymentSettings      *paymentSettingsParams    `form:"payment_settings"`
	AutomaticTax         *enabledParams            `form:"automatic_tax"`
	DefaultPaymentMethod *string                   `form:"default_payment_method"`
	Metadata             map[string]string         `form:"metadata"`
	Expand               []*string                 `form:"expand"`
}

type paymentIntentParams struct {
	stripe.Params           `form:"*"`
	Customer                *string           `form:"customer"`
	Amount                  *int64            `form:"amount"`
	Currency                *string           `form:"currency"`
	Description             *string           `form:"description"`
	SetupFutureUsage        *string           `form:"setup_future_usage"`
	AutomaticPaymentMethods *enabledParams    `form:"automatic_payment_methods"`
	Metadata                map[string]string `form:"metadata"`
}

type amountParams struct {
	Currency *string `form:"currency"`
	Value    *int64  `form:"value"`
}

type customerDetailsParams struct {
	Customer *string `form:"customer"`
}

type paymentMethodDetailsParams struct {
	PaymentMethod *string `form:"payment_method"`
}

type customProcessorParams struct {
	PaymentReference *string `form:"payment_reference"`
	RefundReference  *string `form:"refund_reference"`
}

type processorDetailsParams struct {
	Type   *string                `form:"type"`
	Custom *customProcessorParams `form:"custom"`
}

type guaranteedParams struct {
	GuaranteedAt *int64 `form:"guaranteed_at"`
}

type failedParams struct {
	FailedAt *int64 `form:"failed_at"`
}

type refundedParams struct {
	RefundedAt *int64 `form:"refunded_at"`
}

type reportPaymentParams struct {
	stripe.Params        `form:"*"`
	AmountRequested      *amountParams               `form:"amount_requested"`
	InitiatedAt          *int64                      `form:"initiated_at"`
	CustomerDetails      *customerDetailsParams      `form:"customer_details"`
	Outcome              *string                     `form:"outcome"`
	Guaranteed           *guaranteedParams           `form:"guaranteed"`
	Failed               *failedParams               `form:"failed"`
	PaymentMethodDetails *paymentMethodDetailsParams `form:"payment_method_details"`
	ProcessorDetails     *processorDetailsParams     `form:"processor_details"`
	Metadata             map[string]string           `form:"metadata"`
}

type reportRefundParams struct {
	stripe.Params    `form:"*"`
	ProcessorDetails *processorDetailsParams `form:"processor_details"`
	Outcome          *string                 `form:"outcome"`
	Refunded         *refundedParams         `form:"refunded"`
	Amount           *amountParams           `form:"amount"`
	InitiatedAt      *int64                  `form:"initiated_at"`
	Metadata         map[string]string       `form:"metadata"`
}

type creditNoteLineParams struct {
	InvoiceLineItem *string `form:"invoice_line_item"`
	Quantity        *int64  `form:"quantity"`
	Type            *string `form:"type"`
}

type creditNoteParams struct {
	stripe.Params   `form:"*"`
	Invoice         *string                 `form:"invoice"`
	Lines           []*creditNoteLineParams `form:"lines"`
	OutOfBandAmount *int64                  `form:"out_of_band_amount"`
	Metadata        map[string]string       `form:"metadata"`
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return stripe.String(s)
}

func optInt(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return stripe.Int64(v)
}

func optMetadata(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	return m
}

func expand(fields ...string) []*string {
	return stripe.StringSlice(fields)
}

func newAddressParams(a *domain.Address) *addressParams {
	if a == nil {
		return nil
	}
	p := &addressParams{
		Line1:      optString(a.Line1),
		Line2:      optString(a.Line2),
		City:       optString(a.City),
		State:      optString(a.State),
		PostalCode: optString(a.PostalCode),
		Country:    optString(a.Country),
	}
	if *p == (addressParams{}) {
		return nil
	}
	return p
}

func newTaxAmountParams(taxes []domain.TaxAmount) []*taxAmountParams {
	out := make([]*taxAmountParams, 0, len(taxes))
	for _, t := range taxes {
		pct := t.TaxRateData.Percentage.String()
		if _, err := strconv.ParseFloat(pct, 64); err != nil {
			pct = "0"
		}
		out = append(out, &taxAmountParams{
			Amount:        stripe.Int64(t.Amount),
			TaxableAmount: stripe.Int64(t.TaxableAmount),
			TaxRateData: &taxRateDataParams{
				DisplayName: stripe.String(t.TaxRateData.DisplayName),
				Inclusive:   stripe.Bool(t.TaxRateData.Inclusive),
				Percentage:  stripe.String(pct),
			},
		})
	}
	return out
}
