package ledger

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/stripe/stripe-go/v76"

	"github.com/josh-kwaku/ledgersync/internal/domain"
)

func (c *Client) CreateSubscription(ctx context.Context, req SubscriptionRequest) (*domain.Subscription, error) {
	params := &subscriptionParams{
		Customer: stripe.String(req.Customer),
		Items: []*subscriptionItemParams{{
			Price:    stripe.String(req.Price),
			Quantity: stripe.Int64(1),
		}},
		CollectionMethod: stripe.String(string(ChargeAutomatically)),
		PaymentBehavior:  stripe.String("default_incomplete"),
		PaymentSettings: &paymentSettingsParams{
			SaveDefaultPaymentMethod: stripe.String("on_subscription"),
		},
		Metadata: optMetadata(req.Metadata),
		Expand:   expand("latest_invoice", "latest_invoice.confirmation_secret", "pending_setup_intent"),
	}
	if req.AutomaticTax {
		params.AutomaticTax = &enabledParams{Enabled: stripe.Bool(true)}
	}
	return call[domain.Subscription](ctx, c, "CreateSubscription", http.MethodPost, "/v1/subscriptions", params, callOpts{})
}

// GetSubscription reads a subscription with its default payment method expanded.
func (c *Client) GetSubscription(ctx context.Context, id string) (*domain.Subscription, error) {
	params := &retrieveParams{Expand: expand("default_payment_method")}
	return call[domain.Subscription](ctx, c, "GetSubscription", http.MethodGet, "/v1/subscriptions/"+url.PathEscape(id), params, callOpts{})
}

func (c *Client) SetSubscriptionDefaultPaymentMethod(ctx context.Context, id, paymentMethodID string) (*domain.Subscription, error) {
	params := &subscriptionParams{DefaultPaymentMethod: stripe.String(paymentMethodID)}
	return call[domain.Subscription](ctx, c, "SetSubscriptionDefaultPaymentMethod", http.MethodPost, "/v1/subscriptions/"+url.PathEscape(id), params, callOpts{})
}

// CreatePaymentIntent creates an attempt that saves the payment method for
// later off-session charges.
func (c *Client) CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*domain.PaymentIntent, error) {
	params := &paymentIntentParams{
		Customer:                optString(req.Customer),
		Amount:                  stripe.Int64(req.Amount),
		Currency:                stripe.String(req.Currency),
		Description:             optString(req.Description),
		SetupFutureUsage:        stripe.String("off_session"),
		AutomaticPaymentMethods: &enabledParams{Enabled: stripe.Bool(true)},
		Metadata:                optMetadata(req.Metadata),
	}
	return call[domain.PaymentIntent](ctx, c, "CreatePaymentIntent", http.MethodPost, "/v1/payment_intents", params, callOpts{})
}

// GetPaymentIntent reads a payment intent with its invoice expanded.
func (c *Client) GetPaymentIntent(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	params := &retrieveParams{Expand: expand("invoice")}
	return call[domain.PaymentIntent](ctx, c, "GetPaymentIntent", http.MethodGet, "/v1/payment_intents/"+url.PathEscape(id), params, callOpts{apiVersion: LegacyAPIVersion})
}

func (c *Client) ReportPayment(ctx context.Context, req ReportPaymentRequest) (*domain.PaymentRecord, error) {
	params := &reportPaymentParams{
		AmountRequested: &amountParams{
			Currency: stripe.String(req.Currency),
			Value:    stripe.Int64(req.Amount),
		},
		InitiatedAt:          stripe.Int64(req.InitiatedAt),
		CustomerDetails:      &customerDetailsParams{Customer: stripe.String(req.Customer)},
		Outcome:              stripe.String(string(req.Outcome)),
		PaymentMethodDetails: &paymentMethodDetailsParams{PaymentMethod: stripe.String(req.PaymentMethod)},
		ProcessorDetails: &processorDetailsParams{
			Type:   stripe.String("custom"),
			Custom: &customProcessorParams{PaymentReference: stripe.String(req.PaymentReference)},
		},
		Metadata: optMetadata(req.Metadata),
	}
	switch req.Outcome {
	case OutcomeGuaranteed:
		params.Guaranteed = &guaranteedParams{GuaranteedAt: stripe.Int64(req.OutcomeAt)}
	case OutcomeFailed:
		params.Failed = &failedParams{FailedAt: stripe.Int64(req.OutcomeAt)}
	default:
		return nil, fmt.Errorf("ReportPayment: unsupported outcome %q", req.Outcome)
	}
	return call[domain.PaymentRecord](ctx, c, "ReportPayment", http.MethodPost, "/v1/payment_records/report_payment", params, callOpts{})
}

func (c *Client) ReportRefund(ctx context.Context, req ReportRefundRequest) (*domain.PaymentRecord, error) {
	params := &reportRefundParams{
		ProcessorDetails: &processorDetailsParams{
			Type:   stripe.String("custom"),
			Custom: &customProcessorParams{RefundReference: stripe.String(req.RefundReference)},
		},
		Outcome:  stripe.String("refunded"),
		Refunded: &refundedParams{RefundedAt: stripe.Int64(req.RefundedAt)},
		Amount: &amountParams{
			Currency: stripe.String(req.Currency),
			Value:    stripe.Int64(req.Amount),
		},
		InitiatedAt: stripe.Int64(req.RefundedAt),
		Metadata:    optMetadata(req.Metadata),
	}
	path := "/v1/payment_records/" + url.PathEscape(req.PaymentRecord) + "/report_refund"
	return call[domain.PaymentRecord](ctx, c, "ReportRefund", http.MethodPost, path, params, callOpts{})
}
