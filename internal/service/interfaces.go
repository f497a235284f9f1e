package service

import (
	"context"

	"github.com/josh-kwaku/ledgersync/internal/domain"
	"github.com/josh-kwaku/ledgersync/internal/ledger"
)

// LedgerClient is the set of remote ledger operations the engine and the
// checkout flow need. *ledger.Client implements it.
type LedgerClient interface {
	Alias() string
	AccountID() string

	CreateCustomer(ctx context.Context, req ledger.CustomerRequest) (*domain.Customer, error)
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)

	CreateSyntheticPaymentMethod(ctx context.Context, kind string, metadata map[string]string) (*domain.PaymentMethod, error)
	AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) (*domain.PaymentMethod, error)
	GetPaymentMethod(ctx context.Context, id string) (*domain.PaymentMethod, error)
	UpdatePaymentMethodAnnotations(ctx context.Context, id string, metadata map[string]string) (*domain.PaymentMethod, error)
	ListCustomerPaymentMethods(ctx context.Context, customerID, pmType string) ([]domain.PaymentMethod, error)

	CreateInvoiceItem(ctx context.Context, req ledger.InvoiceItemRequest) (*domain.InvoiceLineItem, error)
	DeleteInvoiceItem(ctx context.Context, id string) error
	CreateInvoice(ctx context.Context, req ledger.InvoiceRequest) (*domain.Invoice, error)
	DeleteInvoice(ctx context.Context, id string) error
	GetInvoice(ctx context.Context, id string) (*domain.Invoice, error)
	GetInvoiceLegacy(ctx context.Context, id string) (*domain.Invoice, error)
	UpdateInvoiceAnnotations(ctx context.Context, id string, metadata map[string]string) (*domain.Invoice, error)
	PayInvoice(ctx context.Context, id string, offSession bool) (*domain.Invoice, error)
	FinalizeInvoice(ctx context.Context, id string) (*domain.Invoice, error)
	SearchInvoices(ctx context.Context, query string, limit int64) ([]domain.Invoice, error)
	AttachInvoicePayment(ctx context.Context, invoiceID string, target ledger.AttachTarget) (*domain.Invoice, error)
	UpdateInvoiceLineItemTaxes(ctx context.Context, invoiceID, lineID string, taxes []domain.TaxAmount) (*domain.InvoiceLineItem, error)
	CreateCreditNote(ctx context.Context, req ledger.CreditNoteRequest) (*domain.CreditNote, error)

	CreateSubscription(ctx context.Context, req ledger.SubscriptionRequest) (*domain.Subscription, error)
	GetSubscription(ctx context.Context, id string) (*domain.Subscription, error)
	SetSubscriptionDefaultPaymentMethod(ctx context.Context, id, paymentMethodID string) (*domain.Subscription, error)

	CreatePaymentIntent(ctx context.Context, req ledger.PaymentIntentRequest) (*domain.PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, id string) (*domain.PaymentIntent, error)

	ReportPayment(ctx context.Context, req ledger.ReportPaymentRequest) (*domain.PaymentRecord, error)
	ReportRefund(ctx context.Context, req ledger.ReportRefundRequest) (*domain.PaymentRecord, error)

	GetTaxRate(ctx context.Context, id string) (*domain.TaxRate, error)
}

// ClientSource returns a client for a ledger alias.
type ClientSource func(alias string) (LedgerClient, error)

// FactorySource adapts a ledger.Factory to a ClientSource.
func FactorySource(f *ledger.Factory) ClientSource {
	return func(alias string) (LedgerClient, error) {
		c, err := f.ForAlias(alias)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

type engineDirectory interface {
	MasterAlias() string
	Role(alias string) domain.Role
	ReverseResolve(accountID string) (string, error)
	SyntheticCredentialKind(processingAlias string) (string, error)
	Flags() domain.FeatureFlags
}
