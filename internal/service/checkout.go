package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/josh-kwaku/ledgersync/internal/catalog"
	"github.com/josh-kwaku/ledgersync/internal/correlation"
	"github.com/josh-kwaku/ledgersync/internal/domain"
	"github.com/josh-kwaku/ledgersync/internal/ledger"
	"github.com/josh-kwaku/ledgersync/internal/logging"
	"github.com/josh-kwaku/ledgersync/internal/poller"
)

type priceCatalog interface {
	FindPrice(id string) (catalog.Price, error)
}

type checkoutDirectory interface {
	MasterAlias() string
	Master() (domain.LedgerAccount, error)
	Resolve(alias string) (domain.LedgerAccount, error)
	Flags() domain.FeatureFlags
}

// Checkout drives payer onboarding: the payer and the recurring agreement
// are created on master, the first payment is captured on the processing
// ledger chosen by the price.
type Checkout struct {
	catalog   priceCatalog
	dir       checkoutDirectory
	clients   ClientSource
	payerPoll poller.Policy
}

func NewCheckout(prices priceCatalog, dir checkoutDirectory, clients ClientSource, payerPoll poller.Policy) *Checkout {
	return &Checkout{
		catalog:   prices,
		dir:       dir,
		clients:   clients,
		payerPoll: payerPoll,
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidRequest, fmt.Sprintf(format, args...))
}

func missingFields(fields map[string]string, order ...string) error {
	var missing []string
	for _, name := range order {
		if strings.TrimSpace(fields[name]) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return invalid("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

type pricing struct {
	price      catalog.Price
	master     domain.LedgerAccount
	processing domain.LedgerAccount
}

func (c *Checkout) resolvePrice(priceID string) (*pricing, error) {
	price, err := c.catalog.FindPrice(strings.TrimSpace(priceID))
	if err != nil {
		return nil, err
	}
	master, err := c.dir.Master()
	if err != nil {
		return nil, err
	}
	processing, err := c.dir.Resolve(price.AccountAlias)
	if err != nil {
		return nil, err
	}
	return &pricing{price: price, master: master, processing: processing}, nil
}

func (p *pricing) annotations(extra ...string) map[string]string {
	kv := append([]string{
		correlation.ProcessingAccountID, p.processing.AccountID,
		correlation.MasterAccountID, p.master.AccountID,
		correlation.SelectedPriceID, p.price.ID,
		correlation.SelectedCurrency, p.price.Currency,
	}, extra...)
	return correlation.Annotations(kv...)
}

func (c *Checkout) masterClient() (LedgerClient, error) {
	return c.clients(c.dir.MasterAlias())
}

type PublishableKeys struct {
	PublishableKey           string                `json:"publishable_key"`
	MasterAccount            domain.AccountSummary `json:"master_account"`
	ProcessingAccountID      string                `json:"processing_account_id"`
	ProcessingPublishableKey string                `json:"processing_publishable_key"`
	ProcessingAccount        domain.AccountSummary `json:"processing_account"`
	Price                    catalog.Price         `json:"price"`
}

// PublishableKeys returns the client credentials a payer needs to check out
// the given price.
func (c *Checkout) PublishableKeys(ctx context.Context, priceID string) (*PublishableKeys, error) {
	if strings.TrimSpace(priceID) == "" {
		return nil, invalid("missing required query param: price_id")
	}
	p, err := c.resolvePrice(priceID)
	if err != nil {
		return nil, err
	}
	return &PublishableKeys{
		PublishableKey:           p.master.PublishableKey,
		MasterAccount:            p.master.Summary(true),
		ProcessingAccountID:      p.processing.AccountID,
		ProcessingPublishableKey: p.processing.PublishableKey,
		ProcessingAccount:        p.processing.Summary(p.processing.Alias == p.master.Alias),
		Price:                    p.price,
	}, nil
}

type CustomerInput struct {
	PriceID   string          `json:"price_id"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Email     string          `json:"email"`
	Address   *domain.Address `json:"address"`
}

type CustomerResult struct {
	CustomerID          string `json:"stripe_customer_id"`
	CreatedOnAccountID  string `json:"created_on_account_id"`
	ProcessingAccountID string `json:"processing_account_id"`
}

func (c *Checkout) CreateCustomer(ctx context.Context, in CustomerInput) (*CustomerResult, error) {
	if err := missingFields(map[string]string{
		"price_id":   in.PriceID,
		"first_name": in.FirstName,
		"last_name":  in.LastName,
		"email":      in.Email,
	}, "price_id", "first_name", "last_name", "email"); err != nil {
		return nil, err
	}
	p, err := c.resolvePrice(in.PriceID)
	if err != nil {
		return nil, err
	}
	master, err := c.masterClient()
	if err != nil {
		return nil, err
	}

	cust, err := master.CreateCustomer(ctx, ledger.CustomerRequest{
		Email:    strings.TrimSpace(in.Email),
		Name:     strings.TrimSpace(in.FirstName) + " " + strings.TrimSpace(in.LastName),
		Address:  normalizeAddress(in.Address),
		Metadata: p.annotations(),
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("payer created",
		"customer", cust.ID,
		"price", p.price.ID,
		"processing_account", p.processing.AccountID,
	)
	return &CustomerResult{
		CustomerID:          cust.ID,
		CreatedOnAccountID:  p.master.AccountID,
		ProcessingAccountID: p.processing.AccountID,
	}, nil
}

// normalizeAddress trims every field and returns nil when nothing is left.
func normalizeAddress(a *domain.Address) *domain.Address {
	if a == nil {
		return nil
	}
	out := domain.Address{
		Line1:      strings.TrimSpace(a.Line1),
		Line2:      strings.TrimSpace(a.Line2),
		City:       strings.TrimSpace(a.City),
		State:      strings.TrimSpace(a.State),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.TrimSpace(a.Country),
	}
	if out == (domain.Address{}) {
		return nil
	}
	return &out
}

type SubscriptionInput struct {
	PriceID    string `json:"price_id"`
	CustomerID string `json:"stripe_customer_id"`
}

type SubscriptionResult struct {
	SubscriptionID                 string `json:"stripe_subscription_id"`
	Status                         string `json:"status"`
	LatestInvoiceID                string `json:"latest_invoice_id"`
	HostedInvoiceURL               string `json:"hosted_invoice_url"`
	InvoiceCurrency                string `json:"invoice_currency"`
	InvoiceTotal                   int64  `json:"invoice_total"`
	InvoiceTotalExcludingTax       int64  `json:"invoice_total_excluding_tax"`
	InvoiceTaxableAmount           *int64 `json:"invoice_taxable_amount"`
	InvoiceAmountDue               *int64 `json:"invoice_amount_due"`
	PaymentIntentID                string `json:"payment_intent_id"`
	PaymentIntentClientSecret      string `json:"payment_intent_client_secret"`
	PaymentConfirmationType        string `json:"payment_confirmation_type"`
	PendingSetupIntentID           string `json:"pending_setup_intent_id"`
	PendingSetupIntentClientSecret string `json:"pending_setup_intent_client_secret"`
	CreatedOnAccountID             string `json:"created_on_account_id"`
	ProcessingAccountID            string `json:"processing_account_id"`
}

func (c *Checkout) CreateSubscription(ctx context.Context, in SubscriptionInput) (*SubscriptionResult, error) {
	if err := missingFields(map[string]string{
		"price_id":           in.PriceID,
		"stripe_customer_id": in.CustomerID,
	}, "price_id", "stripe_customer_id"); err != nil {
		return nil, err
	}
	p, err := c.resolvePrice(in.PriceID)
	if err != nil {
		return nil, err
	}
	master, err := c.masterClient()
	if err != nil {
		return nil, err
	}

	var extra []string
	skipSync := p.processing.AccountID != p.master.AccountID && c.dir.Flags().SkipSyncNonMasterInvoice
	if skipSync {
		extra = append(extra, correlation.SkipNonMasterInvoiceSync, correlation.FormatBool(true))
	}

	sub, err := master.CreateSubscription(ctx, ledger.SubscriptionRequest{
		Customer:     strings.TrimSpace(in.CustomerID),
		Price:        p.price.ID,
		AutomaticTax: true,
		Metadata:     p.annotations(extra...),
	})
	if err != nil {
		return nil, err
	}

	out := &SubscriptionResult{
		SubscriptionID:      sub.ID,
		Status:              sub.Status,
		CreatedOnAccountID:  p.master.AccountID,
		ProcessingAccountID: p.processing.AccountID,
	}
	if si := sub.PendingSetupIntent.Object; si != nil {
		out.PendingSetupIntentID = si.ID
		out.PendingSetupIntentClientSecret = si.ClientSecret
	} else {
		out.PendingSetupIntentID = sub.PendingSetupIntent.ID
	}

	inv := sub.LatestInvoice.Object
	if inv == nil {
		out.LatestInvoiceID = sub.LatestInvoice.ID
		return out, nil
	}
	out.LatestInvoiceID = inv.ID
	out.HostedInvoiceURL = inv.HostedInvoiceURL
	out.InvoiceCurrency = inv.Currency
	out.InvoiceTotal = inv.Total
	out.InvoiceTotalExcludingTax = inv.TotalExcludingTax
	out.InvoiceAmountDue = inv.AmountDue
	out.InvoiceTaxableAmount = taxableAmount(inv.TotalTaxes)
	if cs := inv.ConfirmationSecret; cs != nil {
		out.PaymentIntentClientSecret = cs.ClientSecret
		out.PaymentConfirmationType = cs.Type
		out.PaymentIntentID = paymentIntentFromSecret(cs.ClientSecret)
	}

	if skipSync && inv.ID != "" {
		if _, err := master.UpdateInvoiceAnnotations(ctx, inv.ID, map[string]string{
			correlation.SkipNonMasterInvoiceSync: correlation.FormatBool(true),
		}); err != nil {
			logging.FromContext(ctx).Warn("tagging latest invoice failed", "invoice", inv.ID, "error", err)
		}
	}

	logging.FromContext(ctx).Info("subscription created",
		slog.String("subscription", sub.ID),
		slog.String("latest_invoice", inv.ID),
		slog.Bool("skip_sync", skipSync),
	)
	return out, nil
}

func taxableAmount(taxes []domain.TotalTax) *int64 {
	var sum int64
	for _, t := range taxes {
		sum += t.TaxableAmount
	}
	if sum == 0 {
		return nil
	}
	return &sum
}

// paymentIntentFromSecret recovers the payment intent id from its client
// secret, which is "<id>_secret_<nonce>".
func paymentIntentFromSecret(secret string) string {
	id, _, ok := strings.Cut(secret, "_secret_")
	if !ok {
		return ""
	}
	return id
}

type ProcessingPaymentInput struct {
	PriceID                string `json:"price_id"`
	CustomerID             string `json:"stripe_customer_id"`
	OriginalInvoiceID      string `json:"original_invoice_id"`
	OriginalSubscriptionID string `json:"original_subscription_id"`
}

type ProcessingPaymentResult struct {
	ProcessingAccountID       string `json:"processing_account_id"`
	ProcessingPublishableKey  string `json:"processing_publishable_key"`
	PaymentIntentID           string `json:"payment_intent_id"`
	PaymentIntentClientSecret string `json:"payment_intent_client_secret"`
	Amount                    int64  `json:"amount"`
	Currency                  string `json:"currency"`
}

// CreateProcessingPayment opens the initial payment for a master invoice on
// the processing ledger of the chosen price. The payer is shared from master
// and becomes visible there asynchronously.
func (c *Checkout) CreateProcessingPayment(ctx context.Context, in ProcessingPaymentInput) (*ProcessingPaymentResult, error) {
	if err := missingFields(map[string]string{
		"price_id":                 in.PriceID,
		"stripe_customer_id":       in.CustomerID,
		"original_invoice_id":      in.OriginalInvoiceID,
		"original_subscription_id": in.OriginalSubscriptionID,
	}, "price_id", "stripe_customer_id", "original_invoice_id", "original_subscription_id"); err != nil {
		return nil, err
	}
	p, err := c.resolvePrice(in.PriceID)
	if err != nil {
		return nil, err
	}
	master, err := c.masterClient()
	if err != nil {
		return nil, err
	}

	inv, err := master.GetInvoice(ctx, in.OriginalInvoiceID)
	if err != nil {
		return nil, err
	}
	amount := firstNonZero(inv.Due(), inv.Total)
	if amount == 0 {
		return nil, invalid("invoice %s has nothing to pay", inv.ID)
	}
	currency, err := requireField(firstNonEmpty(inv.Currency, p.price.Currency), "invoice currency")
	if err != nil {
		return nil, err
	}

	processing, err := c.clients(p.processing.Alias)
	if err != nil {
		return nil, err
	}
	customerID := strings.TrimSpace(in.CustomerID)
	err = poller.Until(ctx, c.payerPoll, func(ctx context.Context) (bool, error) {
		_, err := processing.GetCustomer(ctx, customerID)
		if ledger.IsNotFound(err) {
			return false, nil
		}
		return err == nil, err
	})
	if err != nil {
		return nil, fmt.Errorf("payer %s on %s: %w", customerID, p.processing.Alias, err)
	}

	pi, err := processing.CreatePaymentIntent(ctx, ledger.PaymentIntentRequest{
		Customer: customerID,
		Amount:   amount,
		Currency: currency,
		Metadata: correlation.Annotations(
			correlation.InitialPayment, correlation.FormatBool(true),
			correlation.MasterAccountID, p.master.AccountID,
			correlation.MasterInvoiceID, inv.ID,
			correlation.MasterSubscriptionID, in.OriginalSubscriptionID,
			correlation.MasterCustomerID, customerID,
		),
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("initial payment opened",
		"payment_intent", pi.ID,
		"processing_alias", p.processing.Alias,
		"master_invoice", inv.ID,
	)
	return &ProcessingPaymentResult{
		ProcessingAccountID:       p.processing.AccountID,
		ProcessingPublishableKey:  p.processing.PublishableKey,
		PaymentIntentID:           pi.ID,
		PaymentIntentClientSecret: pi.ClientSecret,
		Amount:                    amount,
		Currency:                  currency,
	}, nil
}

type PaymentMethodLink struct {
	PaymentMethodID                  string `json:"payment_method_id"`
	MasterAccountID                  string `json:"master_account_id"`
	ProcessingAccountPaymentMethodID string `json:"processing_account_payment_method_id"`
}

// LinkProcessingPaymentMethod points a master synthetic credential at a
// processing ledger payment method.
func (c *Checkout) LinkProcessingPaymentMethod(ctx context.Context, masterPaymentMethodID, processingPaymentMethodID string) (*PaymentMethodLink, error) {
	if err := missingFields(map[string]string{
		"master_account_custom_payment_method": masterPaymentMethodID,
		"processing_account_payment_method_id": processingPaymentMethodID,
	}, "master_account_custom_payment_method", "processing_account_payment_method_id"); err != nil {
		return nil, err
	}
	master, err := c.masterClient()
	if err != nil {
		return nil, err
	}
	pm, err := master.UpdatePaymentMethodAnnotations(ctx, strings.TrimSpace(masterPaymentMethodID), correlation.Annotations(
		correlation.ProcessingPaymentMethodID, processingPaymentMethodID,
	))
	if err != nil {
		return nil, err
	}
	return &PaymentMethodLink{
		PaymentMethodID:                  pm.ID,
		MasterAccountID:                  master.AccountID(),
		ProcessingAccountPaymentMethodID: correlation.Ref(pm.Metadata).ProcessingPaymentMethodID(),
	}, nil
}

type PaymentMethodView struct {
	MasterAccountID string            `json:"master_account_id"`
	PaymentMethod   PaymentMethodInfo `json:"payment_method"`
}

type PaymentMethodInfo struct {
	ID             string                 `json:"id"`
	Type           string                 `json:"type"`
	Customer       string                 `json:"customer"`
	Livemode       bool                   `json:"livemode"`
	Created        int64                  `json:"created"`
	Metadata       map[string]string      `json:"metadata"`
	BillingDetails *domain.BillingDetails `json:"billing_details"`
	Card           *domain.Card           `json:"card,omitempty"`
}

func (c *Checkout) PaymentMethod(ctx context.Context, id string) (*PaymentMethodView, error) {
	if strings.TrimSpace(id) == "" {
		return nil, invalid("missing payment method id")
	}
	master, err := c.masterClient()
	if err != nil {
		return nil, err
	}
	pm, err := master.GetPaymentMethod(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	info := PaymentMethodInfo{
		ID:             pm.ID,
		Type:           pm.Type,
		Customer:       pm.Customer.ID,
		Livemode:       pm.Livemode,
		Created:        pm.Created,
		Metadata:       pm.Metadata,
		BillingDetails: pm.BillingDetails,
	}
	if pm.Type == "card" {
		info.Card = pm.Card
	}
	if info.Metadata == nil {
		info.Metadata = map[string]string{}
	}
	return &PaymentMethodView{MasterAccountID: master.AccountID(), PaymentMethod: info}, nil
}
