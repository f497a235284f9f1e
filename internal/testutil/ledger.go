package testutil

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/stripe/stripe-go/v76"

	"github.com/josh-kwaku/ledgersync/internal/domain"
	"github.com/josh-kwaku/ledgersync/internal/ledger"
)

// Call is one operation recorded by a FakeLedger.
type Call struct {
	Op  string
	ID  string
	Arg any
}

// FakeLedger is an in-memory remote ledger. Reads are served from the seeded
// maps, writes are recorded and return generated ids. Set Fail[op] to make
// an operation return that error.
type FakeLedger struct {
	mu        sync.Mutex
	alias     string
	accountID string
	seq       int

	Customers      map[string]*domain.Customer
	PaymentMethods map[string]*domain.PaymentMethod
	Invoices       map[string]*domain.Invoice
	Subscriptions  map[string]*domain.Subscription
	PaymentIntents map[string]*domain.PaymentIntent
	TaxRates       map[string]*domain.TaxRate

	// CustomerPaymentMethods is keyed by customer id.
	CustomerPaymentMethods map[string][]domain.PaymentMethod
	// LegacyReads are returned in order by GetInvoiceLegacy; the last one
	// repeats.
	LegacyReads map[string][]*domain.Invoice
	// CustomerMisses makes GetCustomer answer not found that many times.
	CustomerMisses int
	SearchResults  []domain.Invoice
	// CreatedSubscription is returned by CreateSubscription.
	CreatedSubscription *domain.Subscription

	Fail  map[string]error
	Calls []Call
}

func NewFakeLedger(alias, accountID string) *FakeLedger {
	return &FakeLedger{
		alias:                  alias,
		accountID:              accountID,
		Customers:              map[string]*domain.Customer{},
		PaymentMethods:         map[string]*domain.PaymentMethod{},
		Invoices:               map[string]*domain.Invoice{},
		Subscriptions:          map[string]*domain.Subscription{},
		PaymentIntents:         map[string]*domain.PaymentIntent{},
		TaxRates:               map[string]*domain.TaxRate{},
		CustomerPaymentMethods: map[string][]domain.PaymentMethod{},
		LegacyReads:            map[string][]*domain.Invoice{},
		Fail:                   map[string]error{},
	}
}

// NotFound is the error a remote ledger returns for a missing entity.
func NotFound(id string) error {
	return &stripe.Error{
		HTTPStatusCode: http.StatusNotFound,
		Code:           stripe.ErrorCodeResourceMissing,
		Msg:            "No such object: " + id,
	}
}

func (f *FakeLedger) Alias() string     { return f.alias }
func (f *FakeLedger) AccountID() string { return f.accountID }

func (f *FakeLedger) record(op, id string, arg any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, Call{Op: op, ID: id, Arg: arg})
	return f.Fail[op]
}

func (f *FakeLedger) newID(prefix string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return fmt.Sprintf("%s_%s_%d", prefix, f.alias, f.seq)
}

// CallsTo returns the recorded calls to op, in order.
func (f *FakeLedger) CallsTo(op string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Ops returns the recorded operation names, in order.
func (f *FakeLedger) Ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.Calls))
	for i, c := range f.Calls {
		out[i] = c.Op
	}
	return out
}

func lookup[T any](m map[string]*T, id string) (*T, error) {
	v, ok := m[id]
	if !ok {
		return nil, NotFound(id)
	}
	return v, nil
}

func (f *FakeLedger) CreateCustomer(ctx context.Context, req ledger.CustomerRequest) (*domain.Customer, error) {
	if err := f.record("CreateCustomer", "", req); err != nil {
		return nil, err
	}
	c := &domain.Customer{ID: f.newID("cus"), Email: req.Email, Name: req.Name, Address: req.Address, Metadata: req.Metadata}
	f.Customers[c.ID] = c
	return c, nil
}

func (f *FakeLedger) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	if err := f.record("GetCustomer", id, nil); err != nil {
		return nil, err
	}
	f.mu.Lock()
	miss := f.CustomerMisses > 0
	if miss {
		f.CustomerMisses--
	}
	f.mu.Unlock()
	if miss {
		return nil, NotFound(id)
	}
	return lookup(f.Customers, id)
}

func (f *FakeLedger) CreateSyntheticPaymentMethod(ctx context.Context, kind string, metadata map[string]string) (*domain.PaymentMethod, error) {
	if err := f.record("CreateSyntheticPaymentMethod", kind, metadata); err != nil {
		return nil, err
	}
	pm := &domain.PaymentMethod{
		ID:       f.newID("pm"),
		Type:     "custom",
		Custom:   &domain.CustomPaymentMethod{Type: kind},
		Metadata: metadata,
	}
	f.PaymentMethods[pm.ID] = pm
	return pm, nil
}

func (f *FakeLedger) AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) (*domain.PaymentMethod, error) {
	if err := f.record("AttachPaymentMethod", paymentMethodID, customerID); err != nil {
		return nil, err
	}
	pm, err := lookup(f.PaymentMethods, paymentMethodID)
	if err != nil {
		return nil, err
	}
	pm.Customer = domain.Ref[domain.Customer](customerID)
	return pm, nil
}

func (f *FakeLedger) GetPaymentMethod(ctx context.Context, id string) (*domain.PaymentMethod, error) {
	if err := f.record("GetPaymentMethod", id, nil); err != nil {
		return nil, err
	}
	return lookup(f.PaymentMethods, id)
}

func (f *FakeLedger) UpdatePaymentMethodAnnotations(ctx context.Context, id string, metadata map[string]string) (*domain.PaymentMethod, error) {
	if err := f.record("UpdatePaymentMethodAnnotations", id, metadata); err != nil {
		return nil, err
	}
	pm, ok := f.PaymentMethods[id]
	if !ok {
		pm = &domain.PaymentMethod{ID: id, Type: "custom"}
		f.PaymentMethods[id] = pm
	}
	pm.Metadata = merge(pm.Metadata, metadata)
	return pm, nil
}

func (f *FakeLedger) ListCustomerPaymentMethods(ctx context.Context, customerID, pmType string) ([]domain.PaymentMethod, error) {
	if err := f.record("ListCustomerPaymentMethods", customerID, pmType); err != nil {
		return nil, err
	}
	return f.CustomerPaymentMethods[customerID], nil
}

// CreateInvoiceItem records the item. Items created for an invoice held by
// the fake also appear as lines of that invoice.
func (f *FakeLedger) CreateInvoiceItem(ctx context.Context, req ledger.InvoiceItemRequest) (*domain.InvoiceLineItem, error) {
	if err := f.record("CreateInvoiceItem", req.Invoice, req); err != nil {
		return nil, err
	}
	amount := req.Amount
	item := &domain.InvoiceLineItem{
		ID:          f.newID("ii"),
		Amount:      &amount,
		Currency:    req.Currency,
		Description: req.Description,
		Metadata:    req.Metadata,
	}
	if inv, ok := f.Invoices[req.Invoice]; ok {
		line := *item
		line.ID = f.newID("il")
		inv.Lines.Data = append(inv.Lines.Data, line)
	}
	return item, nil
}

func (f *FakeLedger) DeleteInvoiceItem(ctx context.Context, id string) error {
	return f.record("DeleteInvoiceItem", id, nil)
}

func (f *FakeLedger) CreateInvoice(ctx context.Context, req ledger.InvoiceRequest) (*domain.Invoice, error) {
	if err := f.record("CreateInvoice", "", req); err != nil {
		return nil, err
	}
	inv := &domain.Invoice{
		ID:       f.newID("in"),
		Number:   req.Number,
		Status:   "draft",
		Customer: domain.Ref[domain.Customer](req.Customer),
		Currency: req.Currency,
		Metadata: req.Metadata,
	}
	f.Invoices[inv.ID] = inv
	return inv, nil
}

func (f *FakeLedger) DeleteInvoice(ctx context.Context, id string) error {
	if err := f.record("DeleteInvoice", id, nil); err != nil {
		return err
	}
	delete(f.Invoices, id)
	return nil
}

func (f *FakeLedger) GetInvoice(ctx context.Context, id string) (*domain.Invoice, error) {
	if err := f.record("GetInvoice", id, nil); err != nil {
		return nil, err
	}
	return lookup(f.Invoices, id)
}

func (f *FakeLedger) GetInvoiceLegacy(ctx context.Context, id string) (*domain.Invoice, error) {
	if err := f.record("GetInvoiceLegacy", id, nil); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	reads := f.LegacyReads[id]
	if len(reads) == 0 {
		return lookup(f.Invoices, id)
	}
	next := reads[0]
	if len(reads) > 1 {
		f.LegacyReads[id] = reads[1:]
	}
	return next, nil
}

func (f *FakeLedger) UpdateInvoiceAnnotations(ctx context.Context, id string, metadata map[string]string) (*domain.Invoice, error) {
	if err := f.record("UpdateInvoiceAnnotations", id, metadata); err != nil {
		return nil, err
	}
	inv, ok := f.Invoices[id]
	if !ok {
		inv = &domain.Invoice{ID: id}
		f.Invoices[id] = inv
	}
	inv.Metadata = merge(inv.Metadata, metadata)
	return inv, nil
}

func (f *FakeLedger) PayInvoice(ctx context.Context, id string, offSession bool) (*domain.Invoice, error) {
	if err := f.record("PayInvoice", id, offSession); err != nil {
		return nil, err
	}
	return lookup(f.Invoices, id)
}

func (f *FakeLedger) FinalizeInvoice(ctx context.Context, id string) (*domain.Invoice, error) {
	if err := f.record("FinalizeInvoice", id, nil); err != nil {
		return nil, err
	}
	return lookup(f.Invoices, id)
}

func (f *FakeLedger) SearchInvoices(ctx context.Context, query string, limit int64) ([]domain.Invoice, error) {
	if err := f.record("SearchInvoices", "", query); err != nil {
		return nil, err
	}
	return f.SearchResults, nil
}

func (f *FakeLedger) AttachInvoicePayment(ctx context.Context, invoiceID string, target ledger.AttachTarget) (*domain.Invoice, error) {
	if err := f.record("AttachInvoicePayment", invoiceID, target); err != nil {
		return nil, err
	}
	inv, ok := f.Invoices[invoiceID]
	if !ok {
		return &domain.Invoice{ID: invoiceID}, nil
	}
	return inv, nil
}

func (f *FakeLedger) UpdateInvoiceLineItemTaxes(ctx context.Context, invoiceID, lineID string, taxes []domain.TaxAmount) (*domain.InvoiceLineItem, error) {
	if err := f.record("UpdateInvoiceLineItemTaxes", lineID, taxes); err != nil {
		return nil, err
	}
	return &domain.InvoiceLineItem{ID: lineID}, nil
}

func (f *FakeLedger) CreateCreditNote(ctx context.Context, req ledger.CreditNoteRequest) (*domain.CreditNote, error) {
	if err := f.record("CreateCreditNote", req.Invoice, req); err != nil {
		return nil, err
	}
	return &domain.CreditNote{ID: f.newID("cn"), Amount: req.OutOfBandAmount}, nil
}

func (f *FakeLedger) CreateSubscription(ctx context.Context, req ledger.SubscriptionRequest) (*domain.Subscription, error) {
	if err := f.record("CreateSubscription", req.Customer, req); err != nil {
		return nil, err
	}
	if f.CreatedSubscription != nil {
		return f.CreatedSubscription, nil
	}
	return &domain.Subscription{ID: f.newID("sub"), Status: "incomplete", Metadata: req.Metadata}, nil
}

func (f *FakeLedger) GetSubscription(ctx context.Context, id string) (*domain.Subscription, error) {
	if err := f.record("GetSubscription", id, nil); err != nil {
		return nil, err
	}
	return lookup(f.Subscriptions, id)
}

func (f *FakeLedger) SetSubscriptionDefaultPaymentMethod(ctx context.Context, id, paymentMethodID string) (*domain.Subscription, error) {
	if err := f.record("SetSubscriptionDefaultPaymentMethod", id, paymentMethodID); err != nil {
		return nil, err
	}
	sub, ok := f.Subscriptions[id]
	if !ok {
		sub = &domain.Subscription{ID: id}
		f.Subscriptions[id] = sub
	}
	sub.DefaultPaymentMethod = domain.Ref[domain.PaymentMethod](paymentMethodID)
	return sub, nil
}

func (f *FakeLedger) CreatePaymentIntent(ctx context.Context, req ledger.PaymentIntentRequest) (*domain.PaymentIntent, error) {
	if err := f.record("CreatePaymentIntent", req.Customer, req); err != nil {
		return nil, err
	}
	id := f.newID("pi")
	pi := &domain.PaymentIntent{
		ID:           id,
		Status:       "requires_payment_method",
		Amount:       req.Amount,
		Currency:     req.Currency,
		ClientSecret: id + "_secret_test",
		Customer:     domain.Ref[domain.Customer](req.Customer),
		Metadata:     req.Metadata,
	}
	f.PaymentIntents[id] = pi
	return pi, nil
}

func (f *FakeLedger) GetPaymentIntent(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	if err := f.record("GetPaymentIntent", id, nil); err != nil {
		return nil, err
	}
	return lookup(f.PaymentIntents, id)
}

func (f *FakeLedger) ReportPayment(ctx context.Context, req ledger.ReportPaymentRequest) (*domain.PaymentRecord, error) {
	if err := f.record("ReportPayment", string(req.Outcome), req); err != nil {
		return nil, err
	}
	return &domain.PaymentRecord{ID: f.newID("pr"), Metadata: req.Metadata}, nil
}

func (f *FakeLedger) ReportRefund(ctx context.Context, req ledger.ReportRefundRequest) (*domain.PaymentRecord, error) {
	if err := f.record("ReportRefund", req.PaymentRecord, req); err != nil {
		return nil, err
	}
	return &domain.PaymentRecord{ID: req.PaymentRecord, Metadata: req.Metadata}, nil
}

func (f *FakeLedger) GetTaxRate(ctx context.Context, id string) (*domain.TaxRate, error) {
	if err := f.record("GetTaxRate", id, nil); err != nil {
		return nil, err
	}
	return lookup(f.TaxRates, id)
}

func merge(dst, src map[string]string) map[string]string {
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
