package ledger

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/stripe/stripe-go/v76"

	"github.com/josh-kwaku/ledgersync/internal/domain"
)

func invoicePath(id string, suffix ...string) string {
	parts := append([]string{"/v1/invoices", url.PathEscape(id)}, suffix...)
	return strings.Join(parts, "/")
}

func (c *Client) CreateInvoiceItem(ctx context.Context, req InvoiceItemRequest) (*domain.InvoiceLineItem, error) {
	params := &invoiceItemParams{
		Customer:    stripe.String(req.Customer),
		Invoice:     optString(req.Invoice),
		Currency:    stripe.String(req.Currency),
		Amount:      stripe.Int64(req.Amount),
		Description: optString(req.Description),
		Metadata:    optMetadata(req.Metadata),
	}
	if req.Period != nil {
		params.Period = &periodParams{
			Start: stripe.Int64(req.Period.Start),
			End:   stripe.Int64(req.Period.End),
		}
	}
	return call[domain.InvoiceLineItem](ctx, c, "CreateInvoiceItem", http.MethodPost, "/v1/invoiceitems", params, callOpts{})
}

// DeleteInvoiceItem removes an invoice item that is pending or sits on a draft
// invoice.
func (c *Client) DeleteInvoiceItem(ctx context.Context, id string) error {
	_, err := call[domain.Deleted](ctx, c, "DeleteInvoiceItem", http.MethodDelete, "/v1/invoiceitems/"+url.PathEscape(id), &deleteParams{}, callOpts{})
	return err
}

func (c *Client) CreateInvoice(ctx context.Context, req InvoiceRequest) (*domain.Invoice, error) {
	pending := "include"
	if req.ExcludePendingItems {
		pending = "exclude"
	}
	params := &invoiceParams{
		Customer:                    stripe.String(req.Customer),
		Currency:                    optString(req.Currency),
		CollectionMethod:            optString(string(req.CollectionMethod)),
		AutoAdvance:                 req.AutoAdvance,
		PendingInvoiceItemsBehavior: stripe.String(pending),
		DaysUntilDue:                optInt(req.DaysUntilDue),
		DefaultPaymentMethod:        optString(req.DefaultPaymentMethod),
		Number:                      optString(req.Number),
		Metadata:                    optMetadata(req.Metadata),
	}
	return call[domain.Invoice](ctx, c, "CreateInvoice", http.MethodPost, "/v1/invoices", params, callOpts{})
}

// DeleteInvoice removes a draft invoice.
func (c *Client) DeleteInvoice(ctx context.Context, id string) error {
	_, err := call[domain.Deleted](ctx, c, "DeleteInvoice", http.MethodDelete, invoicePath(id), &deleteParams{}, callOpts{})
	return err
}

func (c *Client) GetInvoice(ctx context.Context, id string) (*domain.Invoice, error) {
	return call[domain.Invoice](ctx, c, "GetInvoice", http.MethodGet, invoicePath(id), &retrieveParams{}, callOpts{})
}

// GetInvoiceLegacy reads the invoice under LegacyAPIVersion so payment_intent
// is populated.
func (c *Client) GetInvoiceLegacy(ctx context.Context, id string) (*domain.Invoice, error) {
	return call[domain.Invoice](ctx, c, "GetInvoiceLegacy", http.MethodGet, invoicePath(id), &retrieveParams{}, callOpts{apiVersion: LegacyAPIVersion})
}

func (c *Client) UpdateInvoiceAnnotations(ctx context.Context, id string, metadata map[string]string) (*domain.Invoice, error) {
	params := &metadataParams{Metadata: metadata}
	return call[domain.Invoice](ctx, c, "UpdateInvoiceAnnotations", http.MethodPost, invoicePath(id), params, callOpts{})
}

func (c *Client) PayInvoice(ctx context.Context, id string, offSession bool) (*domain.Invoice, error) {
	params := &payInvoiceParams{}
	if offSession {
		params.OffSession = stripe.Bool(true)
	}
	return call[domain.Invoice](ctx, c, "PayInvoice", http.MethodPost, invoicePath(id, "pay"), params, callOpts{})
}

func (c *Client) FinalizeInvoice(ctx context.Context, id string) (*domain.Invoice, error) {
	return call[domain.Invoice](ctx, c, "FinalizeInvoice", http.MethodPost, invoicePath(id, "finalize"), &finalizeInvoiceParams{}, callOpts{})
}

func (c *Client) SearchInvoices(ctx context.Context, query string, limit int64) ([]domain.Invoice, error) {
	params := &searchParams{
		Query: stripe.String(query),
		Limit: stripe.Int64(limit),
	}
	res, err := call[domain.List[domain.Invoice]](ctx, c, "SearchInvoices", http.MethodGet, "/v1/invoices/search", params, callOpts{})
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// MetadataQuery renders a search clause matching one metadata value.
func MetadataQuery(key, value string) string {
	escaped := strings.ReplaceAll(value, `'`, `\'`)
	return fmt.Sprintf("metadata['%s']:'%s'", key, escaped)
}

func (c *Client) AttachInvoicePayment(ctx context.Context, invoiceID string, target AttachTarget) (*domain.Invoice, error) {
	params := &attachPaymentParams{
		PaymentRecord: optString(target.PaymentRecord),
		PaymentIntent: optString(target.PaymentIntent),
	}
	return call[domain.Invoice](ctx, c, "AttachInvoicePayment", http.MethodPost, invoicePath(invoiceID, "attach_payment"), params, callOpts{})
}

func (c *Client) UpdateInvoiceLineItemTaxes(ctx context.Context, invoiceID, lineID string, taxes []domain.TaxAmount) (*domain.InvoiceLineItem, error) {
	params := &lineItemTaxParams{TaxAmounts: newTaxAmountParams(taxes)}
	path := invoicePath(invoiceID, "lines", url.PathEscape(lineID))
	return call[domain.InvoiceLineItem](ctx, c, "UpdateInvoiceLineItemTaxes", http.MethodPost, path, params, callOpts{})
}

func (c *Client) CreateCreditNote(ctx context.Context, req CreditNoteRequest) (*domain.CreditNote, error) {
	params := &creditNoteParams{
		Invoice: stripe.String(req.Invoice),
		Lines: []*creditNoteLineParams{{
			InvoiceLineItem: stripe.String(req.LineItem),
			Quantity:        stripe.Int64(1),
			Type:            stripe.String("invoice_line_item"),
		}},
		OutOfBandAmount: stripe.Int64(req.OutOfBandAmount),
		Metadata:        optMetadata(req.Metadata),
	}
	return call[domain.CreditNote](ctx, c, "CreateCreditNote", http.MethodPost, "/v1/credit_notes", params, callOpts{})
}
