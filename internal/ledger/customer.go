package ledger

import (
	"context"
	"net/http"
	"net/url"

	"github.com/stripe/stripe-go/v76"

	"github.com/josh-kwaku/ledgersync/internal/domain"
)

func (c *Client) CreateCustomer(ctx context.Context, req CustomerRequest) (*domain.Customer, error) {
	params := &customerParams{
		Email:    optString(req.Email),
		Name:     optString(req.Name),
		Address:  newAddressParams(req.Address),
		Metadata: optMetadata(req.Metadata),
	}
	return call[domain.Customer](ctx, c, "CreateCustomer", http.MethodPost, "/v1/customers", params, callOpts{})
}

func (c *Client) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	return call[domain.Customer](ctx, c, "GetCustomer", http.MethodGet, "/v1/customers/"+url.PathEscape(id), &retrieveParams{}, callOpts{})
}

// CreateSyntheticPaymentMethod creates an out-of-band credential of the given
// custom kind. It carries only annotations and is never charged.
func (c *Client) CreateSyntheticPaymentMethod(ctx context.Context, kind string, metadata map[string]string) (*domain.PaymentMethod, error) {
	params := &paymentMethodParams{
		Type:     stripe.String("custom"),
		Custom:   &customPaymentMethodParams{Type: stripe.String(kind)},
		Metadata: optMetadata(metadata),
	}
	return call[domain.PaymentMethod](ctx, c, "CreateSyntheticPaymentMethod", http.MethodPost, "/v1/payment_methods", params, callOpts{})
}

func (c *Client) AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) (*domain.PaymentMethod, error) {
	params := &attachPaymentMethodParams{Customer: stripe.String(customerID)}
	path := "/v1/payment_methods/" + url.PathEscape(paymentMethodID) + "/attach"
	return call[domain.PaymentMethod](ctx, c, "AttachPaymentMethod", http.MethodPost, path, params, callOpts{})
}

func (c *Client) GetPaymentMethod(ctx context.Context, id string) (*domain.PaymentMethod, error) {
	return call[domain.PaymentMethod](ctx, c, "GetPaymentMethod", http.MethodGet, "/v1/payment_methods/"+url.PathEscape(id), &retrieveParams{}, callOpts{})
}

func (c *Client) UpdatePaymentMethodAnnotations(ctx context.Context, id string, metadata map[string]string) (*domain.PaymentMethod, error) {
	params := &metadataParams{Metadata: metadata}
	return call[domain.PaymentMethod](ctx, c, "UpdatePaymentMethodAnnotations", http.MethodPost, "/v1/payment_methods/"+url.PathEscape(id), params, callOpts{})
}

// ListCustomerPaymentMethods returns the first page (up to 100) of a
// customer's payment methods of the given type.
func (c *Client) ListCustomerPaymentMethods(ctx context.Context, customerID, pmType string) ([]domain.PaymentMethod, error) {
	params := &listPaymentMethodsParams{
		Type:  optString(pmType),
		Limit: stripe.Int64(100),
	}
	path := "/v1/customers/" + url.PathEscape(customerID) + "/payment_methods"
	list, err := call[domain.List[domain.PaymentMethod]](ctx, c, "ListCustomerPaymentMethods", http.MethodGet, path, params, callOpts{})
	if err != nil {
		return nil, err
	}
	return list.Data, nil
}

func (c *Client) GetTaxRate(ctx context.Context, id string) (*domain.TaxRate, error) {
	return call[domain.TaxRate](ctx, c, "GetTaxRate", http.MethodGet, "/v1/tax_rates/"+url.PathEscape(id), &retrieveParams{}, callOpts{})
}
