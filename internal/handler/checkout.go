package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/josh-kwaku/ledgersync/internal/logging"
	"github.com/josh-kwaku/ledgersync/internal/service"
)

const maxRequestBytes = 1 << 20

type checkoutService interface {
	PublishableKeys(ctx context.Context, priceID string) (*service.PublishableKeys, error)
	CreateCustomer(ctx context.Context, in service.CustomerInput) (*service.CustomerResult, error)
	CreateSubscription(ctx context.Context, in service.SubscriptionInput) (*service.SubscriptionResult, error)
	CreateProcessingPayment(ctx context.Context, in service.ProcessingPaymentInput) (*service.ProcessingPaymentResult, error)
	LinkProcessingPaymentMethod(ctx context.Context, masterPaymentMethodID, processingPaymentMethodID string) (*service.PaymentMethodLink, error)
	PaymentMethod(ctx context.Context, id string) (*service.PaymentMethodView, error)
}

type CheckoutHandler struct {
	checkout checkoutService
}

func NewCheckoutHandler(checkout checkoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes)).Decode(v)
}

func (h *CheckoutHandler) PublishableKey(w http.ResponseWriter, r *http.Request) {
	keys, err := h.checkout.PublishableKeys(r.Context(), r.URL.Query().Get("price_id"))
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, keys)
}

func (h *CheckoutHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var in service.CustomerInput
	if err := decodeBody(r, &in); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	res, err := h.checkout.CreateCustomer(r.Context(), in)
	if err != nil {
		logging.FromContext(r.Context()).Warn("create customer failed", "price_id", in.PriceID, "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, res)
}

func (h *CheckoutHandler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	var in service.SubscriptionInput
	if err := decodeBody(r, &in); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	res, err := h.checkout.CreateSubscription(r.Context(), in)
	if err != nil {
		logging.FromContext(r.Context()).Warn("create subscription failed",
			"price_id", in.PriceID,
			"customer", in.CustomerID,
			"error", err,
		)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, res)
}

func (h *CheckoutHandler) CreateProcessingPayment(w http.ResponseWriter, r *http.Request) {
	var in service.ProcessingPaymentInput
	if err := decodeBody(r, &in); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	res, err := h.checkout.CreateProcessingPayment(r.Context(), in)
	if err != nil {
		logging.FromContext(r.Context()).Warn("create processing payment failed",
			"price_id", in.PriceID,
			"invoice", in.OriginalInvoiceID,
			"error", err,
		)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, res)
}

type linkPaymentMethodRequest struct {
	MasterPaymentMethodID     string `json:"master_account_custom_payment_method"`
	ProcessingPaymentMethodID string `json:"processing_account_payment_method_id"`
}

func (r linkPaymentMethodRequest) Validate() []FieldError {
	var errs []FieldError

	if strings.TrimSpace(r.MasterPaymentMethodID) == "" {
		errs = append(errs, FieldError{Field: "master_account_custom_payment_method", Message: "required"})
	}
	if strings.TrimSpace(r.ProcessingPaymentMethodID) == "" {
		errs = append(errs, FieldError{Field: "processing_account_payment_method_id", Message: "required"})
	}

	return errs
}

func (h *CheckoutHandler) LinkProcessingPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req linkPaymentMethodRequest
	if err := decodeBody(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	link, err := h.checkout.LinkProcessingPaymentMethod(r.Context(), req.MasterPaymentMethodID, req.ProcessingPaymentMethodID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("link processing payment method failed",
			"payment_method", req.MasterPaymentMethodID,
			"error", err,
		)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, link)
}

func (h *CheckoutHandler) GetPaymentMethod(w http.ResponseWriter, r *http.Request) {
	view, err := h.checkout.PaymentMethod(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, view)
}
