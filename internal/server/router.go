package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/josh-kwaku/ledgersync/internal/handler"
	"github.com/josh-kwaku/ledgersync/internal/middleware"
)

type Handlers struct {
	Webhook  *handler.WebhookHandler
	Checkout *handler.CheckoutHandler
	Admin    *handler.AdminHandler
	Monitor  *handler.MonitorHandler
}

type AdminCredentials struct {
	Username string
	Password string
}

func NewRouter(h Handlers, admin AdminCredentials) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Tracing, middleware.Logging, middleware.Recovery)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		handler.RespondAppError(w, handler.ErrResourceNotFound, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		handler.RespondAppError(w, handler.ErrMethodNotAllowed, nil)
	})

	r.Post("/webhook/{alias}", h.Webhook.Receive)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handler.Health)
		r.Get("/catalog", h.Admin.GetCatalog)
		r.Get("/monitor/webhooks/stream", h.Monitor.Stream)

		r.Get("/stripe/publishable-key", h.Checkout.PublishableKey)
		r.Post("/customers", h.Checkout.CreateCustomer)
		r.Post("/subscriptions", h.Checkout.CreateSubscription)
		r.Post("/processing-payment-intents", h.Checkout.CreateProcessingPayment)
		r.Post("/payment-methods/update-processing-metadata", h.Checkout.LinkProcessingPaymentMethod)
		r.Get("/payment-methods/{id}", h.Checkout.GetPaymentMethod)

		r.Group(func(r chi.Router) {
			r.Use(middleware.BasicAuth(admin.Username, admin.Password))
			r.Put("/catalog", h.Admin.UpdateCatalog)
			r.Get("/config", h.Admin.GetConfig)
			r.Put("/config", h.Admin.UpdateConfig)
		})
	})

	return r
}
