package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/josh-kwaku/ledgersync/internal/domain"
	"github.com/josh-kwaku/ledgersync/internal/ledger"
	"github.com/josh-kwaku/ledgersync/internal/logging"
	"github.com/josh-kwaku/ledgersync/internal/settings"
)

const maxNotificationBytes = 1 << 20

type notificationEngine interface {
	Handle(ctx context.Context, alias string, n domain.Notification, accountID string) error
}

type gatewayDirectory interface {
	WebhookSecret(alias string) (string, error)
	Resolve(alias string) (domain.LedgerAccount, error)
}

type eventPublisher interface {
	Publish(ev domain.MonitorEvent)
}

type WebhookOptions struct {
	Tolerance time.Duration
	// DumpPayload logs every verified payload at info level.
	DumpPayload bool
}

// WebhookHandler is the per-alias notification gateway.
type WebhookHandler struct {
	engine notificationEngine
	dir    gatewayDirectory
	events eventPublisher
	opts   WebhookOptions
	now    func() time.Time
}

func NewWebhookHandler(engine notificationEngine, dir gatewayDirectory, events eventPublisher, opts WebhookOptions) *WebhookHandler {
	return &WebhookHandler{engine: engine, dir: dir, events: events, opts: opts, now: time.Now}
}

type webhookError struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	alias := settings.NormalizeAlias(chi.URLParam(r, "alias"))
	if alias == "" {
		RespondJSON(w, http.StatusBadRequest, webhookError{Error: "Missing required path param: alias"})
		return
	}

	sig := strings.TrimSpace(r.Header.Get("Stripe-Signature"))
	if sig == "" {
		RespondJSON(w, http.StatusBadRequest, webhookError{Error: "Missing required header: Stripe-Signature"})
		return
	}

	secret, err := h.dir.WebhookSecret(alias)
	if err != nil {
		log.Warn("notification for unconfigured alias", "alias", alias, "error", err)
		RespondJSON(w, http.StatusBadRequest, webhookError{Error: "Unknown account alias", Detail: err.Error()})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxNotificationBytes+1))
	if err != nil {
		log.Error("failed to read notification body", "error", err)
		RespondJSON(w, http.StatusBadRequest, webhookError{Error: "Failed to read request body", Detail: err.Error()})
		return
	}
	if len(body) > maxNotificationBytes {
		log.Warn("notification body too large", "alias", alias, "limit_bytes", maxNotificationBytes)
		RespondJSON(w, http.StatusRequestEntityTooLarge, webhookError{
			Error:  "Request body too large",
			Detail: fmt.Sprintf("limit is %d bytes", maxNotificationBytes),
		})
		return
	}

	n, err := ledger.VerifyNotification(body, sig, secret, h.opts.Tolerance)
	if err != nil {
		log.Warn("notification signature verification failed", "alias", alias, "error", err)
		RespondJSON(w, http.StatusBadRequest, webhookError{Error: "Webhook signature verification failed", Detail: err.Error()})
		return
	}
	if h.opts.DumpPayload {
		log.Info("notification payload", "alias", alias, "event_id", n.ID, "payload", json.RawMessage(body))
	}

	account, err := h.dir.Resolve(alias)
	if err != nil {
		log.Error("failed to resolve ledger identity", "alias", alias, "error", err)
		RespondJSON(w, http.StatusInternalServerError, webhookError{Error: "Webhook handler failed", Detail: err.Error()})
		return
	}

	h.events.Publish(domain.MonitorEvent{
		ReceivedAt: h.now().Unix(),
		Alias:      alias,
		AccountID:  account.AccountID,
		Country:    account.Country,
		EventID:    n.ID,
		Type:       string(n.Type),
	})
	log.Info("notification received",
		"alias", alias,
		"account_id", account.AccountID,
		"event_id", n.ID,
		"event_type", n.Type,
		"event_account_id", n.Account,
	)

	if err := h.engine.Handle(r.Context(), alias, n, account.AccountID); err != nil {
		log.Error("notification handling failed", "alias", alias, "event_id", n.ID, "error", err)
		RespondJSON(w, http.StatusInternalServerError, webhookError{Error: "Webhook handler failed", Detail: err.Error()})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
