package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/josh-kwaku/ledgersync/internal/domain"
	"github.com/josh-kwaku/ledgersync/internal/testutil"
)

const invoicePaidPayload = `{
  "id": "evt_1",
  "object": "event",
  "api_version": "2020-08-27",
  "created": 1700000000,
  "type": "invoice.paid",
  "data": {"object": {"id": "in_1", "object": "invoice"}}
}`

type handledNotification struct {
	alias     string
	n         domain.Notification
	accountID string
}

type fakeEngine struct {
	calls []handledNotification
	err   error
}

func (f *fakeEngine) Handle(_ context.Context, alias string, n domain.Notification, accountID string) error {
	f.calls = append(f.calls, handledNotification{alias: alias, n: n, accountID: accountID})
	return f.err
}

type fakePublisher struct {
	events []domain.MonitorEvent
}

func (f *fakePublisher) Publish(ev domain.MonitorEvent) { f.events = append(f.events, ev) }

func sign(payload, secret string) (body []byte, header string) {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func webhookRequest(alias string, body []byte, sig string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhook/alias", bytes.NewReader(body))
	if sig != "" {
		req.Header.Set("Stripe-Signature", sig)
	}
	return withURLParam(req, "alias", alias)
}

type webhookFixture struct {
	engine *fakeEngine
	events *fakePublisher
	h      *WebhookHandler
}

func setupWebhook() *webhookFixture {
	f := &webhookFixture{engine: &fakeEngine{}, events: &fakePublisher{}}
	f.h = NewWebhookHandler(f.engine, testutil.NewDirectory(), f.events, WebhookOptions{Tolerance: 5 * time.Minute})
	f.h.now = func() time.Time { return time.Unix(1_700_000_123, 0) }
	return f
}

func TestWebhookHandler_Receive(t *testing.T) {
	f := setupWebhook()
	body, sig := sign(invoicePaidPayload, testutil.WebhookSecret)
	rr := httptest.NewRecorder()

	f.h.Receive(rr, webhookRequest(" eu ", body, sig))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/plain")

	require.Len(t, f.engine.calls, 1)
	call := f.engine.calls[0]
	assert.Equal(t, testutil.ProcessingAlias, call.alias)
	assert.Equal(t, testutil.ProcessingAccount, call.accountID)
	assert.Equal(t, "evt_1", call.n.ID)
	assert.Equal(t, domain.EventInvoicePaid, call.n.Type)

	assert.Equal(t, []domain.MonitorEvent{{
		ReceivedAt: 1_700_000_123,
		Alias:      testutil.ProcessingAlias,
		AccountID:  testutil.ProcessingAccount,
		Country:    "IE",
		EventID:    "evt_1",
		Type:       "invoice.paid",
	}}, f.events.events)
}

func TestWebhookHandler_Rejections(t *testing.T) {
	validBody, validSig := sign(invoicePaidPayload, testutil.WebhookSecret)
	_, foreignSig := sign(invoicePaidPayload, "whsec_other")

	tests := []struct {
		name      string
		alias     string
		body      []byte
		sig       string
		wantError string
	}{
		{"missing alias", "  ", validBody, validSig, "Missing required path param: alias"},
		{"missing signature", "EU", validBody, "", "Missing required header: Stripe-Signature"},
		{"unknown alias", "JP", validBody, validSig, "Unknown account alias"},
		{"signed with another secret", "EU", validBody, foreignSig, "Webhook signature verification failed"},
		{"tampered body", "EU", []byte(`{"id":"evt_2","type":"invoice.paid"}`), validSig, "Webhook signature verification failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupWebhook()
			rr := httptest.NewRecorder()

			f.h.Receive(rr, webhookRequest(tt.alias, tt.body, tt.sig))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			var resp webhookError
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantError, resp.Error)
			assert.Empty(t, f.engine.calls)
			assert.Empty(t, f.events.events)
		})
	}
}

func TestWebhookHandler_EngineFailure(t *testing.T) {
	f := setupWebhook()
	f.engine.err = fmt.Errorf("invoice_paid: %w", domain.ErrPropagationTimeout)
	body, sig := sign(invoicePaidPayload, testutil.WebhookSecret)
	rr := httptest.NewRecorder()

	f.h.Receive(rr, webhookRequest("EU", body, sig))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var resp webhookError
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Webhook handler failed", resp.Error)
	assert.Contains(t, resp.Detail, "invoice_paid")
	assert.Len(t, f.events.events, 1)
}

func TestWebhookHandler_MasterAlias(t *testing.T) {
	f := setupWebhook()
	body, sig := sign(invoicePaidPayload, testutil.WebhookSecret)
	rr := httptest.NewRecorder()

	f.h.Receive(rr, webhookRequest("us", body, sig))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, f.engine.calls, 1)
	assert.Equal(t, testutil.MasterAlias, f.engine.calls[0].alias)
	assert.Equal(t, testutil.MasterAccountID, f.engine.calls[0].accountID)
}

func TestWebhookHandler_UnresolvableIdentity(t *testing.T) {
	f := setupWebhook()
	dir := testutil.NewDirectory()
	f.h.dir = brokenResolve{dir}
	body, sig := sign(invoicePaidPayload, testutil.WebhookSecret)
	rr := httptest.NewRecorder()

	f.h.Receive(rr, webhookRequest("EU", body, sig))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Empty(t, f.engine.calls)
}

type brokenResolve struct{ *testutil.Directory }

func (brokenResolve) Resolve(string) (domain.LedgerAccount, error) {
	return domain.LedgerAccount{}, errors.New("secret key missing")
}

func TestWebhookHandler_BodyTooLarge(t *testing.T) {
	f := setupWebhook()
	padded := `{"id":"evt_big","type":"invoice.paid","pad":"` + strings.Repeat("x", maxNotificationBytes) + `"}`
	body, sig := sign(padded, testutil.WebhookSecret)
	rr := httptest.NewRecorder()

	f.h.Receive(rr, webhookRequest("EU", body, sig))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	var resp webhookError
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Request body too large", resp.Error)
	assert.Empty(t, f.engine.calls)
	assert.Empty(t, f.events.events)
}

func TestWebhookHandler_BodyAtLimit(t *testing.T) {
	f := setupWebhook()
	head := `{"id":"evt_1","object":"event","type":"invoice.paid","data":{"object":{"id":"in_1","object":"invoice"}},"pad":"`
	padded := head + strings.Repeat("x", maxNotificationBytes-len(head)-2) + `"}`
	require.Len(t, padded, maxNotificationBytes)
	body, sig := sign(padded, testutil.WebhookSecret)
	rr := httptest.NewRecorder()

	f.h.Receive(rr, webhookRequest("EU", body, sig))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, f.engine.calls, 1)
}
