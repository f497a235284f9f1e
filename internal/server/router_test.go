package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/ledgersync/internal/catalog"
	"github.com/josh-kwaku/ledgersync/internal/handler"
	"github.com/josh-kwaku/ledgersync/internal/monitor"
	"github.com/josh-kwaku/ledgersync/internal/settings"
)

func testRouter(t *testing.T, adminPassword string) http.Handler {
	t.Helper()
	dir := t.TempDir()
	store, err := settings.NewStore(filepath.Join(dir, "runtime-config.json"), settings.WithEnviron(func() []string { return nil }))
	require.NoError(t, err)
	hub := monitor.NewHub()

	return NewRouter(Handlers{
		Webhook:  handler.NewWebhookHandler(nil, nil, hub, handler.WebhookOptions{Tolerance: time.Minute}),
		Checkout: handler.NewCheckoutHandler(nil),
		Admin:    handler.NewAdminHandler(catalog.NewStore(filepath.Join(dir, "catalog.json")), store),
		Monitor:  handler.NewMonitorHandler(hub, 0),
	}, AdminCredentials{Username: "admin", Password: adminPassword})
}

func serve(h http.Handler, method, path string, auth bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth {
		req.SetBasicAuth("admin", "s3cret")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter(t *testing.T) {
	tests := []struct {
		name       string
		password   string
		method     string
		path       string
		auth       bool
		wantStatus int
	}{
		{"health", "s3cret", http.MethodGet, "/api/health", false, http.StatusOK},
		{"catalog is public", "s3cret", http.MethodGet, "/api/catalog", false, http.StatusOK},
		{"catalog update needs auth", "s3cret", http.MethodPut, "/api/catalog", false, http.StatusUnauthorized},
		{"config needs auth", "s3cret", http.MethodGet, "/api/config", false, http.StatusUnauthorized},
		{"config with auth", "s3cret", http.MethodGet, "/api/config", true, http.StatusOK},
		{"config locked without password", "", http.MethodGet, "/api/config", true, http.StatusUnauthorized},
		{"webhook without signature", "s3cret", http.MethodPost, "/webhook/EU", false, http.StatusBadRequest},
		{"webhook is post only", "s3cret", http.MethodGet, "/webhook/EU", false, http.StatusMethodNotAllowed},
		{"unknown route", "s3cret", http.MethodGet, "/api/nope", false, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(testRouter(t, tt.password), tt.method, tt.path, tt.auth)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
		})
	}
}

func TestRouterErrorEnvelope(t *testing.T) {
	rr := serve(testRouter(t, "s3cret"), http.MethodGet, "/api/nope", false)

	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "RESOURCE_NOT_FOUND", resp.Error.Code)
}
