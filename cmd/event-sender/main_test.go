package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/ledgersync/internal/ledger"
)

const fixture = `{"id":"evt_1","object":"event","type":"invoice.paid","created":1700000000,"data":{"object":{"id":"in_1"}}}`

func TestSendSignsForTheGateway(t *testing.T) {
	var verified string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/webhook/EU", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		n, err := ledger.VerifyNotification(body, r.Header.Get("Stripe-Signature"), "whsec_eu", time.Minute)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		verified = n.ID
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	status, body, err := send(context.Background(), srv.Client(), srv.URL+"/", "EU", "whsec_eu", []byte(fixture))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body)
	assert.Equal(t, "evt_1", verified)
}

func TestRunReportsGatewayRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"Webhook handler failed"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "event.json")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o600))

	err := run(context.Background(), sendOptions{
		baseURL: srv.URL,
		alias:   "eu",
		file:    path,
		secret:  "whsec_eu",
		timeout: time.Second,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestRunLooksUpConfiguredSecret(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "runtime-config.json")
	require.NoError(t, os.WriteFile(cfg, []byte(`{"master_account_alias":"US","accounts":{"EU":{"account_id":"acct_eu","webhook_signing_secret":"whsec_eu"}}}`), 0o600))
	event := filepath.Join(dir, "event.json")
	require.NoError(t, os.WriteFile(event, []byte(fixture), 0o600))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if _, err := ledger.VerifyNotification(body, r.Header.Get("Stripe-Signature"), "whsec_eu", time.Minute); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	err := run(context.Background(), sendOptions{
		baseURL:       srv.URL,
		alias:         "EU",
		file:          event,
		runtimeConfig: cfg,
		timeout:       time.Second,
	})
	assert.NoError(t, err)

	err = run(context.Background(), sendOptions{
		baseURL:       srv.URL,
		alias:         "JP",
		file:          event,
		runtimeConfig: cfg,
		timeout:       time.Second,
	})
	assert.Error(t, err)
}
