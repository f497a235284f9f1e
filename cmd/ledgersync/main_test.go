package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"net/http/httptest"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/ledgersync/internal/config"
	"github.com/josh-kwaku/ledgersync/internal/domain"
	"github.com/josh-kwaku/ledgersync/internal/settings"
	"github.com/josh-kwaku/ledgersync/internal/testutil"
)

type fakeEngine struct {
	scenario string
	handled  []string
	err      error
}

func (f *fakeEngine) Scenario(string, domain.EventKind) string { return f.scenario }

func (f *fakeEngine) Handle(_ context.Context, alias string, n domain.Notification, accountID string) error {
	f.handled = append(f.handled, alias+"/"+n.ID+"/"+accountID)
	return f.err
}

const refundEvent = `{"id":"evt_re","object":"event","type":"refund.created","created":1700000000,
  "data":{"object":{"id":"re_1","object":"refund","payment_intent":"pi_1"}}}`

func TestReplay(t *testing.T) {
	engine := &fakeEngine{scenario: "refund_created"}
	var out bytes.Buffer

	err := replay(context.Background(), &out, engine, testutil.NewDirectory(), " eu ", []byte(refundEvent))

	require.NoError(t, err)
	assert.Equal(t, []string{"EU/evt_re/" + testutil.ProcessingAccount}, engine.handled)
	assert.Equal(t, "evt_re (refund.created) replayed on EU: refund_created\n", out.String())
}

func TestReplayIgnoredEvent(t *testing.T) {
	engine := &fakeEngine{}
	var out bytes.Buffer

	require.NoError(t, replay(context.Background(), &out, engine, testutil.NewDirectory(), "US", []byte(refundEvent)))

	assert.Empty(t, engine.handled)
	assert.Contains(t, out.String(), "not handled on US")
}

func TestReplayErrors(t *testing.T) {
	tests := []struct {
		name    string
		alias   string
		payload string
		err     error
	}{
		{"bad payload", "EU", "{", nil},
		{"unknown alias", "JP", refundEvent, nil},
		{"engine failure", "EU", refundEvent, domain.ErrMissingCorrelation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{scenario: "refund_created", err: tt.err}
			err := replay(context.Background(), &bytes.Buffer{}, engine, testutil.NewDirectory(), tt.alias, []byte(tt.payload))
			assert.Error(t, err)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestPrintAccounts(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printAccounts(&out, []domain.AccountSummary{
		{Alias: "EU", AccountID: "acct_eu", Country: "IE"},
		{Alias: "US", AccountID: "acct_us", IsMaster: true},
	}))

	assert.Equal(t, "ALIAS  ACCOUNT  COUNTRY  ROLE\n"+
		"EU     acct_eu  IE       processing\n"+
		"US     acct_us  -        master\n", out.String())
}

func TestBuildAppServesHealth(t *testing.T) {
	dir := t.TempDir()
	a, err := buildApp(&config.Config{
		RuntimeConfigPath:    filepath.Join(dir, "runtime-config.json"),
		CatalogPath:          filepath.Join(dir, "catalog.json"),
		PollInterval:         time.Second,
		PollMaxAttempts:      30,
		PayerPollInterval:    time.Second,
		PayerPollMaxAttempts: 120,
	})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	a.router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 150*time.Second, a.writeTimeout())
}

type fakeReloader struct {
	reloads chan struct{}
	err     error
}

func (f *fakeReloader) Reload() (*settings.Document, error) {
	f.reloads <- struct{}{}
	if f.err != nil {
		return nil, f.err
	}
	return &settings.Document{MasterAccountAlias: "US"}, nil
}

func TestReloadOnSignal(t *testing.T) {
	for _, reloadErr := range []error{nil, errors.New("runtime-config.json: unexpected end of JSON input")} {
		store := &fakeReloader{reloads: make(chan struct{}), err: reloadErr}
		hup := make(chan os.Signal, 1)
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			reloadOnSignal(ctx, hup, store)
			close(done)
		}()

		for i := 0; i < 2; i++ {
			hup <- syscall.SIGHUP
			select {
			case <-store.reloads:
			case <-time.After(time.Second):
				t.Fatalf("reload %d did not happen", i+1)
			}
		}

		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("reload loop did not stop")
		}
	}
}
