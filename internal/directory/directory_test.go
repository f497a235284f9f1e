package directory

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/ledgersync/internal/domain"
	"github.com/josh-kwaku/ledgersync/internal/settings"
)

type staticSettings struct {
	doc *settings.Document
	err error
}

func (s *staticSettings) Load() (*settings.Document, error) {
	return s.doc, s.err
}

func testDirectory() *Directory {
	off := false
	return New(&staticSettings{doc: &settings.Document{
		MasterAccountAlias: "EU",
		Accounts: map[string]settings.Account{
			"EU": {AccountID: "acct_eu", SecretKey: "sk_eu", PublishableKey: "pk_eu", WebhookSigningSecret: "whsec_eu", Country: "IE"},
			"US": {AccountID: "acct_us", SecretKey: "sk_us", PublishableKey: "pk_us", WebhookSigningSecret: "whsec_us"},
			"BR": {AccountID: "acct_br", SecretKey: "sk_br"},
		},
		MasterCustomPaymentMethods: map[string]string{"US": "cpmt_us"},
		PropagateTaxToProcessing:   &off,
	}})
}

func TestResolve(t *testing.T) {
	dir := testDirectory()

	tests := []struct {
		name    string
		alias   string
		want    string
		wantErr bool
	}{
		{name: "exact alias", alias: "US", want: "acct_us"},
		{name: "lowercase padded alias", alias: " eu ", want: "acct_eu"},
		{name: "unknown alias", alias: "JP", wantErr: true},
		{name: "missing publishable credential", alias: "BR", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc, err := dir.Resolve(tt.alias)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrConfiguration))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, acc.AccountID)
		})
	}
}

func TestReverseResolve(t *testing.T) {
	dir := testDirectory()

	alias, err := dir.ReverseResolve("acct_us")
	require.NoError(t, err)
	assert.Equal(t, "US", alias)

	_, err = dir.ReverseResolve("acct_unknown")
	assert.True(t, errors.Is(err, domain.ErrConfiguration))

	_, err = dir.ReverseResolve("  ")
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestRoles(t *testing.T) {
	dir := testDirectory()

	assert.Equal(t, "EU", dir.MasterAlias())
	assert.True(t, dir.IsMaster("eu"))
	assert.Equal(t, domain.RoleMaster, dir.Role("EU"))
	assert.Equal(t, domain.RoleProcessing, dir.Role("US"))
}

func TestMasterAliasDefault(t *testing.T) {
	dir := New(&staticSettings{doc: &settings.Document{}})
	assert.Equal(t, "EU", dir.MasterAlias())

}

func TestDefaultsLogUnreadableSettings(t *testing.T) {
	var buf bytes.Buffer
	broken := New(&staticSettings{err: errors.New("disk gone")},
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	assert.Equal(t, "EU", broken.MasterAlias())
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "disk gone")

	buf.Reset()
	assert.Equal(t, domain.FeatureFlags{SkipSyncNonMasterInvoice: true, PropagateTaxToProcessing: true}, broken.Flags())
	assert.Contains(t, buf.String(), "default feature flags")
}

func TestSyntheticCredentialKind(t *testing.T) {
	dir := testDirectory()

	kind, err := dir.SyntheticCredentialKind("us")
	require.NoError(t, err)
	assert.Equal(t, "cpmt_us", kind)

	_, err = dir.SyntheticCredentialKind("BR")
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestWebhookSecret(t *testing.T) {
	dir := testDirectory()

	secret, err := dir.WebhookSecret("us")
	require.NoError(t, err)
	assert.Equal(t, "whsec_us", secret)

	_, err = dir.WebhookSecret("BR")
	assert.True(t, errors.Is(err, domain.ErrUnknownAlias))
}

func TestFlags(t *testing.T) {
	assert.Equal(t, domain.FeatureFlags{
		SkipSyncNonMasterInvoice: true,
		PropagateTaxToProcessing: false,
	}, testDirectory().Flags())
}

func TestAccountsMasterFirst(t *testing.T) {
	accounts, err := testDirectory().Accounts()
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	assert.Equal(t, "EU", accounts[0].Alias)
	assert.True(t, accounts[0].IsMaster)
	assert.Equal(t, "BR", accounts[1].Alias)
	assert.Equal(t, "US", accounts[2].Alias)
}
