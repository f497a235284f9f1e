package directory

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/josh-kwaku/ledgersync/internal/domain"
	"github.com/josh-kwaku/ledgersync/internal/settings"
)

type settingsSource interface {
	Load() (*settings.Document, error)
}

// Directory maps ledger aliases to credentials and back. It always reflects the
// latest saved settings.
type Directory struct {
	settings settingsSource
	log      *slog.Logger
}

type Option func(*Directory)

// WithLogger sets the logger used to report settings that fail to load while
// a default is being served.
func WithLogger(l *slog.Logger) Option {
	return func(d *Directory) { d.log = l }
}

func New(src settingsSource, opts ...Option) *Directory {
	d := &Directory{settings: src, log: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Directory) load() (*settings.Document, error) {
	doc, err := d.settings.Load()
	if err != nil {
		return nil, fmt.Errorf("directory: %w", err)
	}
	return doc, nil
}

// MasterAlias returns the configured master alias. When the settings cannot
// be read the default alias is returned and the failure is logged.
func (d *Directory) MasterAlias() string {
	doc, err := d.load()
	if err != nil {
		d.log.Warn("runtime settings unavailable, using default master alias",
			"master_alias", settings.DefaultMasterAlias,
			"error", err,
		)
		return settings.DefaultMasterAlias
	}
	if doc.MasterAccountAlias == "" {
		return settings.DefaultMasterAlias
	}
	return doc.MasterAccountAlias
}

func (d *Directory) IsMaster(alias string) bool {
	return settings.NormalizeAlias(alias) == d.MasterAlias()
}

func (d *Directory) Role(alias string) domain.Role {
	if d.IsMaster(alias) {
		return domain.RoleMaster
	}
	return domain.RoleProcessing
}

// Resolve returns the credentials for alias. The account identity, secret and
// publishable credential must all be configured.
func (d *Directory) Resolve(alias string) (domain.LedgerAccount, error) {
	doc, err := d.load()
	if err != nil {
		return domain.LedgerAccount{}, err
	}

	normalized := settings.NormalizeAlias(alias)
	acc, ok := doc.Accounts[normalized]
	if !ok {
		return domain.LedgerAccount{}, domain.Configuration("unknown alias %q", normalized)
	}

	var missing []string
	if acc.AccountID == "" {
		missing = append(missing, "account_id")
	}
	if acc.SecretKey == "" {
		missing = append(missing, "secret_key")
	}
	if acc.PublishableKey == "" {
		missing = append(missing, "publishable_key")
	}
	if len(missing) > 0 {
		return domain.LedgerAccount{}, domain.Configuration("alias %q missing %s", normalized, strings.Join(missing, ", "))
	}

	return domain.LedgerAccount{
		Alias:          normalized,
		AccountID:      acc.AccountID,
		SecretKey:      acc.SecretKey,
		PublishableKey: acc.PublishableKey,
		WebhookSecret:  acc.WebhookSigningSecret,
		Country:        acc.Country,
	}, nil
}

func (d *Directory) Master() (domain.LedgerAccount, error) {
	return d.Resolve(d.MasterAlias())
}

// ReverseResolve finds the alias configured with the given account identity.
func (d *Directory) ReverseResolve(accountID string) (string, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return "", domain.Configuration("empty account id")
	}
	doc, err := d.load()
	if err != nil {
		return "", err
	}
	for _, alias := range sortedAliases(doc) {
		if doc.Accounts[alias].AccountID == accountID {
			return alias, nil
		}
	}
	return "", domain.Configuration("no alias configured for account %q", accountID)
}

// WebhookSecret returns the signing secret used to verify notifications for
// alias. Unknown aliases and blank secrets are both ErrUnknownAlias.
func (d *Directory) WebhookSecret(alias string) (string, error) {
	doc, err := d.load()
	if err != nil {
		return "", err
	}
	normalized := settings.NormalizeAlias(alias)
	acc, ok := doc.Accounts[normalized]
	if !ok || acc.WebhookSigningSecret == "" {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownAlias, normalized)
	}
	return acc.WebhookSigningSecret, nil
}

// SyntheticCredentialKind returns the master-side custom payment method type
// used to represent credentials that live on processingAlias.
func (d *Directory) SyntheticCredentialKind(processingAlias string) (string, error) {
	doc, err := d.load()
	if err != nil {
		return "", err
	}
	normalized := settings.NormalizeAlias(processingAlias)
	kind := doc.MasterCustomPaymentMethods[normalized]
	if kind == "" {
		return "", domain.Configuration("no master custom payment method type for alias %q", normalized)
	}
	return kind, nil
}

func (d *Directory) Flags() domain.FeatureFlags {
	doc, err := d.load()
	if err != nil {
		d.log.Warn("runtime settings unavailable, using default feature flags", "error", err)
		return domain.FeatureFlags{SkipSyncNonMasterInvoice: true, PropagateTaxToProcessing: true}
	}
	return domain.FeatureFlags{
		SkipSyncNonMasterInvoice: settings.Flag(doc.SkipSyncNonMasterInvoice, true),
		PropagateTaxToProcessing: settings.Flag(doc.PropagateTaxToProcessing, true),
	}
}

// Accounts lists every configured account, master first.
func (d *Directory) Accounts() ([]domain.AccountSummary, error) {
	doc, err := d.load()
	if err != nil {
		return nil, err
	}
	master := doc.MasterAccountAlias
	out := make([]domain.AccountSummary, 0, len(doc.Accounts))
	for _, alias := range sortedAliases(doc) {
		acc := doc.Accounts[alias]
		out = append(out, domain.AccountSummary{
			Alias:     alias,
			AccountID: acc.AccountID,
			Country:   acc.Country,
			IsMaster:  alias == master,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].IsMaster && !out[j].IsMaster })
	return out, nil
}

func sortedAliases(doc *settings.Document) []string {
	aliases := make([]string, 0, len(doc.Accounts))
	for alias := range doc.Accounts {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}
