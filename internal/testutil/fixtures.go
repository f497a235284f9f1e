package testutil

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/josh-kwaku/ledgersync/internal/domain"
)

const (
	MasterAlias       = "US"
	ProcessingAlias   = "EU"
	MasterAccountID   = "acct_master"
	ProcessingAccount = "acct_eu"
	CustomPMKind      = "cpmt_eu"
	WebhookSecret     = "whsec_test"

	// NotificationCreated is the creation time of notifications built by
	// Notification.
	NotificationCreated = int64(1_700_000_090)
)

// Directory is a fixed ledger directory: one master and one processing
// ledger unless more are added.
type Directory struct {
	MasterName string
	Accounts   map[string]domain.LedgerAccount
	Kinds      map[string]string
	FlagSet    domain.FeatureFlags
}

func NewDirectory() *Directory {
	return &Directory{
		MasterName: MasterAlias,
		Accounts: map[string]domain.LedgerAccount{
			MasterAlias: {
				Alias:          MasterAlias,
				AccountID:      MasterAccountID,
				SecretKey:      "sk_test_master",
				PublishableKey: "pk_test_master",
				WebhookSecret:  WebhookSecret,
				Country:        "US",
			},
			ProcessingAlias: {
				Alias:          ProcessingAlias,
				AccountID:      ProcessingAccount,
				SecretKey:      "sk_test_eu",
				PublishableKey: "pk_test_eu",
				WebhookSecret:  WebhookSecret,
				Country:        "IE",
			},
		},
		Kinds:   map[string]string{ProcessingAlias: CustomPMKind},
		FlagSet: domain.FeatureFlags{SkipSyncNonMasterInvoice: true, PropagateTaxToProcessing: true},
	}
}

func (d *Directory) MasterAlias() string { return d.MasterName }

func (d *Directory) Role(alias string) domain.Role {
	if alias == d.MasterName {
		return domain.RoleMaster
	}
	return domain.RoleProcessing
}

func (d *Directory) Resolve(alias string) (domain.LedgerAccount, error) {
	acc, ok := d.Accounts[alias]
	if !ok {
		return domain.LedgerAccount{}, domain.Configuration("unknown alias %q", alias)
	}
	return acc, nil
}

func (d *Directory) Master() (domain.LedgerAccount, error) {
	return d.Resolve(d.MasterName)
}

func (d *Directory) ReverseResolve(accountID string) (string, error) {
	for alias, acc := range d.Accounts {
		if acc.AccountID == accountID {
			return alias, nil
		}
	}
	return "", domain.Configuration("no alias configured for account %q", accountID)
}

func (d *Directory) WebhookSecret(alias string) (string, error) {
	acc, ok := d.Accounts[alias]
	if !ok || acc.WebhookSecret == "" {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownAlias, alias)
	}
	return acc.WebhookSecret, nil
}

func (d *Directory) SyntheticCredentialKind(alias string) (string, error) {
	kind, ok := d.Kinds[alias]
	if !ok {
		return "", domain.Configuration("no master custom payment method type for alias %q", alias)
	}
	return kind, nil
}

func (d *Directory) Flags() domain.FeatureFlags { return d.FlagSet }

// Notification builds a notification carrying object as its data.object.
func Notification(t *testing.T, id string, kind domain.EventKind, object any) domain.Notification {
	t.Helper()

	raw, err := json.Marshal(object)
	if err != nil {
		t.Fatalf("marshal %s object: %v", kind, err)
	}
	return domain.Notification{ID: id, Type: kind, Created: NotificationCreated, Object: raw}
}

// WithPrevious sets the notification's previous_attributes.
func WithPrevious(t *testing.T, n domain.Notification, previous any) domain.Notification {
	t.Helper()

	raw, err := json.Marshal(previous)
	if err != nil {
		t.Fatalf("marshal previous_attributes: %v", err)
	}
	n.PreviousAttributes = raw
	return n
}

// Clients returns a lookup over the given fakes keyed by alias.
func Clients(ledgers ...*FakeLedger) func(alias string) (*FakeLedger, error) {
	byAlias := make(map[string]*FakeLedger, len(ledgers))
	for _, l := range ledgers {
		byAlias[l.Alias()] = l
	}
	return func(alias string) (*FakeLedger, error) {
		l, ok := byAlias[alias]
		if !ok {
			return nil, domain.Configuration("unknown alias %q", alias)
		}
		return l, nil
	}
}

func Int64(v int64) *int64 { return &v }
