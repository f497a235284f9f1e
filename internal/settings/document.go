package settings

import (
	"strings"
)

const DefaultMasterAlias = "EU"

type Account struct {
	AccountID            string `json:"account_id"`
	SecretKey            string `json:"secret_key"`
	PublishableKey       string `json:"publishable_key"`
	WebhookSigningSecret string `json:"webhook_signing_secret"`
	Country              string `json:"country,omitempty"`
}

// Document is the runtime configuration persisted in runtime-config.json.
type Document struct {
	MasterAccountAlias         string             `json:"master_account_alias"`
	Accounts                   map[string]Account `json:"accounts"`
	MasterCustomPaymentMethods map[string]string  `json:"master_custom_payment_methods"`
	SkipSyncNonMasterInvoice   *bool              `json:"skip_sync_non_master_invoice,omitempty"`
	PropagateTaxToProcessing   *bool              `json:"propagate_tax_to_processing,omitempty"`
}

func NormalizeAlias(alias string) string {
	return strings.ToUpper(strings.TrimSpace(alias))
}

// normalize upper-cases aliases and fills missing keys with defaults.
func (d *Document) normalize() {
	d.MasterAccountAlias = NormalizeAlias(d.MasterAccountAlias)
	if d.MasterAccountAlias == "" {
		d.MasterAccountAlias = DefaultMasterAlias
	}

	accounts := make(map[string]Account, len(d.Accounts))
	for alias, acc := range d.Accounts {
		acc.AccountID = strings.TrimSpace(acc.AccountID)
		acc.SecretKey = strings.TrimSpace(acc.SecretKey)
		acc.PublishableKey = strings.TrimSpace(acc.PublishableKey)
		acc.WebhookSigningSecret = strings.TrimSpace(acc.WebhookSigningSecret)
		acc.Country = strings.ToUpper(strings.TrimSpace(acc.Country))
		accounts[NormalizeAlias(alias)] = acc
	}
	d.Accounts = accounts

	cpms := make(map[string]string, len(d.MasterCustomPaymentMethods))
	for alias, kind := range d.MasterCustomPaymentMethods {
		cpms[NormalizeAlias(alias)] = strings.TrimSpace(kind)
	}
	d.MasterCustomPaymentMethods = cpms

	if d.SkipSyncNonMasterInvoice == nil {
		d.SkipSyncNonMasterInvoice = boolPtr(true)
	}
	if d.PropagateTaxToProcessing == nil {
		d.PropagateTaxToProcessing = boolPtr(true)
	}
}

func (d *Document) clone() *Document {
	out := *d
	out.Accounts = make(map[string]Account, len(d.Accounts))
	for k, v := range d.Accounts {
		out.Accounts[k] = v
	}
	out.MasterCustomPaymentMethods = make(map[string]string, len(d.MasterCustomPaymentMethods))
	for k, v := range d.MasterCustomPaymentMethods {
		out.MasterCustomPaymentMethods[k] = v
	}
	if d.SkipSyncNonMasterInvoice != nil {
		out.SkipSyncNonMasterInvoice = boolPtr(*d.SkipSyncNonMasterInvoice)
	}
	if d.PropagateTaxToProcessing != nil {
		out.PropagateTaxToProcessing = boolPtr(*d.PropagateTaxToProcessing)
	}
	return &out
}

func boolPtr(b bool) *bool { return &b }

// Flag reads an optional boolean with a fallback.
func Flag(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
