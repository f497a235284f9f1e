package domain

type Role string

const (
	RoleMaster     Role = "master"
	RoleProcessing Role = "processing"
)

// LedgerAccount is one configured remote ledger, addressed by its alias.
type LedgerAccount struct {
	Alias          string
	AccountID      string
	SecretKey      string
	PublishableKey string
	WebhookSecret  string
	Country        string
}

type FeatureFlags struct {
	SkipSyncNonMasterInvoice bool
	PropagateTaxToProcessing bool
}

// AccountSummary is the public view of a ledger account.
type AccountSummary struct {
	Alias     string `json:"alias"`
	AccountID string `json:"account_id"`
	Country   string `json:"country,omitempty"`
	IsMaster  bool   `json:"is_master"`
}

func (a LedgerAccount) Summary(master bool) AccountSummary {
	return AccountSummary{
		Alias:     a.Alias,
		AccountID: a.AccountID,
		Country:   a.Country,
		IsMaster:  master,
	}
}
