package correlation

import (
	"fmt"
	"strings"

	"github.com/josh-kwaku/ledgersync/internal/domain"
)

// Ref is a read view over an entity's annotation bag.
type Ref map[string]string

func (r Ref) Get(key string) string {
	return strings.TrimSpace(r[key])
}

// Require returns the trimmed value for key or an ErrMissingCorrelation naming
// the entity it was expected on.
func (r Ref) Require(entity, key string) (string, error) {
	v := r.Get(key)
	if v == "" {
		return "", domain.MissingCorrelation(fmt.Sprintf("%s metadata %s", entity, key))
	}
	return v, nil
}

func (r Ref) MasterAccountID() string           { return r.Get(MasterAccountID) }
func (r Ref) MasterCustomerID() string          { return r.Get(MasterCustomerID) }
func (r Ref) MasterInvoiceID() string           { return r.Get(MasterInvoiceID) }
func (r Ref) MasterSubscriptionID() string      { return r.Get(MasterSubscriptionID) }
func (r Ref) ProcessingPaymentMethodID() string { return r.Get(ProcessingPaymentMethodID) }
func (r Ref) IsInitialPayment() bool            { return IsTrue(r.Get(IsInitialPayment)) }
func (r Ref) InitialPayment() bool              { return IsTrue(r.Get(InitialPayment)) }

// MasterLinks are the master-side ids a processing entity points back to.
type MasterLinks struct {
	AccountID      string
	CustomerID     string
	InvoiceID      string
	SubscriptionID string
}

func (r Ref) MasterLinks() MasterLinks {
	return MasterLinks{
		AccountID:      r.MasterAccountID(),
		CustomerID:     r.MasterCustomerID(),
		InvoiceID:      r.MasterInvoiceID(),
		SubscriptionID: r.MasterSubscriptionID(),
	}
}

// Annotations builds a write payload from key/value pairs, skipping blank
// values. The remote ledger merges the payload, so unspecified keys are kept.
func Annotations(kv ...string) map[string]string {
	out := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if v := strings.TrimSpace(kv[i+1]); v != "" {
			out[kv[i]] = v
		}
	}
	return out
}

func FormatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func IsTrue(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}

// ClampTimestamp keeps reported timestamps out of the future: settlement
// records reject them.
func ClampTimestamp(ts, now int64) int64 {
	if ts > now {
		return max(0, now-10)
	}
	return ts
}
