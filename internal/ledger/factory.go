package ledger

import (
	"fmt"

	"github.com/stripe/stripe-go/v76"

	"github.com/josh-kwaku/ledgersync/internal/domain"
)

type accountResolver interface {
	Resolve(alias string) (domain.LedgerAccount, error)
}

// Factory builds a Client for a ledger alias from the current directory
// contents. Clients share one backend; credentials are looked up on every call
// so rotated secrets take effect without a restart.
type Factory struct {
	accounts accountResolver
	backend  stripe.Backend
}

func NewFactory(accounts accountResolver, backend stripe.Backend) *Factory {
	return &Factory{accounts: accounts, backend: backend}
}

func (f *Factory) ForAlias(alias string) (*Client, error) {
	account, err := f.accounts.Resolve(alias)
	if err != nil {
		return nil, fmt.Errorf("ForAlias: %w", err)
	}
	return NewClient(f.backend, account), nil
}
