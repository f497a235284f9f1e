package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/josh-kwaku/ledgersync/internal/domain"
	"github.com/josh-kwaku/ledgersync/internal/settings"
)

var ErrInvalidCatalog = errors.New("invalid catalog")

// Price is one sellable item. AccountAlias names the processing ledger that
// captures funds for it.
type Price struct {
	ID           string `json:"id" yaml:"id"`
	AccountAlias string `json:"account_alias" yaml:"account_alias"`
	Currency     string `json:"currency" yaml:"currency"`
	ProductName  string `json:"product_name,omitempty" yaml:"product_name,omitempty"`
	Description  string `json:"description,omitempty" yaml:"description,omitempty"`
	UnitAmount   int64  `json:"unit_amount,omitempty" yaml:"unit_amount,omitempty"`
	Interval     string `json:"interval,omitempty" yaml:"interval,omitempty"`
}

type Catalog struct {
	Prices []Price `json:"prices" yaml:"prices"`
}

func (c *Catalog) validate() error {
	seen := make(map[string]bool, len(c.Prices))
	for i, p := range c.Prices {
		if strings.TrimSpace(p.ID) == "" {
			return fmt.Errorf("%w: prices[%d] has no id", ErrInvalidCatalog, i)
		}
		if seen[p.ID] {
			return fmt.Errorf("%w: duplicate price id %q", ErrInvalidCatalog, p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}

// Store reads and writes the catalog file. Files ending in .yaml or .yml are
// YAML; anything else is JSON.
type Store struct {
	path string
	mu   sync.RWMutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) isYAML() bool {
	ext := strings.ToLower(filepath.Ext(s.path))
	return ext == ".yaml" || ext == ".yml"
}

// Load returns the catalog. A missing file is an empty catalog.
func (s *Store) Load() (*Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &Catalog{Prices: []Price{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog.Load: %w", err)
	}

	var c Catalog
	if s.isYAML() {
		err = yaml.Unmarshal(raw, &c)
	} else {
		err = json.Unmarshal(raw, &c)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog.Load: %w: %v", ErrInvalidCatalog, err)
	}
	if c.Prices == nil {
		c.Prices = []Price{}
	}
	return &c, nil
}

func (s *Store) Save(c *Catalog) error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("catalog.Save: %w", err)
	}

	var (
		raw []byte
		err error
	)
	if s.isYAML() {
		raw, err = yaml.Marshal(c)
	} else {
		raw, err = json.MarshalIndent(c, "", "  ")
		raw = append(raw, '\n')
	}
	if err != nil {
		return fmt.Errorf("catalog.Save: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := settings.WriteFileAtomic(s.path, raw); err != nil {
		return fmt.Errorf("catalog.Save: %w", err)
	}
	return nil
}

// FindPrice looks up a price by id. A price without an account alias is a
// configuration error.
func (s *Store) FindPrice(id string) (Price, error) {
	c, err := s.Load()
	if err != nil {
		return Price{}, err
	}
	id = strings.TrimSpace(id)
	for _, p := range c.Prices {
		if p.ID != id {
			continue
		}
		if strings.TrimSpace(p.AccountAlias) == "" {
			return Price{}, domain.Configuration("catalog price %q is missing account_alias", id)
		}
		p.AccountAlias = settings.NormalizeAlias(p.AccountAlias)
		return p, nil
	}
	return Price{}, fmt.Errorf("price %q: %w", id, domain.ErrNotFound)
}
