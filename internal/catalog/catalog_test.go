package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/ledgersync/internal/domain"
)

func TestStore_LoadMissingFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "catalog.json"))

	c, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, c.Prices)
}

func TestStore_SaveAndFind(t *testing.T) {
	for _, name := range []string{"catalog.json", "catalog.yaml"} {
		t.Run(name, func(t *testing.T) {
			s := NewStore(filepath.Join(t.TempDir(), name))

			err := s.Save(&Catalog{Prices: []Price{
				{ID: "price_eur", AccountAlias: "eu", Currency: "eur", UnitAmount: 1000},
				{ID: "price_usd", AccountAlias: "US", Currency: "usd"},
			}})
			require.NoError(t, err)

			p, err := s.FindPrice("price_eur")
			require.NoError(t, err)
			assert.Equal(t, "EU", p.AccountAlias)
			assert.Equal(t, "eur", p.Currency)
			assert.Equal(t, int64(1000), p.UnitAmount)

			_, err = s.FindPrice("price_gbp")
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestStore_FindPriceWithoutAlias(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"prices":[{"id":"price_x","currency":"usd"}]}`), 0o600))

	_, err := NewStore(path).FindPrice("price_x")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestStore_SaveRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		c    Catalog
	}{
		{name: "missing id", c: Catalog{Prices: []Price{{AccountAlias: "US"}}}},
		{name: "duplicate id", c: Catalog{Prices: []Price{{ID: "p"}, {ID: "p"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "catalog.json")
			err := NewStore(path).Save(&tt.c)
			assert.ErrorIs(t, err, ErrInvalidCatalog)
			_, statErr := os.Stat(path)
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestStore_LoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yml")
	require.NoError(t, os.WriteFile(path, []byte("prices: [unterminated"), 0o600))

	_, err := NewStore(path).Load()
	assert.ErrorIs(t, err, ErrInvalidCatalog)
}
