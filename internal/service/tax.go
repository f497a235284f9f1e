package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/ledgersync/internal/domain"
)

// taxRateCache resolves master tax rates once per mirrored invoice.
type taxRateCache struct {
	master LedgerClient
	rates  map[string]*domain.TaxRate
}

func newTaxRateCache(master LedgerClient) *taxRateCache {
	return &taxRateCache{master: master, rates: map[string]*domain.TaxRate{}}
}

func (c *taxRateCache) get(ctx context.Context, id string) (*domain.TaxRate, error) {
	if r, ok := c.rates[id]; ok {
		return r, nil
	}
	r, err := c.master.GetTaxRate(ctx, id)
	if err != nil {
		return nil, err
	}
	c.rates[id] = r
	return r, nil
}

// breakdown converts a master line's taxes into inline tax amounts. Taxes
// without a tax rate reference are skipped.
func (c *taxRateCache) breakdown(ctx context.Context, line domain.InvoiceLineItem) ([]domain.TaxAmount, error) {
	out := make([]domain.TaxAmount, 0, len(line.Taxes))
	for _, t := range line.Taxes {
		if t.TaxRateDetails == nil || t.TaxRateDetails.TaxRate == "" {
			continue
		}
		rate, err := c.get(ctx, t.TaxRateDetails.TaxRate)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.TaxAmount{
			Amount:        t.Amount,
			TaxableAmount: t.TaxableAmount,
			TaxRateData: domain.TaxRateData{
				Inclusive:   strings.EqualFold(t.TaxBehavior, "inclusive"),
				DisplayName: taxDisplayName(rate),
				Percentage:  taxPercentage(rate),
			},
		})
	}
	return out, nil
}

func taxDisplayName(r *domain.TaxRate) string {
	return strings.Trim(r.DisplayName+"-"+r.Jurisdiction, "-")
}

// taxPercentage renders the effective rate without float noise, falling back
// to the nominal rate when the effective one is absent.
func taxPercentage(r *domain.TaxRate) json.Number {
	p := r.Percentage
	if r.EffectivePercentage != nil {
		p = *r.EffectivePercentage
	}
	return json.Number(decimal.NewFromFloat(p).Round(4).String())
}

func encodeTaxes(taxes []domain.TaxAmount) (string, error) {
	b, err := json.Marshal(taxes)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeTaxes reads a TAXES annotation. Malformed values decode to nothing.
func decodeTaxes(raw string) []domain.TaxAmount {
	if raw == "" {
		return nil
	}
	var taxes []domain.TaxAmount
	if err := json.Unmarshal([]byte(raw), &taxes); err != nil {
		return nil
	}
	return taxes
}
