package domain

import "encoding/json"

// TaxRateData describes an inline tax rate applied to a processing line item.
type TaxRateData struct {
	Inclusive   bool        `json:"inclusive"`
	DisplayName string      `json:"display_name"`
	Percentage  json.Number `json:"percentage"`
}

// TaxAmount is one entry of a line's tax breakdown. A JSON array of these is
// carried in the TAXES annotation of mirrored line items.
type TaxAmount struct {
	Amount        int64       `json:"amount"`
	TaxableAmount int64       `json:"taxable_amount"`
	TaxRateData   TaxRateData `json:"tax_rate_data"`
}
