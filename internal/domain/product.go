package domain

import "github.com/shopspring/decimal"

// Product is the snapshot returned by a barcode lookup.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category,omitempty"`
	Brand       string          `json:"brand,omitempty"`
	Price       decimal.Decimal `json:"price"`
	ProductCode string          `json:"productCode"`
	Description string          `json:"description,omitempty"`
	Weight      decimal.Decimal `json:"weight"`
}
