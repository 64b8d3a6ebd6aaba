package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BillStatus string

const (
	BillPending BillStatus = "pending"
	BillPaid    BillStatus = "paid"
)

// Bill is the server confirmed pricing of a cart at submission time.
type Bill struct {
	ID           string          `json:"id,omitempty"`
	BillID       string          `json:"billId"`
	CustomerName string          `json:"customerName"`
	TotalBilling decimal.Decimal `json:"totalBilling"`
	TotalWeight  decimal.Decimal `json:"totalWeight"`
	Status       BillStatus      `json:"status"`
	Lines        []BillLine      `json:"lines,omitempty"`
	CreatedAt    time.Time       `json:"createdAt,omitempty"`
}

// BillLine is a server priced row of a bill.
type BillLine struct {
	Product  string          `json:"product"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Total    decimal.Decimal `json:"total"`
	Weight   decimal.Decimal `json:"weight"`
}

// BillingLine is what the client sends when asking for a bill. Prices and
// weights are recomputed server side.
type BillingLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// POSBills groups the admin listing of in-store bills.
type POSBills struct {
	Pending []Bill
	All     []Bill
}
