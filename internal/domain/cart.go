package domain

import "github.com/shopspring/decimal"

// LineItem is one product row of a cart.
type LineItem struct {
	ProductID   string          `json:"productId"`
	Name        string          `json:"name"`
	ProductCode string          `json:"productCode,omitempty"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	Weight      decimal.Decimal `json:"weight"`
}

// LineTotal is unitPrice × quantity.
func (l LineItem) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LineWeight is weight × quantity.
func (l LineItem) LineWeight() decimal.Decimal {
	return l.Weight.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart holds line items in display order. Totals are always derived from
// the items. Version increases on every mutation and lets a bill detect
// that the cart it was priced from has changed since.
type Cart struct {
	Items   []LineItem `json:"items"`
	Version uint64     `json:"version"`
}

func (c Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func (c Cart) TotalWeight() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineWeight())
	}
	return total
}

func (c Cart) TotalQuantity() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Find returns the index of the line item for productID.
func (c Cart) Find(productID string) (int, bool) {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i, true
		}
	}
	return -1, false
}

// Clone returns a copy that shares no backing array with c.
func (c Cart) Clone() Cart {
	out := Cart{Version: c.Version}
	if len(c.Items) > 0 {
		out.Items = make([]LineItem, len(c.Items))
		copy(out.Items, c.Items)
	}
	return out
}
