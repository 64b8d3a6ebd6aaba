package httpserver

import (
	"time"

	"cartify/internal/domain"
)

type lineView struct {
	ProductID   string `json:"productId"`
	Name        string `json:"name"`
	ProductCode string `json:"productCode,omitempty"`
	UnitPrice   string `json:"unitPrice"`
	Quantity    int    `json:"quantity"`
	Weight      string `json:"weight"`
	LineTotal   string `json:"lineTotal"`
}

type cartView struct {
	Items         []lineView `json:"items"`
	TotalPrice    string     `json:"totalPrice"`
	TotalWeight   string     `json:"totalWeight"`
	TotalQuantity int        `json:"totalQuantity"`
	Version       uint64     `json:"version"`
}

func toCartView(c domain.Cart) cartView {
	out := cartView{
		Items:         make([]lineView, 0, len(c.Items)),
		TotalPrice:    domain.FormatAmount(c.TotalPrice()),
		TotalWeight:   c.TotalWeight().String(),
		TotalQuantity: c.TotalQuantity(),
		Version:       c.Version,
	}
	for _, item := range c.Items {
		out.Items = append(out.Items, lineView{
			ProductID:   item.ProductID,
			Name:        item.Name,
			ProductCode: item.ProductCode,
			UnitPrice:   domain.FormatAmount(item.UnitPrice),
			Quantity:    item.Quantity,
			Weight:      item.Weight.String(),
			LineTotal:   domain.FormatAmount(item.LineTotal()),
		})
	}
	return out
}

type productView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	Brand       string `json:"brand,omitempty"`
	Price       string `json:"price"`
	ProductCode string `json:"productCode"`
	Description string `json:"description,omitempty"`
	Weight      string `json:"weight"`
}

func toProductView(p domain.Product) productView {
	return productView{
		ID:          p.ID,
		Name:        p.Name,
		Category:    p.Category,
		Brand:       p.Brand,
		Price:       domain.FormatAmount(p.Price),
		ProductCode: p.ProductCode,
		Description: p.Description,
		Weight:      p.Weight.String(),
	}
}

type billView struct {
	ID           string     `json:"id,omitempty"`
	BillID       string     `json:"billId"`
	CustomerName string     `json:"customerName,omitempty"`
	TotalBilling string     `json:"totalBilling"`
	TotalWeight  string     `json:"totalWeight"`
	Status       string     `json:"status"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
}

func toBillView(b domain.Bill) billView {
	v := billView{
		ID:           b.ID,
		BillID:       b.BillID,
		CustomerName: b.CustomerName,
		TotalBilling: domain.FormatAmount(b.TotalBilling),
		TotalWeight:  b.TotalWeight.String(),
		Status:       string(b.Status),
	}
	if !b.CreatedAt.IsZero() {
		created := b.CreatedAt
		v.CreatedAt = &created
	}
	return v
}

func toBillViews(bills []domain.Bill) []billView {
	out := make([]billView, 0, len(bills))
	for _, b := range bills {
		out = append(out, toBillView(b))
	}
	return out
}

type userView struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

func toUserView(u domain.User) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
