package remote

import (
	"encoding/json"
	"strings"
	"time"

	"cartify/internal/domain"
	"github.com/shopspring/decimal"
)

// flexString accepts a JSON string or number.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = flexString(n.String())
	return nil
}

// flexInt accepts a JSON number or a quoted number.
type flexInt int

func (n *flexInt) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = 0
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	*n = flexInt(d.IntPart())
	return nil
}

type namedRef struct {
	Name string `json:"name"`
}

func (r *namedRef) name() string {
	if r == nil {
		return ""
	}
	return r.Name
}

type userDTO struct {
	ID    flexString `json:"id"`
	MID   flexString `json:"_id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  string     `json:"role"`
	Token string     `json:"token"`
}

func (u userDTO) toDomain() domain.User {
	id := string(u.ID)
	if id == "" {
		id = string(u.MID)
	}
	return domain.User{ID: id, Name: u.Name, Email: u.Email, Role: u.Role, Token: u.Token}
}

type loginResponse struct {
	Success *bool    `json:"success"`
	Message string   `json:"message"`
	User    *userDTO `json:"user"`
}

type productDTO struct {
	ID            flexString          `json:"id"`
	ProductName   string              `json:"productName"`
	Category      *namedRef           `json:"category"`
	Brand         *namedRef           `json:"brand"`
	ProductPrice  decimal.NullDecimal `json:"productPrice"`
	ProductCode   flexString          `json:"productCode"`
	Description   string              `json:"description"`
	ProductWeight decimal.NullDecimal `json:"productWeight"`
}

func (p productDTO) toDomain() domain.Product {
	out := domain.Product{
		ID:          string(p.ID),
		Name:        p.ProductName,
		Category:    p.Category.name(),
		Brand:       p.Brand.name(),
		Price:       p.ProductPrice.Decimal,
		ProductCode: string(p.ProductCode),
		Description: p.Description,
	}
	if p.ProductWeight.Valid {
		out.Weight = p.ProductWeight.Decimal
	}
	return out
}

type billingRequest struct {
	ProductData []domain.BillingLine `json:"productData"`
}

type billLineDTO struct {
	Product  string              `json:"product"`
	Quantity flexInt             `json:"quantity"`
	Price    decimal.NullDecimal `json:"price"`
	Total    decimal.NullDecimal `json:"total"`
	Weight   decimal.NullDecimal `json:"weight"`
}

type billDTO struct {
	ID           flexString          `json:"id"`
	BillID       flexString          `json:"billId"`
	CustomerName string              `json:"customerName"`
	TotalBilling decimal.NullDecimal `json:"totalBilling"`
	TotalWeight  decimal.NullDecimal `json:"totalWeight"`
	Status       string              `json:"status"`
	ProductData  []billLineDTO       `json:"productData"`
	CreatedAt    *time.Time          `json:"createdAt"`
}

func (b billDTO) toDomain(def domain.BillStatus) domain.Bill {
	out := domain.Bill{
		ID:           string(b.ID),
		BillID:       string(b.BillID),
		CustomerName: b.CustomerName,
		TotalBilling: b.TotalBilling.Decimal,
		TotalWeight:  b.TotalWeight.Decimal,
		Status:       def,
	}
	if strings.EqualFold(b.Status, string(domain.BillPaid)) {
		out.Status = domain.BillPaid
	}
	if b.CreatedAt != nil {
		out.CreatedAt = *b.CreatedAt
	}
	for _, l := range b.ProductData {
		out.Lines = append(out.Lines, domain.BillLine{
			Product:  l.Product,
			Quantity: int(l.Quantity),
			Price:    l.Price.Decimal,
			Total:    l.Total.Decimal,
			Weight:   l.Weight.Decimal,
		})
	}
	return out
}

type paymentIntentRequest struct {
	Amount int64 `json:"amount"`
}

type paymentIntentDTO struct {
	ClientSecret string `json:"clientSecret"`
}

type posBillsDTO struct {
	PendingBills []billDTO `json:"pendingBills"`
	POSBills     []billDTO `json:"posBills"`
}

type documentDTO struct {
	PDF     string `json:"pdf"`
	File    string `json:"file"`
	Content string `json:"content"`
}
