package model

import (
	"errors"
	"time"
)

type Product struct {
	ID          int64           `json:"id"`
	CompanyID   int64           `json:"company_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	UnitPrice   int64           `json:"unit_price"` // company base currency, major units
	Inventory   int64           `json:"inventory"`
	Barcode     *string         `json:"barcode,omitempty"`
	Prices      []*ProductPrice `json:"prices,omitempty"`
	Categories  []*Category     `json:"categories,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (Product) TableName() string { return "products" }

// PriceIn returns the unit price snapshot for the given currency.
// baseCurrency is the owning company's store currency.
func (p *Product) PriceIn(currency, baseCurrency string) (int64, bool) {
	for _, pp := range p.Prices {
		if pp.Currency == currency {
			return pp.Price, true
		}
	}
	if currency == baseCurrency {
		return p.UnitPrice, true
	}
	return 0, false
}

// ProductPrice is a per-currency override; one row per (product, currency).
type ProductPrice struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Currency  string `json:"currency"`
	Price     int64  `json:"price"`
}

func (ProductPrice) TableName() string { return "product_prices" }

type Category struct {
	ID        int64  `json:"id"`
	CompanyID int64  `json:"company_id"`
	Name      string `json:"name"`
}

func (Category) TableName() string { return "categories" }

type ProductCreateRequest struct {
	CompanyID   int64
	Name        string
	Description string
	UnitPrice   int64
	Inventory   int64
	Barcode     *string
	Prices      map[string]int64 // currency -> price
	CategoryIDs []int64
}

func (p ProductCreateRequest) Validate() error {
	if p.CompanyID == 0 {
		return errors.New("company_id is required")
	}
	if p.Name == "" {
		return errors.New("name is required")
	}
	if p.UnitPrice < 0 {
		return errors.New("unit_price must not be negative")
	}
	if p.Inventory < 0 {
		return errors.New("inventory must not be negative")
	}
	return nil
}
