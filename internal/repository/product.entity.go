package repository

import (
	"time"

	"github.com/orbio/invoice-gateway/internal/model"
	"gorm.io/gorm"
)

type ProductEntity struct {
	ID          int64                 `db:"id"          gorm:"primaryKey;autoIncrement;column:id"`
	CompanyID   int64                 `db:"company_id"  gorm:"column:company_id;not null;index"`
	Name        string                `db:"name"        gorm:"column:name;not null"`
	Description string                `db:"description" gorm:"column:description"`
	UnitPrice   int64                 `db:"unit_price"  gorm:"column:unit_price;not null"`
	Inventory   int64                 `db:"inventory"   gorm:"column:inventory;not null;default:0"`
	Barcode     *string               `db:"barcode"     gorm:"column:barcode;uniqueIndex"`
	Prices      []*ProductPriceEntity `gorm:"foreignKey:ProductID"`
	Categories  []*CategoryEntity     `gorm:"many2many:product_categories;"`
	CreatedAt   time.Time             `db:"created_at"  gorm:"column:created_at;autoCreateTime"`
	DeletedAt   gorm.DeletedAt        `db:"deleted_at"  gorm:"column:deleted_at;index"`
}

func (ProductEntity) TableName() string {
	return "products"
}

type ProductPriceEntity struct {
	ID        int64  `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	ProductID int64  `db:"product_id" gorm:"column:product_id;not null;uniqueIndex:idx_product_currency"`
	Currency  string `db:"currency"   gorm:"column:currency;not null;uniqueIndex:idx_product_currency"`
	Price     int64  `db:"price"      gorm:"column:price;not null"`
}

func (ProductPriceEntity) TableName() string {
	return "product_prices"
}

type CategoryEntity struct {
	ID        int64  `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	CompanyID int64  `db:"company_id" gorm:"column:company_id;not null;index"`
	Name      string `db:"name"       gorm:"column:name;not null"`
}

func (CategoryEntity) TableName() string {
	return "categories"
}

type StockEventEntity struct {
	ID        int64     `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	ProductID int64     `db:"product_id" gorm:"column:product_id;not null;index"`
	Action    string    `db:"action"     gorm:"column:action;not null"`
	Quantity  int64     `db:"quantity"   gorm:"column:quantity;not null"`
	Comment   string    `db:"comment"    gorm:"column:comment"`
	CreatedAt time.Time `db:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (StockEventEntity) TableName() string {
	return "stock_events"
}

func toProductEntity(m *model.Product) *ProductEntity {
	if m == nil {
		return nil
	}
	e := &ProductEntity{
		ID:          m.ID,
		CompanyID:   m.CompanyID,
		Name:        m.Name,
		Description: m.Description,
		UnitPrice:   m.UnitPrice,
		Inventory:   m.Inventory,
		Barcode:     m.Barcode,
		CreatedAt:   m.CreatedAt,
	}
	for _, p := range m.Prices {
		e.Prices = append(e.Prices, &ProductPriceEntity{
			ID:        p.ID,
			ProductID: p.ProductID,
			Currency:  p.Currency,
			Price:     p.Price,
		})
	}
	return e
}

func toProductModel(e *ProductEntity) *model.Product {
	if e == nil {
		return nil
	}
	m := &model.Product{
		ID:          e.ID,
		CompanyID:   e.CompanyID,
		Name:        e.Name,
		Description: e.Description,
		UnitPrice:   e.UnitPrice,
		Inventory:   e.Inventory,
		Barcode:     e.Barcode,
		CreatedAt:   e.CreatedAt,
	}
	for _, p := range e.Prices {
		m.Prices = append(m.Prices, &model.ProductPrice{
			ID:        p.ID,
			ProductID: p.ProductID,
			Currency:  p.Currency,
			Price:     p.Price,
		})
	}
	for _, c := range e.Categories {
		m.Categories = append(m.Categories, &model.Category{
			ID:        c.ID,
			CompanyID: c.CompanyID,
			Name:      c.Name,
		})
	}
	return m
}

func toProductModels(entities []*ProductEntity) []*model.Product {
	if entities == nil {
		return nil
	}
	models := make([]*model.Product, len(entities))
	for i, e := range entities {
		models[i] = toProductModel(e)
	}
	return models
}

func toStockEventModel(e *StockEventEntity) *model.StockEvent {
	if e == nil {
		return nil
	}
	return &model.StockEvent{
		ID:        e.ID,
		ProductID: e.ProductID,
		Action:    model.StockAction(e.Action),
		Quantity:  e.Quantity,
		Comment:   e.Comment,
		CreatedAt: e.CreatedAt,
	}
}

func toCategoryModel(e *CategoryEntity) *model.Category {
	if e == nil {
		return nil
	}
	return &model.Category{
		ID:        e.ID,
		CompanyID: e.CompanyID,
		Name:      e.Name,
	}
}
