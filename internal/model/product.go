package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product categories. The set is fixed; the catalog rejects anything else.
const (
	CategoryPastel  = "pastel"
	CategorySalgado = "salgado"
	CategoryDoce    = "doce"
	CategoryBebida  = "bebida"
	CategoryOutros  = "outros"
)

// Categories lists the accepted product categories in display order.
var Categories = []string{CategoryPastel, CategorySalgado, CategoryDoce, CategoryBebida, CategoryOutros}

// ValidCategory reports whether c belongs to the fixed category set.
func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// Product is a sellable catalog item. Its price is snapshotted into every
// ShiftRecord, so price changes never rewrite history.
type Product struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name      string          `gorm:"not null;index"`
	Category  string          `gorm:"type:varchar(20);not null"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	MinStock  int             `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ProductPriceHistory records each price change of a product.
// Rows are immutable: never updated or deleted.
type ProductPriceHistory struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	PriceBefore decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	PriceAfter  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	ChangedBy   *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt   time.Time
}

// TableName overrides GORM's default pluralization (product_price_histories → product_price_history).
func (ProductPriceHistory) TableName() string { return "product_price_history" }

func (h *ProductPriceHistory) BeforeCreate(*gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
