package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateProductRequest struct {
	Name     string          `json:"name"     validate:"required,min=2,max=120"`
	Category string          `json:"category" validate:"required,oneof=pastel salgado doce bebida outros"`
	Price    decimal.Decimal `json:"price"    validate:"min=0"`
	MinStock int             `json:"minStock" validate:"min=0"`
}

type UpdateProductRequest struct {
	Name     *string          `json:"name"     validate:"omitempty,min=2,max=120"`
	Category *string          `json:"category" validate:"omitempty,oneof=pastel salgado doce bebida outros"`
	Price    *decimal.Decimal `json:"price"    validate:"omitempty,min=0"`
	MinStock *int             `json:"minStock" validate:"omitempty,min=0"`
}

// ─── Filter ──────────────────────────────────────────────────────────────────

type ProductFilter struct {
	Name     string `form:"name"`
	Category string `form:"category"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Price     decimal.Decimal `json:"price"`
	MinStock  int             `json:"minStock"`
	CreatedAt string          `json:"createdAt"`
	UpdatedAt string          `json:"updatedAt"`
}

type PriceHistoryItem struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"productId"`
	PriceBefore decimal.Decimal `json:"priceBefore"`
	PriceAfter  decimal.Decimal `json:"priceAfter"`
	ChangedBy   *string         `json:"changedBy"`
	CreatedAt   string          `json:"createdAt"`
}

type PriceHistoryListResponse struct {
	Data  []PriceHistoryItem `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

// MenuItem is returned by the public menu endpoint (no auth required).
type MenuItem struct {
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
}
