package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateAdjustmentRequest struct {
	ShiftID *string         `json:"shiftId" validate:"omitempty,uuid"`
	Type    string          `json:"type"    validate:"required,oneof=withdraw adjustment"`
	Amount  decimal.Decimal `json:"amount"  validate:"required,gt=0"`
	Reason  string          `json:"reason"  validate:"required,min=3"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type AdjustmentResponse struct {
	ID           string          `json:"id"`
	ShiftID      *string         `json:"shiftId"`
	UserID       string          `json:"userId"`
	Type         string          `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Reason       string          `json:"reason"`
	BeforeAmount decimal.Decimal `json:"beforeAmount"`
	AfterAmount  decimal.Decimal `json:"afterAmount"`
	CreatedAt    string          `json:"createdAt"`
}

type PendingWithdrawalsResponse struct {
	ShiftID *string              `json:"shiftId"`
	Total   decimal.Decimal      `json:"total"`
	Items   []AdjustmentResponse `json:"items"`
}
