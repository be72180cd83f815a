package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Adjustment types
const (
	AdjustmentWithdraw   = "withdraw"
	AdjustmentAdjustment = "adjustment"
)

// CashAdjustment is an immutable out-of-band cash movement against a drawer.
// Rows are NEVER modified or deleted.
type CashAdjustment struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ShiftID      *uuid.UUID      `gorm:"type:uuid;index"`
	UserID       uuid.UUID       `gorm:"type:uuid;not null"`
	Type         string          `gorm:"type:varchar(20);not null;index"`
	Amount       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Reason       string          `gorm:"not null"`
	BeforeAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	AfterAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt    time.Time
}

func (a *CashAdjustment) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
