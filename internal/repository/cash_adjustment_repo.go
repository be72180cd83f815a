package repository

import (
	"context"

	"pastel24h/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CashAdjustmentRepository is append-only: there is no update or delete.
type CashAdjustmentRepository interface {
	Create(ctx context.Context, a *model.CashAdjustment) error
	// List returns the adjustments of one shift, or all of them when shiftID is nil.
	List(ctx context.Context, shiftID *uuid.UUID) ([]model.CashAdjustment, error)
	// ListByType is List restricted to one adjustment type.
	ListByType(ctx context.Context, shiftID *uuid.UUID, typ string) ([]model.CashAdjustment, error)
	SumByShiftAndType(ctx context.Context, shiftID uuid.UUID, typ string) (decimal.Decimal, error)

	WithTx(tx *gorm.DB) CashAdjustmentRepository
}

type cashAdjustmentRepo struct{ db *gorm.DB }

func NewCashAdjustmentRepository(db *gorm.DB) CashAdjustmentRepository {
	return &cashAdjustmentRepo{db: db}
}

func (r *cashAdjustmentRepo) WithTx(tx *gorm.DB) CashAdjustmentRepository {
	if tx == nil {
		return r
	}
	return &cashAdjustmentRepo{db: tx}
}

func (r *cashAdjustmentRepo) Create(ctx context.Context, a *model.CashAdjustment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *cashAdjustmentRepo) List(ctx context.Context, shiftID *uuid.UUID) ([]model.CashAdjustment, error) {
	return r.ListByType(ctx, shiftID, "")
}

func (r *cashAdjustmentRepo) ListByType(ctx context.Context, shiftID *uuid.UUID, typ string) ([]model.CashAdjustment, error) {
	var rows []model.CashAdjustment
	q := r.db.WithContext(ctx).Model(&model.CashAdjustment{})
	if shiftID != nil {
		q = q.Where("shift_id = ?", *shiftID)
	}
	if typ != "" {
		q = q.Where("type = ?", typ)
	}
	err := q.Order("created_at ASC").Find(&rows).Error
	return rows, err
}

// SumByShiftAndType adds the amounts in Go so the result keeps exact
// decimal precision on every driver.
func (r *cashAdjustmentRepo) SumByShiftAndType(ctx context.Context, shiftID uuid.UUID, typ string) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&model.CashAdjustment{}).
		Where("shift_id = ? AND type = ?", shiftID, typ).
		Pluck("amount", &amounts).Error
	if err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, a := range amounts {
		sum = sum.Add(a)
	}
	return sum, nil
}
