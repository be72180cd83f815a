package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Shift statuses
const (
	ShiftOpen   = "open"
	ShiftClosed = "closed"
)

// Shift is one register-operating session. At most one shift may be open
// across the whole business; a partial unique index on status='open'
// enforces it at the database level.
type Shift struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	StartTime time.Time  `gorm:"not null;index"`
	EndTime   *time.Time `gorm:"index"`
	Status    string     `gorm:"type:varchar(10);not null;default:'open'"`

	InitialCash  decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	InitialCoins decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	FinalCash    *decimal.Decimal `gorm:"type:decimal(12,2)"`
	FinalCoins   *decimal.Decimal `gorm:"type:decimal(12,2)"`
	CountedCash  *decimal.Decimal `gorm:"type:decimal(12,2)"`
	CountedCoins *decimal.Decimal `gorm:"type:decimal(12,2)"`
	// ExpectedCash, CashDivergence and TotalSales are computed on close.
	ExpectedCash   *decimal.Decimal `gorm:"type:decimal(12,2)"`
	CashDivergence *decimal.Decimal `gorm:"type:decimal(12,2)"`
	TotalSales     *decimal.Decimal `gorm:"type:decimal(12,2)"`

	Notes       *string
	GasExchange bool       `gorm:"not null;default:false"`
	ClosedBy    *uuid.UUID `gorm:"type:uuid"`
	// InheritedFromShiftID is a lookup-only back reference to the predecessor.
	InheritedFromShiftID *uuid.UUID `gorm:"type:uuid"`

	// Scratch values for mid-shift draft saves.
	TempFinalCash  *decimal.Decimal `gorm:"type:decimal(12,2)"`
	TempFinalCoins *decimal.Decimal `gorm:"type:decimal(12,2)"`

	CreatedAt time.Time
	UpdatedAt time.Time

	User    *User         `gorm:"foreignKey:UserID"`
	Records []ShiftRecord `gorm:"foreignKey:ShiftID"`
	Payment *ShiftPayment `gorm:"foreignKey:ShiftID"`
}

func (s *Shift) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// IsOpen reports whether the shift can still be edited.
func (s *Shift) IsOpen() bool { return s.Status == ShiftOpen && s.EndTime == nil }

// ShiftRecord is the per-shift, per-product inventory movement ledger row.
// (ShiftID, ProductID) is unique; writes go through an upsert.
type ShiftRecord struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ShiftID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_shift_records_shift_product"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_shift_records_shift_product;index"`
	EntryQty    int       `gorm:"not null"`
	ArrivalQty  int       `gorm:"not null"`
	LeftoverQty int       `gorm:"not null"`
	DiscardQty  int       `gorm:"not null"`
	ConsumedQty int       `gorm:"not null"`
	SoldQty     int       `gorm:"not null"`

	PriceSnapshot decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	ItemTotal     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// EntryLocked marks an entry quantity seeded from the predecessor's leftovers.
	EntryLocked bool `gorm:"not null"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

func (r *ShiftRecord) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// SoldQuantity derives sales from the movement counts. Over-reported
// leftovers, discards or consumption clamp to zero instead of going negative.
func SoldQuantity(entry, arrival, leftover, discard, consumed int) int {
	sold := entry + arrival - leftover - discard - consumed
	if sold < 0 {
		return 0
	}
	return sold
}

// Recalculate refreshes SoldQty and ItemTotal from the stored inputs.
func (r *ShiftRecord) Recalculate() {
	r.SoldQty = SoldQuantity(r.EntryQty, r.ArrivalQty, r.LeftoverQty, r.DiscardQty, r.ConsumedQty)
	r.ItemTotal = r.PriceSnapshot.Mul(decimal.NewFromInt(int64(r.SoldQty))).Round(2)
}

// ConsumptionValue is the employee's in-shift consumption at the snapshotted price.
func (r *ShiftRecord) ConsumptionValue() decimal.Decimal {
	return r.PriceSnapshot.Mul(decimal.NewFromInt(int64(r.ConsumedQty)))
}

// ShiftPayment is the declared payment summary of a shift (one row per shift).
type ShiftPayment struct {
	ShiftID      uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Cash         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Pix          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	StoneCard    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	StoneVoucher decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PagBankCard  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Total is the sum of every declared payment method.
func (p *ShiftPayment) Total() decimal.Decimal {
	return p.Cash.Add(p.Pix).Add(p.StoneCard).Add(p.StoneVoucher).Add(p.PagBankCard)
}

// ShiftSnapshot is the immutable audit record of what a shift inherited.
type ShiftSnapshot struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ShiftID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	LastShiftID   *uuid.UUID      `gorm:"type:uuid"`
	CarryCash     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CarryCoins    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CarryProducts []CarryProduct  `gorm:"type:jsonb;serializer:json"`
	CreatedAt     time.Time
}

// CarryProduct is one leftover line carried into a new shift.
type CarryProduct struct {
	ProductID uuid.UUID `json:"productId"`
	Qty       int       `json:"qty"`
	Name      string    `json:"name"`
}

func (s *ShiftSnapshot) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
