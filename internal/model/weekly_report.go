package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WeeklyReport is the saved payroll for one week (one row per WeekStart).
type WeeklyReport struct {
	ID                  uuid.UUID                  `gorm:"type:uuid;primaryKey"`
	WeekStart           time.Time                  `gorm:"not null;uniqueIndex"`
	WeekEnd             time.Time                  `gorm:"not null"`
	HourlyRate          decimal.Decimal            `gorm:"type:decimal(10,2);not null"`
	FoodBenefit         decimal.Decimal            `gorm:"type:decimal(10,2);not null"`
	ConsumptionDiscount decimal.Decimal            `gorm:"type:decimal(5,2);not null"`
	TransportRates      map[string]decimal.Decimal `gorm:"type:jsonb;serializer:json"`
	EmployeeData        []PayrollEntry             `gorm:"type:jsonb;serializer:json"`
	CreatedBy           uuid.UUID                  `gorm:"type:uuid;not null"`
	PDFPath             *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (w *WeeklyReport) BeforeCreate(*gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// PayrollEntry is one employee's computed pay for a week.
type PayrollEntry struct {
	UserID                    uuid.UUID       `json:"userId"`
	Name                      string          `json:"name"`
	DaysWorked                int             `json:"daysWorked"`
	TotalHours                decimal.Decimal `json:"totalHours"`
	HoursPay                  decimal.Decimal `json:"hoursPay"`
	TransportMode             string          `json:"transportMode"`
	TransportCost             decimal.Decimal `json:"transportCost"`
	FoodCost                  decimal.Decimal `json:"foodCost"`
	TotalConsumption          decimal.Decimal `json:"totalConsumption"`
	ConsumptionDiscountAmount decimal.Decimal `json:"consumptionDiscountAmount"`
	FinalConsumption          decimal.Decimal `json:"finalConsumption"`
	Bonus                     decimal.Decimal `json:"bonus"`
	Deduction                 decimal.Decimal `json:"deduction"`
	Total                     decimal.Decimal `json:"total"`
}
