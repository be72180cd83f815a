package dto

import (
	"pastel24h/internal/model"

	"github.com/shopspring/decimal"
)

// ManualAdjustment is an admin-entered bonus or deduction for one employee.
type ManualAdjustment struct {
	Bonus     decimal.Decimal `json:"bonus"     validate:"min=0"`
	Deduction decimal.Decimal `json:"deduction" validate:"min=0"`
}

// PayrollRequest drives both the preview and the save of a weekly report.
// Dates use the YYYY-MM-DD layout; Adjustments is keyed by user id.
type PayrollRequest struct {
	WeekStart           string                      `json:"weekStart"           validate:"required"`
	WeekEnd             string                      `json:"weekEnd"             validate:"required"`
	HourlyRate          decimal.Decimal             `json:"hourlyRate"          validate:"min=0"`
	FoodBenefit         decimal.Decimal             `json:"foodBenefit"         validate:"min=0"`
	ConsumptionDiscount decimal.Decimal             `json:"consumptionDiscount" validate:"min=0,max=100"`
	TransportRates      map[string]decimal.Decimal  `json:"transportRates"`
	Adjustments         map[string]ManualAdjustment `json:"adjustments"         validate:"dive"`
}

type PayrollPreviewResponse struct {
	WeekStart string               `json:"weekStart"`
	WeekEnd   string               `json:"weekEnd"`
	Employees []model.PayrollEntry `json:"employees"`
	Total     decimal.Decimal      `json:"total"`
}

type WeeklyReportResponse struct {
	ID                  string                     `json:"id"`
	WeekStart           string                     `json:"weekStart"`
	WeekEnd             string                     `json:"weekEnd"`
	HourlyRate          decimal.Decimal            `json:"hourlyRate"`
	FoodBenefit         decimal.Decimal            `json:"foodBenefit"`
	ConsumptionDiscount decimal.Decimal            `json:"consumptionDiscount"`
	TransportRates      map[string]decimal.Decimal `json:"transportRates"`
	EmployeeData        []model.PayrollEntry       `json:"employeeData"`
	Total               decimal.Decimal            `json:"total"`
	PDFAvailable        bool                       `json:"pdfAvailable"`
	CreatedAt           string                     `json:"createdAt"`
	UpdatedAt           string                     `json:"updatedAt"`
}
