package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Timeline actions
const (
	ActionShiftOpened       = "shift_opened"
	ActionShiftClosed       = "shift_closed"
	ActionCashShortfall     = "cash_shortfall"
	ActionCashAdjustment    = "cash_adjustment"
	ActionWeeklyReportSaved = "weekly_report_saved"
)

// Timeline is an append-only audit event.
type Timeline struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index"`
	Action      string         `gorm:"type:varchar(40);not null;index"`
	Description string         `gorm:"not null"`
	Metadata    map[string]any `gorm:"type:jsonb;serializer:json"`
	CreatedAt   time.Time
}

// TableName overrides GORM's default pluralization (timelines → timeline).
func (Timeline) TableName() string { return "timeline" }

func (t *Timeline) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
