package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Roles
const (
	RoleEmployee = "employee"
	RoleAdmin    = "admin"
)

// User stores system users with role-based access.
// TransportType is the legacy free-text transport field; TransportModeID
// supersedes it when set.
type User struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Email           string     `gorm:"uniqueIndex;not null"`
	PasswordHash    string     `gorm:"not null"`
	Name            string     `gorm:"not null"`
	Role            string     `gorm:"type:varchar(20);not null;default:'employee'"`
	TransportType   string     `gorm:"not null;default:''"`
	TransportModeID *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	TransportMode *TransportMode `gorm:"foreignKey:TransportModeID"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// TransportMode is a named commute option with its round-trip price.
type TransportMode struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name           string          `gorm:"uniqueIndex;not null"`
	RoundTripPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (m *TransportMode) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
