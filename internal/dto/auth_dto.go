package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=4"`
}

type CreateUserRequest struct {
	Email           string  `json:"email"           validate:"required,email"`
	Name            string  `json:"name"            validate:"required,min=2,max=100"`
	Password        string  `json:"password"        validate:"required,min=6"`
	Role            string  `json:"role"            validate:"required,oneof=employee admin"`
	TransportType   string  `json:"transportType"`
	TransportModeID *string `json:"transportModeId" validate:"omitempty,uuid"`
}

type UpdateUserRequest struct {
	Name            *string `json:"name"            validate:"omitempty,min=2,max=100"`
	Role            *string `json:"role"            validate:"omitempty,oneof=employee admin"`
	Password        *string `json:"password"        validate:"omitempty,min=6"`
	TransportType   *string `json:"transportType"`
	TransportModeID *string `json:"transportModeId" validate:"omitempty,uuid"`
}

type TransportModeRequest struct {
	Name           string          `json:"name"           validate:"required,min=2,max=50"`
	RoundTripPrice decimal.Decimal `json:"roundTripPrice" validate:"min=0"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type UserResponse struct {
	ID              string  `json:"id"`
	Email           string  `json:"email"`
	Name            string  `json:"name"`
	Role            string  `json:"role"`
	TransportType   string  `json:"transportType"`
	TransportModeID *string `json:"transportModeId"`
}

type LoginResponse struct {
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
	ExpiresIn   int          `json:"expiresIn"` // seconds
	User        UserResponse `json:"user"`
}

type TransportModeResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	RoundTripPrice decimal.Decimal `json:"roundTripPrice"`
}
