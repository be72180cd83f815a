package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// OpenShiftRequest carries optional opening values. They only apply when
// there is no previously closed shift to inherit from.
type OpenShiftRequest struct {
	InitialCash  *decimal.Decimal `json:"initialCash"  validate:"omitempty,min=0"`
	InitialCoins *decimal.Decimal `json:"initialCoins" validate:"omitempty,min=0"`
	Notes        *string          `json:"notes"`
	GasExchange  *bool            `json:"gasExchange"`
}

type RecordInput struct {
	ProductID   string `json:"productId"   validate:"required,uuid"`
	EntryQty    int    `json:"entryQty"    validate:"min=0"`
	ArrivalQty  int    `json:"arrivalQty"  validate:"min=0"`
	LeftoverQty int    `json:"leftoverQty" validate:"min=0"`
	DiscardQty  int    `json:"discardQty"  validate:"min=0"`
	ConsumedQty int    `json:"consumedQty" validate:"min=0"`
}

type PaymentInput struct {
	Cash         decimal.Decimal `json:"cash"         validate:"min=0"`
	Pix          decimal.Decimal `json:"pix"          validate:"min=0"`
	StoneCard    decimal.Decimal `json:"stoneCard"    validate:"min=0"`
	StoneVoucher decimal.Decimal `json:"stoneVoucher" validate:"min=0"`
	PagBankCard  decimal.Decimal `json:"pagBankCard"  validate:"min=0"`
}

// CloseShiftRequest is the operator's closing declaration. FinalCash and
// FinalCoins are the legacy count fields, used when the counted values are absent.
type CloseShiftRequest struct {
	Records      []RecordInput    `json:"records"      validate:"dive"`
	Payments     PaymentInput     `json:"payments"`
	Notes        *string          `json:"notes"`
	CountedCash  *decimal.Decimal `json:"countedCash"  validate:"omitempty,min=0"`
	CountedCoins *decimal.Decimal `json:"countedCoins" validate:"omitempty,min=0"`
	FinalCash    *decimal.Decimal `json:"finalCash"    validate:"omitempty,min=0"`
	FinalCoins   *decimal.Decimal `json:"finalCoins"   validate:"omitempty,min=0"`
	GasExchange  bool             `json:"gasExchange"`
}

type SaveDraftRequest struct {
	TempFinalCash  *decimal.Decimal `json:"tempFinalCash"  validate:"omitempty,min=0"`
	TempFinalCoins *decimal.Decimal `json:"tempFinalCoins" validate:"omitempty,min=0"`
}

type ShiftFilter struct {
	From   string `form:"from"`
	To     string `form:"to"`
	Status string `form:"status"  validate:"omitempty,oneof=open closed"`
	UserID string `form:"userId"  validate:"omitempty,uuid"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type RecordResponse struct {
	ID            string          `json:"id"`
	ShiftID       string          `json:"shiftId"`
	ProductID     string          `json:"productId"`
	ProductName   string          `json:"productName,omitempty"`
	EntryQty      int             `json:"entryQty"`
	ArrivalQty    int             `json:"arrivalQty"`
	LeftoverQty   int             `json:"leftoverQty"`
	DiscardQty    int             `json:"discardQty"`
	ConsumedQty   int             `json:"consumedQty"`
	SoldQty       int             `json:"soldQty"`
	PriceSnapshot decimal.Decimal `json:"priceSnapshot"`
	ItemTotal     decimal.Decimal `json:"itemTotal"`
	EntryLocked   bool            `json:"entryLocked"`
}

type PaymentResponse struct {
	ShiftID      string          `json:"shiftId"`
	Cash         decimal.Decimal `json:"cash"`
	Pix          decimal.Decimal `json:"pix"`
	StoneCard    decimal.Decimal `json:"stoneCard"`
	StoneVoucher decimal.Decimal `json:"stoneVoucher"`
	PagBankCard  decimal.Decimal `json:"pagBankCard"`
	Total        decimal.Decimal `json:"total"`
}

type ShiftResponse struct {
	ID                   string           `json:"id"`
	UserID               string           `json:"userId"`
	UserName             string           `json:"userName,omitempty"`
	Status               string           `json:"status"`
	StartTime            string           `json:"startTime"`
	EndTime              *string          `json:"endTime"`
	InitialCash          decimal.Decimal  `json:"initialCash"`
	InitialCoins         decimal.Decimal  `json:"initialCoins"`
	FinalCash            *decimal.Decimal `json:"finalCash"`
	FinalCoins           *decimal.Decimal `json:"finalCoins"`
	CountedCash          *decimal.Decimal `json:"countedCash"`
	CountedCoins         *decimal.Decimal `json:"countedCoins"`
	ExpectedCash         *decimal.Decimal `json:"expectedCash"`
	CashDivergence       *decimal.Decimal `json:"cashDivergence"`
	TotalSales           *decimal.Decimal `json:"totalSales"`
	TempFinalCash        *decimal.Decimal `json:"tempFinalCash"`
	TempFinalCoins       *decimal.Decimal `json:"tempFinalCoins"`
	Notes                *string          `json:"notes"`
	GasExchange          bool             `json:"gasExchange"`
	ClosedBy             *string          `json:"closedBy"`
	InheritedFromShiftID *string          `json:"inheritedFromShiftId"`
	Records              []RecordResponse `json:"records,omitempty"`
	Payment              *PaymentResponse `json:"payment,omitempty"`
}

// InheritanceInfo summarizes what a newly opened shift carried over.
type InheritanceInfo struct {
	Inherited          bool            `json:"inherited"`
	SourceShiftID      *string         `json:"sourceShiftId"`
	ClosedAt           *string         `json:"closedAt"`
	ClosedBy           *string         `json:"closedBy"`
	CarryCash          decimal.Decimal `json:"carryCash"`
	CarryCoins         decimal.Decimal `json:"carryCoins"`
	CarriedProducts    int             `json:"carriedProducts"`
	PendingWithdrawals decimal.Decimal `json:"pendingWithdrawals"`
}

type OpenShiftResponse struct {
	Shift       ShiftResponse   `json:"shift"`
	Inheritance InheritanceInfo `json:"inheritance"`
}

type ShiftListResponse struct {
	Data  []ShiftResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

type CarryProductResponse struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
	Name      string `json:"name"`
}

type SnapshotResponse struct {
	ID            string                 `json:"id"`
	ShiftID       string                 `json:"shiftId"`
	LastShiftID   *string                `json:"lastShiftId"`
	CarryCash     decimal.Decimal        `json:"carryCash"`
	CarryCoins    decimal.Decimal        `json:"carryCoins"`
	CarryProducts []CarryProductResponse `json:"carryProducts"`
	CreatedAt     string                 `json:"createdAt"`
}

type LowStockAlert struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	LeftoverQty int    `json:"leftoverQty"`
	MinStock    int    `json:"minStock"`
}
