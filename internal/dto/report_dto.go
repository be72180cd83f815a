package dto

import "github.com/shopspring/decimal"

type StatsFilter struct {
	From string `form:"from" validate:"required"`
	To   string `form:"to"   validate:"required"`
	Top  int    `form:"top,default=5" validate:"min=1,max=50"`
}

type ProductSales struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type HourSales struct {
	Hour   int             `json:"hour"`
	Sales  decimal.Decimal `json:"sales"`
	Shifts int             `json:"shifts"`
}

type PaymentTotals struct {
	Cash         decimal.Decimal `json:"cash"`
	Pix          decimal.Decimal `json:"pix"`
	StoneCard    decimal.Decimal `json:"stoneCard"`
	StoneVoucher decimal.Decimal `json:"stoneVoucher"`
	PagBankCard  decimal.Decimal `json:"pagBankCard"`
	Total        decimal.Decimal `json:"total"`
}

type DivergenceOutlier struct {
	ShiftID    string          `json:"shiftId"`
	UserID     string          `json:"userId"`
	UserName   string          `json:"userName,omitempty"`
	EndTime    string          `json:"endTime"`
	Divergence decimal.Decimal `json:"divergence"`
	Notes      *string         `json:"notes"`
}

type StatsResponse struct {
	From               string              `json:"from"`
	To                 string              `json:"to"`
	TotalSales         decimal.Decimal     `json:"totalSales"`
	ShiftCount         int                 `json:"shiftCount"`
	AverageTicket      decimal.Decimal     `json:"averageTicket"`
	EstimatedProfit    decimal.Decimal     `json:"estimatedProfit"`
	TopProducts        []ProductSales      `json:"topProducts"`
	SalesByHour        []HourSales         `json:"salesByHour"`
	PaymentTotals      PaymentTotals       `json:"paymentTotals"`
	DivergenceOutliers []DivergenceOutlier `json:"divergenceOutliers"`
}

type TimelineItem struct {
	ID          string         `json:"id"`
	UserID      string         `json:"userId"`
	Action      string         `json:"action"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata"`
	CreatedAt   string         `json:"createdAt"`
}

type TimelineListResponse struct {
	Data  []TimelineItem `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}
