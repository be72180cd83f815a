package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"pastel24h/internal/dto"
	"pastel24h/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReportService computes read-only rollups over closed shifts.
type ReportService interface {
	Stats(ctx context.Context, filter dto.StatsFilter) (*dto.StatsResponse, error)
}

type reportService struct {
	shifts              repository.ShiftRepository
	profitMargin        decimal.Decimal
	divergenceTolerance decimal.Decimal
	loc                 *time.Location
}

// NewReportService builds the aggregator. estimatedProfit is sales × profitMargin;
// shifts whose |divergence| exceeds divergenceTolerance are listed as outliers.
func NewReportService(
	shifts repository.ShiftRepository,
	profitMargin decimal.Decimal,
	divergenceTolerance decimal.Decimal,
	loc *time.Location,
) ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &reportService{
		shifts:              shifts,
		profitMargin:        profitMargin,
		divergenceTolerance: divergenceTolerance,
		loc:                 loc,
	}
}

func (s *reportService) Stats(ctx context.Context, filter dto.StatsFilter) (*dto.StatsResponse, error) {
	from, to, err := parseRange(filter.From, filter.To, s.loc)
	if err != nil {
		return nil, err
	}
	top := filter.Top
	if top < 1 {
		top = 5
	}

	shifts, err := s.shifts.ListClosedBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list closed shifts: %w", err)
	}

	out := &dto.StatsResponse{
		From:               filter.From,
		To:                 filter.To,
		TotalSales:         decimal.Zero,
		AverageTicket:      decimal.Zero,
		EstimatedProfit:    decimal.Zero,
		TopProducts:        []dto.ProductSales{},
		SalesByHour:        make([]dto.HourSales, 24),
		DivergenceOutliers: []dto.DivergenceOutlier{},
	}
	for h := range out.SalesByHour {
		out.SalesByHour[h] = dto.HourSales{Hour: h, Sales: decimal.Zero}
	}

	products := make(map[uuid.UUID]*dto.ProductSales)
	for _, sh := range shifts {
		sales := derefDecimal(sh.TotalSales)
		out.ShiftCount++
		out.TotalSales = out.TotalSales.Add(sales)

		hour := sh.StartTime.In(s.loc).Hour()
		out.SalesByHour[hour].Sales = out.SalesByHour[hour].Sales.Add(sales)
		out.SalesByHour[hour].Shifts++

		if p := sh.Payment; p != nil {
			pt := &out.PaymentTotals
			pt.Cash = pt.Cash.Add(p.Cash)
			pt.Pix = pt.Pix.Add(p.Pix)
			pt.StoneCard = pt.StoneCard.Add(p.StoneCard)
			pt.StoneVoucher = pt.StoneVoucher.Add(p.StoneVoucher)
			pt.PagBankCard = pt.PagBankCard.Add(p.PagBankCard)
			pt.Total = pt.Total.Add(p.Total())
		}

		for _, r := range sh.Records {
			ps, ok := products[r.ProductID]
			if !ok {
				ps = &dto.ProductSales{ProductID: r.ProductID.String(), Revenue: decimal.Zero}
				if r.Product != nil {
					ps.Name = r.Product.Name
				}
				products[r.ProductID] = ps
			}
			ps.Quantity += r.SoldQty
			ps.Revenue = ps.Revenue.Add(r.ItemTotal)
		}

		if d := sh.CashDivergence; d != nil && d.Abs().GreaterThan(s.divergenceTolerance) {
			o := dto.DivergenceOutlier{
				ShiftID:    sh.ID.String(),
				UserID:     sh.UserID.String(),
				Divergence: *d,
				Notes:      sh.Notes,
			}
			if sh.EndTime != nil {
				o.EndTime = formatTime(*sh.EndTime)
			}
			if sh.User != nil {
				o.UserName = sh.User.Name
			}
			out.DivergenceOutliers = append(out.DivergenceOutliers, o)
		}
	}

	if out.ShiftCount > 0 {
		out.AverageTicket = out.TotalSales.Div(decimal.NewFromInt(int64(out.ShiftCount))).Round(2)
	}
	out.EstimatedProfit = out.TotalSales.Mul(s.profitMargin).Round(2)

	ranked := make([]dto.ProductSales, 0, len(products))
	for _, ps := range products {
		ranked = append(ranked, *ps)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Quantity == ranked[j].Quantity {
			return ranked[i].Name < ranked[j].Name
		}
		return ranked[i].Quantity > ranked[j].Quantity
	})
	if len(ranked) > top {
		ranked = ranked[:top]
	}
	out.TopProducts = ranked

	sort.Slice(out.DivergenceOutliers, func(i, j int) bool {
		return out.DivergenceOutliers[i].Divergence.Abs().GreaterThan(out.DivergenceOutliers[j].Divergence.Abs())
	})
	return out, nil
}
