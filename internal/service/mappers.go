package service

import (
	"pastel24h/internal/dto"
	"pastel24h/internal/model"

	"github.com/google/uuid"
)

func uuidPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func toProductResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:        p.ID.String(),
		Name:      p.Name,
		Category:  p.Category,
		Price:     p.Price,
		MinStock:  p.MinStock,
		CreatedAt: formatTime(p.CreatedAt),
		UpdatedAt: formatTime(p.UpdatedAt),
	}
}

func toRecordResponse(r *model.ShiftRecord) dto.RecordResponse {
	resp := dto.RecordResponse{
		ID:            r.ID.String(),
		ShiftID:       r.ShiftID.String(),
		ProductID:     r.ProductID.String(),
		EntryQty:      r.EntryQty,
		ArrivalQty:    r.ArrivalQty,
		LeftoverQty:   r.LeftoverQty,
		DiscardQty:    r.DiscardQty,
		ConsumedQty:   r.ConsumedQty,
		SoldQty:       r.SoldQty,
		PriceSnapshot: r.PriceSnapshot,
		ItemTotal:     r.ItemTotal,
		EntryLocked:   r.EntryLocked,
	}
	if r.Product != nil {
		resp.ProductName = r.Product.Name
	}
	return resp
}

func toPaymentResponse(p *model.ShiftPayment) *dto.PaymentResponse {
	if p == nil {
		return nil
	}
	return &dto.PaymentResponse{
		ShiftID:      p.ShiftID.String(),
		Cash:         p.Cash,
		Pix:          p.Pix,
		StoneCard:    p.StoneCard,
		StoneVoucher: p.StoneVoucher,
		PagBankCard:  p.PagBankCard,
		Total:        p.Total(),
	}
}

func toShiftResponse(s *model.Shift) dto.ShiftResponse {
	resp := dto.ShiftResponse{
		ID:                   s.ID.String(),
		UserID:               s.UserID.String(),
		Status:               s.Status,
		StartTime:            formatTime(s.StartTime),
		EndTime:              formatTimePtr(s.EndTime),
		InitialCash:          s.InitialCash,
		InitialCoins:         s.InitialCoins,
		FinalCash:            s.FinalCash,
		FinalCoins:           s.FinalCoins,
		CountedCash:          s.CountedCash,
		CountedCoins:         s.CountedCoins,
		ExpectedCash:         s.ExpectedCash,
		CashDivergence:       s.CashDivergence,
		TotalSales:           s.TotalSales,
		TempFinalCash:        s.TempFinalCash,
		TempFinalCoins:       s.TempFinalCoins,
		Notes:                s.Notes,
		GasExchange:          s.GasExchange,
		ClosedBy:             uuidPtrString(s.ClosedBy),
		InheritedFromShiftID: uuidPtrString(s.InheritedFromShiftID),
		Payment:              toPaymentResponse(s.Payment),
	}
	if s.User != nil {
		resp.UserName = s.User.Name
	}
	for i := range s.Records {
		resp.Records = append(resp.Records, toRecordResponse(&s.Records[i]))
	}
	return resp
}

func toAdjustmentResponse(a *model.CashAdjustment) dto.AdjustmentResponse {
	return dto.AdjustmentResponse{
		ID:           a.ID.String(),
		ShiftID:      uuidPtrString(a.ShiftID),
		UserID:       a.UserID.String(),
		Type:         a.Type,
		Amount:       a.Amount,
		Reason:       a.Reason,
		BeforeAmount: a.BeforeAmount,
		AfterAmount:  a.AfterAmount,
		CreatedAt:    formatTime(a.CreatedAt),
	}
}

func toSnapshotResponse(s *model.ShiftSnapshot) dto.SnapshotResponse {
	resp := dto.SnapshotResponse{
		ID:            s.ID.String(),
		ShiftID:       s.ShiftID.String(),
		LastShiftID:   uuidPtrString(s.LastShiftID),
		CarryCash:     s.CarryCash,
		CarryCoins:    s.CarryCoins,
		CarryProducts: make([]dto.CarryProductResponse, 0, len(s.CarryProducts)),
		CreatedAt:     formatTime(s.CreatedAt),
	}
	for _, c := range s.CarryProducts {
		resp.CarryProducts = append(resp.CarryProducts, dto.CarryProductResponse{
			ProductID: c.ProductID.String(),
			Qty:       c.Qty,
			Name:      c.Name,
		})
	}
	return resp
}

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:              u.ID.String(),
		Email:           u.Email,
		Name:            u.Name,
		Role:            u.Role,
		TransportType:   u.TransportType,
		TransportModeID: uuidPtrString(u.TransportModeID),
	}
}

func toTransportModeResponse(m *model.TransportMode) dto.TransportModeResponse {
	return dto.TransportModeResponse{
		ID:             m.ID.String(),
		Name:           m.Name,
		RoundTripPrice: m.RoundTripPrice,
	}
}

func toTimelineItem(t *model.Timeline) dto.TimelineItem {
	return dto.TimelineItem{
		ID:          t.ID.String(),
		UserID:      t.UserID.String(),
		Action:      t.Action,
		Description: t.Description,
		Metadata:    t.Metadata,
		CreatedAt:   formatTime(t.CreatedAt),
	}
}

func toWeeklyReportResponse(w *model.WeeklyReport) dto.WeeklyReportResponse {
	resp := dto.WeeklyReportResponse{
		ID:                  w.ID.String(),
		WeekStart:           w.WeekStart.UTC().Format(dateLayout),
		WeekEnd:             w.WeekEnd.UTC().Format(dateLayout),
		HourlyRate:          w.HourlyRate,
		FoodBenefit:         w.FoodBenefit,
		ConsumptionDiscount: w.ConsumptionDiscount,
		TransportRates:      w.TransportRates,
		EmployeeData:        w.EmployeeData,
		PDFAvailable:        w.PDFPath != nil && *w.PDFPath != "",
		CreatedAt:           formatTime(w.CreatedAt),
		UpdatedAt:           formatTime(w.UpdatedAt),
	}
	for _, e := range w.EmployeeData {
		resp.Total = resp.Total.Add(e.Total)
	}
	return resp
}
