package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"pastel24h/internal/apierror"
	"pastel24h/internal/dto"
	"pastel24h/internal/infra"
	"pastel24h/internal/model"
	"pastel24h/internal/repository"
	"pastel24h/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultTransportMode is the rate key used when an employee has no mode.
const DefaultTransportMode = "bus"

var hundred = decimal.NewFromInt(100)

// PayrollService derives weekly pay from closed shifts.
type PayrollService interface {
	// Calculate is a pure preview; nothing is persisted.
	Calculate(ctx context.Context, req dto.PayrollRequest) (*dto.PayrollPreviewResponse, error)
	// Save persists (or replaces) the report of the week and queues its PDF export.
	Save(ctx context.Context, userID uuid.UUID, req dto.PayrollRequest) (*dto.WeeklyReportResponse, error)
	ListReports(ctx context.Context) ([]dto.WeeklyReportResponse, error)
	GetReport(ctx context.Context, id uuid.UUID) (*dto.WeeklyReportResponse, error)
	ExportPDF(ctx context.Context, id uuid.UUID) ([]byte, string, error)
}

type payrollService struct {
	shifts     repository.ShiftRepository
	users      repository.UserRepository
	reports    repository.WeeklyReportRepository
	timeline   repository.TimelineRepository
	dispatcher *worker.Dispatcher
	loc        *time.Location
}

func NewPayrollService(
	shifts repository.ShiftRepository,
	users repository.UserRepository,
	reports repository.WeeklyReportRepository,
	timeline repository.TimelineRepository,
	dispatcher *worker.Dispatcher,
	loc *time.Location,
) PayrollService {
	if loc == nil {
		loc = time.UTC
	}
	return &payrollService{
		shifts:     shifts,
		users:      users,
		reports:    reports,
		timeline:   timeline,
		dispatcher: dispatcher,
		loc:        loc,
	}
}

// payrollPeriod is a validated request: calendar dates plus the UTC query bounds.
type payrollPeriod struct {
	weekStart time.Time // calendar date at UTC midnight
	weekEnd   time.Time
	from, to  time.Time
}

func (s *payrollService) Calculate(ctx context.Context, req dto.PayrollRequest) (*dto.PayrollPreviewResponse, error) {
	period, entries, err := s.calculate(ctx, req)
	if err != nil {
		return nil, err
	}
	out := &dto.PayrollPreviewResponse{
		WeekStart: period.weekStart.Format(dateLayout),
		WeekEnd:   period.weekEnd.Format(dateLayout),
		Employees: entries,
		Total:     decimal.Zero,
	}
	for _, e := range entries {
		out.Total = out.Total.Add(e.Total)
	}
	return out, nil
}

func (s *payrollService) calculate(ctx context.Context, req dto.PayrollRequest) (payrollPeriod, []model.PayrollEntry, error) {
	var period payrollPeriod
	if err := validatePayrollRequest(req); err != nil {
		return period, nil, err
	}
	start, err := parseDay("weekStart", req.WeekStart, s.loc)
	if err != nil {
		return period, nil, err
	}
	end, err := parseDay("weekEnd", req.WeekEnd, s.loc)
	if err != nil {
		return period, nil, err
	}
	if end.Before(start) {
		return period, nil, apierror.Validation("weekEnd", "o fim da semana deve ser posterior ao início")
	}
	period = payrollPeriod{
		weekStart: time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
		weekEnd:   time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC),
		from:      start.UTC(),
		to:        endOfDay(end).UTC(),
	}

	shifts, err := s.shifts.ListClosedBetween(ctx, period.from, period.to)
	if err != nil {
		return period, nil, fmt.Errorf("list closed shifts: %w", err)
	}
	employees, err := s.users.ListByRole(ctx, model.RoleEmployee)
	if err != nil {
		return period, nil, fmt.Errorf("list employees: %w", err)
	}

	people := make(map[uuid.UUID]*model.User, len(employees))
	for i := range employees {
		people[employees[i].ID] = &employees[i]
	}
	byUser := make(map[uuid.UUID][]model.Shift)
	for _, sh := range shifts {
		byUser[sh.UserID] = append(byUser[sh.UserID], sh)
		// Admins who worked a shift are paid for it too.
		if _, ok := people[sh.UserID]; !ok && sh.User != nil {
			people[sh.UserID] = sh.User
		}
	}

	entries := make([]model.PayrollEntry, 0, len(people))
	for id, u := range people {
		adj := req.Adjustments[id.String()]
		entries = append(entries, computePayrollEntry(u, byUser[id], req, adj))
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Name == entries[j].Name {
			return entries[i].UserID.String() < entries[j].UserID.String()
		}
		return entries[i].Name < entries[j].Name
	})
	return period, entries, nil
}

// computePayrollEntry applies the weekly pay formula to one employee:
//
//	total = hours×rate + transport + food − (consumption − discount) + bonus − deduction
//
// The consumption discount lowers what is deducted from pay.
func computePayrollEntry(u *model.User, shifts []model.Shift, req dto.PayrollRequest, adj dto.ManualAdjustment) model.PayrollEntry {
	totalHours := decimal.Zero
	totalConsumption := decimal.Zero
	for _, sh := range shifts {
		if sh.EndTime != nil && !sh.StartTime.IsZero() {
			secs := int64(sh.EndTime.Sub(sh.StartTime) / time.Second)
			totalHours = totalHours.Add(decimal.NewFromInt(secs).Div(decimal.NewFromInt(3600)))
		}
		for i := range sh.Records {
			totalConsumption = totalConsumption.Add(sh.Records[i].ConsumptionValue())
		}
	}

	days := decimal.NewFromInt(int64(len(shifts)))
	modeName, rate := transportRate(u, req.TransportRates)
	hoursPay := totalHours.Mul(req.HourlyRate)
	transportCost := days.Mul(rate)
	foodCost := days.Mul(req.FoodBenefit)
	discountAmount := totalConsumption.Mul(req.ConsumptionDiscount).Div(hundred)
	finalConsumption := totalConsumption.Sub(discountAmount)

	total := hoursPay.
		Add(transportCost).
		Add(foodCost).
		Sub(finalConsumption).
		Add(adj.Bonus).
		Sub(adj.Deduction)

	return model.PayrollEntry{
		UserID:                    u.ID,
		Name:                      u.Name,
		DaysWorked:                len(shifts),
		TotalHours:                totalHours.Round(2),
		HoursPay:                  hoursPay.Round(2),
		TransportMode:             modeName,
		TransportCost:             transportCost.Round(2),
		FoodCost:                  foodCost.Round(2),
		TotalConsumption:          totalConsumption.Round(2),
		ConsumptionDiscountAmount: discountAmount.Round(2),
		FinalConsumption:          finalConsumption.Round(2),
		Bonus:                     adj.Bonus.Round(2),
		Deduction:                 adj.Deduction.Round(2),
		Total:                     total.Round(2),
	}
}

// transportRate resolves the per-day round-trip price: the assigned mode's
// price first, then the rate for the legacy free-text mode, then the bus rate.
func transportRate(u *model.User, rates map[string]decimal.Decimal) (string, decimal.Decimal) {
	if u.TransportMode != nil {
		return u.TransportMode.Name, u.TransportMode.RoundTripPrice
	}
	if u.TransportType != "" {
		if r, ok := rates[u.TransportType]; ok {
			return u.TransportType, r
		}
	}
	return DefaultTransportMode, rates[DefaultTransportMode]
}

func validatePayrollRequest(req dto.PayrollRequest) error {
	switch {
	case req.HourlyRate.IsNegative():
		return apierror.Validation("hourlyRate", "o valor da hora não pode ser negativo")
	case req.FoodBenefit.IsNegative():
		return apierror.Validation("foodBenefit", "o auxílio alimentação não pode ser negativo")
	case req.ConsumptionDiscount.IsNegative() || req.ConsumptionDiscount.GreaterThan(hundred):
		return apierror.Validation("consumptionDiscount", "o desconto deve estar entre 0 e 100")
	}
	for mode, r := range req.TransportRates {
		if r.IsNegative() {
			return apierror.Validation("transportRates", "tarifa negativa para "+mode)
		}
	}
	for id, a := range req.Adjustments {
		if _, err := uuid.Parse(id); err != nil {
			return apierror.Validation("adjustments", "id de funcionário inválido: "+id)
		}
		if a.Bonus.IsNegative() || a.Deduction.IsNegative() {
			return apierror.Validation("adjustments", "bônus e descontos não podem ser negativos")
		}
	}
	return nil
}

func (s *payrollService) Save(ctx context.Context, userID uuid.UUID, req dto.PayrollRequest) (*dto.WeeklyReportResponse, error) {
	period, entries, err := s.calculate(ctx, req)
	if err != nil {
		return nil, err
	}

	rates := req.TransportRates
	if rates == nil {
		rates = map[string]decimal.Decimal{}
	}
	report := &model.WeeklyReport{
		WeekStart:           period.weekStart,
		WeekEnd:             period.weekEnd,
		HourlyRate:          req.HourlyRate.Round(2),
		FoodBenefit:         req.FoodBenefit.Round(2),
		ConsumptionDiscount: req.ConsumptionDiscount.Round(2),
		TransportRates:      rates,
		EmployeeData:        entries,
		CreatedBy:           userID,
	}

	err = runTx(ctx, s.reports.DB(), func(tx *gorm.DB) error {
		reports := s.reports.WithTx(tx)
		existing, err := reports.FindByWeekStart(ctx, period.weekStart)
		switch {
		case err == nil:
		case isNotFound(err):
			existing = nil
		default:
			return fmt.Errorf("find report: %w", err)
		}

		if err := reports.Upsert(ctx, report); err != nil {
			return fmt.Errorf("upsert report: %w", err)
		}
		if existing != nil {
			report.ID = existing.ID
			report.CreatedAt = existing.CreatedAt
		}

		total := decimal.Zero
		for _, e := range entries {
			total = total.Add(e.Total)
		}
		return appendTimeline(ctx, s.timeline.WithTx(tx), userID, model.ActionWeeklyReportSaved,
			fmt.Sprintf("Folha semanal de %s a %s salva (R$ %s)",
				period.weekStart.Format(dateLayout), period.weekEnd.Format(dateLayout), money(total)),
			map[string]any{
				"reportId":  report.ID.String(),
				"weekStart": period.weekStart.Format(dateLayout),
				"employees": len(entries),
				"total":     money(total),
			})
	})
	if err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		if err := s.dispatcher.EnqueueReportPDF(ctx, worker.ReportPDFJobPayload{
			ReportID:  report.ID.String(),
			WeekStart: report.WeekStart.UTC().Format("2006-01-02"),
		}); err != nil {
			log.Warn().Err(err).Str("report_id", report.ID.String()).Msg("failed to enqueue report pdf job")
		}
	}

	resp := toWeeklyReportResponse(report)
	return &resp, nil
}

func (s *payrollService) ListReports(ctx context.Context) ([]dto.WeeklyReportResponse, error) {
	rows, err := s.reports.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	out := make([]dto.WeeklyReportResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toWeeklyReportResponse(&rows[i]))
	}
	return out, nil
}

func (s *payrollService) GetReport(ctx context.Context, id uuid.UUID) (*dto.WeeklyReportResponse, error) {
	w, err := s.findReport(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toWeeklyReportResponse(w)
	return &resp, nil
}

// ExportPDF renders the saved report on demand and returns the document with
// a suggested file name.
func (s *payrollService) ExportPDF(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	w, err := s.findReport(ctx, id)
	if err != nil {
		return nil, "", err
	}
	doc, err := infra.RenderWeeklyReportPDF(w)
	if err != nil {
		return nil, "", fmt.Errorf("render report pdf: %w", err)
	}
	return doc, infra.WeeklyReportFileName(w), nil
}

func (s *payrollService) findReport(ctx context.Context, id uuid.UUID) (*model.WeeklyReport, error) {
	w, err := s.reports.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apierror.NotFound("relatório não encontrado")
		}
		return nil, fmt.Errorf("find report: %w", err)
	}
	return w, nil
}
