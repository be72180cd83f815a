package service

import (
	"context"
	"fmt"
	"strings"

	"pastel24h/internal/apierror"
	"pastel24h/internal/dto"
	"pastel24h/internal/model"
	"pastel24h/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CashService records out-of-band drawer movements. The ledger is append-only.
type CashService interface {
	CreateAdjustment(ctx context.Context, userID uuid.UUID, req dto.CreateAdjustmentRequest) (*dto.AdjustmentResponse, error)
	PendingWithdrawals(ctx context.Context) (*dto.PendingWithdrawalsResponse, error)
	ListAdjustments(ctx context.Context, shiftID *uuid.UUID) ([]dto.AdjustmentResponse, error)
}

type cashService struct {
	adjustments repository.CashAdjustmentRepository
	shifts      repository.ShiftRepository
	timeline    repository.TimelineRepository
}

func NewCashService(
	adjustments repository.CashAdjustmentRepository,
	shifts repository.ShiftRepository,
	timeline repository.TimelineRepository,
) CashService {
	return &cashService{adjustments: adjustments, shifts: shifts, timeline: timeline}
}

// CreateAdjustment snapshots the drawer total before and after the movement.
// Without a shiftId the open shift's drawer (if any) is used for the
// snapshot, but the row stays untied to a shift.
func (s *cashService) CreateAdjustment(ctx context.Context, userID uuid.UUID, req dto.CreateAdjustmentRequest) (*dto.AdjustmentResponse, error) {
	if req.Type != model.AdjustmentWithdraw && req.Type != model.AdjustmentAdjustment {
		return nil, apierror.Validation("type", "tipo deve ser withdraw ou adjustment")
	}
	if !req.Amount.IsPositive() {
		return nil, apierror.Validation("amount", "o valor deve ser maior que zero")
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, apierror.Validation("reason", "o motivo é obrigatório")
	}

	var shiftID *uuid.UUID
	if req.ShiftID != nil && *req.ShiftID != "" {
		id, err := uuid.Parse(*req.ShiftID)
		if err != nil {
			return nil, apierror.Validation("shiftId", "shiftId inválido")
		}
		shiftID = &id
	}

	adj := &model.CashAdjustment{
		ShiftID: shiftID,
		UserID:  userID,
		Type:    req.Type,
		Amount:  req.Amount.Round(2),
		Reason:  reason,
	}

	err := runTx(ctx, s.shifts.DB(), func(tx *gorm.DB) error {
		shifts := s.shifts.WithTx(tx)
		adjustments := s.adjustments.WithTx(tx)

		var shift *model.Shift
		if shiftID != nil {
			found, err := shifts.FindByID(ctx, *shiftID)
			if err != nil {
				if isNotFound(err) {
					return apierror.NotFound("turno não encontrado")
				}
				return fmt.Errorf("find shift: %w", err)
			}
			shift = found
		} else {
			found, err := shifts.FindOpen(ctx)
			switch {
			case err == nil:
				shift = found
			case !isNotFound(err):
				return fmt.Errorf("find open shift: %w", err)
			}
		}

		before := decimal.Zero
		if shift != nil {
			total, err := drawerTotal(ctx, shifts, shift)
			if err != nil {
				return err
			}
			before = total
		}
		adj.BeforeAmount = before
		adj.AfterAmount = before.Sub(adj.Amount)

		if err := adjustments.Create(ctx, adj); err != nil {
			return fmt.Errorf("create adjustment: %w", err)
		}

		label := "Retirada"
		if adj.Type == model.AdjustmentAdjustment {
			label = "Ajuste"
		}
		meta := map[string]any{
			"type":         adj.Type,
			"amount":       money(adj.Amount),
			"beforeAmount": money(adj.BeforeAmount),
			"afterAmount":  money(adj.AfterAmount),
			"reason":       adj.Reason,
		}
		if shiftID != nil {
			meta["shiftId"] = shiftID.String()
		}
		return appendTimeline(ctx, s.timeline.WithTx(tx), userID, model.ActionCashAdjustment,
			fmt.Sprintf("%s de caixa de R$ %s: %s", label, money(adj.Amount), adj.Reason), meta)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("adjustment_id", adj.ID.String()).
		Str("type", adj.Type).
		Str("amount", money(adj.Amount)).
		Msg("cash adjustment recorded")

	resp := toAdjustmentResponse(adj)
	return &resp, nil
}

// drawerTotal is the shift's opening cash plus the cash sales declared so far.
// Withdrawals are not netted out, open or closed.
func drawerTotal(ctx context.Context, shifts repository.ShiftRepository, shift *model.Shift) (decimal.Decimal, error) {
	total := shift.InitialCash
	payment, err := shifts.FindPayment(ctx, shift.ID)
	switch {
	case err == nil:
		total = total.Add(payment.Cash)
	case !isNotFound(err):
		return decimal.Zero, fmt.Errorf("find payment: %w", err)
	}
	return total, nil
}

// PendingWithdrawals returns the withdrawals tied to the most recently closed
// shift. Before any shift has closed, every withdrawal ever recorded counts.
func (s *cashService) PendingWithdrawals(ctx context.Context) (*dto.PendingWithdrawalsResponse, error) {
	var scope *uuid.UUID
	last, err := s.shifts.FindLastClosed(ctx)
	switch {
	case err == nil:
		scope = &last.ID
	case !isNotFound(err):
		return nil, fmt.Errorf("find last closed shift: %w", err)
	}

	rows, err := s.adjustments.ListByType(ctx, scope, model.AdjustmentWithdraw)
	if err != nil {
		return nil, fmt.Errorf("list withdrawals: %w", err)
	}
	out := &dto.PendingWithdrawalsResponse{
		ShiftID: uuidPtrString(scope),
		Total:   decimal.Zero,
		Items:   make([]dto.AdjustmentResponse, 0, len(rows)),
	}
	for i := range rows {
		out.Total = out.Total.Add(rows[i].Amount)
		out.Items = append(out.Items, toAdjustmentResponse(&rows[i]))
	}
	return out, nil
}

func (s *cashService) ListAdjustments(ctx context.Context, shiftID *uuid.UUID) ([]dto.AdjustmentResponse, error) {
	rows, err := s.adjustments.List(ctx, shiftID)
	if err != nil {
		return nil, fmt.Errorf("list adjustments: %w", err)
	}
	out := make([]dto.AdjustmentResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toAdjustmentResponse(&rows[i]))
	}
	return out, nil
}
