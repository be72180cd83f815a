package service

import (
	"context"
	"fmt"
	"sort"

	"pastel24h/internal/apierror"
	"pastel24h/internal/dto"
	"pastel24h/internal/model"
	"pastel24h/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryService maintains the per-shift, per-product movement ledger.
type InventoryService interface {
	UpsertRecord(ctx context.Context, shiftID uuid.UUID, in dto.RecordInput) (*dto.RecordResponse, error)
	ListRecords(ctx context.Context, shiftID uuid.UUID) ([]dto.RecordResponse, error)
	LowStock(ctx context.Context) ([]dto.LowStockAlert, error)

	// UpsertRecordTx applies one record to an already loaded open shift
	// inside the caller's transaction (tx may be nil in unit tests).
	UpsertRecordTx(ctx context.Context, tx *gorm.DB, shift *model.Shift, in dto.RecordInput) (*model.ShiftRecord, error)
}

type inventoryService struct {
	shifts   repository.ShiftRepository
	products repository.ProductRepository
}

func NewInventoryService(shifts repository.ShiftRepository, products repository.ProductRepository) InventoryService {
	return &inventoryService{shifts: shifts, products: products}
}

func (s *inventoryService) UpsertRecord(ctx context.Context, shiftID uuid.UUID, in dto.RecordInput) (*dto.RecordResponse, error) {
	shift, err := s.shifts.FindByID(ctx, shiftID)
	if err != nil {
		if isNotFound(err) {
			return nil, apierror.NotFound("turno não encontrado")
		}
		return nil, fmt.Errorf("find shift: %w", err)
	}
	if !shift.IsOpen() {
		return nil, apierror.Conflict("o turno já foi encerrado")
	}

	var rec *model.ShiftRecord
	err = runTx(ctx, s.shifts.DB(), func(tx *gorm.DB) error {
		var txErr error
		rec, txErr = s.UpsertRecordTx(ctx, tx, shift, in)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	resp := toRecordResponse(rec)
	return &resp, nil
}

func (s *inventoryService) UpsertRecordTx(ctx context.Context, tx *gorm.DB, shift *model.Shift, in dto.RecordInput) (*model.ShiftRecord, error) {
	if err := validateQuantities(in); err != nil {
		return nil, err
	}
	productID, err := uuid.Parse(in.ProductID)
	if err != nil {
		return nil, apierror.Validation("productId", "productId inválido")
	}

	shifts := s.shifts.WithTx(tx)
	product, err := s.products.WithTx(tx).FindByID(ctx, productID)
	if err != nil {
		if isNotFound(err) {
			return nil, apierror.NotFound("produto não encontrado")
		}
		return nil, fmt.Errorf("find product: %w", err)
	}

	existing, err := shifts.FindRecord(ctx, shift.ID, productID)
	switch {
	case err == nil:
	case isNotFound(err):
		existing = nil
	default:
		return nil, fmt.Errorf("find record: %w", err)
	}

	rec := &model.ShiftRecord{
		ShiftID:       shift.ID,
		ProductID:     productID,
		EntryQty:      in.EntryQty,
		ArrivalQty:    in.ArrivalQty,
		LeftoverQty:   in.LeftoverQty,
		DiscardQty:    in.DiscardQty,
		ConsumedQty:   in.ConsumedQty,
		PriceSnapshot: product.Price,
	}
	if existing != nil && existing.EntryLocked {
		if existing.EntryQty != in.EntryQty {
			return nil, apierror.ForbiddenField("entryQty",
				fmt.Sprintf("a entrada de %s foi herdada do turno anterior e não pode ser alterada", product.Name))
		}
		rec.EntryLocked = true
	}
	rec.Recalculate()

	if err := shifts.UpsertRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("upsert record: %w", err)
	}
	if existing != nil {
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
	}
	rec.Product = product
	return rec, nil
}

func (s *inventoryService) ListRecords(ctx context.Context, shiftID uuid.UUID) ([]dto.RecordResponse, error) {
	if _, err := s.shifts.FindByID(ctx, shiftID); err != nil {
		if isNotFound(err) {
			return nil, apierror.NotFound("turno não encontrado")
		}
		return nil, fmt.Errorf("find shift: %w", err)
	}
	recs, err := s.shifts.ListRecords(ctx, shiftID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	out := make([]dto.RecordResponse, 0, len(recs))
	for i := range recs {
		out = append(out, toRecordResponse(&recs[i]))
	}
	return out, nil
}

// LowStock lists the products of the open shift whose leftover count is
// below the product's minimum stock. No open shift means no alerts.
func (s *inventoryService) LowStock(ctx context.Context) ([]dto.LowStockAlert, error) {
	alerts := []dto.LowStockAlert{}
	open, err := s.shifts.FindOpen(ctx)
	if err != nil {
		if isNotFound(err) {
			return alerts, nil
		}
		return nil, fmt.Errorf("find open shift: %w", err)
	}
	recs, err := s.shifts.ListRecords(ctx, open.ID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	for _, r := range recs {
		if r.Product == nil || r.Product.MinStock <= 0 {
			continue
		}
		if r.LeftoverQty < r.Product.MinStock {
			alerts = append(alerts, dto.LowStockAlert{
				ProductID:   r.ProductID.String(),
				ProductName: r.Product.Name,
				LeftoverQty: r.LeftoverQty,
				MinStock:    r.Product.MinStock,
			})
		}
	}
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].ProductName < alerts[j].ProductName })
	return alerts, nil
}

// validateQuantities rejects negative counts before anything is persisted.
func validateQuantities(in dto.RecordInput) error {
	fields := []struct {
		name string
		v    int
	}{
		{"entryQty", in.EntryQty},
		{"arrivalQty", in.ArrivalQty},
		{"leftoverQty", in.LeftoverQty},
		{"discardQty", in.DiscardQty},
		{"consumedQty", in.ConsumedQty},
	}
	for _, f := range fields {
		if f.v < 0 {
			return apierror.Validation(f.name, "quantidades não podem ser negativas")
		}
	}
	return nil
}
