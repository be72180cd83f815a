package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pastel24h/internal/apierror"
	"pastel24h/internal/dto"
	"pastel24h/internal/infra"
	"pastel24h/internal/model"
	"pastel24h/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const currentShiftCacheKey = "shift:current"

// ShiftService orchestrates the shift state machine: open with inheritance
// from the last closed shift, mid-shift edits, and close with reconciliation.
type ShiftService interface {
	Open(ctx context.Context, userID uuid.UUID, req dto.OpenShiftRequest) (*dto.OpenShiftResponse, error)
	Close(ctx context.Context, shiftID, closedBy uuid.UUID, req dto.CloseShiftRequest) (*dto.ShiftResponse, error)
	UpsertPayment(ctx context.Context, shiftID uuid.UUID, req dto.PaymentInput) (*dto.PaymentResponse, error)
	SaveDraft(ctx context.Context, shiftID, userID uuid.UUID, req dto.SaveDraftRequest) (*dto.ShiftResponse, error)
	Current(ctx context.Context) (*dto.ShiftResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ShiftResponse, error)
	List(ctx context.Context, filter dto.ShiftFilter) (*dto.ShiftListResponse, error)
	Snapshot(ctx context.Context, shiftID uuid.UUID) (*dto.SnapshotResponse, error)
}

type shiftService struct {
	shifts      repository.ShiftRepository
	adjustments repository.CashAdjustmentRepository
	timeline    repository.TimelineRepository
	users       repository.UserRepository
	inventory   InventoryService
	rules       ShiftRules
	rdb         *redis.Client
	cacheTTL    time.Duration
	loc         *time.Location
}

// NewShiftService wires the lifecycle manager. rdb may be nil, which
// disables the current-shift cache.
func NewShiftService(
	shifts repository.ShiftRepository,
	adjustments repository.CashAdjustmentRepository,
	timeline repository.TimelineRepository,
	users repository.UserRepository,
	inventory InventoryService,
	rules ShiftRules,
	rdb *redis.Client,
	cacheTTL time.Duration,
	loc *time.Location,
) ShiftService {
	if loc == nil {
		loc = time.UTC
	}
	return &shiftService{
		shifts:      shifts,
		adjustments: adjustments,
		timeline:    timeline,
		users:       users,
		inventory:   inventory,
		rules:       rules,
		rdb:         rdb,
		cacheTTL:    cacheTTL,
		loc:         loc,
	}
}

// ── Open ──────────────────────────────────────────────────────────────────────
//  1. Reject when any shift is open
//  2. Inherit cash (minus withdrawals against the predecessor) and coins
//     from the last closed shift, or fall back to the defaults
//  3. Create the shift and seed locked records from the predecessor's leftovers
//  4. Persist the inheritance snapshot and a timeline entry

func (s *shiftService) Open(ctx context.Context, userID uuid.UUID, req dto.OpenShiftRequest) (*dto.OpenShiftResponse, error) {
	var (
		shift *model.Shift
		info  dto.InheritanceInfo
	)

	err := runTx(ctx, s.shifts.DB(), func(tx *gorm.DB) error {
		shifts := s.shifts.WithTx(tx)
		adjustments := s.adjustments.WithTx(tx)

		if _, err := shifts.FindOpen(ctx); err == nil {
			return apierror.Conflict("já existe um turno aberto; encerre-o antes de abrir outro")
		} else if !isNotFound(err) {
			return fmt.Errorf("find open shift: %w", err)
		}

		initialCash := s.rules.DefaultInitialCash
		initialCoins := s.rules.DefaultInitialCoins
		if req.InitialCash != nil {
			initialCash = *req.InitialCash
		}
		if req.InitialCoins != nil {
			initialCoins = *req.InitialCoins
		}

		prev, err := shifts.FindLastClosed(ctx)
		switch {
		case err == nil:
		case isNotFound(err):
			prev = nil
		default:
			return fmt.Errorf("find last closed shift: %w", err)
		}

		pending := decimal.Zero
		if prev != nil {
			pending, err = adjustments.SumByShiftAndType(ctx, prev.ID, model.AdjustmentWithdraw)
			if err != nil {
				return fmt.Errorf("sum withdrawals: %w", err)
			}
			initialCash = derefDecimal(prev.FinalCash).Sub(pending)
			initialCoins = derefDecimal(prev.FinalCoins)
		}

		shift = &model.Shift{
			UserID:       userID,
			StartTime:    time.Now().UTC(),
			Status:       model.ShiftOpen,
			InitialCash:  initialCash.Round(2),
			InitialCoins: initialCoins.Round(2),
			Notes:        trimmedPtr(req.Notes),
		}
		if req.GasExchange != nil {
			shift.GasExchange = *req.GasExchange
		}
		if prev != nil {
			shift.InheritedFromShiftID = &prev.ID
		}
		if err := shifts.Create(ctx, shift); err != nil {
			if isDuplicate(err) {
				return apierror.Conflict("já existe um turno aberto; encerre-o antes de abrir outro")
			}
			return fmt.Errorf("create shift: %w", err)
		}

		info = dto.InheritanceInfo{
			CarryCash:          shift.InitialCash,
			CarryCoins:         shift.InitialCoins,
			PendingWithdrawals: pending,
		}
		if prev == nil {
			return s.logOpen(ctx, tx, shift, info)
		}

		carry, err := s.carryLeftovers(ctx, shifts, prev, shift)
		if err != nil {
			return err
		}
		snapshot := &model.ShiftSnapshot{
			ShiftID:       shift.ID,
			LastShiftID:   &prev.ID,
			CarryCash:     shift.InitialCash,
			CarryCoins:    shift.InitialCoins,
			CarryProducts: carry,
		}
		if err := shifts.CreateSnapshot(ctx, snapshot); err != nil {
			return fmt.Errorf("create snapshot: %w", err)
		}

		prevID := prev.ID.String()
		info.Inherited = true
		info.SourceShiftID = &prevID
		info.ClosedAt = formatTimePtr(prev.EndTime)
		info.ClosedBy = uuidPtrString(prev.ClosedBy)
		info.CarriedProducts = len(carry)
		return s.logOpen(ctx, tx, shift, info)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCurrent(ctx)
	log.Info().
		Str("shift_id", shift.ID.String()).
		Str("user_id", userID.String()).
		Str("initial_cash", money(shift.InitialCash)).
		Bool("inherited", info.Inherited).
		Msg("shift opened")

	return &dto.OpenShiftResponse{Shift: toShiftResponse(shift), Inheritance: info}, nil
}

// carryLeftovers seeds the new shift with one locked record per product the
// predecessor left over, priced at the predecessor's snapshot.
func (s *shiftService) carryLeftovers(
	ctx context.Context,
	shifts repository.ShiftRepository,
	prev, next *model.Shift,
) ([]model.CarryProduct, error) {
	prevRecords, err := shifts.ListRecords(ctx, prev.ID)
	if err != nil {
		return nil, fmt.Errorf("list predecessor records: %w", err)
	}
	carry := make([]model.CarryProduct, 0, len(prevRecords))
	for _, pr := range prevRecords {
		if pr.LeftoverQty <= 0 {
			continue
		}
		rec := &model.ShiftRecord{
			ShiftID:       next.ID,
			ProductID:     pr.ProductID,
			EntryQty:      pr.LeftoverQty,
			PriceSnapshot: pr.PriceSnapshot,
			EntryLocked:   true,
		}
		rec.Recalculate()
		if err := shifts.UpsertRecord(ctx, rec); err != nil {
			return nil, fmt.Errorf("seed record: %w", err)
		}
		name := ""
		if pr.Product != nil {
			name = pr.Product.Name
		}
		carry = append(carry, model.CarryProduct{ProductID: pr.ProductID, Qty: pr.LeftoverQty, Name: name})
	}
	return carry, nil
}

func (s *shiftService) logOpen(ctx context.Context, tx *gorm.DB, shift *model.Shift, info dto.InheritanceInfo) error {
	desc := fmt.Sprintf("Turno aberto com R$ %s em notas e R$ %s em moedas",
		money(shift.InitialCash), money(shift.InitialCoins))
	meta := map[string]any{
		"shiftId":      shift.ID.String(),
		"initialCash":  money(shift.InitialCash),
		"initialCoins": money(shift.InitialCoins),
		"inherited":    info.Inherited,
	}
	if info.Inherited {
		desc += fmt.Sprintf("; %d produto(s) herdado(s)", info.CarriedProducts)
		meta["sourceShiftId"] = *info.SourceShiftID
		meta["carriedProducts"] = info.CarriedProducts
	}
	if !info.PendingWithdrawals.IsZero() {
		desc += fmt.Sprintf("; retiradas pendentes de R$ %s", money(info.PendingWithdrawals))
		meta["pendingWithdrawals"] = money(info.PendingWithdrawals)
	}
	return appendTimeline(ctx, s.timeline.WithTx(tx), shift.UserID, model.ActionShiftOpened, desc, meta)
}

// ── Close ─────────────────────────────────────────────────────────────────────
//  1. Shift must exist and be open; closer must own it or be admin
//  2. Upsert the supplied records; declared payments must match their total
//  3. Compare counted cash + coins with the expected drawer
//  4. A divergence above tolerance needs a written justification
//  5. Persist everything and append timeline entries, in one transaction

func (s *shiftService) Close(ctx context.Context, shiftID, closedBy uuid.UUID, req dto.CloseShiftRequest) (*dto.ShiftResponse, error) {
	closer, err := s.users.FindByID(ctx, closedBy)
	if err != nil {
		if isNotFound(err) {
			return nil, apierror.NotFound("usuário não encontrado")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := validatePayments(req.Payments); err != nil {
		return nil, err
	}

	var shift *model.Shift
	err = runTx(ctx, s.shifts.DB(), func(tx *gorm.DB) error {
		shifts := s.shifts.WithTx(tx)
		adjustments := s.adjustments.WithTx(tx)

		found, err := shifts.FindByID(ctx, shiftID)
		if err != nil {
			if isNotFound(err) {
				return apierror.Validation("shiftId", "turno não encontrado")
			}
			return fmt.Errorf("find shift: %w", err)
		}
		shift = found
		if !shift.IsOpen() {
			return apierror.Validation("shiftId", "o turno não está aberto")
		}
		if shift.UserID != closer.ID && !closer.IsAdmin() {
			return apierror.Forbidden("apenas o dono do turno ou um administrador pode encerrá-lo")
		}

		records, err := s.closingRecords(ctx, tx, shifts, shift, req.Records)
		if err != nil {
			return err
		}

		payments := paymentFromInput(shift.ID, req.Payments)
		totalSales := payments.Total()
		totalRecords := decimal.Zero
		for _, r := range records {
			totalRecords = totalRecords.Add(r.ItemTotal)
		}
		if diff := totalSales.Sub(totalRecords).Abs(); diff.GreaterThan(s.rules.ReconciliationTolerance) {
			return apierror.Unprocessable("os pagamentos declarados não conferem com o total dos registros", map[string]any{
				"totalSales":        money(totalSales),
				"totalRecordsValue": money(totalRecords),
				"difference":        money(diff),
			})
		}

		withdrawals, err := adjustments.SumByShiftAndType(ctx, shift.ID, model.AdjustmentWithdraw)
		if err != nil {
			return fmt.Errorf("sum withdrawals: %w", err)
		}
		corrections, err := adjustments.SumByShiftAndType(ctx, shift.ID, model.AdjustmentAdjustment)
		if err != nil {
			return fmt.Errorf("sum adjustments: %w", err)
		}

		expectedCash := shift.InitialCash.Add(payments.Cash).Sub(withdrawals)
		expectedCoins := shift.InitialCoins
		actualCash, err := countedValue("countedCash", req.CountedCash, req.FinalCash)
		if err != nil {
			return err
		}
		actualCoins, err := countedValue("countedCoins", req.CountedCoins, req.FinalCoins)
		if err != nil {
			return err
		}
		divergence := actualCash.Add(actualCoins).Sub(expectedCash.Add(expectedCoins))

		notes := trimmedPtr(req.Notes)
		if divergence.Abs().GreaterThan(s.rules.DivergenceTolerance) && notes == nil {
			return apierror.Unprocessable("divergência de caixa exige justificativa nas observações", map[string]any{
				"divergence":       money(divergence),
				"expectedCash":     money(expectedCash),
				"expectedCoins":    money(expectedCoins),
				"countedCash":      money(actualCash),
				"countedCoins":     money(actualCoins),
				"totalWithdrawals": money(withdrawals),
			})
		}

		if err := shifts.UpsertPayment(ctx, payments); err != nil {
			return fmt.Errorf("upsert payment: %w", err)
		}

		recorded := divergence.Add(corrections).Round(2)
		now := time.Now().UTC()
		shift.FinalCash = decimalPtr(actualCash.Round(2))
		shift.FinalCoins = decimalPtr(actualCoins.Round(2))
		shift.CountedCash = decimalPtr(actualCash.Round(2))
		shift.CountedCoins = decimalPtr(actualCoins.Round(2))
		shift.ExpectedCash = decimalPtr(expectedCash.Round(2))
		shift.CashDivergence = decimalPtr(recorded)
		shift.TotalSales = decimalPtr(totalSales.Round(2))
		shift.GasExchange = req.GasExchange
		if notes != nil {
			shift.Notes = notes
		}
		shift.Status = model.ShiftClosed
		shift.EndTime = &now
		shift.ClosedBy = &closer.ID
		if err := shifts.Update(ctx, shift); err != nil {
			return fmt.Errorf("update shift: %w", err)
		}

		shift.Records = records
		shift.Payment = payments
		return s.logClose(ctx, tx, shift, closer, withdrawals)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCurrent(ctx)
	log.Info().
		Str("shift_id", shift.ID.String()).
		Str("closed_by", closedBy.String()).
		Str("total_sales", money(*shift.TotalSales)).
		Str("divergence", money(*shift.CashDivergence)).
		Msg("shift closed")

	resp := toShiftResponse(shift)
	return &resp, nil
}

// closingRecords upserts the records sent with the close request. When none
// are sent, the records already stored for the shift are used.
func (s *shiftService) closingRecords(
	ctx context.Context,
	tx *gorm.DB,
	shifts repository.ShiftRepository,
	shift *model.Shift,
	inputs []dto.RecordInput,
) ([]model.ShiftRecord, error) {
	if len(inputs) == 0 {
		recs, err := shifts.ListRecords(ctx, shift.ID)
		if err != nil {
			return nil, fmt.Errorf("list records: %w", err)
		}
		return recs, nil
	}
	seen := make(map[string]bool, len(inputs))
	recs := make([]model.ShiftRecord, 0, len(inputs))
	for _, in := range inputs {
		if seen[in.ProductID] {
			return nil, apierror.Validation("records", "produto repetido nos registros: "+in.ProductID)
		}
		seen[in.ProductID] = true
		rec, err := s.inventory.UpsertRecordTx(ctx, tx, shift, in)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, nil
}

func (s *shiftService) logClose(ctx context.Context, tx *gorm.DB, shift *model.Shift, closer *model.User, withdrawals decimal.Decimal) error {
	timeline := s.timeline.WithTx(tx)
	divergence := derefDecimal(shift.CashDivergence)
	meta := map[string]any{
		"shiftId":          shift.ID.String(),
		"totalSales":       money(derefDecimal(shift.TotalSales)),
		"expectedCash":     money(derefDecimal(shift.ExpectedCash)),
		"countedCash":      money(derefDecimal(shift.CountedCash)),
		"countedCoins":     money(derefDecimal(shift.CountedCoins)),
		"cashDivergence":   money(divergence),
		"totalWithdrawals": money(withdrawals),
		"gasExchange":      shift.GasExchange,
	}
	desc := fmt.Sprintf("Turno encerrado por %s com vendas de R$ %s e divergência de R$ %s",
		closer.Name, money(derefDecimal(shift.TotalSales)), money(divergence))
	if err := appendTimeline(ctx, timeline, closer.ID, model.ActionShiftClosed, desc, meta); err != nil {
		return err
	}
	if !divergence.IsNegative() {
		return nil
	}
	log.Warn().
		Str("shift_id", shift.ID.String()).
		Str("divergence", money(divergence)).
		Msg("shift closed with cash shortfall")
	return appendTimeline(ctx, timeline, closer.ID, model.ActionCashShortfall,
		fmt.Sprintf("Falta de R$ %s no caixa", money(divergence.Abs())),
		map[string]any{"shiftId": shift.ID.String(), "cashDivergence": money(divergence)})
}

// ── Mid-shift edits ───────────────────────────────────────────────────────────

func (s *shiftService) UpsertPayment(ctx context.Context, shiftID uuid.UUID, req dto.PaymentInput) (*dto.PaymentResponse, error) {
	if err := validatePayments(req); err != nil {
		return nil, err
	}
	shift, err := s.findOpenShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	p := paymentFromInput(shift.ID, req)
	if err := s.shifts.UpsertPayment(ctx, p); err != nil {
		return nil, fmt.Errorf("upsert payment: %w", err)
	}
	return toPaymentResponse(p), nil
}

func (s *shiftService) SaveDraft(ctx context.Context, shiftID, userID uuid.UUID, req dto.SaveDraftRequest) (*dto.ShiftResponse, error) {
	shift, err := s.findOpenShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if shift.UserID != userID {
		user, err := s.users.FindByID(ctx, userID)
		if err != nil && !isNotFound(err) {
			return nil, fmt.Errorf("find user: %w", err)
		}
		if err != nil || !user.IsAdmin() {
			return nil, apierror.Forbidden("apenas o dono do turno ou um administrador pode alterá-lo")
		}
	}
	for field, v := range map[string]*decimal.Decimal{"tempFinalCash": req.TempFinalCash, "tempFinalCoins": req.TempFinalCoins} {
		if v != nil && v.IsNegative() {
			return nil, apierror.Validation(field, "valores não podem ser negativos")
		}
	}
	if req.TempFinalCash != nil {
		shift.TempFinalCash = decimalPtr(req.TempFinalCash.Round(2))
	}
	if req.TempFinalCoins != nil {
		shift.TempFinalCoins = decimalPtr(req.TempFinalCoins.Round(2))
	}
	if err := s.shifts.Update(ctx, shift); err != nil {
		return nil, fmt.Errorf("update shift: %w", err)
	}
	s.invalidateCurrent(ctx)
	resp := toShiftResponse(shift)
	return &resp, nil
}

func (s *shiftService) findOpenShift(ctx context.Context, shiftID uuid.UUID) (*model.Shift, error) {
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
	return shift, nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

// Current returns the open shift. The lookup is always a query; Redis only
// caches its result until the next open, close or draft save.
func (s *shiftService) Current(ctx context.Context) (*dto.ShiftResponse, error) {
	var cached dto.ShiftResponse
	if infra.CacheGet(ctx, s.rdb, currentShiftCacheKey, &cached) {
		return &cached, nil
	}

	shift, err := s.shifts.FindOpen(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, apierror.NotFound("nenhum turno aberto")
		}
		return nil, fmt.Errorf("find open shift: %w", err)
	}
	resp := toShiftResponse(shift)

	infra.CacheSet(ctx, s.rdb, currentShiftCacheKey, resp, s.cacheTTL)
	return &resp, nil
}

func (s *shiftService) invalidateCurrent(ctx context.Context) {
	infra.CacheInvalidate(ctx, s.rdb, currentShiftCacheKey)
}

func (s *shiftService) Get(ctx context.Context, id uuid.UUID) (*dto.ShiftResponse, error) {
	shift, err := s.shifts.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apierror.NotFound("turno não encontrado")
		}
		return nil, fmt.Errorf("find shift: %w", err)
	}
	records, err := s.shifts.ListRecords(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	shift.Records = records
	payment, err := s.shifts.FindPayment(ctx, id)
	switch {
	case err == nil:
		shift.Payment = payment
	case !isNotFound(err):
		return nil, fmt.Errorf("find payment: %w", err)
	}
	resp := toShiftResponse(shift)
	return &resp, nil
}

func (s *shiftService) List(ctx context.Context, filter dto.ShiftFilter) (*dto.ShiftListResponse, error) {
	q := repository.ShiftQuery{Status: filter.Status, Page: filter.Page, Limit: filter.Limit}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 20
	}
	if filter.From != "" {
		from, err := parseDay("from", filter.From, s.loc)
		if err != nil {
			return nil, err
		}
		from = from.UTC()
		q.From = &from
	}
	if filter.To != "" {
		to, err := parseDay("to", filter.To, s.loc)
		if err != nil {
			return nil, err
		}
		to = endOfDay(to).UTC()
		q.To = &to
	}
	if filter.UserID != "" {
		uid, err := uuid.Parse(filter.UserID)
		if err != nil {
			return nil, apierror.Validation("userId", "userId inválido")
		}
		q.UserID = &uid
	}

	shifts, total, err := s.shifts.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	out := &dto.ShiftListResponse{Data: make([]dto.ShiftResponse, 0, len(shifts)), Total: total, Page: q.Page, Limit: q.Limit}
	for i := range shifts {
		out.Data = append(out.Data, toShiftResponse(&shifts[i]))
	}
	return out, nil
}

func (s *shiftService) Snapshot(ctx context.Context, shiftID uuid.UUID) (*dto.SnapshotResponse, error) {
	snap, err := s.shifts.FindSnapshot(ctx, shiftID)
	if err != nil {
		if isNotFound(err) {
			return nil, apierror.NotFound("turno sem herança registrada")
		}
		return nil, fmt.Errorf("find snapshot: %w", err)
	}
	resp := toSnapshotResponse(snap)
	return &resp, nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

func paymentFromInput(shiftID uuid.UUID, in dto.PaymentInput) *model.ShiftPayment {
	return &model.ShiftPayment{
		ShiftID:      shiftID,
		Cash:         in.Cash.Round(2),
		Pix:          in.Pix.Round(2),
		StoneCard:    in.StoneCard.Round(2),
		StoneVoucher: in.StoneVoucher.Round(2),
		PagBankCard:  in.PagBankCard.Round(2),
	}
}

func validatePayments(in dto.PaymentInput) error {
	fields := []struct {
		name string
		v    decimal.Decimal
	}{
		{"cash", in.Cash},
		{"pix", in.Pix},
		{"stoneCard", in.StoneCard},
		{"stoneVoucher", in.StoneVoucher},
		{"pagBankCard", in.PagBankCard},
	}
	for _, f := range fields {
		if f.v.IsNegative() {
			return apierror.Validation(f.name, "valores de pagamento não podem ser negativos")
		}
	}
	return nil
}

// countedValue prefers the counted figure and falls back to the legacy
// final-count field.
func countedValue(field string, counted, legacy *decimal.Decimal) (decimal.Decimal, error) {
	v := counted
	if v == nil {
		v = legacy
	}
	if v == nil {
		return decimal.Zero, apierror.Validation(field, "informe o valor contado no caixa")
	}
	if v.IsNegative() {
		return decimal.Zero, apierror.Validation(field, "valores não podem ser negativos")
	}
	return *v, nil
}

func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
