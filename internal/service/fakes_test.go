package service_test

import (
	"context"
	"sort"
	"strings"
	"time"

	"pastel24h/internal/dto"
	"pastel24h/internal/model"
	"pastel24h/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── In-memory repositories ───────────────────────────────────────────────────
// Every fake returns gorm.ErrRecordNotFound for missing rows, like the GORM
// implementations, and WithTx returns the receiver (runTx calls fn(nil)).

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
	modes *fakeModeRepo
}

func newFakeUserRepo(modes *fakeModeRepo) *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User), modes: modes}
}

func (r *fakeUserRepo) add(name, role string) *model.User {
	u := &model.User{ID: uuid.New(), Name: name, Email: strings.ToLower(name) + "@pastel24h.test", Role: role}
	r.users[u.ID] = u
	return u
}

func (r *fakeUserRepo) withMode(u *model.User) *model.User {
	cp := *u
	if cp.TransportModeID != nil && r.modes != nil {
		if m, ok := r.modes.modes[*cp.TransportModeID]; ok {
			mc := *m
			cp.TransportMode = &mc
		}
	}
	return &cp
}

func (r *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.users {
		if u.Email == email {
			return r.withMode(u), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.withMode(u), nil
}

func (r *fakeUserRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.User, error) {
	var out []model.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, *r.withMode(u))
		}
	}
	return out, nil
}

func (r *fakeUserRepo) List(_ context.Context) ([]model.User, error) {
	return r.filter(""), nil
}

func (r *fakeUserRepo) ListByRole(_ context.Context, role string) ([]model.User, error) {
	return r.filter(role), nil
}

func (r *fakeUserRepo) filter(role string) []model.User {
	out := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		if role == "" || u.Role == role {
			out = append(out, *r.withMode(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *fakeUserRepo) Update(_ context.Context, u *model.User) error {
	cp := *u
	cp.TransportMode = nil
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) CountByTransportMode(_ context.Context, modeID uuid.UUID) (int64, error) {
	var n int64
	for _, u := range r.users {
		if u.TransportModeID != nil && *u.TransportModeID == modeID {
			n++
		}
	}
	return n, nil
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

type fakeModeRepo struct {
	modes map[uuid.UUID]*model.TransportMode
}

func newFakeModeRepo() *fakeModeRepo {
	return &fakeModeRepo{modes: make(map[uuid.UUID]*model.TransportMode)}
}

func (r *fakeModeRepo) Create(_ context.Context, m *model.TransportMode) error {
	for _, existing := range r.modes {
		if existing.Name == m.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	cp := *m
	r.modes[m.ID] = &cp
	return nil
}

func (r *fakeModeRepo) FindByID(_ context.Context, id uuid.UUID) (*model.TransportMode, error) {
	m, ok := r.modes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *fakeModeRepo) List(_ context.Context) ([]model.TransportMode, error) {
	out := make([]model.TransportMode, 0, len(r.modes))
	for _, m := range r.modes {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeModeRepo) Update(_ context.Context, m *model.TransportMode) error {
	cp := *m
	r.modes[m.ID] = &cp
	return nil
}

func (r *fakeModeRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.modes[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.modes, id)
	return nil
}

var _ repository.TransportModeRepository = (*fakeModeRepo)(nil)

type fakeProductRepo struct {
	products map[uuid.UUID]*model.Product
	history  []model.ProductPriceHistory
	refs     map[uuid.UUID]int64
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		products: make(map[uuid.UUID]*model.Product),
		refs:     make(map[uuid.UUID]int64),
	}
}

func (r *fakeProductRepo) add(name, price string) *model.Product {
	p := &model.Product{
		ID:       uuid.New(),
		Name:     name,
		Category: model.CategoryPastel,
		Price:    decimal.RequireFromString(price),
	}
	r.products[p.ID] = p
	return p
}

func (r *fakeProductRepo) WithTx(*gorm.DB) repository.ProductRepository { return r }

func (r *fakeProductRepo) DB() *gorm.DB { return nil }

func (r *fakeProductRepo) Create(_ context.Context, p *model.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.Product, error) {
	var out []model.Product
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) List(_ context.Context, filter dto.ProductFilter) ([]model.Product, error) {
	out := make([]model.Product, 0, len(r.products))
	for _, p := range r.products {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Name)) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeProductRepo) Update(_ context.Context, p *model.Product) error {
	p.UpdatedAt = time.Now()
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.products[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *fakeProductRepo) CountRecordRefs(_ context.Context, id uuid.UUID) (int64, error) {
	return r.refs[id], nil
}

func (r *fakeProductRepo) CreatePriceHistory(_ context.Context, h *model.ProductPriceHistory) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	h.CreatedAt = time.Now()
	r.history = append(r.history, *h)
	return nil
}

func (r *fakeProductRepo) ListPriceHistory(_ context.Context, productID uuid.UUID, _, _ int) ([]model.ProductPriceHistory, int64, error) {
	var out []model.ProductPriceHistory
	for i := len(r.history) - 1; i >= 0; i-- {
		if r.history[i].ProductID == productID {
			out = append(out, r.history[i])
		}
	}
	return out, int64(len(out)), nil
}

var _ repository.ProductRepository = (*fakeProductRepo)(nil)

type fakeShiftRepo struct {
	shifts    map[uuid.UUID]*model.Shift
	records   map[uuid.UUID][]*model.ShiftRecord
	payments  map[uuid.UUID]*model.ShiftPayment
	snapshots map[uuid.UUID]*model.ShiftSnapshot
	products  *fakeProductRepo
	users     *fakeUserRepo
}

func newFakeShiftRepo(products *fakeProductRepo, users *fakeUserRepo) *fakeShiftRepo {
	return &fakeShiftRepo{
		shifts:    make(map[uuid.UUID]*model.Shift),
		records:   make(map[uuid.UUID][]*model.ShiftRecord),
		payments:  make(map[uuid.UUID]*model.ShiftPayment),
		snapshots: make(map[uuid.UUID]*model.ShiftSnapshot),
		products:  products,
		users:     users,
	}
}

func (r *fakeShiftRepo) WithTx(*gorm.DB) repository.ShiftRepository { return r }

func (r *fakeShiftRepo) DB() *gorm.DB { return nil }

// load returns a detached copy with the owner attached, like Preload("User").
func (r *fakeShiftRepo) load(s *model.Shift) *model.Shift {
	cp := *s
	cp.Records = nil
	cp.Payment = nil
	if u, ok := r.users.users[s.UserID]; ok {
		cp.User = r.users.withMode(u)
	}
	return &cp
}

func (r *fakeShiftRepo) Create(_ context.Context, s *model.Shift) error {
	if s.Status == model.ShiftOpen {
		for _, existing := range r.shifts {
			if existing.Status == model.ShiftOpen {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	cp := *s
	cp.User, cp.Records, cp.Payment = nil, nil, nil
	r.shifts[s.ID] = &cp
	return nil
}

func (r *fakeShiftRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Shift, error) {
	s, ok := r.shifts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.load(s), nil
}

func (r *fakeShiftRepo) FindOpen(_ context.Context) (*model.Shift, error) {
	for _, s := range r.shifts {
		if s.EndTime == nil {
			return r.load(s), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeShiftRepo) FindLastClosed(_ context.Context) (*model.Shift, error) {
	var last *model.Shift
	for _, s := range r.shifts {
		if s.Status != model.ShiftClosed || s.EndTime == nil {
			continue
		}
		if last == nil || s.EndTime.After(*last.EndTime) {
			last = s
		}
	}
	if last == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return r.load(last), nil
}

func (r *fakeShiftRepo) Update(_ context.Context, s *model.Shift) error {
	if _, ok := r.shifts[s.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *s
	cp.User, cp.Records, cp.Payment = nil, nil, nil
	cp.UpdatedAt = time.Now()
	r.shifts[s.ID] = &cp
	return nil
}

func (r *fakeShiftRepo) List(_ context.Context, q repository.ShiftQuery) ([]model.Shift, int64, error) {
	var out []model.Shift
	for _, s := range r.shifts {
		if q.Status != "" && s.Status != q.Status {
			continue
		}
		if q.UserID != nil && s.UserID != *q.UserID {
			continue
		}
		if q.From != nil && s.StartTime.Before(*q.From) {
			continue
		}
		if q.To != nil && s.StartTime.After(*q.To) {
			continue
		}
		out = append(out, *r.load(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, int64(len(out)), nil
}

func (r *fakeShiftRepo) ListClosedBetween(ctx context.Context, from, to time.Time) ([]model.Shift, error) {
	var out []model.Shift
	for _, s := range r.shifts {
		if s.Status != model.ShiftClosed || s.StartTime.Before(from) || s.StartTime.After(to) {
			continue
		}
		cp := r.load(s)
		recs, _ := r.ListRecords(ctx, s.ID)
		cp.Records = recs
		if p, ok := r.payments[s.ID]; ok {
			pc := *p
			cp.Payment = &pc
		}
		out = append(out, *cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *fakeShiftRepo) UpsertRecord(_ context.Context, rec *model.ShiftRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	cp := *rec
	cp.Product = nil
	for i, existing := range r.records[rec.ShiftID] {
		if existing.ProductID == rec.ProductID {
			cp.ID = existing.ID
			cp.CreatedAt = existing.CreatedAt
			r.records[rec.ShiftID][i] = &cp
			return nil
		}
	}
	cp.CreatedAt = time.Now()
	r.records[rec.ShiftID] = append(r.records[rec.ShiftID], &cp)
	return nil
}

func (r *fakeShiftRepo) FindRecord(_ context.Context, shiftID, productID uuid.UUID) (*model.ShiftRecord, error) {
	for _, rec := range r.records[shiftID] {
		if rec.ProductID == productID {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeShiftRepo) ListRecords(_ context.Context, shiftID uuid.UUID) ([]model.ShiftRecord, error) {
	out := make([]model.ShiftRecord, 0, len(r.records[shiftID]))
	for _, rec := range r.records[shiftID] {
		cp := *rec
		if p, ok := r.products.products[rec.ProductID]; ok {
			pc := *p
			cp.Product = &pc
		}
		out = append(out, cp)
	}
	return out, nil
}

func (r *fakeShiftRepo) UpsertPayment(_ context.Context, p *model.ShiftPayment) error {
	cp := *p
	r.payments[p.ShiftID] = &cp
	return nil
}

func (r *fakeShiftRepo) FindPayment(_ context.Context, shiftID uuid.UUID) (*model.ShiftPayment, error) {
	p, ok := r.payments[shiftID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeShiftRepo) CreateSnapshot(_ context.Context, s *model.ShiftSnapshot) error {
	if _, ok := r.snapshots[s.ShiftID]; ok {
		return gorm.ErrDuplicatedKey
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now()
	cp := *s
	r.snapshots[s.ShiftID] = &cp
	return nil
}

func (r *fakeShiftRepo) FindSnapshot(_ context.Context, shiftID uuid.UUID) (*model.ShiftSnapshot, error) {
	s, ok := r.snapshots[shiftID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

var _ repository.ShiftRepository = (*fakeShiftRepo)(nil)

type fakeAdjustmentRepo struct {
	rows []model.CashAdjustment
}

func (r *fakeAdjustmentRepo) WithTx(*gorm.DB) repository.CashAdjustmentRepository { return r }

func (r *fakeAdjustmentRepo) Create(_ context.Context, a *model.CashAdjustment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now()
	r.rows = append(r.rows, *a)
	return nil
}

func (r *fakeAdjustmentRepo) List(ctx context.Context, shiftID *uuid.UUID) ([]model.CashAdjustment, error) {
	return r.ListByType(ctx, shiftID, "")
}

func (r *fakeAdjustmentRepo) ListByType(_ context.Context, shiftID *uuid.UUID, typ string) ([]model.CashAdjustment, error) {
	var out []model.CashAdjustment
	for _, a := range r.rows {
		if shiftID != nil && (a.ShiftID == nil || *a.ShiftID != *shiftID) {
			continue
		}
		if typ != "" && a.Type != typ {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeAdjustmentRepo) SumByShiftAndType(_ context.Context, shiftID uuid.UUID, typ string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, a := range r.rows {
		if a.ShiftID != nil && *a.ShiftID == shiftID && a.Type == typ {
			sum = sum.Add(a.Amount)
		}
	}
	return sum, nil
}

var _ repository.CashAdjustmentRepository = (*fakeAdjustmentRepo)(nil)

type fakeTimelineRepo struct {
	entries []model.Timeline
}

func (r *fakeTimelineRepo) WithTx(*gorm.DB) repository.TimelineRepository { return r }

func (r *fakeTimelineRepo) Create(_ context.Context, t *model.Timeline) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.CreatedAt = time.Now()
	r.entries = append(r.entries, *t)
	return nil
}

func (r *fakeTimelineRepo) List(_ context.Context, action string, _, _ int) ([]model.Timeline, int64, error) {
	var out []model.Timeline
	for i := len(r.entries) - 1; i >= 0; i-- {
		if action == "" || r.entries[i].Action == action {
			out = append(out, r.entries[i])
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeTimelineRepo) actions() []string {
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

var _ repository.TimelineRepository = (*fakeTimelineRepo)(nil)

type fakeReportRepo struct {
	reports map[uuid.UUID]*model.WeeklyReport
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{reports: make(map[uuid.UUID]*model.WeeklyReport)}
}

func (r *fakeReportRepo) WithTx(*gorm.DB) repository.WeeklyReportRepository { return r }

func (r *fakeReportRepo) DB() *gorm.DB { return nil }

func (r *fakeReportRepo) Upsert(_ context.Context, w *model.WeeklyReport) error {
	for _, existing := range r.reports {
		if existing.WeekStart.Equal(w.WeekStart) {
			cp := *w
			cp.ID = existing.ID
			cp.CreatedAt = existing.CreatedAt
			cp.UpdatedAt = time.Now()
			r.reports[existing.ID] = &cp
			return nil
		}
	}
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	w.CreatedAt = time.Now()
	w.UpdatedAt = w.CreatedAt
	cp := *w
	r.reports[w.ID] = &cp
	return nil
}

func (r *fakeReportRepo) FindByID(_ context.Context, id uuid.UUID) (*model.WeeklyReport, error) {
	w, ok := r.reports[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *w
	return &cp, nil
}

func (r *fakeReportRepo) FindByWeekStart(_ context.Context, weekStart time.Time) (*model.WeeklyReport, error) {
	for _, w := range r.reports {
		if w.WeekStart.Equal(weekStart) {
			cp := *w
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeReportRepo) List(_ context.Context) ([]model.WeeklyReport, error) {
	out := make([]model.WeeklyReport, 0, len(r.reports))
	for _, w := range r.reports {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart.After(out[j].WeekStart) })
	return out, nil
}

func (r *fakeReportRepo) SetPDFPath(_ context.Context, id uuid.UUID, path string) error {
	w, ok := r.reports[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	w.PDFPath = &path
	return nil
}

func (r *fakeReportRepo) ListMissingPDF(_ context.Context, savedBefore time.Time, limit int) ([]model.WeeklyReport, error) {
	var out []model.WeeklyReport
	for _, w := range r.reports {
		if w.PDFPath == nil && w.UpdatedAt.Before(savedBefore) && len(out) < limit {
			out = append(out, *w)
		}
	}
	return out, nil
}

var _ repository.WeeklyReportRepository = (*fakeReportRepo)(nil)

// ── Fixture ──────────────────────────────────────────────────────────────────

type fixture struct {
	users       *fakeUserRepo
	modes       *fakeModeRepo
	products    *fakeProductRepo
	shifts      *fakeShiftRepo
	adjustments *fakeAdjustmentRepo
	timeline    *fakeTimelineRepo
	reports     *fakeReportRepo
}

func newFixture() *fixture {
	modes := newFakeModeRepo()
	users := newFakeUserRepo(modes)
	products := newFakeProductRepo()
	return &fixture{
		users:       users,
		modes:       modes,
		products:    products,
		shifts:      newFakeShiftRepo(products, users),
		adjustments: &fakeAdjustmentRepo{},
		timeline:    &fakeTimelineRepo{},
		reports:     newFakeReportRepo(),
	}
}

// closedShift stores a closed shift directly, bypassing the lifecycle rules.
func (f *fixture) closedShift(userID uuid.UUID, start time.Time, hours int, finalCash, finalCoins string) *model.Shift {
	end := start.Add(time.Duration(hours) * time.Hour)
	cash := decimal.RequireFromString(finalCash)
	coins := decimal.RequireFromString(finalCoins)
	s := &model.Shift{
		ID:           uuid.New(),
		UserID:       userID,
		StartTime:    start,
		EndTime:      &end,
		Status:       model.ShiftClosed,
		InitialCash:  decimal.RequireFromString("200"),
		InitialCoins: decimal.RequireFromString("50"),
		FinalCash:    &cash,
		FinalCoins:   &coins,
	}
	f.shifts.shifts[s.ID] = s
	return s
}

// record stores a computed record directly.
func (f *fixture) record(shiftID uuid.UUID, p *model.Product, entry, leftover, consumed int) {
	rec := &model.ShiftRecord{
		ShiftID:       shiftID,
		ProductID:     p.ID,
		EntryQty:      entry,
		LeftoverQty:   leftover,
		ConsumedQty:   consumed,
		PriceSnapshot: p.Price,
	}
	rec.Recalculate()
	_ = f.shifts.UpsertRecord(context.Background(), rec)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func strPtr(s string) *string { return &s }
