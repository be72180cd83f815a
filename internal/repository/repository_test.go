package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"pastel24h/internal/dto"
	"pastel24h/internal/infra"
	"pastel24h/internal/model"
	"pastel24h/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory SQLite database with the full schema,
// including the single-open-shift partial index.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, infra.RunMigrations(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name, role string) *model.User {
	t.Helper()
	u := &model.User{Email: name + "@pastel24h.test", Name: name, PasswordHash: "x", Role: role}
	require.NoError(t, repository.NewUserRepository(db).Create(context.Background(), u))
	return u
}

func seedProduct(t *testing.T, db *gorm.DB, name, price string) *model.Product {
	t.Helper()
	p := &model.Product{Name: name, Category: model.CategoryPastel, Price: decimal.RequireFromString(price)}
	require.NoError(t, repository.NewProductRepository(db).Create(context.Background(), p))
	return p
}

func newShift(userID uuid.UUID, start time.Time, closedAfter time.Duration) *model.Shift {
	s := &model.Shift{
		UserID:       userID,
		StartTime:    start.UTC(),
		Status:       model.ShiftOpen,
		InitialCash:  decimal.NewFromInt(200),
		InitialCoins: decimal.NewFromInt(50),
	}
	if closedAfter > 0 {
		end := start.Add(closedAfter).UTC()
		s.EndTime = &end
		s.Status = model.ShiftClosed
		s.FinalCash = &s.InitialCash
		s.FinalCoins = &s.InitialCoins
	}
	return s
}

func TestShiftRepo_SingleOpenShift(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := repository.NewShiftRepository(db)
	ana := seedUser(t, db, "ana", model.RoleEmployee)
	bia := seedUser(t, db, "bia", model.RoleEmployee)

	require.NoError(t, repo.Create(ctx, newShift(ana.ID, time.Now().Add(-20*time.Hour), 8*time.Hour)))
	require.NoError(t, repo.Create(ctx, newShift(ana.ID, time.Now().Add(-10*time.Hour), 8*time.Hour)))

	open := newShift(ana.ID, time.Now(), 0)
	require.NoError(t, repo.Create(ctx, open))

	err := repo.Create(ctx, newShift(bia.ID, time.Now(), 0))
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)

	found, err := repo.FindOpen(ctx)
	require.NoError(t, err)
	assert.Equal(t, open.ID, found.ID)
	require.NotNil(t, found.User)
	assert.Equal(t, "ana", found.User.Name)

	// Once closed, the next employee may open.
	end := time.Now().UTC()
	open.EndTime = &end
	open.Status = model.ShiftClosed
	require.NoError(t, repo.Update(ctx, open))
	_, err = repo.FindOpen(ctx)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	require.NoError(t, repo.Create(ctx, newShift(bia.ID, time.Now(), 0)))
}

func TestShiftRepo_FindLastClosedAndListClosedBetween(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := repository.NewShiftRepository(db)
	ana := seedUser(t, db, "ana", model.RoleEmployee)
	p := seedProduct(t, db, "Pastel de carne", "8.00")

	_, err := repo.FindLastClosed(ctx)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	day := time.Date(2026, 10, 6, 8, 0, 0, 0, time.UTC)
	first := newShift(ana.ID, day, 8*time.Hour)
	second := newShift(ana.ID, day.Add(9*time.Hour), 8*time.Hour)
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	rec := &model.ShiftRecord{ShiftID: second.ID, ProductID: p.ID, EntryQty: 10, LeftoverQty: 4, PriceSnapshot: p.Price}
	rec.Recalculate()
	require.NoError(t, repo.UpsertRecord(ctx, rec))
	require.NoError(t, repo.UpsertPayment(ctx, &model.ShiftPayment{ShiftID: second.ID, Cash: decimal.NewFromInt(48)}))

	last, err := repo.FindLastClosed(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, last.ID)

	shifts, err := repo.ListClosedBetween(ctx, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, shifts, 2)
	assert.Equal(t, first.ID, shifts[0].ID)
	require.Len(t, shifts[1].Records, 1)
	require.NotNil(t, shifts[1].Records[0].Product)
	assert.Equal(t, "Pastel de carne", shifts[1].Records[0].Product.Name)
	require.NotNil(t, shifts[1].Payment)
	assert.True(t, shifts[1].Payment.Cash.Equal(decimal.NewFromInt(48)))
	require.NotNil(t, shifts[1].User)

	page, total, err := repo.List(ctx, repository.ShiftQuery{Status: model.ShiftClosed, Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, page, 1)
	assert.Equal(t, second.ID, page[0].ID)
}

func TestShiftRepo_UpsertRecordKeepsOneRow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := repository.NewShiftRepository(db)
	ana := seedUser(t, db, "ana", model.RoleEmployee)
	p := seedProduct(t, db, "Pastel de queijo", "7.50")
	shift := newShift(ana.ID, time.Now(), 0)
	require.NoError(t, repo.Create(ctx, shift))

	first := &model.ShiftRecord{ShiftID: shift.ID, ProductID: p.ID, EntryQty: 10, LeftoverQty: 6, PriceSnapshot: p.Price}
	first.Recalculate()
	require.NoError(t, repo.UpsertRecord(ctx, first))

	second := &model.ShiftRecord{ShiftID: shift.ID, ProductID: p.ID, EntryQty: 10, LeftoverQty: 2, PriceSnapshot: p.Price, EntryLocked: true}
	second.Recalculate()
	require.NoError(t, repo.UpsertRecord(ctx, second))

	recs, err := repo.ListRecords(ctx, shift.ID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, first.ID, recs[0].ID)
	assert.Equal(t, 8, recs[0].SoldQty)
	assert.True(t, recs[0].ItemTotal.Equal(decimal.NewFromInt(60)), recs[0].ItemTotal.String())
	assert.True(t, recs[0].EntryLocked)

	found, err := repo.FindRecord(ctx, shift.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.LeftoverQty)
}

func TestShiftRepo_PaymentAndSnapshot(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := repository.NewShiftRepository(db)
	ana := seedUser(t, db, "ana", model.RoleEmployee)
	shift := newShift(ana.ID, time.Now(), 0)
	require.NoError(t, repo.Create(ctx, shift))

	require.NoError(t, repo.UpsertPayment(ctx, &model.ShiftPayment{ShiftID: shift.ID, Cash: decimal.NewFromInt(10)}))
	require.NoError(t, repo.UpsertPayment(ctx, &model.ShiftPayment{ShiftID: shift.ID, Cash: decimal.NewFromInt(12), Pix: decimal.NewFromInt(3)}))
	pay, err := repo.FindPayment(ctx, shift.ID)
	require.NoError(t, err)
	assert.True(t, pay.Total().Equal(decimal.NewFromInt(15)))

	productID := uuid.New()
	snap := &model.ShiftSnapshot{
		ShiftID:       shift.ID,
		CarryCash:     decimal.NewFromInt(150),
		CarryCoins:    decimal.NewFromInt(30),
		CarryProducts: []model.CarryProduct{{ProductID: productID, Qty: 5, Name: "Pastel de carne"}},
	}
	require.NoError(t, repo.CreateSnapshot(ctx, snap))
	got, err := repo.FindSnapshot(ctx, shift.ID)
	require.NoError(t, err)
	require.Len(t, got.CarryProducts, 1)
	assert.Equal(t, productID, got.CarryProducts[0].ProductID)
	assert.True(t, got.CarryCash.Equal(decimal.NewFromInt(150)))
}

func TestShiftRepo_WithTxRollsBack(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := repository.NewShiftRepository(db)
	ana := seedUser(t, db, "ana", model.RoleEmployee)

	sentinel := errors.New("abort")
	err := db.Transaction(func(tx *gorm.DB) error {
		require.NoError(t, repo.WithTx(tx).Create(ctx, newShift(ana.ID, time.Now(), 0)))
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	_, err = repo.FindOpen(ctx)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	assert.Same(t, repo, repo.WithTx(nil))
}

func TestCashAdjustmentRepo(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	shifts := repository.NewShiftRepository(db)
	repo := repository.NewCashAdjustmentRepository(db)
	ana := seedUser(t, db, "ana", model.RoleEmployee)
	shift := newShift(ana.ID, time.Now(), 0)
	require.NoError(t, shifts.Create(ctx, shift))

	for _, a := range []struct {
		shift  *uuid.UUID
		typ    string
		amount string
	}{
		{&shift.ID, model.AdjustmentWithdraw, "10.25"},
		{&shift.ID, model.AdjustmentWithdraw, "4.75"},
		{&shift.ID, model.AdjustmentAdjustment, "1"},
		{nil, model.AdjustmentWithdraw, "99"},
	} {
		require.NoError(t, repo.Create(ctx, &model.CashAdjustment{
			ShiftID: a.shift, UserID: ana.ID, Type: a.typ,
			Amount: decimal.RequireFromString(a.amount), Reason: "teste",
		}))
	}

	sum, err := repo.SumByShiftAndType(ctx, shift.ID, model.AdjustmentWithdraw)
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.NewFromInt(15)), sum.String())

	none, err := repo.SumByShiftAndType(ctx, uuid.New(), model.AdjustmentWithdraw)
	require.NoError(t, err)
	assert.True(t, none.IsZero())

	scoped, err := repo.ListByType(ctx, &shift.ID, model.AdjustmentWithdraw)
	require.NoError(t, err)
	assert.Len(t, scoped, 2)
	all, err := repo.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestWeeklyReportRepo_UpsertByWeekStart(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := repository.NewWeeklyReportRepository(db)
	admin := seedUser(t, db, "chefe", model.RoleAdmin)
	week := time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC)

	first := &model.WeeklyReport{
		WeekStart: week, WeekEnd: week.AddDate(0, 0, 6),
		HourlyRate: decimal.NewFromInt(10), CreatedBy: admin.ID,
		EmployeeData: []model.PayrollEntry{{UserID: admin.ID, Name: "chefe", Total: decimal.NewFromInt(83)}},
	}
	require.NoError(t, repo.Upsert(ctx, first))

	second := &model.WeeklyReport{
		WeekStart: week, WeekEnd: week.AddDate(0, 0, 6),
		HourlyRate: decimal.NewFromInt(12), CreatedBy: admin.ID,
	}
	require.NoError(t, repo.Upsert(ctx, second))

	rows, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, first.ID, rows[0].ID)
	assert.True(t, rows[0].HourlyRate.Equal(decimal.NewFromInt(12)))

	got, err := repo.FindByWeekStart(ctx, week)
	require.NoError(t, err)
	assert.Nil(t, got.PDFPath)

	missing, err := repo.ListMissingPDF(ctx, time.Now().AddDate(1, 0, 0), 10)
	require.NoError(t, err)
	assert.Len(t, missing, 1)

	require.NoError(t, repo.SetPDFPath(ctx, first.ID, "/tmp/folha_2026-10-05.pdf"))
	missing, err = repo.ListMissingPDF(ctx, time.Now().AddDate(1, 0, 0), 10)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestTimelineRepo_ListByAction(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := repository.NewTimelineRepository(db)
	ana := seedUser(t, db, "ana", model.RoleEmployee)

	for i, action := range []string{model.ActionShiftOpened, model.ActionCashAdjustment, model.ActionShiftClosed, model.ActionCashAdjustment} {
		require.NoError(t, repo.Create(ctx, &model.Timeline{
			UserID: ana.ID, Action: action, Description: action,
			Metadata:  map[string]any{"seq": i},
			CreatedAt: time.Date(2026, 10, 6, 8, i, 0, 0, time.UTC),
		}))
	}

	rows, total, err := repo.List(ctx, model.ActionCashAdjustment, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 3, rows[0].Metadata["seq"])

	_, total, err = repo.List(ctx, "", 1, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
}

func TestProductRepo_FilterRefsAndHistory(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := repository.NewProductRepository(db)
	carne := seedProduct(t, db, "Pastel de Carne", "8.00")
	seedProduct(t, db, "Caldo de cana", "6.00")

	found, err := repo.List(ctx, dto.ProductFilter{Name: "carne"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, carne.ID, found[0].ID)

	for _, p := range []string{"9.00", "9.50"} {
		require.NoError(t, repo.CreatePriceHistory(ctx, &model.ProductPriceHistory{
			ProductID: carne.ID, PriceBefore: carne.Price, PriceAfter: decimal.RequireFromString(p),
		}))
	}
	hist, total, err := repo.ListPriceHistory(ctx, carne.ID, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, hist, 1)

	refs, err := repo.CountRecordRefs(ctx, carne.ID)
	require.NoError(t, err)
	assert.Zero(t, refs)

	require.NoError(t, repo.Delete(ctx, carne.ID))
	assert.True(t, errors.Is(repo.Delete(ctx, carne.ID), gorm.ErrRecordNotFound))
}

func TestUserRepo_EmailIsCaseInsensitiveAndUnique(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := repository.NewUserRepository(db)
	seedUser(t, db, "Ana", model.RoleEmployee)

	u, err := repo.FindByEmail(ctx, "  ANA@pastel24h.TEST")
	require.NoError(t, err)
	assert.Equal(t, "ana@pastel24h.test", u.Email)

	err = repo.Create(ctx, &model.User{Email: "ana@PASTEL24H.test", Name: "Outra", PasswordHash: "x", Role: model.RoleEmployee})
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)

	modes := repository.NewTransportModeRepository(db)
	bus := &model.TransportMode{Name: "bus", RoundTripPrice: decimal.RequireFromString("9.40")}
	require.NoError(t, modes.Create(ctx, bus))
	u.TransportModeID = &bus.ID
	require.NoError(t, repo.Update(ctx, u))

	n, err := repo.CountByTransportMode(ctx, bus.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	employees, err := repo.ListByRole(ctx, model.RoleEmployee)
	require.NoError(t, err)
	require.Len(t, employees, 1)
	require.NotNil(t, employees[0].TransportMode)
	assert.Equal(t, "bus", employees[0].TransportMode.Name)
}
