package repository

import (
	"context"
	"time"

	"pastel24h/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ShiftQuery filters the shift listing. Zero values disable a filter.
type ShiftQuery struct {
	From   *time.Time
	To     *time.Time
	Status string
	UserID *uuid.UUID
	Page   int
	Limit  int
}

// ShiftRepository covers shifts and the rows they own: inventory records,
// the payment summary and the inheritance snapshot.
type ShiftRepository interface {
	Create(ctx context.Context, s *model.Shift) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Shift, error)
	// FindOpen returns the open shift of the business, if any.
	FindOpen(ctx context.Context) (*model.Shift, error)
	// FindLastClosed returns the most recently closed shift by end time.
	FindLastClosed(ctx context.Context) (*model.Shift, error)
	Update(ctx context.Context, s *model.Shift) error
	List(ctx context.Context, q ShiftQuery) ([]model.Shift, int64, error)
	// ListClosedBetween returns closed shifts whose start time falls in
	// [from, to], with records, payment and owner preloaded.
	ListClosedBetween(ctx context.Context, from, to time.Time) ([]model.Shift, error)

	// Records are keyed by (shift_id, product_id).
	UpsertRecord(ctx context.Context, r *model.ShiftRecord) error
	FindRecord(ctx context.Context, shiftID, productID uuid.UUID) (*model.ShiftRecord, error)
	ListRecords(ctx context.Context, shiftID uuid.UUID) ([]model.ShiftRecord, error)

	// Payments are keyed by shift_id.
	UpsertPayment(ctx context.Context, p *model.ShiftPayment) error
	FindPayment(ctx context.Context, shiftID uuid.UUID) (*model.ShiftPayment, error)

	CreateSnapshot(ctx context.Context, s *model.ShiftSnapshot) error
	FindSnapshot(ctx context.Context, shiftID uuid.UUID) (*model.ShiftSnapshot, error)

	WithTx(tx *gorm.DB) ShiftRepository
	DB() *gorm.DB
}

type shiftRepo struct{ db *gorm.DB }

func NewShiftRepository(db *gorm.DB) ShiftRepository { return &shiftRepo{db: db} }

func (r *shiftRepo) WithTx(tx *gorm.DB) ShiftRepository {
	if tx == nil {
		return r
	}
	return &shiftRepo{db: tx}
}

func (r *shiftRepo) DB() *gorm.DB { return r.db }

func (r *shiftRepo) Create(ctx context.Context, s *model.Shift) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(s).Error
}

func (r *shiftRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Shift, error) {
	var s model.Shift
	err := r.db.WithContext(ctx).Preload("User").First(&s, "id = ?", id).Error
	return &s, err
}

func (r *shiftRepo) FindOpen(ctx context.Context) (*model.Shift, error) {
	var s model.Shift
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("end_time IS NULL").
		Order("start_time DESC").
		First(&s).Error
	return &s, err
}

func (r *shiftRepo) FindLastClosed(ctx context.Context) (*model.Shift, error) {
	var s model.Shift
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("status = ? AND end_time IS NOT NULL", model.ShiftClosed).
		Order("end_time DESC").
		First(&s).Error
	return &s, err
}

func (r *shiftRepo) Update(ctx context.Context, s *model.Shift) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(s).Error
}

func (r *shiftRepo) List(ctx context.Context, q ShiftQuery) ([]model.Shift, int64, error) {
	var shifts []model.Shift
	var total int64

	tx := r.db.WithContext(ctx).Model(&model.Shift{})
	if q.From != nil {
		tx = tx.Where("start_time >= ?", *q.From)
	}
	if q.To != nil {
		tx = tx.Where("start_time <= ?", *q.To)
	}
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if q.UserID != nil {
		tx = tx.Where("user_id = ?", *q.UserID)
	}

	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 20
	}
	offset := (q.Page - 1) * q.Limit
	err := tx.Preload("User").Preload("Payment").
		Order("start_time DESC").Limit(q.Limit).Offset(offset).
		Find(&shifts).Error
	return shifts, total, err
}

func (r *shiftRepo) ListClosedBetween(ctx context.Context, from, to time.Time) ([]model.Shift, error) {
	var shifts []model.Shift
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("User.TransportMode").
		Preload("Records").
		Preload("Records.Product").
		Preload("Payment").
		Where("status = ? AND start_time >= ? AND start_time <= ?", model.ShiftClosed, from, to).
		Order("start_time ASC").
		Find(&shifts).Error
	return shifts, err
}

// UpsertRecord inserts or updates the record for (shift, product) in one
// statement. Callers reuse the existing row's ID when one is known.
func (r *shiftRepo) UpsertRecord(ctx context.Context, rec *model.ShiftRecord) error {
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "shift_id"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"entry_qty",
				"arrival_qty",
				"leftover_qty",
				"discard_qty",
				"consumed_qty",
				"sold_qty",
				"price_snapshot",
				"item_total",
				"entry_locked",
				"updated_at",
			}),
		}).
		Create(rec).Error
}

func (r *shiftRepo) FindRecord(ctx context.Context, shiftID, productID uuid.UUID) (*model.ShiftRecord, error) {
	var rec model.ShiftRecord
	err := r.db.WithContext(ctx).
		Where("shift_id = ? AND product_id = ?", shiftID, productID).
		First(&rec).Error
	return &rec, err
}

func (r *shiftRepo) ListRecords(ctx context.Context, shiftID uuid.UUID) ([]model.ShiftRecord, error) {
	var recs []model.ShiftRecord
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("shift_id = ?", shiftID).
		Order("created_at ASC").
		Find(&recs).Error
	return recs, err
}

func (r *shiftRepo) UpsertPayment(ctx context.Context, p *model.ShiftPayment) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "shift_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"cash",
				"pix",
				"stone_card",
				"stone_voucher",
				"pag_bank_card",
				"updated_at",
			}),
		}).
		Create(p).Error
}

func (r *shiftRepo) FindPayment(ctx context.Context, shiftID uuid.UUID) (*model.ShiftPayment, error) {
	var p model.ShiftPayment
	err := r.db.WithContext(ctx).First(&p, "shift_id = ?", shiftID).Error
	return &p, err
}

func (r *shiftRepo) CreateSnapshot(ctx context.Context, s *model.ShiftSnapshot) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *shiftRepo) FindSnapshot(ctx context.Context, shiftID uuid.UUID) (*model.ShiftSnapshot, error) {
	var s model.ShiftSnapshot
	err := r.db.WithContext(ctx).First(&s, "shift_id = ?", shiftID).Error
	return &s, err
}
