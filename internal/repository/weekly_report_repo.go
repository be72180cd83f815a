package repository

import (
	"context"
	"time"

	"pastel24h/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WeeklyReportRepository interface {
	// Upsert replaces the report of the same week_start, if any.
	Upsert(ctx context.Context, w *model.WeeklyReport) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.WeeklyReport, error)
	FindByWeekStart(ctx context.Context, weekStart time.Time) (*model.WeeklyReport, error)
	List(ctx context.Context) ([]model.WeeklyReport, error)
	SetPDFPath(ctx context.Context, id uuid.UUID, path string) error
	// ListMissingPDF returns reports last saved before the cutoff that still have no PDF.
	ListMissingPDF(ctx context.Context, savedBefore time.Time, limit int) ([]model.WeeklyReport, error)
	WithTx(tx *gorm.DB) WeeklyReportRepository
	DB() *gorm.DB
}

type weeklyReportRepo struct{ db *gorm.DB }

func NewWeeklyReportRepository(db *gorm.DB) WeeklyReportRepository {
	return &weeklyReportRepo{db: db}
}

func (r *weeklyReportRepo) WithTx(tx *gorm.DB) WeeklyReportRepository {
	if tx == nil {
		return r
	}
	return &weeklyReportRepo{db: tx}
}

func (r *weeklyReportRepo) DB() *gorm.DB { return r.db }

func (r *weeklyReportRepo) Upsert(ctx context.Context, w *model.WeeklyReport) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "week_start"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"week_end",
				"hourly_rate",
				"food_benefit",
				"consumption_discount",
				"transport_rates",
				"employee_data",
				"created_by",
				"pdf_path",
				"updated_at",
			}),
		}).
		Create(w).Error
}

func (r *weeklyReportRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.WeeklyReport, error) {
	var w model.WeeklyReport
	err := r.db.WithContext(ctx).First(&w, "id = ?", id).Error
	return &w, err
}

func (r *weeklyReportRepo) FindByWeekStart(ctx context.Context, weekStart time.Time) (*model.WeeklyReport, error) {
	var w model.WeeklyReport
	err := r.db.WithContext(ctx).First(&w, "week_start = ?", weekStart).Error
	return &w, err
}

func (r *weeklyReportRepo) List(ctx context.Context) ([]model.WeeklyReport, error) {
	var rows []model.WeeklyReport
	err := r.db.WithContext(ctx).Order("week_start DESC").Find(&rows).Error
	return rows, err
}

func (r *weeklyReportRepo) SetPDFPath(ctx context.Context, id uuid.UUID, path string) error {
	return r.db.WithContext(ctx).Model(&model.WeeklyReport{}).Where("id = ?", id).Update("pdf_path", path).Error
}

func (r *weeklyReportRepo) ListMissingPDF(ctx context.Context, savedBefore time.Time, limit int) ([]model.WeeklyReport, error) {
	var rows []model.WeeklyReport
	err := r.db.WithContext(ctx).
		Where("pdf_path IS NULL AND updated_at < ?", savedBefore).
		Order("updated_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
