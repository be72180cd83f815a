package repository

import (
	"context"

	"pastel24h/internal/model"

	"gorm.io/gorm"
)

type TimelineRepository interface {
	Create(ctx context.Context, t *model.Timeline) error
	List(ctx context.Context, action string, page, limit int) ([]model.Timeline, int64, error)
	WithTx(tx *gorm.DB) TimelineRepository
}

type timelineRepo struct{ db *gorm.DB }

func NewTimelineRepository(db *gorm.DB) TimelineRepository { return &timelineRepo{db: db} }

func (r *timelineRepo) WithTx(tx *gorm.DB) TimelineRepository {
	if tx == nil {
		return r
	}
	return &timelineRepo{db: tx}
}

func (r *timelineRepo) Create(ctx context.Context, t *model.Timeline) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *timelineRepo) List(ctx context.Context, action string, page, limit int) ([]model.Timeline, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	q := r.db.WithContext(ctx).Model(&model.Timeline{})
	if action != "" {
		q = q.Where("action = ?", action)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.Timeline
	err := q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&rows).Error
	return rows, total, err
}
