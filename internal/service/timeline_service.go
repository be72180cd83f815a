package service

import (
	"context"
	"fmt"

	"pastel24h/internal/dto"
	"pastel24h/internal/model"
	"pastel24h/internal/repository"

	"github.com/google/uuid"
)

// TimelineService exposes the audit trail to admins.
type TimelineService interface {
	List(ctx context.Context, action string, page, limit int) (*dto.TimelineListResponse, error)
}

type timelineService struct {
	repo repository.TimelineRepository
}

func NewTimelineService(repo repository.TimelineRepository) TimelineService {
	return &timelineService{repo: repo}
}

func (s *timelineService) List(ctx context.Context, action string, page, limit int) (*dto.TimelineListResponse, error) {
	page, limit = pageBounds(page, limit, 50, 200)
	rows, total, err := s.repo.List(ctx, action, page, limit)
	if err != nil {
		return nil, fmt.Errorf("list timeline: %w", err)
	}
	out := &dto.TimelineListResponse{Data: make([]dto.TimelineItem, 0, len(rows)), Total: total, Page: page, Limit: limit}
	for i := range rows {
		out.Data = append(out.Data, toTimelineItem(&rows[i]))
	}
	return out, nil
}

func appendTimeline(
	ctx context.Context,
	repo repository.TimelineRepository,
	userID uuid.UUID,
	action, description string,
	metadata map[string]any,
) error {
	entry := &model.Timeline{
		UserID:      userID,
		Action:      action,
		Description: description,
		Metadata:    metadata,
	}
	if err := repo.Create(ctx, entry); err != nil {
		return fmt.Errorf("append timeline %s: %w", action, err)
	}
	return nil
}
