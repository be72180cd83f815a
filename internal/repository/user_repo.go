package repository

import (
	"context"
	"strings"

	"pastel24h/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.User, error)
	List(ctx context.Context) ([]model.User, error)
	ListByRole(ctx context.Context, role string) ([]model.User, error)
	Update(ctx context.Context, u *model.User) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByTransportMode(ctx context.Context, modeID uuid.UUID) (int64, error)
}

type userRepo struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepo{db: db} }

func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).
		Preload("TransportMode").
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error
	return &u, err
}

func (r *userRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).Preload("TransportMode").First(&u, "id = ?", id).Error
	return &u, err
}

func (r *userRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.User, error) {
	var users []model.User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).Preload("TransportMode").Where("id IN ?", ids).Find(&users).Error
	return users, err
}

func (r *userRepo) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).Preload("TransportMode").Order("name ASC").Find(&users).Error
	return users, err
}

func (r *userRepo) ListByRole(ctx context.Context, role string) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).Preload("TransportMode").
		Where("role = ?", role).Order("name ASC").Find(&users).Error
	return users, err
}

func (r *userRepo) Update(ctx context.Context, u *model.User) error {
	return r.db.WithContext(ctx).Omit("TransportMode").Save(u).Error
}

func (r *userRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("password_hash", hash).Error
}

func (r *userRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.User{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepo) CountByTransportMode(ctx context.Context, modeID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("transport_mode_id = ?", modeID).Count(&n).Error
	return n, err
}

// ── Transport modes ──────────────────────────────────────────────────────────

type TransportModeRepository interface {
	Create(ctx context.Context, m *model.TransportMode) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.TransportMode, error)
	List(ctx context.Context) ([]model.TransportMode, error)
	Update(ctx context.Context, m *model.TransportMode) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type transportModeRepo struct{ db *gorm.DB }

func NewTransportModeRepository(db *gorm.DB) TransportModeRepository {
	return &transportModeRepo{db: db}
}

func (r *transportModeRepo) Create(ctx context.Context, m *model.TransportMode) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *transportModeRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.TransportMode, error) {
	var m model.TransportMode
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	return &m, err
}

func (r *transportModeRepo) List(ctx context.Context) ([]model.TransportMode, error) {
	var modes []model.TransportMode
	err := r.db.WithContext(ctx).Order("name ASC").Find(&modes).Error
	return modes, err
}

func (r *transportModeRepo) Update(ctx context.Context, m *model.TransportMode) error {
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *transportModeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.TransportMode{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
