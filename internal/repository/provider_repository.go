package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harmoni/harmoniconnect/internal/model"
	"github.com/harmoni/harmoniconnect/internal/pagination"
)

type ProviderRepository interface {
	Create(ctx context.Context, p *model.Provider) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Provider, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Provider, error)
	List(ctx context.Context, p pagination.Params) ([]model.Provider, int64, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type GormProviderRepository struct {
	db *gorm.DB
}

func NewGormProviderRepository(db *gorm.DB) *GormProviderRepository {
	return &GormProviderRepository{db: db}
}

func (r *GormProviderRepository) Create(ctx context.Context, p *model.Provider) error {
	return translate(r.db.WithContext(ctx).Omit("User").Create(p).Error, "service provider profile", p.UserID)
}

func (r *GormProviderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Provider, error) {
	var p model.Provider
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err, "service provider", id)
	}
	return &p, nil
}

func (r *GormProviderRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Provider, error) {
	var p model.Provider
	if err := r.db.WithContext(ctx).First(&p, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err, "service provider", userID)
	}
	return &p, nil
}

func (r *GormProviderRepository) List(ctx context.Context, p pagination.Params) ([]model.Provider, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Provider{}).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "service providers", "")
	}

	var providers []model.Provider
	if err := q.Order("created_at ASC").Limit(p.Limit()).Offset(p.Offset()).Find(&providers).Error; err != nil {
		return nil, 0, translate(err, "service providers", "")
	}
	return providers, total, nil
}

func (r *GormProviderRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&model.Provider{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error, "service provider", id)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "service provider", id)
	}
	return nil
}

func (r *GormProviderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return translate(r.db.WithContext(ctx).Delete(&model.Provider{}, "id = ?", id).Error, "service provider", id)
}
