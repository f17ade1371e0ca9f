package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harmoni/harmoniconnect/internal/model"
	"github.com/harmoni/harmoniconnect/internal/pagination"
)

type ServiceFilter struct {
	Category   *model.ServiceCategory
	ProviderID *uuid.UUID
}

type ServiceRepository interface {
	Create(ctx context.Context, service *model.Service) error
	// GetByID подгружает исполнителя для вложенного provider_details.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Service, error)
	List(ctx context.Context, f ServiceFilter, p pagination.Params) ([]model.Service, int64, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) error
	IDsByProvider(ctx context.Context, providerID uuid.UUID) ([]uuid.UUID, error)
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) error
}

type GormServiceRepository struct {
	db *gorm.DB
}

func NewGormServiceRepository(db *gorm.DB) *GormServiceRepository {
	return &GormServiceRepository{db: db}
}

func (r *GormServiceRepository) Create(ctx context.Context, service *model.Service) error {
	return translate(r.db.WithContext(ctx).Omit("Provider").Create(service).Error, "service", service.Name)
}

func (r *GormServiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	var s model.Service
	if err := r.db.WithContext(ctx).Preload("Provider").First(&s, "id = ?", id).Error; err != nil {
		return nil, translate(err, "service", id)
	}
	return &s, nil
}

func (r *GormServiceRepository) List(ctx context.Context, f ServiceFilter, p pagination.Params) ([]model.Service, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Service{})
	if f.Category != nil {
		q = q.Where("category = ?", *f.Category)
	}
	if f.ProviderID != nil {
		q = q.Where("provider_id = ?", *f.ProviderID)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "services", "")
	}

	var services []model.Service
	err := q.Preload("Provider").
		Order("name ASC").
		Limit(p.Limit()).
		Offset(p.Offset()).
		Find(&services).Error
	if err != nil {
		return nil, 0, translate(err, "services", "")
	}
	return services, total, nil
}

func (r *GormServiceRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&model.Service{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error, "service", id)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "service", id)
	}
	return nil
}

func (r *GormServiceRepository) IDsByProvider(ctx context.Context, providerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Service{}).Where("provider_id = ?", providerID).Pluck("id", &ids).Error
	return ids, translate(err, "services", providerID)
}

func (r *GormServiceRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.Service{}).Error, "services", "")
}
