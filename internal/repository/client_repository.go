package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harmoni/harmoniconnect/internal/model"
)

type ClientRepository interface {
	Create(ctx context.Context, c *model.Client) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Client, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Client, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type GormClientRepository struct {
	db *gorm.DB
}

func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

func (r *GormClientRepository) Create(ctx context.Context, c *model.Client) error {
	return translate(r.db.WithContext(ctx).Omit("User").Create(c).Error, "client profile", c.UserID)
}

func (r *GormClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	var c model.Client
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err, "client", id)
	}
	return &c, nil
}

func (r *GormClientRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Client, error) {
	var c model.Client
	if err := r.db.WithContext(ctx).First(&c, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err, "client", userID)
	}
	return &c, nil
}

func (r *GormClientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return translate(r.db.WithContext(ctx).Delete(&model.Client{}, "id = ?", id).Error, "client", id)
}
