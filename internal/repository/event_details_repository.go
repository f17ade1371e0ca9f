package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harmoni/harmoniconnect/internal/model"
)

type EventDetailsRepository interface {
	Create(ctx context.Context, d *model.EventDetails) error
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*model.EventDetails, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) error
	DeleteByBookings(ctx context.Context, bookingIDs []uuid.UUID) error
}

type GormEventDetailsRepository struct {
	db *gorm.DB
}

func NewGormEventDetailsRepository(db *gorm.DB) *GormEventDetailsRepository {
	return &GormEventDetailsRepository{db: db}
}

func (r *GormEventDetailsRepository) Create(ctx context.Context, d *model.EventDetails) error {
	return translate(r.db.WithContext(ctx).Omit("Booking").Create(d).Error, "event details", d.BookingID)
}

func (r *GormEventDetailsRepository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*model.EventDetails, error) {
	var d model.EventDetails
	if err := r.db.WithContext(ctx).First(&d, "booking_id = ?", bookingID).Error; err != nil {
		return nil, translate(err, "event details", bookingID)
	}
	return &d, nil
}

func (r *GormEventDetailsRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&model.EventDetails{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error, "event details", id)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "event details", id)
	}
	return nil
}

func (r *GormEventDetailsRepository) DeleteByBookings(ctx context.Context, bookingIDs []uuid.UUID) error {
	if len(bookingIDs) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).Where("booking_id IN ?", bookingIDs).Delete(&model.EventDetails{}).Error, "event details", "")
}
