package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harmoni/harmoniconnect/internal/model"
)

type PaymentRepository interface {
	Create(ctx context.Context, p *model.Payment) error
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*model.Payment, error)
	// UpdateFailed перезаписывает только неуспешный платёж; processed неизменяем.
	UpdateFailed(ctx context.Context, id uuid.UUID, fields map[string]any) (bool, error)
	DeleteByBookings(ctx context.Context, bookingIDs []uuid.UUID) error
}

type GormPaymentRepository struct {
	db *gorm.DB
}

func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) Create(ctx context.Context, p *model.Payment) error {
	return translate(r.db.WithContext(ctx).Omit("Booking").Create(p).Error, "payment", p.BookingID)
}

func (r *GormPaymentRepository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*model.Payment, error) {
	var p model.Payment
	if err := r.db.WithContext(ctx).First(&p, "booking_id = ?", bookingID).Error; err != nil {
		return nil, translate(err, "payment", bookingID)
	}
	return &p, nil
}

func (r *GormPaymentRepository) UpdateFailed(ctx context.Context, id uuid.UUID, fields map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("id = ? AND status = ?", id, model.PaymentStatusFailed).
		Updates(fields)
	if res.Error != nil {
		return false, translate(res.Error, "payment", id)
	}
	return res.RowsAffected == 1, nil
}

func (r *GormPaymentRepository) DeleteByBookings(ctx context.Context, bookingIDs []uuid.UUID) error {
	if len(bookingIDs) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).Where("booking_id IN ?", bookingIDs).Delete(&model.Payment{}).Error, "payments", "")
}
