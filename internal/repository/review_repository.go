package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harmoni/harmoniconnect/internal/model"
	"github.com/harmoni/harmoniconnect/internal/pagination"
)

type ReviewFilter struct {
	BookingID *uuid.UUID
	ServiceID *uuid.UUID
}

type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	// GetByID подгружает бронирование и клиента для проверки владельца.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Review, error)
	ExistsForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error)
	List(ctx context.Context, f ReviewFilter, p pagination.Params) ([]model.Review, int64, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) error
	DeleteByBookings(ctx context.Context, bookingIDs []uuid.UUID) error
}

type GormReviewRepository struct {
	db *gorm.DB
}

func NewGormReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

func (r *GormReviewRepository) Create(ctx context.Context, review *model.Review) error {
	return translate(r.db.WithContext(ctx).Omit("Booking").Create(review).Error, "review", review.BookingID)
}

func (r *GormReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Review, error) {
	var rv model.Review
	err := r.db.WithContext(ctx).
		Preload("Booking").
		Preload("Booking.Client").
		Preload("Booking.Service").
		First(&rv, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "review", id)
	}
	return &rv, nil
}

func (r *GormReviewRepository) ExistsForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Review{}).Where("booking_id = ?", bookingID).Count(&n).Error
	if err != nil {
		return false, translate(err, "review", bookingID)
	}
	return n > 0, nil
}

func (r *GormReviewRepository) List(ctx context.Context, f ReviewFilter, p pagination.Params) ([]model.Review, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Review{})
	if f.BookingID != nil {
		q = q.Where("booking_id = ?", *f.BookingID)
	}
	if f.ServiceID != nil {
		q = q.Where("booking_id IN (?)", r.db.Model(&model.Booking{}).Select("id").Where("service_id = ?", *f.ServiceID))
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "reviews", "")
	}

	var reviews []model.Review
	if err := q.Order("created_at DESC").Limit(p.Limit()).Offset(p.Offset()).Find(&reviews).Error; err != nil {
		return nil, 0, translate(err, "reviews", "")
	}
	return reviews, total, nil
}

func (r *GormReviewRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if rating, ok := fields["rating"].(int); ok {
		fields["rating"] = model.ClampRating(rating)
	}
	res := r.db.WithContext(ctx).Model(&model.Review{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error, "review", id)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "review", id)
	}
	return nil
}

func (r *GormReviewRepository) DeleteByBookings(ctx context.Context, bookingIDs []uuid.UUID) error {
	if len(bookingIDs) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).Where("booking_id IN ?", bookingIDs).Delete(&model.Review{}).Error, "reviews", "")
}
