package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/harmoni/harmoniconnect/internal/apperr"
	"github.com/harmoni/harmoniconnect/internal/model"
	"github.com/harmoni/harmoniconnect/internal/pagination"
)

// BookingFilter — фильтры списка бронирований.
//
// При Scoped список ограничен бронированиями клиента ClientID и/или
// бронированиями услуг исполнителя ProviderID; если оба пусты, список пуст.
type BookingFilter struct {
	Status    *model.BookingStatus
	ServiceID *uuid.UUID

	Scoped     bool
	ClientID   *uuid.UUID
	ProviderID *uuid.UUID
}

type BookingRepository interface {
	// Создать новое бронирование.
	Create(ctx context.Context, booking *model.Booking) error
	// Получить бронирование по ID вместе с клиентом, услугой и исполнителем.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	// То же, но со строковой блокировкой (SELECT ... FOR UPDATE) внутри транзакции.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	// Перевести статус, если запись не менялась с момента чтения.
	TransitionStatus(ctx context.Context, booking *model.Booking, to model.BookingStatus) error
	List(ctx context.Context, f BookingFilter, p pagination.Params) ([]model.Booking, int64, error)
	// Pending-бронирования с датой раньше before.
	ListPendingBefore(ctx context.Context, before time.Time, limit int) ([]model.Booking, error)
	IDsByServices(ctx context.Context, serviceIDs []uuid.UUID) ([]uuid.UUID, error)
	IDsByClient(ctx context.Context, clientID uuid.UUID) ([]uuid.UUID, error)
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) error
}

// Реализация на GORM.
type GormBookingRepository struct {
	db *gorm.DB
}

func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

func (r *GormBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	return translate(r.db.WithContext(ctx).Omit("Client", "Service").Create(booking).Error, "booking", booking.ID)
}

func (r *GormBookingRepository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Client").
		Preload("Service").
		Preload("Service.Provider")
}

func (r *GormBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var b model.Booking
	if err := r.withDetails(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, translate(err, "booking", id)
	}
	return &b, nil
}

func (r *GormBookingRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var b model.Booking
	err := r.withDetails(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&b, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "booking", id)
	}
	return &b, nil
}

// TransitionStatus обновляет статус условным UPDATE по (status, version).
// Если строку успели изменить, возвращается конфликт с фактическим статусом.
func (r *GormBookingRepository) TransitionStatus(ctx context.Context, booking *model.Booking, to model.BookingStatus) error {
	res := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("id = ? AND status = ? AND version = ?", booking.ID, booking.Status, booking.Version).
		Updates(map[string]any{
			"status":  to,
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return translate(res.Error, "booking", booking.ID)
	}

	if res.RowsAffected == 1 {
		booking.Status = to
		booking.Version++
		return nil
	}

	var current model.Booking
	if err := r.db.WithContext(ctx).Select("status").First(&current, "id = ?", booking.ID).Error; err != nil {
		return translate(err, "booking", booking.ID)
	}
	return apperr.InvalidTransition(
		string(current.Status),
		string(booking.Status),
		fmt.Sprintf("booking %s was modified concurrently; it is now %s", booking.ID, current.Status),
	)
}

func (r *GormBookingRepository) List(ctx context.Context, f BookingFilter, p pagination.Params) ([]model.Booking, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Booking{})

	if f.Scoped {
		providerServices := r.db.Model(&model.Service{}).Select("id")
		switch {
		case f.ClientID != nil && f.ProviderID != nil:
			q = q.Where("client_id = ? OR service_id IN (?)", *f.ClientID, providerServices.Where("provider_id = ?", *f.ProviderID))
		case f.ClientID != nil:
			q = q.Where("client_id = ?", *f.ClientID)
		case f.ProviderID != nil:
			q = q.Where("service_id IN (?)", providerServices.Where("provider_id = ?", *f.ProviderID))
		default:
			return []model.Booking{}, 0, nil
		}
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.ServiceID != nil {
		q = q.Where("service_id = ?", *f.ServiceID)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "bookings", "")
	}

	var bookings []model.Booking
	err := q.Preload("Client").
		Preload("Service").
		Preload("Service.Provider").
		Order("created_at DESC").
		Limit(p.Limit()).
		Offset(p.Offset()).
		Find(&bookings).Error
	if err != nil {
		return nil, 0, translate(err, "bookings", "")
	}
	return bookings, total, nil
}

func (r *GormBookingRepository) ListPendingBefore(ctx context.Context, before time.Time, limit int) ([]model.Booking, error) {
	var bookings []model.Booking
	q := r.db.WithContext(ctx).
		Where("status = ? AND booking_date < ?", model.BookingStatusPending, before).
		Order("booking_date ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&bookings).Error; err != nil {
		return nil, translate(err, "bookings", "")
	}
	return bookings, nil
}

func (r *GormBookingRepository) IDsByServices(ctx context.Context, serviceIDs []uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if len(serviceIDs) == 0 {
		return ids, nil
	}
	err := r.db.WithContext(ctx).Model(&model.Booking{}).Where("service_id IN ?", serviceIDs).Pluck("id", &ids).Error
	return ids, translate(err, "bookings", "")
}

func (r *GormBookingRepository) IDsByClient(ctx context.Context, clientID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Booking{}).Where("client_id = ?", clientID).Pluck("id", &ids).Error
	return ids, translate(err, "bookings", clientID)
}

func (r *GormBookingRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.Booking{}).Error, "bookings", "")
}
