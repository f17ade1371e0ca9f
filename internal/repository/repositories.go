package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harmoni/harmoniconnect/internal/model"
)

// Repositories bundles every repository over one *gorm.DB, either the pool
// or an open transaction.
type Repositories struct {
	db *gorm.DB

	Users        UserRepository
	Clients      ClientRepository
	Providers    ProviderRepository
	Services     ServiceRepository
	Bookings     BookingRepository
	Reviews      ReviewRepository
	Payments     PaymentRepository
	EventDetails EventDetailsRepository
	Events       EventRepository
}

func New(db *gorm.DB) *Repositories {
	return &Repositories{
		db:           db,
		Users:        NewGormUserRepository(db),
		Clients:      NewGormClientRepository(db),
		Providers:    NewGormProviderRepository(db),
		Services:     NewGormServiceRepository(db),
		Bookings:     NewGormBookingRepository(db),
		Reviews:      NewGormReviewRepository(db),
		Payments:     NewGormPaymentRepository(db),
		EventDetails: NewGormEventDetailsRepository(db),
		Events:       NewGormEventRepository(db),
	}
}

// Transaction runs fn against repositories bound to one transaction. Any
// error from fn rolls everything back. Inside fn only tx must be used.
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
	return translateTx(err)
}

// Ping checks that the store answers.
func (r *Repositories) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return translateTx(sqlDB.PingContext(ctx))
}

// ---------- проверки ссылок для слоя валидации ----------

func (r *Repositories) exists(ctx context.Context, m any, column string, id uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(m).Where(column+" = ?", id).Limit(1).Count(&n).Error
	if err != nil {
		return false, translate(err, "reference", id)
	}
	return n > 0, nil
}

func (r *Repositories) ProviderExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, &model.Provider{}, "id", id)
}

func (r *Repositories) ServiceExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, &model.Service{}, "id", id)
}

func (r *Repositories) BookingExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, &model.Booking{}, "id", id)
}

func (r *Repositories) UserExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, &model.User{}, "id", id)
}

func (r *Repositories) ReviewExistsForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	return r.Reviews.ExistsForBooking(ctx, bookingID)
}
