package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/harmoni/harmoniconnect/internal/model"
)

// EventRepository пишет журнал аудита. Записи переживают удалённые
// бронирования и пользователей: ссылки на них обнуляются.
type EventRepository interface {
	Record(ctx context.Context, eventType model.EventType, userID, bookingID *uuid.UUID, details map[string]any) error
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]model.Event, error)
	ListByType(ctx context.Context, eventType model.EventType) ([]model.Event, error)
	DetachBookings(ctx context.Context, bookingIDs []uuid.UUID) error
	DetachUser(ctx context.Context, userID uuid.UUID) error
}

type GormEventRepository struct {
	db *gorm.DB
}

func NewGormEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

func (r *GormEventRepository) Record(
	ctx context.Context,
	eventType model.EventType,
	userID, bookingID *uuid.UUID,
	details map[string]any,
) error {
	e := &model.Event{EventType: eventType, UserID: userID, BookingID: bookingID}
	if len(details) > 0 {
		raw, err := json.Marshal(details)
		if err != nil {
			return err
		}
		e.Details = datatypes.JSON(raw)
	}
	return translate(r.db.WithContext(ctx).Omit("User", "Booking").Create(e).Error, "event", eventType)
}

func (r *GormEventRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]model.Event, error) {
	var events []model.Event
	err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).Order("created_at ASC").Find(&events).Error
	return events, translate(err, "events", bookingID)
}

func (r *GormEventRepository) ListByType(ctx context.Context, eventType model.EventType) ([]model.Event, error) {
	var events []model.Event
	err := r.db.WithContext(ctx).Where("event_type = ?", eventType).Order("created_at ASC").Find(&events).Error
	return events, translate(err, "events", eventType)
}

func (r *GormEventRepository) DetachBookings(ctx context.Context, bookingIDs []uuid.UUID) error {
	if len(bookingIDs) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Model(&model.Event{}).
		Where("booking_id IN ?", bookingIDs).
		Update("booking_id", nil).Error
	return translate(err, "events", "")
}

func (r *GormEventRepository) DetachUser(ctx context.Context, userID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Model(&model.Event{}).
		Where("user_id = ?", userID).
		Update("user_id", nil).Error
	return translate(err, "events", userID)
}
