package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Тип события аудита.
type EventType string

const (
	EventTypeBookingCreated       EventType = "booking_created"
	EventTypeBookingConfirmed     EventType = "booking_confirmed"
	EventTypeBookingCompleted     EventType = "booking_completed"
	EventTypeBookingCancelled     EventType = "booking_cancelled"
	EventTypeReviewCreated        EventType = "review_created"
	EventTypePaymentRecorded      EventType = "payment_recorded"
	EventTypeEventDetailsAttached EventType = "event_details_attached"
)

// events — события аудита
type Event struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	EventType EventType `gorm:"type:varchar(64);not null;index"`

	CreatedAt time.Time `gorm:"not null;index"`

	UserID    *uuid.UUID `gorm:"type:uuid;index"`
	BookingID *uuid.UUID `gorm:"type:uuid;index"`

	Details datatypes.JSON

	// Навигационные поля
	User    *User    `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Booking *Booking `gorm:"foreignKey:BookingID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	ensureID(&e.ID)
	return nil
}
