package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// event_details — сведения о мероприятии для подтверждённого бронирования.
type EventDetails struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	BookingID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`

	EventType string    `gorm:"type:varchar(255);not null"`
	Location  string    `gorm:"type:varchar(255);not null"`
	EventDate time.Time `gorm:"not null;index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Booking *Booking `gorm:"foreignKey:BookingID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (EventDetails) TableName() string { return "event_details" }

func (e *EventDetails) BeforeCreate(tx *gorm.DB) error {
	ensureID(&e.ID)
	return nil
}
