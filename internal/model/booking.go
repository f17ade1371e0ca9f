package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
)

// Rank — позиция статуса в линейном жизненном цикле, 0 для неизвестного.
func (s BookingStatus) Rank() int {
	switch s {
	case BookingStatusPending:
		return 1
	case BookingStatusConfirmed:
		return 2
	case BookingStatusCompleted:
		return 3
	default:
		return 0
	}
}

// AtLeast reports whether s is at or past other in the lifecycle.
func (s BookingStatus) AtLeast(other BookingStatus) bool {
	return s.Rank() > 0 && s.Rank() >= other.Rank()
}

func (s BookingStatus) Valid() bool { return s.Rank() > 0 }

// bookings
type Booking struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	ClientID  uuid.UUID `gorm:"type:uuid;not null;index"`
	ServiceID uuid.UUID `gorm:"type:uuid;not null;index"`

	BookingDate time.Time     `gorm:"not null;index"`
	Status      BookingStatus `gorm:"type:varchar(32);not null;index"`

	// Версия для оптимистичной блокировки переходов статуса.
	Version int64 `gorm:"not null;default:1"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Client  *Client  `gorm:"foreignKey:ClientID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Service *Service `gorm:"foreignKey:ServiceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	ensureID(&b.ID)
	if b.Version == 0 {
		b.Version = 1
	}
	return nil
}
