package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Provider — исполнитель, публикующий услуги (танцоры, музыканты, ведущие).
// Привязан к базе пользователей через UserID, один профиль на пользователя.
type Provider struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	// Внешний ключ на таблицу пользователей.
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`

	Location string `gorm:"type:varchar(255);not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	User *User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Provider) TableName() string { return "service_providers" }

func (p *Provider) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
