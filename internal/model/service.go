package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ServiceCategory string

const (
	ServiceCategoryDance ServiceCategory = "Dance"
	ServiceCategoryMusic ServiceCategory = "Music"
	ServiceCategoryMC    ServiceCategory = "MC"
)

// ServiceCategories перечисляет допустимые категории в порядке отображения.
func ServiceCategories() []ServiceCategory {
	return []ServiceCategory{ServiceCategoryDance, ServiceCategoryMusic, ServiceCategoryMC}
}

func (c ServiceCategory) Valid() bool {
	for _, known := range ServiceCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// services
type Service struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	ProviderID uuid.UUID `gorm:"type:uuid;not null;index"`

	Name        string `gorm:"type:varchar(255);not null"`
	Description string `gorm:"type:text"`

	Price    float64         `gorm:"type:numeric(10,2);not null"`
	Category ServiceCategory `gorm:"type:varchar(50);not null;index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Provider *Provider `gorm:"foreignKey:ProviderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (s *Service) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
