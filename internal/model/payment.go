package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentStatusProcessed PaymentStatus = "processed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

type PaymentMethod string

const (
	PaymentMethodCreditCard   PaymentMethod = "credit_card"
	PaymentMethodPayPal       PaymentMethod = "paypal"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodMobileMoney  PaymentMethod = "mobile_money"
)

// payments — одна запись на бронирование; после processed не меняется.
type Payment struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	BookingID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`

	Amount float64       `gorm:"type:numeric(10,2);not null"`
	PaidAt time.Time     `gorm:"not null"`
	Status PaymentStatus `gorm:"type:varchar(20);not null;index"`
	Method PaymentMethod `gorm:"type:varchar(50);not null"`

	// Идентификатор транзакции на стороне платёжного шлюза.
	GatewayRef    string `gorm:"type:varchar(255)"`
	FailureReason string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Booking *Booking `gorm:"foreignKey:BookingID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

func (p *Payment) Processed() bool { return p.Status == PaymentStatusProcessed }
