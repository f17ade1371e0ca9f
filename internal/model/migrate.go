package model

import "gorm.io/gorm"

// AutoMigrate выполняет миграцию всех сущностей маркетплейса.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Client{},
		&Provider{},
		&Service{},
		&Booking{},
		&Review{},
		&Payment{},
		&EventDetails{},
		&Event{},
	)
}
