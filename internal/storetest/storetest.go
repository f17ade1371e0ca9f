// Package storetest opens throwaway in-memory stores and seeds fixtures for
// package tests.
package storetest

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/harmoni/harmoniconnect/internal/model"
)

// Open returns a migrated in-memory SQLite database. The pool holds a single
// connection, so concurrent transactions in tests are serialized by the store.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger:         gormlogger.Discard,
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := model.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func create(t testing.TB, db *gorm.DB, v any) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("seed %T: %v", v, err)
	}
}

// User seeds a user without any profile.
func User(t testing.TB, db *gorm.DB, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username, Email: username + "@example.com"}
	create(t, db, u)
	return u
}

// Superuser seeds a superuser without any profile.
func Superuser(t testing.TB, db *gorm.DB, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username, IsSuperuser: true}
	create(t, db, u)
	return u
}

// Client seeds a user with a client profile; the returned user has the
// profile attached.
func Client(t testing.TB, db *gorm.DB, username string) (*model.User, *model.Client) {
	t.Helper()
	u := User(t, db, username)
	c := &model.Client{UserID: u.ID}
	create(t, db, c)
	u.Client = c
	return u, c
}

// Provider seeds a service-provider user with its profile.
func Provider(t testing.TB, db *gorm.DB, username, location string) (*model.User, *model.Provider) {
	t.Helper()
	u := &model.User{Username: username, IsServiceProvider: true}
	create(t, db, u)
	p := &model.Provider{UserID: u.ID, Location: location}
	create(t, db, p)
	u.Provider = p
	return u, p
}

func Service(t testing.TB, db *gorm.DB, providerID uuid.UUID, name string, price float64) *model.Service {
	t.Helper()
	s := &model.Service{
		ProviderID: providerID,
		Name:       name,
		Price:      price,
		Category:   model.ServiceCategoryDance,
	}
	create(t, db, s)
	return s
}

func Booking(t testing.TB, db *gorm.DB, clientID, serviceID uuid.UUID, at time.Time, status model.BookingStatus) *model.Booking {
	t.Helper()
	b := &model.Booking{
		ClientID:    clientID,
		ServiceID:   serviceID,
		BookingDate: at.UTC(),
		Status:      status,
	}
	create(t, db, b)
	return b
}

func Count(t testing.TB, db *gorm.DB, m any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	q := db.Model(m)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count %T: %v", m, err)
	}
	return n
}
