package service

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/harmoni/harmoniconnect/internal/logging"
	"github.com/harmoni/harmoniconnect/internal/model"
	"github.com/harmoni/harmoniconnect/internal/policy"
	"github.com/harmoni/harmoniconnect/internal/repository"
	"github.com/harmoni/harmoniconnect/internal/storetest"
	"github.com/harmoni/harmoniconnect/internal/validation"
)

// marketplace — общий набор данных: клиент alice, исполнители bob и carol,
// суперпользователь root, услуга bob'а.
type marketplace struct {
	db   *gorm.DB
	deps Deps

	alice, bob, carol, root    policy.Identity
	aliceClient                *model.Client
	bobProvider, carolProvider *model.Provider
	bobService                 *model.Service
}

func newMarketplace(t *testing.T) *marketplace {
	t.Helper()

	db := storetest.Open(t)
	repos := repository.New(db)

	aliceUser, aliceClient := storetest.Client(t, db, "alice")
	bobUser, bobProvider := storetest.Provider(t, db, "bob", "Nairobi")
	carolUser, carolProvider := storetest.Provider(t, db, "carol", "Kisumu")
	rootUser := storetest.Superuser(t, db, "root")

	return &marketplace{
		db: db,
		deps: Deps{
			Repos:        repos,
			Validator:    validation.New(repos, nil),
			Logger:       logging.Discard(),
			ReadAttempts: 1,
		},
		alice:         policy.FromUser(aliceUser),
		bob:           policy.FromUser(bobUser),
		carol:         policy.FromUser(carolUser),
		root:          policy.FromUser(rootUser),
		aliceClient:   aliceClient,
		bobProvider:   bobProvider,
		carolProvider: carolProvider,
		bobService:    storetest.Service(t, db, bobProvider.ID, "Salsa night", 150),
	}
}

func future() time.Time { return time.Now().UTC().Add(72 * time.Hour).Truncate(time.Second) }

// booking seeds a booking of bob's service for alice in the given status.
func (m *marketplace) booking(t *testing.T, status model.BookingStatus) *model.Booking {
	t.Helper()
	return storetest.Booking(t, m.db, m.aliceClient.ID, m.bobService.ID, future(), status)
}

func ptr[T any](v T) *T { return &v }
