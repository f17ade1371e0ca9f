package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/harmoni/harmoniconnect/internal/apperr"
	"github.com/harmoni/harmoniconnect/internal/model"
	"github.com/harmoni/harmoniconnect/internal/policy"
	"github.com/harmoni/harmoniconnect/internal/repository"
	"github.com/harmoni/harmoniconnect/internal/statemachine"
	"github.com/harmoni/harmoniconnect/internal/validation"
)

// Deps — общие зависимости сервисов.
type Deps struct {
	Repos     *repository.Repositories
	Validator *validation.Validator
	Logger    *logrus.Logger
	// Now по умолчанию time.Now в UTC.
	Now func() time.Time
	// ReadAttempts — сколько раз повторять идемпотентные чтения.
	ReadAttempts int
}

type base struct {
	repos        *repository.Repositories
	validator    *validation.Validator
	log          *logrus.Logger
	now          func() time.Time
	readAttempts int
}

func newBase(d Deps) base {
	now := d.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	attempts := d.ReadAttempts
	if attempts < 1 {
		attempts = 1
	}
	return base{
		repos:        d.Repos,
		validator:    d.Validator,
		log:          d.Logger,
		now:          now,
		readAttempts: attempts,
	}
}

func read[T any](ctx context.Context, b base, fn func(context.Context) (T, error)) (T, error) {
	return repository.RetryRead(ctx, b.readAttempts, fn)
}

func (b base) loadBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	return read(ctx, b, func(ctx context.Context) (*model.Booking, error) {
		return b.repos.Bookings.GetByID(ctx, id)
	})
}

// actorRef — ссылка на пользователя для аудита; у системной identity её нет.
func actorRef(id policy.Identity) *uuid.UUID {
	if id.UserID == uuid.Nil {
		return nil
	}
	uid := id.UserID
	return &uid
}

func serviceObject(s *model.Service) *policy.Object {
	obj := &policy.Object{}
	if s.Provider != nil {
		obj.OwnerUserID = s.Provider.UserID
	}
	return obj
}

func providerObject(p *model.Provider) *policy.Object {
	return &policy.Object{OwnerUserID: p.UserID}
}

// bookingObject expects Client and Service.Provider to be loaded.
func bookingObject(b *model.Booking) *policy.Object {
	obj := &policy.Object{}
	if b.Client != nil {
		obj.OwnerUserID = b.Client.UserID
	}
	if b.Service != nil && b.Service.Provider != nil {
		obj.ProviderUserID = b.Service.Provider.UserID
	}
	return obj
}

// bookingActor maps the identity onto its role in one booking.
func bookingActor(id policy.Identity, b *model.Booking) statemachine.Actor {
	obj := bookingObject(b)
	switch {
	case id.Authenticated && id.IsSuperuser:
		return statemachine.ActorSuperuser
	case !id.Authenticated || id.UserID == uuid.Nil:
		return statemachine.ActorNone
	case obj.OwnerUserID == id.UserID:
		return statemachine.ActorClient
	case obj.ProviderUserID == id.UserID:
		return statemachine.ActorProvider
	default:
		return statemachine.ActorNone
	}
}

// requireConfirmed — отзыв, оплата и детали мероприятия доступны только
// после подтверждения бронирования.
func requireConfirmed(b *model.Booking, action string) error {
	if b.Status.AtLeast(model.BookingStatusConfirmed) {
		return nil
	}
	return apperr.Precondition(string(b.Status), string(model.BookingStatusConfirmed),
		action+" requires a confirmed booking")
}
