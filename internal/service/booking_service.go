package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/harmoni/harmoniconnect/internal/apperr"
	"github.com/harmoni/harmoniconnect/internal/model"
	"github.com/harmoni/harmoniconnect/internal/pagination"
	"github.com/harmoni/harmoniconnect/internal/policy"
	"github.com/harmoni/harmoniconnect/internal/repository"
	"github.com/harmoni/harmoniconnect/internal/statemachine"
	"github.com/harmoni/harmoniconnect/internal/validation"
)

// BookingService — единственная точка изменения статуса бронирования.
// Каждая операция выполняется одной транзакцией: авторизация, проверка
// перехода, условный UPDATE и запись аудита либо фиксируются вместе,
// либо откатываются.
type BookingService struct {
	base
}

func NewBookingService(d Deps) *BookingService {
	return &BookingService{base: newBase(d)}
}

type BookingListFilter struct {
	Status    *model.BookingStatus
	ServiceID *uuid.UUID
}

// Create books a service for the acting client. New bookings start pending.
func (s *BookingService) Create(ctx context.Context, id policy.Identity, in validation.BookingInput) (*model.Booking, error) {
	if err := policy.Authorize(id, policy.ActionCreate, policy.KindBooking, nil); err != nil {
		return nil, err
	}

	vals, err := s.validator.BookingCreate(ctx, id.ClientID, in)
	if err != nil {
		return nil, err
	}

	booking := &model.Booking{
		ClientID:    vals.ClientID,
		ServiceID:   vals.ServiceID,
		BookingDate: vals.BookingDate,
		Status:      model.BookingStatusPending,
	}

	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Bookings.Create(ctx, booking); err != nil {
			return err
		}
		return tx.Events.Record(ctx, model.EventTypeBookingCreated, actorRef(id), &booking.ID, map[string]any{
			"service_id":   booking.ServiceID,
			"booking_date": booking.BookingDate,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"client_id":  booking.ClientID,
		"service_id": booking.ServiceID,
	}).Info("booking created")

	return s.loadBooking(ctx, booking.ID)
}

func (s *BookingService) Get(ctx context.Context, id policy.Identity, bookingID uuid.UUID) (*model.Booking, error) {
	if err := policy.Authorize(id, policy.ActionRetrieve, policy.KindBooking, nil); err != nil {
		return nil, err
	}
	return s.loadBooking(ctx, bookingID)
}

// List returns every booking to superusers; everyone else sees the bookings
// they made as a client or received as a provider.
func (s *BookingService) List(
	ctx context.Context,
	id policy.Identity,
	f BookingListFilter,
	p pagination.Params,
) (pagination.Page[model.Booking], error) {
	if err := policy.Authorize(id, policy.ActionList, policy.KindBooking, nil); err != nil {
		return pagination.Page[model.Booking]{}, err
	}

	filter := repository.BookingFilter{Status: f.Status, ServiceID: f.ServiceID}
	if !id.IsSuperuser {
		filter.Scoped = true
		filter.ClientID = id.ClientID
		filter.ProviderID = id.ProviderID
	}

	type result struct {
		items []model.Booking
		total int64
	}
	res, err := read(ctx, s.base, func(ctx context.Context) (result, error) {
		items, total, err := s.repos.Bookings.List(ctx, filter, p)
		return result{items, total}, err
	})
	if err != nil {
		return pagination.Page[model.Booking]{}, err
	}
	return pagination.New(res.items, res.total, p), nil
}

func (s *BookingService) Confirm(ctx context.Context, id policy.Identity, bookingID uuid.UUID) (*model.Booking, error) {
	return s.transition(ctx, id, bookingID, model.BookingStatusConfirmed)
}

func (s *BookingService) Complete(ctx context.Context, id policy.Identity, bookingID uuid.UUID) (*model.Booking, error) {
	return s.transition(ctx, id, bookingID, model.BookingStatusCompleted)
}

// UpdateStatus dispatches a status patch to Confirm or Complete.
func (s *BookingService) UpdateStatus(
	ctx context.Context,
	id policy.Identity,
	bookingID uuid.UUID,
	in validation.BookingStatusPatch,
) (*model.Booking, error) {
	if err := policy.Precheck(id, policy.ActionUpdate, policy.KindBooking); err != nil {
		return nil, err
	}
	to, err := s.validator.BookingStatus(in)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, id, bookingID, to)
}

var transitionEvents = map[model.BookingStatus]model.EventType{
	model.BookingStatusConfirmed: model.EventTypeBookingConfirmed,
	model.BookingStatusCompleted: model.EventTypeBookingCompleted,
}

func (s *BookingService) transition(
	ctx context.Context,
	id policy.Identity,
	bookingID uuid.UUID,
	to model.BookingStatus,
) (*model.Booking, error) {
	var (
		from  model.BookingStatus
		actor statemachine.Actor
	)

	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		b, err := tx.Bookings.GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := policy.Authorize(id, policy.ActionUpdate, policy.KindBooking, bookingObject(b)); err != nil {
			return err
		}

		from = b.Status
		actor = bookingActor(id, b)
		if err := statemachine.CanTransition(from, to, actor); err != nil {
			return err
		}

		// условный UPDATE по версии: второй писатель получит конфликт
		if err := tx.Bookings.TransitionStatus(ctx, b, to); err != nil {
			return err
		}
		return tx.Events.Record(ctx, transitionEvents[to], actorRef(id), &b.ID, map[string]any{
			"from":  from,
			"to":    to,
			"actor": actor,
		})
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"booking_id": bookingID,
			"to":         to,
			"kind":       apperr.KindOf(err),
		}).WithError(err).Debug("booking transition rejected")
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"booking_id": bookingID,
		"from":       from,
		"to":         to,
		"actor":      actor,
	}).Info("booking status changed")

	return s.loadBooking(ctx, bookingID)
}

// Cancel removes a pending booking together with anything attached to it.
func (s *BookingService) Cancel(ctx context.Context, id policy.Identity, bookingID uuid.UUID) error {
	var actor statemachine.Actor

	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		b, err := tx.Bookings.GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := policy.Authorize(id, policy.ActionDelete, policy.KindBooking, bookingObject(b)); err != nil {
			return err
		}

		actor = bookingActor(id, b)
		if err := statemachine.CanCancel(b.Status, actor); err != nil {
			return err
		}

		if err := tx.PurgeBookings(ctx, []uuid.UUID{b.ID}); err != nil {
			return err
		}
		// бронирования больше нет, поэтому id только в деталях
		return tx.Events.Record(ctx, model.EventTypeBookingCancelled, actorRef(id), nil, map[string]any{
			"booking_id":   b.ID,
			"service_id":   b.ServiceID,
			"client_id":    b.ClientID,
			"booking_date": b.BookingDate,
			"actor":        actor,
		})
	})
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"booking_id": bookingID,
		"actor":      actor,
	}).Info("booking cancelled")
	return nil
}

// ExpireStale cancels pending bookings whose date has already passed. It
// acts as the system identity and skips bookings that moved on meanwhile.
func (s *BookingService) ExpireStale(ctx context.Context, batch int) (int, error) {
	stale, err := read(ctx, s.base, func(ctx context.Context) ([]model.Booking, error) {
		return s.repos.Bookings.ListPendingBefore(ctx, s.now(), batch)
	})
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, b := range stale {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		err := s.Cancel(ctx, policy.System(), b.ID)
		switch {
		case err == nil:
			expired++
		case apperr.IsKind(err, apperr.KindConflict), apperr.IsKind(err, apperr.KindNotFound):
			// уже подтверждено или удалено параллельно
		default:
			return expired, err
		}
	}

	if expired > 0 {
		s.log.WithFields(logrus.Fields{
			"expired": expired,
			"checked": len(stale),
		}).Info("stale pending bookings cancelled")
	}
	return expired, nil
}
