package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/harmoni/harmoniconnect/internal/apperr"
	"github.com/harmoni/harmoniconnect/internal/model"
	"github.com/harmoni/harmoniconnect/internal/policy"
	"github.com/harmoni/harmoniconnect/internal/repository"
	"github.com/harmoni/harmoniconnect/internal/validation"
)

// EventDetailsService — детали мероприятия, по одной записи на бронирование.
type EventDetailsService struct {
	base
}

func NewEventDetailsService(d Deps) *EventDetailsService {
	return &EventDetailsService{base: newBase(d)}
}

func duplicateDetails(bookingID uuid.UUID) error {
	return apperr.Conflict(apperr.CodeDuplicate, "event details already exist for booking %s", bookingID).
		WithDetail("booking", bookingID.String())
}

// Attach records event details for a confirmed booking of the caller.
func (s *EventDetailsService) Attach(
	ctx context.Context,
	id policy.Identity,
	bookingID uuid.UUID,
	in validation.EventDetailsInput,
) (*model.EventDetails, error) {
	if err := policy.Precheck(id, policy.ActionCreate, policy.KindEventDetails); err != nil {
		return nil, err
	}

	b, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(id, policy.ActionCreate, policy.KindEventDetails, bookingObject(b)); err != nil {
		return nil, err
	}
	if err := requireConfirmed(b, "event details"); err != nil {
		return nil, err
	}
	vals, err := s.validator.EventDetailsCreate(in, b.BookingDate)
	if err != nil {
		return nil, err
	}

	details := &model.EventDetails{
		BookingID: b.ID,
		EventType: strings.TrimSpace(vals.EventType),
		Location:  strings.TrimSpace(vals.Location),
		EventDate: vals.EventDate,
	}
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if _, err := tx.EventDetails.GetByBookingID(ctx, b.ID); err == nil {
			return duplicateDetails(b.ID)
		} else if !apperr.IsKind(err, apperr.KindNotFound) {
			return err
		}
		if err := tx.EventDetails.Create(ctx, details); err != nil {
			return err
		}
		return tx.Events.Record(ctx, model.EventTypeEventDetailsAttached, actorRef(id), &b.ID, map[string]any{
			"event_type": details.EventType,
			"event_date": details.EventDate,
		})
	})
	if err != nil {
		if isDuplicate(err) {
			return nil, duplicateDetails(b.ID)
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"booking_id": b.ID,
		"event_date": details.EventDate,
	}).Info("event details attached")

	return s.load(ctx, b.ID)
}

func (s *EventDetailsService) load(ctx context.Context, bookingID uuid.UUID) (*model.EventDetails, error) {
	return read(ctx, s.base, func(ctx context.Context) (*model.EventDetails, error) {
		return s.repos.EventDetails.GetByBookingID(ctx, bookingID)
	})
}

func (s *EventDetailsService) Get(ctx context.Context, id policy.Identity, bookingID uuid.UUID) (*model.EventDetails, error) {
	if err := policy.Precheck(id, policy.ActionRetrieve, policy.KindEventDetails); err != nil {
		return nil, err
	}

	b, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(id, policy.ActionRetrieve, policy.KindEventDetails, bookingObject(b)); err != nil {
		return nil, err
	}
	return s.load(ctx, b.ID)
}

func (s *EventDetailsService) Update(
	ctx context.Context,
	id policy.Identity,
	bookingID uuid.UUID,
	in validation.EventDetailsPatch,
) (*model.EventDetails, error) {
	if err := policy.Precheck(id, policy.ActionUpdate, policy.KindEventDetails); err != nil {
		return nil, err
	}

	b, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(id, policy.ActionUpdate, policy.KindEventDetails, bookingObject(b)); err != nil {
		return nil, err
	}
	details, err := s.load(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	eventDate, err := s.validator.EventDetailsUpdate(in, b.BookingDate)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.EventType != nil {
		fields["event_type"] = strings.TrimSpace(*in.EventType)
	}
	if in.Location != nil {
		fields["location"] = strings.TrimSpace(*in.Location)
	}
	if eventDate != nil {
		fields["event_date"] = *eventDate
	}
	if len(fields) == 0 {
		return details, nil
	}

	if err := s.repos.EventDetails.Update(ctx, details.ID, fields); err != nil {
		return nil, err
	}
	return s.load(ctx, b.ID)
}
