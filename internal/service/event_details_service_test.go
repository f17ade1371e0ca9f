package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harmoni/harmoniconnect/internal/apperr"
	"github.com/harmoni/harmoniconnect/internal/model"
	"github.com/harmoni/harmoniconnect/internal/validation"
)

func TestEventDetailsService_AttachAndUpdate(t *testing.T) {
	m := newMarketplace(t)
	svc := NewEventDetailsService(m.deps)
	ctx := context.Background()
	b := m.booking(t, model.BookingStatusConfirmed)

	before := b.BookingDate.Add(-time.Hour)
	_, err := svc.Attach(ctx, m.alice, b.ID, validation.EventDetailsInput{
		EventType: "Wedding",
		Location:  "Naivasha",
		EventDate: before.Format(time.RFC3339Nano),
	})
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Kind != apperr.KindValidation {
		t.Fatalf("event before booking: want validation error, got %v", err)
	}
	if _, ok := ae.Fields["event_date"]; !ok {
		t.Fatalf("event_date not reported: %v", ae.Fields)
	}

	at := b.BookingDate.Add(2 * time.Hour)
	in := validation.EventDetailsInput{EventType: "Wedding", Location: "Naivasha", EventDate: at.Format(time.RFC3339Nano)}

	if _, err := svc.Attach(ctx, m.bob, b.ID, in); !apperr.IsKind(err, apperr.KindAuthorization) {
		t.Fatalf("provider attach: want authorization error, got %v", err)
	}

	d, err := svc.Attach(ctx, m.alice, b.ID, in)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if d.Location != "Naivasha" || !d.EventDate.Equal(at) {
		t.Fatalf("unexpected details %+v", d)
	}

	if _, err := svc.Attach(ctx, m.alice, b.ID, in); !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("second attach: want conflict, got %v", err)
	}

	d, err = svc.Update(ctx, m.alice, b.ID, validation.EventDetailsPatch{Location: ptr("Nanyuki")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if d.Location != "Nanyuki" {
		t.Fatalf("location = %q", d.Location)
	}

	if _, err := svc.Get(ctx, m.bob, b.ID); err != nil {
		t.Fatalf("provider Get: %v", err)
	}
}

func TestEventDetailsService_RequiresConfirmedBooking(t *testing.T) {
	m := newMarketplace(t)
	b := m.booking(t, model.BookingStatusPending)
	at := b.BookingDate

	_, err := NewEventDetailsService(m.deps).Attach(context.Background(), m.alice, b.ID, validation.EventDetailsInput{
		EventType: "Birthday",
		Location:  "Thika",
		EventDate: at.Format(time.RFC3339Nano),
	})
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Code != apperr.CodePreconditionFailed {
		t.Fatalf("want precondition failure, got %v", err)
	}
}
