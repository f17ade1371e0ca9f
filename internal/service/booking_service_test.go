package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/harmoni/harmoniconnect/internal/apperr"
	"github.com/harmoni/harmoniconnect/internal/model"
	"github.com/harmoni/harmoniconnect/internal/pagination"
	"github.com/harmoni/harmoniconnect/internal/policy"
	"github.com/harmoni/harmoniconnect/internal/storetest"
	"github.com/harmoni/harmoniconnect/internal/validation"
)

func TestBookingService_Create_EmbedsServiceAndProvider(t *testing.T) {
	m := newMarketplace(t)
	svc := NewBookingService(m.deps)
	at := future()

	b, err := svc.Create(context.Background(), m.alice, validation.BookingInput{
		Service:     m.bobService.ID.String(),
		BookingDate: at.Format(time.RFC3339Nano),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.Status != model.BookingStatusPending {
		t.Fatalf("status = %s, want pending", b.Status)
	}
	if b.ClientID != m.aliceClient.ID {
		t.Fatalf("booking bound to client %s, want %s", b.ClientID, m.aliceClient.ID)
	}
	if b.Service == nil || b.Service.Provider == nil || b.Service.Provider.Location != "Nairobi" {
		t.Fatalf("service/provider not embedded: %+v", b.Service)
	}

	if n := storetest.Count(t, m.db, &model.Event{}, "event_type = ? AND booking_id = ?", model.EventTypeBookingCreated, b.ID); n != 1 {
		t.Fatalf("booking_created events = %d, want 1", n)
	}
}

func TestBookingService_Create_PastDate(t *testing.T) {
	m := newMarketplace(t)
	past := time.Now().UTC().Add(-24 * time.Hour)

	_, err := NewBookingService(m.deps).Create(context.Background(), m.alice, validation.BookingInput{
		Service:     m.bobService.ID.String(),
		BookingDate: past.Format(time.RFC3339Nano),
	})
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Kind != apperr.KindValidation {
		t.Fatalf("want validation error, got %v", err)
	}
	if _, ok := ae.Fields["booking_date"]; !ok {
		t.Fatalf("booking_date not reported: %v", ae.Fields)
	}
	if n := storetest.Count(t, m.db, &model.Booking{}, ""); n != 0 {
		t.Fatalf("bookings = %d, want 0", n)
	}
}

func TestBookingService_Create_WithoutClientProfile(t *testing.T) {
	m := newMarketplace(t)
	at := future()

	// у bob'а профиль исполнителя, клиентского нет
	_, err := NewBookingService(m.deps).Create(context.Background(), m.bob, validation.BookingInput{
		Service:     m.bobService.ID.String(),
		BookingDate: at.Format(time.RFC3339Nano),
	})
	if !apperr.IsValidation(err) {
		t.Fatalf("want validation error, got %v", err)
	}

	_, err = NewBookingService(m.deps).Create(context.Background(), policy.Anonymous(), validation.BookingInput{})
	if !apperr.IsKind(err, apperr.KindAuthorization) {
		t.Fatalf("anonymous create: want authorization error, got %v", err)
	}
}

func TestBookingService_ConfirmThenComplete(t *testing.T) {
	m := newMarketplace(t)
	svc := NewBookingService(m.deps)
	ctx := context.Background()
	b := m.booking(t, model.BookingStatusPending)

	// клиент не может завершить бронирование
	if _, err := svc.Complete(ctx, m.alice, b.ID); !apperr.IsKind(err, apperr.KindAuthorization) {
		t.Fatalf("client complete: want authorization error, got %v", err)
	}

	// исполнитель не может завершить неподтверждённое
	_, err := svc.Complete(ctx, m.bob, b.ID)
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Code != apperr.CodeInvalidTransition {
		t.Fatalf("complete pending: want invalid transition, got %v", err)
	}
	if ae.Current != "pending" || ae.Required != "confirmed" {
		t.Fatalf("conflict current/required = %q/%q", ae.Current, ae.Required)
	}

	confirmed, err := svc.Confirm(ctx, m.alice, b.ID)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if confirmed.Status != model.BookingStatusConfirmed || confirmed.Version != 2 {
		t.Fatalf("after confirm: %s v%d", confirmed.Status, confirmed.Version)
	}

	if _, err := svc.Confirm(ctx, m.bob, b.ID); !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("second confirm: want conflict, got %v", err)
	}

	done, err := svc.UpdateStatus(ctx, m.bob, b.ID, validation.BookingStatusPatch{Status: "completed"})
	if err != nil {
		t.Fatalf("UpdateStatus completed: %v", err)
	}
	if done.Status != model.BookingStatusCompleted {
		t.Fatalf("status = %s, want completed", done.Status)
	}

	events, err := m.deps.Repos.Events.ListByBooking(ctx, b.ID)
	if err != nil {
		t.Fatalf("ListByBooking: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want confirm + complete", len(events))
	}
}

func TestBookingService_StrangerCannotConfirm(t *testing.T) {
	m := newMarketplace(t)
	b := m.booking(t, model.BookingStatusCompleted)

	// проверка прав раньше проверки состояния
	_, err := NewBookingService(m.deps).Confirm(context.Background(), m.carol, b.ID)
	if !apperr.IsKind(err, apperr.KindAuthorization) {
		t.Fatalf("want authorization error, got %v", err)
	}
}

func TestBookingService_ConcurrentConfirm_ExactlyOneWins(t *testing.T) {
	m := newMarketplace(t)
	svc := NewBookingService(m.deps)
	b := m.booking(t, model.BookingStatusPending)

	var (
		wg   sync.WaitGroup
		errs = make([]error, 2)
	)
	for i, id := range []policy.Identity{m.alice, m.bob} {
		wg.Add(1)
		go func(i int, id policy.Identity) {
			defer wg.Done()
			_, errs[i] = svc.Confirm(context.Background(), id, b.ID)
		}(i, id)
	}
	wg.Wait()

	ok, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case apperr.IsKind(err, apperr.KindConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflicts != 1 {
		t.Fatalf("ok=%d conflicts=%d, want 1/1", ok, conflicts)
	}

	stored, err := m.deps.Repos.Bookings.GetByID(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Version != 2 {
		t.Fatalf("version = %d, want 2", stored.Version)
	}
}

func TestBookingService_Cancel(t *testing.T) {
	m := newMarketplace(t)
	svc := NewBookingService(m.deps)
	ctx := context.Background()

	pending := m.booking(t, model.BookingStatusPending)
	confirmed := m.booking(t, model.BookingStatusConfirmed)

	if err := svc.Cancel(ctx, m.bob, pending.ID); !apperr.IsKind(err, apperr.KindAuthorization) {
		t.Fatalf("provider cancel: want authorization error, got %v", err)
	}
	if err := svc.Cancel(ctx, m.alice, confirmed.ID); !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("cancel confirmed: want conflict, got %v", err)
	}
	if err := svc.Cancel(ctx, m.alice, pending.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	if _, err := svc.Get(ctx, m.alice, pending.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("cancelled booking must be gone, got %v", err)
	}
	if n := storetest.Count(t, m.db, &model.Event{}, "event_type = ?", model.EventTypeBookingCancelled); n != 1 {
		t.Fatalf("booking_cancelled events = %d, want 1", n)
	}
}

func TestBookingService_List_Scoped(t *testing.T) {
	m := newMarketplace(t)
	svc := NewBookingService(m.deps)
	ctx := context.Background()

	m.booking(t, model.BookingStatusPending)
	m.booking(t, model.BookingStatusConfirmed)

	cases := []struct {
		name string
		id   policy.Identity
		want int64
	}{
		{"client sees own", m.alice, 2},
		{"provider sees received", m.bob, 2},
		{"other provider sees none", m.carol, 0},
		{"superuser sees all", m.root, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := svc.List(ctx, tc.id, BookingListFilter{}, pagination.Params{})
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if page.Total != tc.want {
				t.Fatalf("count = %d, want %d", page.Total, tc.want)
			}
		})
	}

	status := model.BookingStatusConfirmed
	page, err := svc.List(ctx, m.alice, BookingListFilter{Status: &status}, pagination.Params{})
	if err != nil {
		t.Fatalf("List filtered: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("filtered count = %d, want 1", page.Total)
	}
}

func TestBookingService_ExpireStale(t *testing.T) {
	m := newMarketplace(t)
	past := time.Now().UTC().Add(-48 * time.Hour)

	stale := storetest.Booking(t, m.db, m.aliceClient.ID, m.bobService.ID, past, model.BookingStatusPending)
	storetest.Booking(t, m.db, m.aliceClient.ID, m.bobService.ID, past, model.BookingStatusConfirmed)
	fresh := m.booking(t, model.BookingStatusPending)

	n, err := NewBookingService(m.deps).ExpireStale(context.Background(), 50)
	if err != nil {
		t.Fatalf("ExpireStale: %v", err)
	}
	if n != 1 {
		t.Fatalf("expired = %d, want 1", n)
	}
	if c := storetest.Count(t, m.db, &model.Booking{}, "id = ?", stale.ID); c != 0 {
		t.Fatalf("stale booking still present")
	}
	if c := storetest.Count(t, m.db, &model.Booking{}, "id = ?", fresh.ID); c != 1 {
		t.Fatalf("future booking must survive")
	}
}
