package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/harmoni/harmoniconnect/internal/apperr"
	"github.com/harmoni/harmoniconnect/internal/model"
	"github.com/harmoni/harmoniconnect/internal/pagination"
	"github.com/harmoni/harmoniconnect/internal/policy"
	"github.com/harmoni/harmoniconnect/internal/storetest"
	"github.com/harmoni/harmoniconnect/internal/validation"
)

func TestIdentityService_Resolve(t *testing.T) {
	m := newMarketplace(t)
	svc := NewIdentityService(m.deps)

	id, err := svc.Resolve(context.Background(), m.bob.UserID)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if id.ProviderID == nil || *id.ProviderID != m.bobProvider.ID || !id.IsServiceProvider {
		t.Fatalf("unexpected identity %+v", id)
	}

	if _, err := svc.Resolve(context.Background(), uuid.New()); !errors.Is(err, policy.ErrUserNotFound) {
		t.Fatalf("unknown user: want ErrUserNotFound, got %v", err)
	}
}

func TestIdentityService_CreateUser_SuperuserOnly(t *testing.T) {
	m := newMarketplace(t)
	svc := NewIdentityService(m.deps)
	ctx := context.Background()
	in := validation.UserInput{Username: "erin", ContactPhone: "+254 (712) 345-678"}

	if _, err := svc.CreateUser(ctx, m.alice, in); !apperr.IsKind(err, apperr.KindAuthorization) {
		t.Fatalf("client create user: want authorization error, got %v", err)
	}
	u, err := svc.CreateUser(ctx, m.root, in)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ContactPhone != "+254712345678" {
		t.Fatalf("phone = %q, want normalized", u.ContactPhone)
	}

	_, err = svc.CreateUser(ctx, m.root, in)
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Code != apperr.CodeDuplicate {
		t.Fatalf("duplicate username: want conflict duplicate, got %v", err)
	}

	if _, err := svc.CreateUser(ctx, m.root, validation.UserInput{Username: "x", Email: "nope"}); !apperr.IsValidation(err) {
		t.Fatalf("bad email: want validation error, got %v", err)
	}
}

func TestIdentityService_UpdateUser(t *testing.T) {
	m := newMarketplace(t)
	svc := NewIdentityService(m.deps)
	ctx := context.Background()

	if _, err := svc.UpdateUser(ctx, m.bob, m.alice.UserID, validation.UserPatch{Email: ptr("x@example.com")}); !apperr.IsKind(err, apperr.KindAuthorization) {
		t.Fatalf("foreign update: want authorization error, got %v", err)
	}

	u, err := svc.UpdateUser(ctx, m.alice, m.alice.UserID, validation.UserPatch{Email: ptr("alice@harmoni.test")})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if u.Email != "alice@harmoni.test" {
		t.Fatalf("email = %q", u.Email)
	}

	// профиль уже есть: флаг заморожен
	_, err = svc.UpdateUser(ctx, m.alice, m.alice.UserID, validation.UserPatch{IsServiceProvider: ptr(true)})
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Code != apperr.CodeImmutable {
		t.Fatalf("flag change with profile: want conflict immutable, got %v", err)
	}

	dave := storetest.User(t, m.db, "dave")
	u, err = svc.UpdateUser(ctx, policy.FromUser(dave), dave.ID, validation.UserPatch{IsServiceProvider: ptr(true)})
	if err != nil {
		t.Fatalf("flag change without profile: %v", err)
	}
	if !u.IsServiceProvider {
		t.Fatalf("flag not stored")
	}
}

func TestIdentityService_FlagChangeRacesClientRegistration(t *testing.T) {
	m := newMarketplace(t)
	svc := NewIdentityService(m.deps)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		u := storetest.User(t, m.db, fmt.Sprintf("racer%d", i))
		id := policy.FromUser(u)

		var (
			wg                     sync.WaitGroup
			updateErr, registerErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, updateErr = svc.UpdateUser(ctx, id, u.ID, validation.UserPatch{IsServiceProvider: ptr(true)})
		}()
		go func() {
			defer wg.Done()
			_, registerErr = svc.RegisterClient(ctx, id)
		}()
		wg.Wait()

		if (updateErr == nil) == (registerErr == nil) {
			t.Fatalf("%s: want exactly one winner, update=%v register=%v", u.Username, updateErr, registerErr)
		}
		for _, err := range []error{updateErr, registerErr} {
			if err != nil && !apperr.IsKind(err, apperr.KindConflict) {
				t.Fatalf("%s: loser must get a conflict, got %v", u.Username, err)
			}
		}

		got, err := m.deps.Repos.Users.GetByID(ctx, u.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got.IsServiceProvider && got.Client != nil {
			t.Fatalf("%s: flagged as provider while holding a client profile", u.Username)
		}
	}
}

func TestIdentityService_RegisterClient(t *testing.T) {
	m := newMarketplace(t)
	svc := NewIdentityService(m.deps)
	ctx := context.Background()

	var ae *apperr.Error
	if _, err := svc.RegisterClient(ctx, m.alice); !errors.As(err, &ae) || ae.Code != apperr.CodeDuplicate {
		t.Fatalf("second client profile: want duplicate, got %v", err)
	}
	if _, err := svc.RegisterClient(ctx, m.bob); !errors.As(err, &ae) || ae.Code != apperr.CodeRoleConflict {
		t.Fatalf("provider as client: want role conflict, got %v", err)
	}
	if _, err := svc.RegisterClient(ctx, policy.Anonymous()); !apperr.IsKind(err, apperr.KindAuthorization) {
		t.Fatalf("anonymous: want authorization error, got %v", err)
	}

	frank := storetest.User(t, m.db, "frank")
	c, err := svc.RegisterClient(ctx, policy.FromUser(frank))
	if err != nil {
		t.Fatalf("RegisterClient: %v", err)
	}
	if c.UserID != frank.ID {
		t.Fatalf("client bound to %s", c.UserID)
	}

	me, err := svc.Me(ctx, policy.FromUser(frank))
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if me.Role().Kind != model.RoleClient {
		t.Fatalf("role = %s, want client", me.Role().Kind)
	}
}

func TestIdentityService_DeleteUser_Cascades(t *testing.T) {
	m := newMarketplace(t)
	svc := NewIdentityService(m.deps)
	ctx := context.Background()

	b := m.booking(t, model.BookingStatusCompleted)
	if _, err := NewReviewService(m.deps).Create(ctx, m.alice, validation.ReviewInput{
		Booking: b.ID.String(), Rating: ptr(5), Comment: "wow",
	}); err != nil {
		t.Fatalf("seed review: %v", err)
	}

	if err := svc.DeleteUser(ctx, m.bob, m.alice.UserID); !apperr.IsKind(err, apperr.KindAuthorization) {
		t.Fatalf("non-superuser delete: want authorization error, got %v", err)
	}
	if err := svc.DeleteUser(ctx, m.root, m.bob.UserID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	checks := []struct {
		model any
		query string
		args  []any
	}{
		{&model.User{}, "id = ?", []any{m.bob.UserID}},
		{&model.Provider{}, "id = ?", []any{m.bobProvider.ID}},
		{&model.Service{}, "provider_id = ?", []any{m.bobProvider.ID}},
		{&model.Booking{}, "id = ?", []any{b.ID}},
		{&model.Review{}, "booking_id = ?", []any{b.ID}},
	}
	for _, c := range checks {
		if n := storetest.Count(t, m.db, c.model, c.query, c.args...); n != 0 {
			t.Fatalf("%T rows left after delete: %d", c.model, n)
		}
	}

	// клиент alice остаётся
	page, err := svc.ListUsers(ctx, m.alice, pagination.Params{})
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if page.Total != 3 {
		t.Fatalf("users = %d, want alice, carol and root", page.Total)
	}
}
