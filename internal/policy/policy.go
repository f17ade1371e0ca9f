// Package policy decides whether an identity may perform an action on a
// resource kind, optionally against a concrete object. Decisions are pure
// and come from a single declarative table.
package policy

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/harmoni/harmoniconnect/internal/apperr"
)

type Action string

const (
	ActionList     Action = "list"
	ActionRetrieve Action = "retrieve"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
)

type Kind string

const (
	KindService         Kind = "service"
	KindServiceProvider Kind = "service_provider"
	KindBooking         Kind = "booking"
	KindReview          Kind = "review"
	KindPayment         Kind = "payment"
	KindEventDetails    Kind = "event_details"
	KindUser            Kind = "user"
	KindClient          Kind = "client"
)

// Identity — кто выполняет запрос. Передаётся явно в каждый вызов.
type Identity struct {
	UserID        uuid.UUID
	Authenticated bool

	IsSuperuser       bool
	IsServiceProvider bool

	// Профили, если есть. У пользователя не больше одного.
	ClientID   *uuid.UUID
	ProviderID *uuid.UUID
}

func Anonymous() Identity { return Identity{} }

// System is the identity background jobs act under.
func System() Identity {
	return Identity{Authenticated: true, IsSuperuser: true}
}

func (id Identity) HasClientProfile() bool   { return id.ClientID != nil }
func (id Identity) HasProviderProfile() bool { return id.ProviderID != nil }

func (id Identity) String() string {
	switch {
	case !id.Authenticated:
		return "anonymous"
	case id.IsSuperuser:
		return fmt.Sprintf("superuser %s", id.UserID)
	default:
		return fmt.Sprintf("user %s", id.UserID)
	}
}

// Object carries the ownership facts of a concrete resource.
//
// OwnerUserID is the user that owns the object: the provider's user for
// services and provider profiles, the client's user for bookings and
// everything attached to a booking, the user itself for users.
// ProviderUserID is the user behind the provider of a booked service.
type Object struct {
	OwnerUserID    uuid.UUID
	ProviderUserID uuid.UUID
}

type rule func(id Identity, obj *Object) bool

func public(Identity, *Object) bool { return true }

func authenticated(id Identity, _ *Object) bool { return id.Authenticated }

func deny(Identity, *Object) bool { return false }

func owner(id Identity, obj *Object) bool {
	return id.Authenticated && obj != nil && obj.OwnerUserID == id.UserID
}

func ownerOrProvider(id Identity, obj *Object) bool {
	return owner(id, obj) || (id.Authenticated && obj != nil && obj.ProviderUserID == id.UserID)
}

// providerCreate allows a provider to create; when the target owner is known
// it must be the provider itself.
func providerCreate(id Identity, obj *Object) bool {
	if !id.Authenticated || !id.IsServiceProvider {
		return false
	}
	return obj == nil || obj.OwnerUserID == id.UserID
}

func providerOwner(id Identity, obj *Object) bool {
	return id.IsServiceProvider && owner(id, obj)
}

// rules maps every resource/action pair to exactly one rule. Missing pairs
// are denied. Superusers bypass the table.
var rules = map[Kind]map[Action]rule{
	KindService: {
		ActionList:     authenticated,
		ActionRetrieve: authenticated,
		ActionCreate:   providerCreate,
		ActionUpdate:   providerOwner,
		ActionDelete:   providerOwner,
	},
	KindServiceProvider: {
		ActionList:     public,
		ActionRetrieve: public,
		ActionCreate:   providerCreate,
		ActionUpdate:   providerOwner,
		ActionDelete:   providerOwner,
	},
	KindBooking: {
		ActionList:     authenticated,
		ActionRetrieve: authenticated,
		ActionCreate:   authenticated,
		ActionUpdate:   ownerOrProvider,
		ActionDelete:   ownerOrProvider,
	},
	KindReview: {
		ActionList:     authenticated,
		ActionRetrieve: authenticated,
		ActionCreate:   owner,
		ActionUpdate:   owner,
		ActionDelete:   deny,
	},
	KindPayment: {
		ActionRetrieve: ownerOrProvider,
		ActionCreate:   owner,
	},
	KindEventDetails: {
		ActionRetrieve: ownerOrProvider,
		ActionCreate:   owner,
		ActionUpdate:   owner,
	},
	KindUser: {
		ActionList:     authenticated,
		ActionRetrieve: authenticated,
		ActionCreate:   deny,
		ActionUpdate:   owner,
		ActionDelete:   deny,
	},
	KindClient: {
		ActionRetrieve: authenticated,
		ActionCreate:   owner,
	},
}

// Authorize returns nil when id may perform action on kind. obj is nil for
// collection-level checks. Denials are *apperr.Error of kind authorization.
func Authorize(id Identity, action Action, kind Kind, obj *Object) error {
	if id.Authenticated && id.IsSuperuser {
		return nil
	}

	if r, ok := rules[kind][action]; ok && r(id, obj) {
		return nil
	}

	if !id.Authenticated {
		return apperr.Unauthenticated("authentication credentials were not provided")
	}
	return apperr.Forbidden("%s may not %s %s", id, action, kind)
}

// Precheck is the collection-level gate for object actions: it passes when id
// could perform action on an object it owns itself. Callers still run
// Authorize with the real object once it is loaded.
func Precheck(id Identity, action Action, kind Kind) error {
	return Authorize(id, action, kind, &Object{OwnerUserID: id.UserID, ProviderUserID: id.UserID})
}

// Allowed is the boolean form of Authorize.
func Allowed(id Identity, action Action, kind Kind, obj *Object) bool {
	return Authorize(id, action, kind, obj) == nil
}
