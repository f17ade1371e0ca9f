package statemachine

import (
	"fmt"
	"strings"

	"github.com/harmoni/harmoniconnect/internal/apperr"
	"github.com/harmoni/harmoniconnect/internal/model"
)

// Actor is the caller's relationship to a booking.
type Actor string

const (
	ActorClient    Actor = "client"
	ActorProvider  Actor = "provider"
	ActorSuperuser Actor = "superuser"
	ActorNone      Actor = "none"
)

// Transition defines a valid state change and who can perform it.
// Superusers may perform every transition in the table.
type Transition struct {
	From   model.BookingStatus
	To     model.BookingStatus
	Actors []Actor
}

// validTransitions is the authoritative lifecycle definition.
var validTransitions = []Transition{
	{From: model.BookingStatusPending, To: model.BookingStatusConfirmed, Actors: []Actor{ActorClient, ActorProvider}},
	{From: model.BookingStatusConfirmed, To: model.BookingStatusCompleted, Actors: []Actor{ActorProvider}},
}

// cancelActors may remove a booking while it is still pending.
var cancelActors = []Actor{ActorClient}

// Next returns the only status reachable from s.
func Next(s model.BookingStatus) (model.BookingStatus, bool) {
	for _, t := range validTransitions {
		if t.From == s {
			return t.To, true
		}
	}
	return "", false
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s model.BookingStatus) bool {
	_, ok := Next(s)
	return !ok
}

func lookup(to model.BookingStatus) (Transition, bool) {
	for _, t := range validTransitions {
		if t.To == to {
			return t, true
		}
	}
	return Transition{}, false
}

// CanTransition checks actor first and state second, so a stranger gets an
// authorization error even when the booking is in the wrong state.
func CanTransition(from, to model.BookingStatus, actor Actor) error {
	t, ok := lookup(to)
	if !ok {
		return apperr.InvalidTransition(string(from), "", fmt.Sprintf("%s is not a reachable booking status", to))
	}
	if !allowed(t.Actors, actor) {
		return apperr.Forbidden("%s cannot move a booking to %s (allowed: %s)", actor, to, describeActors(t.Actors))
	}
	if from != t.From {
		return apperr.InvalidTransition(
			string(from),
			string(t.From),
			fmt.Sprintf("invalid transition: %s → %s; booking must be %s", from, to, t.From),
		)
	}
	return nil
}

// CanCancel checks whether actor may cancel a booking currently in status s.
func CanCancel(s model.BookingStatus, actor Actor) error {
	if !allowed(cancelActors, actor) {
		return apperr.Forbidden("only the booking's client can cancel it")
	}
	if s != model.BookingStatusPending {
		return apperr.InvalidTransition(
			string(s),
			string(model.BookingStatusPending),
			"only pending bookings can be cancelled",
		)
	}
	return nil
}

func allowed(actors []Actor, actor Actor) bool {
	if actor == ActorSuperuser {
		return true
	}
	for _, a := range actors {
		if a == actor {
			return true
		}
	}
	return false
}

func describeActors(actors []Actor) string {
	parts := make([]string, 0, len(actors)+1)
	for _, a := range actors {
		parts = append(parts, string(a))
	}
	parts = append(parts, string(ActorSuperuser))
	return strings.Join(parts, ", ")
}

// AllTransitions returns the lifecycle table for documentation endpoints.
func AllTransitions() []Transition {
	out := make([]Transition, len(validTransitions))
	copy(out, validTransitions)
	return out
}
