package validation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/harmoni/harmoniconnect/internal/apperr"
	"github.com/harmoni/harmoniconnect/internal/model"
)

// ---------- services ----------

type ServiceInput struct {
	Provider    string   `json:"provider" validate:"required"`
	Name        string   `json:"name" validate:"required,max=255"`
	Description string   `json:"description"`
	Price       *float64 `json:"price" validate:"required,gt=0,decimal=10.2"`
	Category    string   `json:"category" validate:"required,oneof=Dance Music MC"`
}

type ServiceValues struct {
	ProviderID  uuid.UUID
	Name        string
	Description string
	Price       float64
	Category    model.ServiceCategory
}

type ServicePatch struct {
	Name        *string  `json:"name" validate:"omitnil,min=1,max=255"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" validate:"omitnil,gt=0,decimal=10.2"`
	Category    *string  `json:"category" validate:"omitnil,oneof=Dance Music MC"`
}

func (v *Validator) ServiceCreate(ctx context.Context, in ServiceInput) (ServiceValues, error) {
	r := newReport()
	v.structFields(r, in)

	providerID, err := r.ref(ctx, "provider", in.Provider, v.refs.ProviderExists)
	if err != nil {
		return ServiceValues{}, err
	}
	if err := r.err(); err != nil {
		return ServiceValues{}, err
	}

	return ServiceValues{
		ProviderID:  providerID,
		Name:        in.Name,
		Description: in.Description,
		Price:       *in.Price,
		Category:    model.ServiceCategory(in.Category),
	}, nil
}

func (v *Validator) ServiceUpdate(in ServicePatch) error {
	r := newReport()
	v.structFields(r, in)
	return r.err()
}

// ---------- providers ----------

type ProviderInput struct {
	// User is honoured for superusers only; providers register themselves.
	User     string `json:"user"`
	Location string `json:"location" validate:"required,max=255"`
}

type ProviderPatch struct {
	Location *string `json:"location" validate:"omitnil,min=1,max=255"`
}

// ProviderCreate validates the payload and returns the referenced user, or
// uuid.Nil when the payload does not name one.
func (v *Validator) ProviderCreate(ctx context.Context, in ProviderInput) (uuid.UUID, error) {
	r := newReport()
	v.structFields(r, in)

	userID, err := r.ref(ctx, "user", in.User, v.refs.UserExists)
	if err != nil {
		return uuid.Nil, err
	}
	return userID, r.err()
}

func (v *Validator) ProviderUpdate(in ProviderPatch) error {
	r := newReport()
	v.structFields(r, in)
	return r.err()
}

// ---------- bookings ----------

type BookingInput struct {
	Service     string     `json:"service" validate:"required"`
	BookingDate string `json:"booking_date" validate:"required"`
}

type BookingValues struct {
	ClientID    uuid.UUID
	ServiceID   uuid.UUID
	BookingDate time.Time
}

type BookingStatusPatch struct {
	Status string `json:"status" validate:"required,oneof=confirmed completed"`
}

// BookingCreate validates a new booking for the acting client. clientID is
// nil when the caller has no client profile.
func (v *Validator) BookingCreate(ctx context.Context, clientID *uuid.UUID, in BookingInput) (BookingValues, error) {
	r := newReport()
	v.structFields(r, in)

	if clientID == nil {
		r.add("client", msgNoClient)
	}
	at, ok := r.datetime("booking_date", in.BookingDate)
	if ok && !at.After(v.now()) {
		r.add("booking_date", msgPastBooking)
	}

	serviceID, err := r.ref(ctx, "service", in.Service, v.refs.ServiceExists)
	if err != nil {
		return BookingValues{}, err
	}
	if err := r.err(); err != nil {
		return BookingValues{}, err
	}

	return BookingValues{
		ClientID:    *clientID,
		ServiceID:   serviceID,
		BookingDate: at,
	}, nil
}

func (v *Validator) BookingStatus(in BookingStatusPatch) (model.BookingStatus, error) {
	r := newReport()
	v.structFields(r, in)
	if err := r.err(); err != nil {
		return "", err
	}
	return model.BookingStatus(in.Status), nil
}

// ---------- reviews ----------

type ReviewInput struct {
	Booking string `json:"booking" validate:"required"`
	Rating  *int   `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required"`
}

type ReviewValues struct {
	BookingID uuid.UUID
	Rating    int
	Comment   string
}

type ReviewPatch struct {
	Rating  *int    `json:"rating" validate:"omitnil,min=1,max=5"`
	Comment *string `json:"comment" validate:"omitnil,min=1"`
}

func (v *Validator) ReviewCreate(ctx context.Context, in ReviewInput) (ReviewValues, error) {
	r := newReport()
	v.structFields(r, in)

	bookingID, err := r.ref(ctx, "booking", in.Booking, v.refs.BookingExists)
	if err != nil {
		return ReviewValues{}, err
	}
	if err := r.err(); err != nil {
		return ReviewValues{}, err
	}

	return ReviewValues{BookingID: bookingID, Rating: *in.Rating, Comment: in.Comment}, nil
}

func (v *Validator) ReviewUpdate(in ReviewPatch) error {
	r := newReport()
	v.structFields(r, in)
	return r.err()
}

// UniqueReview reports a conflict when the booking already has a review.
// The unique index on reviews.booking_id backs this check under races.
func (v *Validator) UniqueReview(ctx context.Context, bookingID, reviewerUserID uuid.UUID) error {
	exists, err := v.refs.ReviewExistsForBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if exists {
		return DuplicateReview(bookingID, reviewerUserID)
	}
	return nil
}

func DuplicateReview(bookingID, reviewerUserID uuid.UUID) error {
	return apperr.Conflict(apperr.CodeDuplicate, "a review already exists for booking %s", bookingID).
		WithDetail("booking", bookingID.String()).
		WithDetail("reviewer", reviewerUserID.String())
}

// ---------- payments ----------

type PaymentInput struct {
	Amount *float64 `json:"amount" validate:"required,gt=0,decimal=10.2"`
	Method string   `json:"method" validate:"required,oneof=credit_card paypal bank_transfer mobile_money"`
}

type PaymentValues struct {
	Amount float64
	Method model.PaymentMethod
}

func (v *Validator) Payment(in PaymentInput) (PaymentValues, error) {
	r := newReport()
	v.structFields(r, in)
	if err := r.err(); err != nil {
		return PaymentValues{}, err
	}
	return PaymentValues{Amount: *in.Amount, Method: model.PaymentMethod(in.Method)}, nil
}

// ---------- event details ----------

type EventDetailsInput struct {
	EventType string     `json:"event_type" validate:"required,max=255"`
	Location  string     `json:"location" validate:"required,max=255"`
	EventDate string `json:"event_date" validate:"required"`
}

type EventDetailsPatch struct {
	EventType *string    `json:"event_type" validate:"omitnil,min=1,max=255"`
	Location  *string    `json:"location" validate:"omitnil,min=1,max=255"`
	EventDate *string    `json:"event_date"`
}

type EventDetailsValues struct {
	EventType string
	Location  string
	EventDate time.Time
}

func eventDateMessage(bookingDate time.Time) string {
	return "Event date cannot be before the booking date (" + bookingDate.UTC().Format(time.RFC3339) + ")."
}

// EventDetailsCreate validates details for a booking scheduled at bookingDate.
func (v *Validator) EventDetailsCreate(in EventDetailsInput, bookingDate time.Time) (EventDetailsValues, error) {
	r := newReport()
	v.structFields(r, in)
	at, ok := r.datetime("event_date", in.EventDate)
	if ok && at.Before(bookingDate) {
		r.add("event_date", eventDateMessage(bookingDate))
	}
	if err := r.err(); err != nil {
		return EventDetailsValues{}, err
	}
	return EventDetailsValues{EventType: in.EventType, Location: in.Location, EventDate: at}, nil
}

// EventDetailsUpdate returns the parsed event date when the patch carries one.
func (v *Validator) EventDetailsUpdate(in EventDetailsPatch, bookingDate time.Time) (*time.Time, error) {
	r := newReport()
	v.structFields(r, in)
	if in.EventDate == nil {
		return nil, r.err()
	}
	at, ok := r.datetime("event_date", *in.EventDate)
	if ok && at.Before(bookingDate) {
		r.add("event_date", eventDateMessage(bookingDate))
	}
	if err := r.err(); err != nil {
		return nil, err
	}
	return &at, nil
}

// ---------- users ----------

type UserInput struct {
	Username          string `json:"username" validate:"required,max=150"`
	Email             string `json:"email" validate:"omitempty,email"`
	ContactPhone      string `json:"contact_phone" validate:"omitempty,phone"`
	IsServiceProvider bool   `json:"is_service_provider"`
	IsSuperuser       bool   `json:"is_superuser"`
}

type UserPatch struct {
	Email             *string `json:"email" validate:"omitnil,email"`
	ContactPhone      *string `json:"contact_phone" validate:"omitnil,phone"`
	IsServiceProvider *bool   `json:"is_service_provider"`
}

func (v *Validator) UserCreate(in UserInput) error {
	r := newReport()
	v.structFields(r, in)
	return r.err()
}

func (v *Validator) UserUpdate(in UserPatch) error {
	r := newReport()
	v.structFields(r, in)
	return r.err()
}
