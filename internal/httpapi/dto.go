package httpapi

import (
	"time"

	"github.com/google/uuid"

	"github.com/harmoni/harmoniconnect/internal/model"
)

// ---------- users ----------

type userResponse struct {
	ID                uuid.UUID      `json:"id"`
	Username          string         `json:"username"`
	Email             string         `json:"email"`
	ContactPhone      string         `json:"contact_phone"`
	IsServiceProvider bool           `json:"is_service_provider"`
	IsSuperuser       bool           `json:"is_superuser"`
	Role              model.RoleKind `json:"role"`
	ClientID          *uuid.UUID     `json:"client,omitempty"`
	ProviderID        *uuid.UUID     `json:"service_provider,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

func toUser(u model.User) userResponse {
	out := userResponse{
		ID:                u.ID,
		Username:          u.Username,
		Email:             u.Email,
		ContactPhone:      u.ContactPhone,
		IsServiceProvider: u.IsServiceProvider,
		IsSuperuser:       u.IsSuperuser,
		Role:              u.Role().Kind,
		CreatedAt:         u.CreatedAt,
	}
	if u.Client != nil {
		out.ClientID = &u.Client.ID
	}
	if u.Provider != nil {
		out.ProviderID = &u.Provider.ID
	}
	return out
}

type clientResponse struct {
	ID        uuid.UUID `json:"id"`
	User      uuid.UUID `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

func toClient(c model.Client) clientResponse {
	return clientResponse{ID: c.ID, User: c.UserID, CreatedAt: c.CreatedAt}
}

// ---------- providers ----------

type providerResponse struct {
	ID        uuid.UUID `json:"id"`
	User      uuid.UUID `json:"user"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"created_at"`
}

func toProvider(p model.Provider) providerResponse {
	return providerResponse{ID: p.ID, User: p.UserID, Location: p.Location, CreatedAt: p.CreatedAt}
}

// providerDetails — вложенное представление без пользователя.
type providerDetails struct {
	ID       uuid.UUID `json:"id"`
	Location string    `json:"location"`
}

func toProviderDetails(p *model.Provider) *providerDetails {
	if p == nil {
		return nil
	}
	return &providerDetails{ID: p.ID, Location: p.Location}
}

// ---------- services ----------

type serviceResponse struct {
	ID              uuid.UUID             `json:"id"`
	Provider        uuid.UUID             `json:"provider"`
	Name            string                `json:"name"`
	Description     string                `json:"description"`
	Price           float64               `json:"price"`
	Category        model.ServiceCategory `json:"category"`
	ProviderDetails *providerDetails      `json:"provider_details,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
}

func toService(s model.Service) serviceResponse {
	return serviceResponse{
		ID:              s.ID,
		Provider:        s.ProviderID,
		Name:            s.Name,
		Description:     s.Description,
		Price:           s.Price,
		Category:        s.Category,
		ProviderDetails: toProviderDetails(s.Provider),
		CreatedAt:       s.CreatedAt,
	}
}

type serviceDetails struct {
	ID       uuid.UUID             `json:"id"`
	Name     string                `json:"name"`
	Price    float64               `json:"price"`
	Category model.ServiceCategory `json:"category"`
}

// ---------- bookings ----------

type bookingResponse struct {
	ID              uuid.UUID           `json:"id"`
	Client          uuid.UUID           `json:"client"`
	Service         uuid.UUID           `json:"service"`
	BookingDate     time.Time           `json:"booking_date"`
	Status          model.BookingStatus `json:"status"`
	Version         int64               `json:"version"`
	ServiceDetails  *serviceDetails     `json:"service_details,omitempty"`
	ProviderDetails *providerDetails    `json:"provider_details,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func toBooking(b model.Booking) bookingResponse {
	out := bookingResponse{
		ID:          b.ID,
		Client:      b.ClientID,
		Service:     b.ServiceID,
		BookingDate: b.BookingDate,
		Status:      b.Status,
		Version:     b.Version,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
	if s := b.Service; s != nil {
		out.ServiceDetails = &serviceDetails{ID: s.ID, Name: s.Name, Price: s.Price, Category: s.Category}
		out.ProviderDetails = toProviderDetails(s.Provider)
	}
	return out
}

// ---------- reviews ----------

type reviewResponse struct {
	ID        uuid.UUID `json:"id"`
	Booking   uuid.UUID `json:"booking"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toReview(r model.Review) reviewResponse {
	return reviewResponse{
		ID:        r.ID,
		Booking:   r.BookingID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// ---------- payments ----------

type paymentResponse struct {
	ID            uuid.UUID           `json:"id"`
	Booking       uuid.UUID           `json:"booking"`
	Amount        float64             `json:"amount"`
	PaidAt        time.Time           `json:"payment_date"`
	Status        model.PaymentStatus `json:"status"`
	Method        model.PaymentMethod `json:"method"`
	GatewayRef    string              `json:"gateway_ref,omitempty"`
	FailureReason string              `json:"failure_reason,omitempty"`
}

func toPayment(p model.Payment) paymentResponse {
	return paymentResponse{
		ID:            p.ID,
		Booking:       p.BookingID,
		Amount:        p.Amount,
		PaidAt:        p.PaidAt,
		Status:        p.Status,
		Method:        p.Method,
		GatewayRef:    p.GatewayRef,
		FailureReason: p.FailureReason,
	}
}

// ---------- event details ----------

type eventDetailsResponse struct {
	ID        uuid.UUID `json:"id"`
	Booking   uuid.UUID `json:"booking"`
	EventType string    `json:"event_type"`
	Location  string    `json:"location"`
	EventDate time.Time `json:"event_date"`
}

func toEventDetails(d model.EventDetails) eventDetailsResponse {
	return eventDetailsResponse{
		ID:        d.ID,
		Booking:   d.BookingID,
		EventType: d.EventType,
		Location:  d.Location,
		EventDate: d.EventDate,
	}
}
