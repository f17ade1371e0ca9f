package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/harmoni/harmoniconnect/internal/logging"
	"github.com/harmoni/harmoniconnect/internal/model"
	"github.com/harmoni/harmoniconnect/internal/payments"
	"github.com/harmoni/harmoniconnect/internal/repository"
	"github.com/harmoni/harmoniconnect/internal/service"
	"github.com/harmoni/harmoniconnect/internal/storetest"
	"github.com/harmoni/harmoniconnect/internal/validation"
)

var testSecret = []byte("test-secret")

type apiFixture struct {
	router     *gin.Engine
	alice, bob string // токены
	service    *model.Service
	provider   *model.Provider
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := storetest.Open(t)
	repos := repository.New(db)
	deps := service.Deps{
		Repos:        repos,
		Validator:    validation.New(repos, nil),
		Logger:       logging.Discard(),
		ReadAttempts: 1,
	}

	aliceUser, _ := storetest.Client(t, db, "alice")
	bobUser, bobProvider := storetest.Provider(t, db, "bob", "Nairobi")
	svc := storetest.Service(t, db, bobProvider.ID, "Salsa night", 150)

	router := NewRouter(Services{
		Identity:     service.NewIdentityService(deps),
		Providers:    service.NewProviderService(deps),
		Catalog:      service.NewCatalogService(deps),
		Bookings:     service.NewBookingService(deps),
		Reviews:      service.NewReviewService(deps),
		Payments:     service.NewPaymentService(deps, payments.SandboxGateway{}),
		EventDetails: service.NewEventDetailsService(deps),
		Store:        repos,
	}, Options{
		JWTSecret:      testSecret,
		RequestTimeout: 5 * time.Second,
		Logger:         logging.Discard(),
	})

	return &apiFixture{
		router:   router,
		alice:    token(t, aliceUser.ID),
		bob:      token(t, bobUser.ID),
		service:  svc,
		provider: bobProvider,
	}
}

func token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	tok, err := GenerateToken(testSecret, userID, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return tok
}

func (f *apiFixture) do(t *testing.T, method, path, tok string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode response %q: %v", w.Body.String(), err)
		}
	}
	return w, out
}

func errorOf(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	e, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("no error envelope in %v", body)
	}
	return e
}

func TestRouter_Health(t *testing.T) {
	f := newAPI(t)
	w, body := f.do(t, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("health = %d %v", w.Code, body)
	}
}

func TestRouter_Authentication(t *testing.T) {
	f := newAPI(t)

	w, _ := f.do(t, http.MethodGet, "/api/serviceproviders", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("anonymous provider browse = %d, want 200", w.Code)
	}

	w, body := f.do(t, http.MethodGet, "/api/services", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous services = %d, want 401", w.Code)
	}
	if errorOf(t, body)["kind"] != "authorization" {
		t.Fatalf("unexpected error body %v", body)
	}

	w, _ = f.do(t, http.MethodGet, "/api/me", "garbage", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token = %d, want 401", w.Code)
	}

	w, _ = f.do(t, http.MethodGet, "/api/me", token(t, uuid.New()), nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unknown user token = %d, want 401", w.Code)
	}

	w, body = f.do(t, http.MethodGet, "/api/me", f.alice, nil)
	if w.Code != http.StatusOK || body["username"] != "alice" || body["role"] != "client" {
		t.Fatalf("me = %d %v", w.Code, body)
	}
}

func TestRouter_BookingFlow(t *testing.T) {
	f := newAPI(t)
	at := time.Now().UTC().Add(48 * time.Hour).Format(time.RFC3339)

	w, body := f.do(t, http.MethodPost, "/api/bookings", f.alice, map[string]any{
		"service":      f.service.ID.String(),
		"booking_date": at,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create booking = %d %v", w.Code, body)
	}
	if body["status"] != "pending" {
		t.Fatalf("status = %v", body["status"])
	}
	details, ok := body["provider_details"].(map[string]any)
	if !ok || details["location"] != "Nairobi" {
		t.Fatalf("provider_details = %v", body["provider_details"])
	}
	if _, leaked := details["user"]; leaked {
		t.Fatalf("provider_details must not expose the user")
	}
	if sd, ok := body["service_details"].(map[string]any); !ok || sd["name"] != "Salsa night" {
		t.Fatalf("service_details = %v", body["service_details"])
	}
	id := body["id"].(string)

	w, body = f.do(t, http.MethodPost, "/api/bookings/"+id+"/complete", f.bob, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("complete pending = %d, want 409", w.Code)
	}
	e := errorOf(t, body)
	if e["code"] != "invalid_transition" || e["current"] != "pending" || e["required"] != "confirmed" {
		t.Fatalf("conflict body = %v", e)
	}

	w, body = f.do(t, http.MethodPatch, "/api/bookings/"+id, f.bob, map[string]any{"status": "confirmed"})
	if w.Code != http.StatusOK || body["status"] != "confirmed" {
		t.Fatalf("confirm = %d %v", w.Code, body)
	}

	w, body = f.do(t, http.MethodPost, "/api/bookings/"+id+"/payment", f.alice, map[string]any{
		"amount": 150,
		"method": "mobile_money",
	})
	if w.Code != http.StatusCreated || body["status"] != "processed" {
		t.Fatalf("pay = %d %v", w.Code, body)
	}

	w, body = f.do(t, http.MethodPost, "/api/reviews", f.alice, map[string]any{
		"booking": id,
		"rating":  5,
		"comment": "Loved it",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("review = %d %v", w.Code, body)
	}
	w, body = f.do(t, http.MethodPost, "/api/reviews", f.alice, map[string]any{
		"booking": id,
		"rating":  4,
		"comment": "Again",
	})
	if w.Code != http.StatusConflict || errorOf(t, body)["code"] != "duplicate" {
		t.Fatalf("duplicate review = %d %v", w.Code, body)
	}

	w, _ = f.do(t, http.MethodDelete, "/api/bookings/"+id, f.alice, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("cancel confirmed = %d, want 409", w.Code)
	}
}

func TestRouter_BookingDateFieldError(t *testing.T) {
	f := newAPI(t)

	w, body := f.do(t, http.MethodPost, "/api/bookings", f.alice, map[string]any{
		"service":      f.service.ID.String(),
		"booking_date": "2030-01-02",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("date-only booking = %d %v, want 400", w.Code, body)
	}
	fields, _ := errorOf(t, body)["fields"].(map[string]any)
	if _, ok := fields["booking_date"]; !ok {
		t.Fatalf("error must name booking_date: %v", fields)
	}
	if _, ok := fields["non_field_errors"]; ok {
		t.Fatalf("date problem reported as non-field error: %v", fields)
	}
}

func TestRouter_ServiceErrors(t *testing.T) {
	f := newAPI(t)

	w, body := f.do(t, http.MethodPost, "/api/services", f.alice, map[string]any{
		"name": "Nope", "price": 10, "category": "Dance",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("client creates service = %d %v, want 403", w.Code, body)
	}

	w, body = f.do(t, http.MethodPost, "/api/services", f.bob, map[string]any{
		"name": "Free", "price": 0, "category": "Dance",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("zero price = %d, want 400", w.Code)
	}
	fields, _ := errorOf(t, body)["fields"].(map[string]any)
	if fields["price"] != "The price must be a positive number." {
		t.Fatalf("fields = %v", fields)
	}

	w, _ = f.do(t, http.MethodPost, "/api/services", f.bob, map[string]any{
		"name": "Bad", "price": "ten", "category": "Dance",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("wrong type = %d, want 400", w.Code)
	}

	w, _ = f.do(t, http.MethodGet, "/api/services/"+uuid.NewString(), f.alice, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing service = %d, want 404", w.Code)
	}
	w, _ = f.do(t, http.MethodGet, "/api/services/not-a-uuid", f.alice, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("malformed id = %d, want 404", w.Code)
	}

	w, body = f.do(t, http.MethodGet, "/api/services?category=Music&page_size=5", f.alice, nil)
	if w.Code != http.StatusOK || body["count"].(float64) != 0 || body["page_size"].(float64) != 5 {
		t.Fatalf("filtered list = %d %v", w.Code, body)
	}
	w, _ = f.do(t, http.MethodGet, "/api/services?category=Jazz", f.alice, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad category filter = %d, want 400", w.Code)
	}

	w, body = f.do(t, http.MethodPatch, "/api/services/"+f.service.ID.String(), f.bob, map[string]any{"price": 200})
	if w.Code != http.StatusOK || body["price"].(float64) != 200 {
		t.Fatalf("owner patch = %d %v", w.Code, body)
	}
}

func TestRouter_RequestID(t *testing.T) {
	f := newAPI(t)

	w, _ := f.do(t, http.MethodGet, "/health", "", nil)
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("request id header missing")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("request id = %q, want passthrough", got)
	}
}
