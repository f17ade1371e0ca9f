package payments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/harmoni/harmoniconnect/internal/logging"
	"github.com/harmoni/harmoniconnect/internal/model"
)

func newGateway(t *testing.T, h http.HandlerFunc) *HTTPGateway {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTPGateway(srv.URL+"/", "key-1", 2*time.Second, logging.Discard())
}

func TestHTTPGateway_Approved(t *testing.T) {
	bookingID := uuid.New()
	g := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/charges" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key-1" {
			t.Errorf("missing api key")
		}
		if r.Header.Get("Idempotency-Key") != "booking-"+bookingID.String() {
			t.Errorf("unexpected idempotency key %q", r.Header.Get("Idempotency-Key"))
		}
		var p chargePayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decode: %v", err)
		}
		if p.Amount != "120.50" || p.Method != "paypal" {
			t.Errorf("unexpected payload %+v", p)
		}
		_ = json.NewEncoder(w).Encode(chargeResponse{ID: "ch_1", Status: "approved"})
	})

	res, err := g.Charge(context.Background(), ChargeRequest{BookingID: bookingID, Amount: 120.5, Method: model.PaymentMethodPayPal})
	if err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if !res.Approved || res.TransactionID != "ch_1" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestHTTPGateway_Declined(t *testing.T) {
	g := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(w).Encode(chargeResponse{ID: "ch_2", Status: "declined", Reason: "insufficient funds"})
	})

	res, err := g.Charge(context.Background(), ChargeRequest{BookingID: uuid.New(), Amount: 10, Method: model.PaymentMethodCreditCard})
	if err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if res.Approved || res.Reason != "insufficient funds" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestHTTPGateway_ServerErrorIsUnavailable(t *testing.T) {
	g := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := g.Charge(context.Background(), ChargeRequest{BookingID: uuid.New(), Amount: 10, Method: model.PaymentMethodCreditCard})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("want ErrUnavailable, got %v", err)
	}
}

func TestSandboxGateway(t *testing.T) {
	res, err := SandboxGateway{}.Charge(context.Background(), ChargeRequest{BookingID: uuid.New(), Amount: 1})
	if err != nil || !res.Approved {
		t.Fatalf("sandbox must approve: %+v %v", res, err)
	}
}
