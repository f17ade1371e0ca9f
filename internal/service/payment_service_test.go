package service

import (
	"context"
	"errors"
	"testing"

	"github.com/harmoni/harmoniconnect/internal/apperr"
	"github.com/harmoni/harmoniconnect/internal/model"
	"github.com/harmoni/harmoniconnect/internal/payments"
	"github.com/harmoni/harmoniconnect/internal/storetest"
	"github.com/harmoni/harmoniconnect/internal/validation"
)

// scriptedGateway отвечает по очереди заранее заданными результатами.
type scriptedGateway struct {
	results []*payments.ChargeResult
	errs    []error
	calls   int
}

func (g *scriptedGateway) Charge(_ context.Context, _ payments.ChargeRequest) (*payments.ChargeResult, error) {
	i := g.calls
	g.calls++
	if i < len(g.errs) && g.errs[i] != nil {
		return nil, g.errs[i]
	}
	return g.results[i], nil
}

func TestPaymentService_FailedThenRetried(t *testing.T) {
	m := newMarketplace(t)
	ctx := context.Background()
	b := m.booking(t, model.BookingStatusConfirmed)

	gw := &scriptedGateway{
		results: []*payments.ChargeResult{nil, {Approved: true, TransactionID: "tx-2"}},
		errs:    []error{payments.ErrUnavailable},
	}
	svc := NewPaymentService(m.deps, gw)
	in := validation.PaymentInput{Amount: ptr(150.0), Method: "mobile_money"}

	p, err := svc.Pay(ctx, m.alice, b.ID, in)
	if err != nil {
		t.Fatalf("first Pay: %v", err)
	}
	if p.Status != model.PaymentStatusFailed || p.FailureReason == "" {
		t.Fatalf("want failed payment with reason, got %+v", p)
	}

	p, err = svc.Pay(ctx, m.alice, b.ID, in)
	if err != nil {
		t.Fatalf("retry Pay: %v", err)
	}
	if p.Status != model.PaymentStatusProcessed || p.GatewayRef != "tx-2" {
		t.Fatalf("want processed payment, got %+v", p)
	}
	if n := storetest.Count(t, m.db, &model.Payment{}, "booking_id = ?", b.ID); n != 1 {
		t.Fatalf("payments = %d, want 1", n)
	}

	_, err = svc.Pay(ctx, m.alice, b.ID, in)
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Code != apperr.CodeImmutable {
		t.Fatalf("paying twice: want conflict immutable, got %v", err)
	}
	if gw.calls != 2 {
		t.Fatalf("gateway calls = %d, processed payment must not be charged again", gw.calls)
	}
	if n := storetest.Count(t, m.db, &model.Event{}, "event_type = ?", model.EventTypePaymentRecorded); n != 2 {
		t.Fatalf("payment_recorded events = %d, want 2", n)
	}
}

func TestPaymentService_Rules(t *testing.T) {
	m := newMarketplace(t)
	ctx := context.Background()
	svc := NewPaymentService(m.deps, payments.SandboxGateway{})
	in := validation.PaymentInput{Amount: ptr(150.0), Method: "paypal"}

	pending := m.booking(t, model.BookingStatusPending)
	if _, err := svc.Pay(ctx, m.alice, pending.ID, in); !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("pending booking: want conflict, got %v", err)
	}

	confirmed := m.booking(t, model.BookingStatusConfirmed)
	if _, err := svc.Pay(ctx, m.bob, confirmed.ID, in); !apperr.IsKind(err, apperr.KindAuthorization) {
		t.Fatalf("provider pays: want authorization error, got %v", err)
	}
	if _, err := svc.Pay(ctx, m.alice, confirmed.ID, validation.PaymentInput{Amount: ptr(0.0), Method: "cash"}); !apperr.IsValidation(err) {
		t.Fatalf("bad payload: want validation error, got %v", err)
	}

	if _, err := svc.Pay(ctx, m.alice, confirmed.ID, in); err != nil {
		t.Fatalf("Pay: %v", err)
	}
	p, err := svc.Get(ctx, m.bob, confirmed.ID)
	if err != nil {
		t.Fatalf("provider Get: %v", err)
	}
	if !p.Processed() {
		t.Fatalf("status = %s", p.Status)
	}
	if _, err := svc.Get(ctx, m.carol, confirmed.ID); !apperr.IsKind(err, apperr.KindAuthorization) {
		t.Fatalf("stranger Get: want authorization error, got %v", err)
	}
}

func TestPaymentService_Declined(t *testing.T) {
	m := newMarketplace(t)
	b := m.booking(t, model.BookingStatusConfirmed)
	gw := &scriptedGateway{results: []*payments.ChargeResult{{Approved: false, TransactionID: "tx-1", Reason: "insufficient funds"}}}

	p, err := NewPaymentService(m.deps, gw).Pay(context.Background(), m.alice, b.ID, validation.PaymentInput{
		Amount: ptr(150.0),
		Method: "credit_card",
	})
	if err != nil {
		t.Fatalf("Pay: %v", err)
	}
	if p.Status != model.PaymentStatusFailed || p.FailureReason != "insufficient funds" {
		t.Fatalf("unexpected payment %+v", p)
	}
}
