package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/harmoni/harmoniconnect/internal/apperr"
	"github.com/harmoni/harmoniconnect/internal/model"
	"github.com/harmoni/harmoniconnect/internal/payments"
	"github.com/harmoni/harmoniconnect/internal/policy"
	"github.com/harmoni/harmoniconnect/internal/repository"
	"github.com/harmoni/harmoniconnect/internal/validation"
)

// Причина для неуспешного платежа, когда шлюз не ответил.
const gatewayUnavailableReason = "payment gateway unavailable"

// PaymentService — оплата подтверждённых бронирований.
type PaymentService struct {
	base
	gateway payments.Gateway
}

func NewPaymentService(d Deps, gw payments.Gateway) *PaymentService {
	if gw == nil {
		gw = payments.SandboxGateway{}
	}
	return &PaymentService{base: newBase(d), gateway: gw}
}

func processedConflict(bookingID uuid.UUID) error {
	return apperr.Conflict(apperr.CodeImmutable, "booking %s is already paid", bookingID).
		WithDetail("booking", bookingID.String())
}

// Pay charges the booking's client and records the outcome. The gateway call
// is made outside the transaction; a failed payment may be retried, a
// processed one never changes.
func (s *PaymentService) Pay(
	ctx context.Context,
	id policy.Identity,
	bookingID uuid.UUID,
	in validation.PaymentInput,
) (*model.Payment, error) {
	if err := policy.Precheck(id, policy.ActionCreate, policy.KindPayment); err != nil {
		return nil, err
	}

	b, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(id, policy.ActionCreate, policy.KindPayment, bookingObject(b)); err != nil {
		return nil, err
	}
	if err := requireConfirmed(b, "payment"); err != nil {
		return nil, err
	}
	vals, err := s.validator.Payment(in)
	if err != nil {
		return nil, err
	}

	existing, err := read(ctx, s.base, func(ctx context.Context) (*model.Payment, error) {
		return s.repos.Payments.GetByBookingID(ctx, b.ID)
	})
	switch {
	case err == nil && existing.Processed():
		return nil, processedConflict(b.ID)
	case err != nil && !apperr.IsKind(err, apperr.KindNotFound):
		return nil, err
	}

	log := s.log.WithFields(logrus.Fields{
		"booking_id": b.ID,
		"amount":     vals.Amount,
		"method":     vals.Method,
	})

	payment := &model.Payment{
		BookingID: b.ID,
		Amount:    vals.Amount,
		Method:    vals.Method,
		PaidAt:    s.now(),
		Status:    model.PaymentStatusFailed,
	}

	res, err := s.gateway.Charge(ctx, payments.ChargeRequest{
		BookingID: b.ID,
		Amount:    vals.Amount,
		Method:    vals.Method,
	})
	switch {
	case err != nil:
		log.WithError(err).Warn("payment gateway call failed")
		payment.FailureReason = gatewayUnavailableReason
	case res.Approved:
		payment.Status = model.PaymentStatusProcessed
		payment.GatewayRef = res.TransactionID
	default:
		payment.GatewayRef = res.TransactionID
		payment.FailureReason = res.Reason
	}

	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		prev, err := tx.Payments.GetByBookingID(ctx, b.ID)
		switch {
		case err == nil:
			ok, err := tx.Payments.UpdateFailed(ctx, prev.ID, map[string]any{
				"amount":         payment.Amount,
				"method":         payment.Method,
				"paid_at":        payment.PaidAt,
				"status":         payment.Status,
				"gateway_ref":    payment.GatewayRef,
				"failure_reason": payment.FailureReason,
			})
			if err != nil {
				return err
			}
			if !ok {
				return processedConflict(b.ID)
			}
			payment.ID = prev.ID
			payment.CreatedAt = prev.CreatedAt
		case apperr.IsKind(err, apperr.KindNotFound):
			if err := tx.Payments.Create(ctx, payment); err != nil {
				return err
			}
		default:
			return err
		}

		return tx.Events.Record(ctx, model.EventTypePaymentRecorded, actorRef(id), &b.ID, map[string]any{
			"payment_id": payment.ID,
			"status":     payment.Status,
			"amount":     payment.Amount,
			"method":     payment.Method,
		})
	})
	if err != nil {
		if isDuplicate(err) {
			// параллельная оплата уже записана
			return nil, processedConflict(b.ID)
		}
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"status":     payment.Status,
	}).Info("payment recorded")

	return s.load(ctx, b.ID)
}

func (s *PaymentService) load(ctx context.Context, bookingID uuid.UUID) (*model.Payment, error) {
	return read(ctx, s.base, func(ctx context.Context) (*model.Payment, error) {
		return s.repos.Payments.GetByBookingID(ctx, bookingID)
	})
}

// Get returns the payment of a booking to its client, its provider or a
// superuser.
func (s *PaymentService) Get(ctx context.Context, id policy.Identity, bookingID uuid.UUID) (*model.Payment, error) {
	if err := policy.Precheck(id, policy.ActionRetrieve, policy.KindPayment); err != nil {
		return nil, err
	}

	b, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(id, policy.ActionRetrieve, policy.KindPayment, bookingObject(b)); err != nil {
		return nil, err
	}
	return s.load(ctx, b.ID)
}
