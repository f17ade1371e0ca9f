package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/harmoni/harmoniconnect/internal/apperr"
	"github.com/harmoni/harmoniconnect/internal/model"
	"github.com/harmoni/harmoniconnect/internal/pagination"
	"github.com/harmoni/harmoniconnect/internal/policy"
	"github.com/harmoni/harmoniconnect/internal/repository"
	"github.com/harmoni/harmoniconnect/internal/validation"
)

// ReviewService — отзывы клиентов. Не больше одного отзыва на бронирование.
type ReviewService struct {
	base
}

func NewReviewService(d Deps) *ReviewService {
	return &ReviewService{base: newBase(d)}
}

type ReviewListFilter struct {
	BookingID *uuid.UUID
	ServiceID *uuid.UUID
}

func reviewObject(r *model.Review) *policy.Object {
	obj := &policy.Object{}
	if r.Booking != nil && r.Booking.Client != nil {
		obj.OwnerUserID = r.Booking.Client.UserID
	}
	return obj
}

func isDuplicate(err error) bool {
	var ae *apperr.Error
	return errors.As(err, &ae) && ae.Kind == apperr.KindConflict && ae.Code == apperr.CodeDuplicate
}

// Create stores the booking client's review once the booking is confirmed.
func (s *ReviewService) Create(ctx context.Context, id policy.Identity, in validation.ReviewInput) (*model.Review, error) {
	if err := policy.Precheck(id, policy.ActionCreate, policy.KindReview); err != nil {
		return nil, err
	}

	vals, err := s.validator.ReviewCreate(ctx, in)
	if err != nil {
		return nil, err
	}

	b, err := s.loadBooking(ctx, vals.BookingID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(id, policy.ActionCreate, policy.KindReview, bookingObject(b)); err != nil {
		return nil, err
	}
	if err := requireConfirmed(b, "review"); err != nil {
		return nil, err
	}
	if err := s.validator.UniqueReview(ctx, b.ID, id.UserID); err != nil {
		return nil, err
	}

	review := &model.Review{
		BookingID: b.ID,
		Rating:    vals.Rating,
		Comment:   strings.TrimSpace(vals.Comment),
	}
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Reviews.Create(ctx, review); err != nil {
			return err
		}
		return tx.Events.Record(ctx, model.EventTypeReviewCreated, actorRef(id), &b.ID, map[string]any{
			"review_id": review.ID,
			"rating":    review.Rating,
		})
	})
	if err != nil {
		if isDuplicate(err) {
			// параллельный отзыв успел раньше
			return nil, validation.DuplicateReview(b.ID, id.UserID)
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"review_id":  review.ID,
		"booking_id": b.ID,
		"rating":     review.Rating,
	}).Info("review created")

	return s.load(ctx, review.ID)
}

func (s *ReviewService) load(ctx context.Context, reviewID uuid.UUID) (*model.Review, error) {
	return read(ctx, s.base, func(ctx context.Context) (*model.Review, error) {
		return s.repos.Reviews.GetByID(ctx, reviewID)
	})
}

func (s *ReviewService) Get(ctx context.Context, id policy.Identity, reviewID uuid.UUID) (*model.Review, error) {
	if err := policy.Authorize(id, policy.ActionRetrieve, policy.KindReview, nil); err != nil {
		return nil, err
	}
	return s.load(ctx, reviewID)
}

func (s *ReviewService) List(
	ctx context.Context,
	id policy.Identity,
	f ReviewListFilter,
	p pagination.Params,
) (pagination.Page[model.Review], error) {
	if err := policy.Authorize(id, policy.ActionList, policy.KindReview, nil); err != nil {
		return pagination.Page[model.Review]{}, err
	}

	type result struct {
		items []model.Review
		total int64
	}
	res, err := read(ctx, s.base, func(ctx context.Context) (result, error) {
		items, total, err := s.repos.Reviews.List(ctx, repository.ReviewFilter{
			BookingID: f.BookingID,
			ServiceID: f.ServiceID,
		}, p)
		return result{items, total}, err
	})
	if err != nil {
		return pagination.Page[model.Review]{}, err
	}
	return pagination.New(res.items, res.total, p), nil
}

// Update changes rating and comment only; the booking link is fixed.
func (s *ReviewService) Update(
	ctx context.Context,
	id policy.Identity,
	reviewID uuid.UUID,
	in validation.ReviewPatch,
) (*model.Review, error) {
	if err := policy.Precheck(id, policy.ActionUpdate, policy.KindReview); err != nil {
		return nil, err
	}

	r, err := s.load(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(id, policy.ActionUpdate, policy.KindReview, reviewObject(r)); err != nil {
		return nil, err
	}
	if err := s.validator.ReviewUpdate(in); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.Rating != nil {
		fields["rating"] = *in.Rating
	}
	if in.Comment != nil {
		fields["comment"] = strings.TrimSpace(*in.Comment)
	}
	if len(fields) == 0 {
		return r, nil
	}

	if err := s.repos.Reviews.Update(ctx, reviewID, fields); err != nil {
		return nil, err
	}
	return s.load(ctx, reviewID)
}
