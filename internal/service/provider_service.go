package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/harmoni/harmoniconnect/internal/apperr"
	"github.com/harmoni/harmoniconnect/internal/model"
	"github.com/harmoni/harmoniconnect/internal/pagination"
	"github.com/harmoni/harmoniconnect/internal/policy"
	"github.com/harmoni/harmoniconnect/internal/repository"
	"github.com/harmoni/harmoniconnect/internal/validation"
)

// ProviderService — профили исполнителей. Просмотр открыт всем.
type ProviderService struct {
	base
}

func NewProviderService(d Deps) *ProviderService {
	return &ProviderService{base: newBase(d)}
}

func (s *ProviderService) load(ctx context.Context, providerID uuid.UUID) (*model.Provider, error) {
	return read(ctx, s.base, func(ctx context.Context) (*model.Provider, error) {
		return s.repos.Providers.GetByID(ctx, providerID)
	})
}

func (s *ProviderService) Get(ctx context.Context, id policy.Identity, providerID uuid.UUID) (*model.Provider, error) {
	if err := policy.Authorize(id, policy.ActionRetrieve, policy.KindServiceProvider, nil); err != nil {
		return nil, err
	}
	return s.load(ctx, providerID)
}

func (s *ProviderService) List(ctx context.Context, id policy.Identity, p pagination.Params) (pagination.Page[model.Provider], error) {
	if err := policy.Authorize(id, policy.ActionList, policy.KindServiceProvider, nil); err != nil {
		return pagination.Page[model.Provider]{}, err
	}

	type result struct {
		items []model.Provider
		total int64
	}
	res, err := read(ctx, s.base, func(ctx context.Context) (result, error) {
		items, total, err := s.repos.Providers.List(ctx, p)
		return result{items, total}, err
	})
	if err != nil {
		return pagination.Page[model.Provider]{}, err
	}
	return pagination.New(res.items, res.total, p), nil
}

// Create registers a provider profile for the caller. Superusers may name
// another user in the payload.
func (s *ProviderService) Create(ctx context.Context, id policy.Identity, in validation.ProviderInput) (*model.Provider, error) {
	if err := policy.Authorize(id, policy.ActionCreate, policy.KindServiceProvider, nil); err != nil {
		return nil, err
	}

	userID, err := s.validator.ProviderCreate(ctx, in)
	if err != nil {
		return nil, err
	}
	if userID == uuid.Nil {
		userID = id.UserID
	}
	if err := policy.Authorize(id, policy.ActionCreate, policy.KindServiceProvider, &policy.Object{OwnerUserID: userID}); err != nil {
		return nil, err
	}

	provider := &model.Provider{UserID: userID, Location: in.Location}
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		u, err := tx.Users.GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		switch u.Role().Kind {
		case model.RoleProvider:
			return apperr.Conflict(apperr.CodeDuplicate, "user %s already has a service provider profile", u.Username)
		case model.RoleClient:
			return apperr.Conflict(apperr.CodeRoleConflict, "user %s already has a client profile", u.Username)
		}
		if !u.IsServiceProvider {
			// флаг ещё можно менять: профиля пока нет
			if err := tx.Users.Update(ctx, u.ID, map[string]any{"is_service_provider": true}); err != nil {
				return err
			}
		}
		return tx.Providers.Create(ctx, provider)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"provider_id": provider.ID,
		"user_id":     userID,
	}).Info("service provider registered")

	return s.load(ctx, provider.ID)
}

func (s *ProviderService) Update(
	ctx context.Context,
	id policy.Identity,
	providerID uuid.UUID,
	in validation.ProviderPatch,
) (*model.Provider, error) {
	if err := policy.Precheck(id, policy.ActionUpdate, policy.KindServiceProvider); err != nil {
		return nil, err
	}

	p, err := s.load(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(id, policy.ActionUpdate, policy.KindServiceProvider, providerObject(p)); err != nil {
		return nil, err
	}
	if err := s.validator.ProviderUpdate(in); err != nil {
		return nil, err
	}
	if in.Location == nil {
		return p, nil
	}

	if err := s.repos.Providers.Update(ctx, providerID, map[string]any{"location": *in.Location}); err != nil {
		return nil, err
	}
	return s.load(ctx, providerID)
}

// Delete removes the profile with its services and their bookings. The user
// account stays.
func (s *ProviderService) Delete(ctx context.Context, id policy.Identity, providerID uuid.UUID) error {
	if err := policy.Precheck(id, policy.ActionDelete, policy.KindServiceProvider); err != nil {
		return err
	}

	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		p, err := tx.Providers.GetByID(ctx, providerID)
		if err != nil {
			return err
		}
		if err := policy.Authorize(id, policy.ActionDelete, policy.KindServiceProvider, providerObject(p)); err != nil {
			return err
		}
		return tx.PurgeProvider(ctx, providerID)
	})
	if err != nil {
		return err
	}

	s.log.WithField("provider_id", providerID).Info("service provider deleted")
	return nil
}
