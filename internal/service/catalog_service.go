package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/harmoni/harmoniconnect/internal/model"
	"github.com/harmoni/harmoniconnect/internal/pagination"
	"github.com/harmoni/harmoniconnect/internal/policy"
	"github.com/harmoni/harmoniconnect/internal/repository"
	"github.com/harmoni/harmoniconnect/internal/validation"
)

// CatalogService управляет услугами исполнителей.
type CatalogService struct {
	base
}

func NewCatalogService(d Deps) *CatalogService {
	return &CatalogService{base: newBase(d)}
}

type ServiceListFilter struct {
	Category   *model.ServiceCategory
	ProviderID *uuid.UUID
}

// Create publishes a service. Providers publish under their own profile;
// when the payload names no provider the caller's profile is used.
func (s *CatalogService) Create(ctx context.Context, id policy.Identity, in validation.ServiceInput) (*model.Service, error) {
	if err := policy.Authorize(id, policy.ActionCreate, policy.KindService, nil); err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.Provider) == "" && id.ProviderID != nil {
		in.Provider = id.ProviderID.String()
	}
	vals, err := s.validator.ServiceCreate(ctx, in)
	if err != nil {
		return nil, err
	}

	provider, err := read(ctx, s.base, func(ctx context.Context) (*model.Provider, error) {
		return s.repos.Providers.GetByID(ctx, vals.ProviderID)
	})
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(id, policy.ActionCreate, policy.KindService, providerObject(provider)); err != nil {
		return nil, err
	}

	svc := &model.Service{
		ProviderID:  vals.ProviderID,
		Name:        strings.TrimSpace(vals.Name),
		Description: vals.Description,
		Price:       vals.Price,
		Category:    vals.Category,
	}
	if err := s.repos.Services.Create(ctx, svc); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"service_id":  svc.ID,
		"provider_id": svc.ProviderID,
		"category":    svc.Category,
	}).Info("service created")

	return s.load(ctx, svc.ID)
}

func (s *CatalogService) load(ctx context.Context, serviceID uuid.UUID) (*model.Service, error) {
	return read(ctx, s.base, func(ctx context.Context) (*model.Service, error) {
		return s.repos.Services.GetByID(ctx, serviceID)
	})
}

func (s *CatalogService) Get(ctx context.Context, id policy.Identity, serviceID uuid.UUID) (*model.Service, error) {
	if err := policy.Authorize(id, policy.ActionRetrieve, policy.KindService, nil); err != nil {
		return nil, err
	}
	return s.load(ctx, serviceID)
}

func (s *CatalogService) List(
	ctx context.Context,
	id policy.Identity,
	f ServiceListFilter,
	p pagination.Params,
) (pagination.Page[model.Service], error) {
	if err := policy.Authorize(id, policy.ActionList, policy.KindService, nil); err != nil {
		return pagination.Page[model.Service]{}, err
	}

	type result struct {
		items []model.Service
		total int64
	}
	res, err := read(ctx, s.base, func(ctx context.Context) (result, error) {
		items, total, err := s.repos.Services.List(ctx, repository.ServiceFilter{
			Category:   f.Category,
			ProviderID: f.ProviderID,
		}, p)
		return result{items, total}, err
	})
	if err != nil {
		return pagination.Page[model.Service]{}, err
	}
	return pagination.New(res.items, res.total, p), nil
}

// Update edits a service owned by the caller. Nothing is written when the
// caller is not allowed to.
func (s *CatalogService) Update(
	ctx context.Context,
	id policy.Identity,
	serviceID uuid.UUID,
	in validation.ServicePatch,
) (*model.Service, error) {
	if err := policy.Precheck(id, policy.ActionUpdate, policy.KindService); err != nil {
		return nil, err
	}

	svc, err := s.load(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(id, policy.ActionUpdate, policy.KindService, serviceObject(svc)); err != nil {
		return nil, err
	}
	if err := s.validator.ServiceUpdate(in); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.Name != nil {
		fields["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Price != nil {
		fields["price"] = *in.Price
	}
	if in.Category != nil {
		fields["category"] = model.ServiceCategory(*in.Category)
	}
	if len(fields) == 0 {
		return svc, nil
	}

	if err := s.repos.Services.Update(ctx, serviceID, fields); err != nil {
		return nil, err
	}
	return s.load(ctx, serviceID)
}

// Delete removes a service together with its bookings and their dependents.
func (s *CatalogService) Delete(ctx context.Context, id policy.Identity, serviceID uuid.UUID) error {
	if err := policy.Precheck(id, policy.ActionDelete, policy.KindService); err != nil {
		return err
	}

	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		svc, err := tx.Services.GetByID(ctx, serviceID)
		if err != nil {
			return err
		}
		if err := policy.Authorize(id, policy.ActionDelete, policy.KindService, serviceObject(svc)); err != nil {
			return err
		}
		return tx.PurgeServices(ctx, []uuid.UUID{serviceID})
	})
	if err != nil {
		return err
	}

	s.log.WithField("service_id", serviceID).Info("service deleted")
	return nil
}
