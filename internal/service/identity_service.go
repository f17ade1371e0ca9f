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

// IdentityService — пользователи и их профили. Регистрация и пароли живут
// во внешнем провайдере аутентификации, здесь только учётные записи.
type IdentityService struct {
	base
}

func NewIdentityService(d Deps) *IdentityService {
	return &IdentityService{base: newBase(d)}
}

func userObject(u *model.User) *policy.Object {
	return &policy.Object{OwnerUserID: u.ID}
}

func (s *IdentityService) loadUser(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	return read(ctx, s.base, func(ctx context.Context) (*model.User, error) {
		return s.repos.Users.GetByID(ctx, userID)
	})
}

// Resolve строит Identity по id пользователя из токена.
func (s *IdentityService) Resolve(ctx context.Context, userID uuid.UUID) (policy.Identity, error) {
	return read(ctx, s.base, func(ctx context.Context) (policy.Identity, error) {
		return policy.ResolveIdentity(ctx, s.repos.Users, userID)
	})
}

// Me возвращает пользователя вызывающей стороны вместе с профилем.
func (s *IdentityService) Me(ctx context.Context, id policy.Identity) (*model.User, error) {
	if !id.Authenticated || id.UserID == uuid.Nil {
		return nil, apperr.Unauthenticated("authentication credentials were not provided")
	}
	return s.loadUser(ctx, id.UserID)
}

// CreateUser is reserved for superusers; self-registration happens outside.
func (s *IdentityService) CreateUser(ctx context.Context, id policy.Identity, in validation.UserInput) (*model.User, error) {
	if err := policy.Authorize(id, policy.ActionCreate, policy.KindUser, nil); err != nil {
		return nil, err
	}
	if err := s.validator.UserCreate(in); err != nil {
		return nil, err
	}

	u := &model.User{
		Username:          in.Username,
		Email:             in.Email,
		ContactPhone:      in.ContactPhone,
		IsServiceProvider: in.IsServiceProvider,
		IsSuperuser:       in.IsSuperuser,
	}
	if err := s.repos.Users.Create(ctx, u); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":  u.ID,
		"username": u.Username,
	}).Info("user created")

	return s.loadUser(ctx, u.ID)
}

func (s *IdentityService) GetUser(ctx context.Context, id policy.Identity, userID uuid.UUID) (*model.User, error) {
	if err := policy.Authorize(id, policy.ActionRetrieve, policy.KindUser, nil); err != nil {
		return nil, err
	}
	return s.loadUser(ctx, userID)
}

func (s *IdentityService) ListUsers(ctx context.Context, id policy.Identity, p pagination.Params) (pagination.Page[model.User], error) {
	if err := policy.Authorize(id, policy.ActionList, policy.KindUser, nil); err != nil {
		return pagination.Page[model.User]{}, err
	}

	type result struct {
		items []model.User
		total int64
	}
	res, err := read(ctx, s.base, func(ctx context.Context) (result, error) {
		items, total, err := s.repos.Users.List(ctx, p)
		return result{items, total}, err
	})
	if err != nil {
		return pagination.Page[model.User]{}, err
	}
	return pagination.New(res.items, res.total, p), nil
}

// UpdateUser меняет контактные данные. Флаг исполнителя можно менять только
// пока у пользователя нет ни одного профиля.
func (s *IdentityService) UpdateUser(
	ctx context.Context,
	id policy.Identity,
	userID uuid.UUID,
	in validation.UserPatch,
) (*model.User, error) {
	if err := policy.Precheck(id, policy.ActionUpdate, policy.KindUser); err != nil {
		return nil, err
	}

	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(id, policy.ActionUpdate, policy.KindUser, userObject(u)); err != nil {
		return nil, err
	}
	if err := s.validator.UserUpdate(in); err != nil {
		return nil, err
	}

	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		// блокируем строку: регистрация профиля ждёт конца транзакции
		u, err := tx.Users.GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		fields := map[string]any{}
		if in.Email != nil {
			fields["email"] = *in.Email
		}
		if in.ContactPhone != nil {
			fields["contact_phone"] = *in.ContactPhone
		}
		if in.IsServiceProvider != nil && *in.IsServiceProvider != u.IsServiceProvider {
			if u.HasProfile() {
				return apperr.Conflict(apperr.CodeImmutable,
					"is_service_provider cannot change once user %s has a %s profile", u.Username, u.Role().Kind)
			}
			fields["is_service_provider"] = *in.IsServiceProvider
		}
		if len(fields) == 0 {
			return nil
		}
		return tx.Users.Update(ctx, userID, fields)
	})
	if err != nil {
		return nil, err
	}
	return s.loadUser(ctx, userID)
}

// DeleteUser removes the user with every profile and everything hanging off
// them in one transaction.
func (s *IdentityService) DeleteUser(ctx context.Context, id policy.Identity, userID uuid.UUID) error {
	if err := policy.Authorize(id, policy.ActionDelete, policy.KindUser, nil); err != nil {
		return err
	}

	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		return tx.PurgeUser(ctx, userID)
	})
	if err != nil {
		return err
	}

	s.log.WithField("user_id", userID).Info("user deleted")
	return nil
}

// RegisterClient создаёт клиентский профиль вызывающего пользователя.
func (s *IdentityService) RegisterClient(ctx context.Context, id policy.Identity) (*model.Client, error) {
	if err := policy.Authorize(id, policy.ActionCreate, policy.KindClient, &policy.Object{OwnerUserID: id.UserID}); err != nil {
		return nil, err
	}
	if id.UserID == uuid.Nil {
		return nil, apperr.Unauthenticated("authentication credentials were not provided")
	}

	c := &model.Client{UserID: id.UserID}
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		u, err := tx.Users.GetForUpdate(ctx, id.UserID)
		if err != nil {
			return err
		}
		switch {
		case u.Role().Kind == model.RoleClient:
			return apperr.Conflict(apperr.CodeDuplicate, "user %s already has a client profile", u.Username)
		case u.Role().Kind == model.RoleProvider:
			return apperr.Conflict(apperr.CodeRoleConflict, "user %s already has a service provider profile", u.Username)
		case u.IsServiceProvider:
			return apperr.Conflict(apperr.CodeRoleConflict, "user %s is registered as a service provider", u.Username)
		}
		return tx.Clients.Create(ctx, c)
	})
	if err != nil {
		// гонку двух регистраций ловит уникальный индекс clients.user_id
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"client_id": c.ID,
		"user_id":   id.UserID,
	}).Info("client profile registered")

	return c, nil
}
