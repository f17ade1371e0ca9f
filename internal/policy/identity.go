package policy

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/harmoni/harmoniconnect/internal/apperr"
	"github.com/harmoni/harmoniconnect/internal/model"
)

// Ошибки разрешения identity.
var (
	ErrInvalidUserID = errors.New("invalid user id")
	ErrUserNotFound  = errors.New("user not found")
)

// Источник данных о пользователях.
// В проде это репозиторий, в тестах мок.
type UserStore interface {
	// GetByID возвращает пользователя с подгруженными профилями.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// ResolveIdentity:
//   - проверяет корректность идентификатора;
//   - вытаскивает пользователя вместе с профилями;
//   - собирает Identity для дальнейших проверок.
func ResolveIdentity(ctx context.Context, store UserStore, userID uuid.UUID) (Identity, error) {
	if userID == uuid.Nil {
		return Identity{}, ErrInvalidUserID
	}

	u, err := store.GetByID(ctx, userID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return Identity{}, ErrUserNotFound
		}
		return Identity{}, err
	}
	if u == nil {
		return Identity{}, ErrUserNotFound
	}

	return FromUser(u), nil
}

// FromUser builds an authenticated identity from a user with preloaded profiles.
func FromUser(u *model.User) Identity {
	id := Identity{
		UserID:            u.ID,
		Authenticated:     true,
		IsSuperuser:       u.IsSuperuser,
		IsServiceProvider: u.IsServiceProvider,
	}
	if u.Client != nil {
		cid := u.Client.ID
		id.ClientID = &cid
	}
	if u.Provider != nil {
		pid := u.Provider.ID
		id.ProviderID = &pid
	}
	return id
}
