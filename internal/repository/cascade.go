package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/harmoni/harmoniconnect/internal/apperr"
)

// Каскадное удаление выполняется явно, снизу вверх, и должно вызываться на
// репозиториях транзакции: либо удаляется всё дерево, либо ничего.

// PurgeBookings удаляет бронирования вместе с отзывом, платежом и деталями
// мероприятия. События аудита остаются, ссылка на бронирование обнуляется.
func (r *Repositories) PurgeBookings(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.Reviews.DeleteByBookings(ctx, ids); err != nil {
		return err
	}
	if err := r.Payments.DeleteByBookings(ctx, ids); err != nil {
		return err
	}
	if err := r.EventDetails.DeleteByBookings(ctx, ids); err != nil {
		return err
	}
	if err := r.Events.DetachBookings(ctx, ids); err != nil {
		return err
	}
	return r.Bookings.DeleteByIDs(ctx, ids)
}

// PurgeServices удаляет услуги и все их бронирования.
func (r *Repositories) PurgeServices(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	bookingIDs, err := r.Bookings.IDsByServices(ctx, ids)
	if err != nil {
		return err
	}
	if err := r.PurgeBookings(ctx, bookingIDs); err != nil {
		return err
	}
	return r.Services.DeleteByIDs(ctx, ids)
}

// PurgeProvider удаляет профиль исполнителя и его услуги.
func (r *Repositories) PurgeProvider(ctx context.Context, providerID uuid.UUID) error {
	serviceIDs, err := r.Services.IDsByProvider(ctx, providerID)
	if err != nil {
		return err
	}
	if err := r.PurgeServices(ctx, serviceIDs); err != nil {
		return err
	}
	return r.Providers.Delete(ctx, providerID)
}

// PurgeClient удаляет профиль клиента и его бронирования.
func (r *Repositories) PurgeClient(ctx context.Context, clientID uuid.UUID) error {
	bookingIDs, err := r.Bookings.IDsByClient(ctx, clientID)
	if err != nil {
		return err
	}
	if err := r.PurgeBookings(ctx, bookingIDs); err != nil {
		return err
	}
	return r.Clients.Delete(ctx, clientID)
}

// PurgeUser удаляет пользователя со всеми профилями и зависимыми записями.
func (r *Repositories) PurgeUser(ctx context.Context, userID uuid.UUID) error {
	if p, err := r.Providers.GetByUserID(ctx, userID); err == nil {
		if err := r.PurgeProvider(ctx, p.ID); err != nil {
			return err
		}
	} else if !isNotFound(err) {
		return err
	}

	if c, err := r.Clients.GetByUserID(ctx, userID); err == nil {
		if err := r.PurgeClient(ctx, c.ID); err != nil {
			return err
		}
	} else if !isNotFound(err) {
		return err
	}

	if err := r.Events.DetachUser(ctx, userID); err != nil {
		return err
	}
	return r.Users.Delete(ctx, userID)
}

func isNotFound(err error) bool {
	var ae *apperr.Error
	return errors.As(err, &ae) && ae.Kind == apperr.KindNotFound
}
