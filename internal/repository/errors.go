package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/harmoni/harmoniconnect/internal/apperr"
)

// translate maps storage errors onto the application taxonomy. Errors that
// already are *apperr.Error pass through unchanged.
func translate(err error, resource string, id any) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound(resource, id)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		e := apperr.Conflict(apperr.CodeDuplicate, "%s already exists", resource)
		e.Err = err
		return e
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		e := apperr.Referential(map[string]string{resource: "Referenced object does not exist."})
		e.Err = err
		return e
	case isNumericOverflow(err):
		e := apperr.Validation(map[string]string{"non_field_errors": "A numeric value is out of range."})
		e.Err = err
		return e
	case IsTransient(err):
		return apperr.Transient(err)
	}
	return fmt.Errorf("%s: %w", resource, err)
}

// 22003 numeric_value_out_of_range: значение не влезает в numeric(p,s)
func isNumericOverflow(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22003"
}

// transient-класс SQLSTATE: обрыв соединения, сериализация, дедлок, рестарт сервера, лимит подключений
var transientSQLStates = map[string]bool{
	"40001": true,
	"40P01": true,
	"57P01": true,
	"57P03": true,
	"53300": true,
}

// IsTransient reports whether err is a storage I/O failure that an idempotent
// reader may retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "08") || transientSQLStates[pgErr.Code]
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	// SQLITE_BUSY у встроенного драйвера
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

func translateTx(err error) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	if IsTransient(err) {
		return apperr.Transient(err)
	}
	return err
}
