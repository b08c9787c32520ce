package db

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yungbote/routemill-backend/internal/domain/apperr"
)

// MapError translates driver and ORM failures into apperr codes. Errors that
// already carry a code pass through untouched.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var coded *apperr.Error
	if errors.As(err, &coded) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.Wrap(apperr.CodeNotFound, op, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Wrap(apperr.CodeConflict, op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperr.Wrap(apperr.CodeTransient, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return apperr.Wrap(apperr.CodeConflict, op, err) // unique_violation
		case "23502", "23514", "22P02":
			return apperr.Wrap(apperr.CodeValidation, op, err) // not_null / check / invalid_text
		case "40001", "40P01", "55P03", "57014", "57P01":
			return apperr.Wrap(apperr.CodeTransient, op, err) // serialization / deadlock / lock / cancel / shutdown
		}
		if strings.HasPrefix(pgErr.Code, "08") {
			return apperr.Wrap(apperr.CodeTransient, op, err) // connection_exception class
		}
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "duplicate key"), strings.Contains(msg, "unique constraint failed"):
		return apperr.Wrap(apperr.CodeConflict, op, err)
	case strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "deadlock"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "temporar"):
		return apperr.Wrap(apperr.CodeTransient, op, err)
	default:
		return apperr.Wrap(apperr.CodeInternal, op, err)
	}
}
