package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yungbote/routemill-backend/internal/domain/apperr"
)

func TestMapError_NotFound(t *testing.T) {
	err := MapError("route.get", fmt.Errorf("lookup: %w", gorm.ErrRecordNotFound))
	if !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Fatalf("want not_found, got=%q", apperr.CodeOf(err))
	}
}

func TestMapError_PgCodes(t *testing.T) {
	cases := map[string]apperr.Code{
		"23505": apperr.CodeConflict,
		"40001": apperr.CodeTransient,
		"40P01": apperr.CodeTransient,
		"08006": apperr.CodeTransient,
		"23502": apperr.CodeValidation,
	}
	for code, want := range cases {
		err := MapError("activity.append", &pgconn.PgError{Code: code, Message: "boom"})
		if !apperr.IsCode(err, want) {
			t.Fatalf("pg %s: want=%q got=%q", code, want, apperr.CodeOf(err))
		}
	}
}

func TestMapError_ContextDeadlineIsTransient(t *testing.T) {
	err := MapError("activity.append", context.DeadlineExceeded)
	if !apperr.IsTransient(err) {
		t.Fatalf("want transient, got=%q", apperr.CodeOf(err))
	}
}

func TestMapError_SQLiteLockedIsTransient(t *testing.T) {
	err := MapError("activity.append", errors.New("database is locked (5) (SQLITE_BUSY)"))
	if !apperr.IsTransient(err) {
		t.Fatalf("want transient, got=%q", apperr.CodeOf(err))
	}
}

func TestMapError_PassThroughCoded(t *testing.T) {
	in := apperr.Validation("activity.append", "comment content is required")
	if out := MapError("outer", in); out != in {
		t.Fatalf("coded error should pass through unchanged")
	}
	if MapError("op", nil) != nil {
		t.Fatalf("nil should map to nil")
	}
}

func TestMapError_UnknownIsInternal(t *testing.T) {
	err := MapError("op", errors.New("something odd"))
	if !apperr.IsCode(err, apperr.CodeInternal) {
		t.Fatalf("want internal, got=%q", apperr.CodeOf(err))
	}
}
