package settings

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/routemill-backend/internal/data/db"
	userrepo "github.com/yungbote/routemill-backend/internal/data/repos/users"
	"github.com/yungbote/routemill-backend/internal/domain/apperr"
	"github.com/yungbote/routemill-backend/internal/domain/catalog"
	"github.com/yungbote/routemill-backend/internal/domain/user"
	"github.com/yungbote/routemill-backend/internal/platform/logger"
)

// Service is the explicit read/write pair for per-user display settings.
// Nothing else reads settings implicitly; callers pass the result along.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (user.Settings, error)
	Put(ctx context.Context, userID uuid.UUID, gradeDisplay string) (user.Settings, error)
}

type service struct {
	log  *logger.Logger
	repo userrepo.SettingsRepo
}

func NewService(log *logger.Logger, repo userrepo.SettingsRepo) Service {
	return &service{log: log.With("service", "SettingsService"), repo: repo}
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (user.Settings, error) {
	const op = "settings.get"
	if userID == uuid.Nil {
		return user.Settings{}, apperr.Validation(op, "user is required")
	}
	got, err := s.repo.Get(ctx, nil, userID)
	if err != nil {
		return user.Settings{}, db.MapError(op, err)
	}
	if got == nil {
		return user.DefaultSettings(userID), nil
	}
	if _, ok := catalog.ParseGradeDisplay(string(got.GradeDisplay)); !ok {
		s.log.Warn("Stored grade display is invalid; using default", "user_id", userID, "grade_display", got.GradeDisplay)
		return user.DefaultSettings(userID), nil
	}
	return *got, nil
}

func (s *service) Put(ctx context.Context, userID uuid.UUID, gradeDisplay string) (user.Settings, error) {
	const op = "settings.put"
	if userID == uuid.Nil {
		return user.Settings{}, apperr.Validation(op, "user is required")
	}
	display, ok := catalog.ParseGradeDisplay(gradeDisplay)
	if !ok {
		return user.Settings{}, apperr.Validation(op, "grade_display must be %q or %q", catalog.GradeDisplayVScale, catalog.GradeDisplayDifficulty)
	}
	out := &user.Settings{UserID: userID, GradeDisplay: display}
	if err := s.repo.Upsert(ctx, nil, out); err != nil {
		return user.Settings{}, db.MapError(op, err)
	}
	return *out, nil
}
