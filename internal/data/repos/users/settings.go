package users

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/routemill-backend/internal/domain/user"
	"github.com/yungbote/routemill-backend/internal/platform/logger"
)

type SettingsRepo interface {
	// Get returns nil, nil when the user has never saved settings.
	Get(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Settings, error)
	Upsert(ctx context.Context, tx *gorm.DB, s *types.Settings) error
}

type settingsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSettingsRepo(db *gorm.DB, baseLog *logger.Logger) SettingsRepo {
	return &settingsRepo{db: db, log: baseLog.With("repo", "SettingsRepo")}
}

func (r *settingsRepo) Get(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Settings, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out types.Settings
	err := t.WithContext(ctx).Where("user_id = ?", userID).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *settingsRepo) Upsert(ctx context.Context, tx *gorm.DB, s *types.Settings) error {
	t := tx
	if t == nil {
		t = r.db
	}
	s.UpdatedAt = time.Now().UTC()
	return t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"grade_display", "updated_at"}),
		}).
		Create(s).Error
}
