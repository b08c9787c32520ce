package activity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/routemill-backend/internal/domain/activity"
	"github.com/yungbote/routemill-backend/internal/platform/logger"
)

type NoteRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, note *types.PersonalNote) error
	// Get returns nil, nil when the user never saved a note for the route.
	Get(ctx context.Context, tx *gorm.DB, userID, routeID uuid.UUID) (*types.PersonalNote, error)
}

type noteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNoteRepo(db *gorm.DB, baseLog *logger.Logger) NoteRepo {
	return &noteRepo{db: db, log: baseLog.With("repo", "PersonalNoteRepo")}
}

func (r *noteRepo) Upsert(ctx context.Context, tx *gorm.DB, note *types.PersonalNote) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if note.UpdatedAt.IsZero() {
		note.UpdatedAt = time.Now().UTC()
	}
	return t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "route_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"text", "updated_at"}),
		}).
		Create(note).Error
}

func (r *noteRepo) Get(ctx context.Context, tx *gorm.DB, userID, routeID uuid.UUID) (*types.PersonalNote, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out types.PersonalNote
	err := t.WithContext(ctx).
		Where("user_id = ? AND route_id = ?", userID, routeID).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
