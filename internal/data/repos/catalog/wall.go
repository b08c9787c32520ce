package catalog

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/routemill-backend/internal/domain/catalog"
	"github.com/yungbote/routemill-backend/internal/platform/logger"
)

type WallRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Wall, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*types.Wall, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Wall, error)
	UpsertMany(ctx context.Context, tx *gorm.DB, walls []*types.Wall) error
}

type wallRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWallRepo(db *gorm.DB, baseLog *logger.Logger) WallRepo {
	return &wallRepo{db: db, log: baseLog.With("repo", "WallRepo")}
}

func (r *wallRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Wall, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out types.Wall
	if err := t.WithContext(ctx).Where("id = ?", id).Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *wallRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*types.Wall, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Wall
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *wallRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Wall, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Wall
	if err := t.WithContext(ctx).Order("sort_order ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *wallRepo) UpsertMany(ctx context.Context, tx *gorm.DB, walls []*types.Wall) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(walls) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, w := range walls {
		if w.CreatedAt.IsZero() {
			w.CreatedAt = now
		}
		w.UpdatedAt = now
	}
	return t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "type", "sort_order", "updated_at"}),
		}).
		Create(&walls).Error
}
