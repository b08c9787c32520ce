package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/routemill-backend/internal/domain/catalog"
	"github.com/yungbote/routemill-backend/internal/platform/logger"
)

type RouteRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Route, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Route, error)
	Exists(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
	ListByWall(ctx context.Context, tx *gorm.DB, wallID string) ([]*types.Route, error)
	ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Route, error)
	UpsertMany(ctx context.Context, tx *gorm.DB, routes []*types.Route) error
}

type routeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRouteRepo(db *gorm.DB, baseLog *logger.Logger) RouteRepo {
	return &routeRepo{db: db, log: baseLog.With("repo", "RouteRepo")}
}

func (r *routeRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Route, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out types.Route
	if err := t.WithContext(ctx).Where("id = ?", id).Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *routeRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Route, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Route
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *routeRepo) Exists(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return false, nil
	}
	var n int64
	if err := t.WithContext(ctx).Model(&types.Route{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *routeRepo) ListByWall(ctx context.Context, tx *gorm.DB, wallID string) ([]*types.Route, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Route
	if err := t.WithContext(ctx).
		Where("wall_id = ?", wallID).
		Order("set_date DESC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *routeRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Route, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Route
	if err := t.WithContext(ctx).Order("wall_id ASC, set_date DESC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *routeRepo) UpsertMany(ctx context.Context, tx *gorm.DB, routes []*types.Route) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(routes) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, rt := range routes {
		if rt.CreatedAt.IsZero() {
			rt.CreatedAt = now
		}
		rt.UpdatedAt = now
	}
	return t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"wall_id", "grade", "difficulty_label", "color", "setter_name", "set_date", "updated_at",
			}),
		}).
		Create(&routes).Error
}
