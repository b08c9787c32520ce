package activity

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/routemill-backend/internal/domain/activity"
	"github.com/yungbote/routemill-backend/internal/platform/logger"
)

// Filter narrows a newest-first listing. Zero value lists the global log.
type Filter struct {
	RouteID *uuid.UUID
	ActorID *uuid.UUID
}

type EventRepo interface {
	Create(ctx context.Context, tx *gorm.DB, event *types.ActivityEvent) error
	// CreateIgnoreDuplicates inserts unless (actor_id, client_event_id) already
	// exists, and reports whether a row was written.
	CreateIgnoreDuplicates(ctx context.Context, tx *gorm.DB, event *types.ActivityEvent) (bool, error)

	GetByClientEventID(ctx context.Context, tx *gorm.DB, actorID uuid.UUID, clientEventID string) (*types.ActivityEvent, error)

	ListNewestFirst(ctx context.Context, tx *gorm.DB, f Filter, before *types.Position, limit int) ([]*types.ActivityEvent, error)
	ListByRouteIDs(ctx context.Context, tx *gorm.DB, routeIDs []uuid.UUID) ([]*types.ActivityEvent, error)
	ListByActorAndRoute(ctx context.Context, tx *gorm.DB, actorID, routeID uuid.UUID) ([]*types.ActivityEvent, error)

	CountByRoute(ctx context.Context, tx *gorm.DB, routeID uuid.UUID) (int64, error)
}

type eventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEventRepo(db *gorm.DB, baseLog *logger.Logger) EventRepo {
	return &eventRepo{db: db, log: baseLog.With("repo", "ActivityEventRepo")}
}

func (r *eventRepo) Create(ctx context.Context, tx *gorm.DB, event *types.ActivityEvent) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Create(event).Error
}

func (r *eventRepo) CreateIgnoreDuplicates(ctx context.Context, tx *gorm.DB, event *types.ActivityEvent) (bool, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "actor_id"}, {Name: "client_event_id"}},
			DoNothing: true,
		}).
		Create(event)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *eventRepo) GetByClientEventID(ctx context.Context, tx *gorm.DB, actorID uuid.UUID, clientEventID string) (*types.ActivityEvent, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	key := strings.TrimSpace(clientEventID)
	if actorID == uuid.Nil || key == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var out types.ActivityEvent
	if err := t.WithContext(ctx).
		Where("actor_id = ? AND client_event_id = ?", actorID, key).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *eventRepo) ListNewestFirst(ctx context.Context, tx *gorm.DB, f Filter, before *types.Position, limit int) ([]*types.ActivityEvent, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(ctx).Model(&types.ActivityEvent{})
	if f.RouteID != nil {
		q = q.Where("route_id = ?", *f.RouteID)
	}
	if f.ActorID != nil {
		q = q.Where("actor_id = ?", *f.ActorID)
	}
	// tie-safe cursor: strictly older than (created_at, id)
	if before != nil {
		q = q.Where("(created_at < ? OR (created_at = ? AND id < ?))", before.CreatedAt, before.CreatedAt, before.ID)
	}
	q = q.Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []*types.ActivityEvent
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *eventRepo) ListByRouteIDs(ctx context.Context, tx *gorm.DB, routeIDs []uuid.UUID) ([]*types.ActivityEvent, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.ActivityEvent
	if len(routeIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("route_id IN ?", routeIDs).
		Order("created_at DESC, id DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *eventRepo) ListByActorAndRoute(ctx context.Context, tx *gorm.DB, actorID, routeID uuid.UUID) ([]*types.ActivityEvent, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.ActivityEvent
	if actorID == uuid.Nil || routeID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("actor_id = ? AND route_id = ?", actorID, routeID).
		Order("created_at DESC, id DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *eventRepo) CountByRoute(ctx context.Context, tx *gorm.DB, routeID uuid.UUID) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var n int64
	if err := t.WithContext(ctx).
		Model(&types.ActivityEvent{}).
		Where("route_id = ?", routeID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
