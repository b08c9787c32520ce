package activity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/routemill-backend/internal/data/db"
	activityrepo "github.com/yungbote/routemill-backend/internal/data/repos/activity"
	catalogrepo "github.com/yungbote/routemill-backend/internal/data/repos/catalog"
	types "github.com/yungbote/routemill-backend/internal/domain/activity"
	"github.com/yungbote/routemill-backend/internal/domain/apperr"
	"github.com/yungbote/routemill-backend/internal/platform/dbctx"
	"github.com/yungbote/routemill-backend/internal/platform/logger"
	"github.com/yungbote/routemill-backend/internal/realtime"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Publisher receives a realtime message for every newly appended event.
type Publisher interface {
	Publish(ctx context.Context, msg realtime.SSEMessage) error
}

// RouteInvalidator drops cached aggregates for a route.
type RouteInvalidator interface {
	InvalidateRoute(ctx context.Context, routeID uuid.UUID) error
}

type Config struct {
	DefaultPageSize int
	MaxPageSize     int
}

func (c Config) withDefaults() Config {
	if c.MaxPageSize <= 0 {
		c.MaxPageSize = MaxPageSize
	}
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = DefaultPageSize
	}
	if c.DefaultPageSize > c.MaxPageSize {
		c.DefaultPageSize = c.MaxPageSize
	}
	return c
}

// Store is the append-only activity log. Events are never updated or deleted.
type Store interface {
	Append(ctx context.Context, in types.EventInput) (types.ActivityEvent, error)
	LogAttempt(ctx context.Context, actorID, routeID uuid.UUID) (types.ActivityEvent, error)

	QueryByRoute(ctx context.Context, routeID uuid.UUID, limit int, before *Cursor) ([]types.ActivityEvent, error)
	QueryByUser(ctx context.Context, userID uuid.UUID) ([]types.ActivityEvent, error)
	QueryByUserPage(ctx context.Context, userID uuid.UUID, limit int, before *Cursor) ([]types.ActivityEvent, error)
	QueryGlobal(ctx context.Context, limit int, before *Cursor) ([]types.ActivityEvent, error)

	UpsertNote(ctx context.Context, userID, routeID uuid.UUID, text string) error
	GetNote(ctx context.Context, userID, routeID uuid.UUID) (string, error)

	// PageSize clamps a requested page size to the configured bounds. Query
	// methods accept PageSize(n)+1 so callers can look one row ahead.
	PageSize(limit int) int
}

type store struct {
	log         *logger.Logger
	tx          db.TxRunner
	events      activityrepo.EventRepo
	notes       activityrepo.NoteRepo
	routes      catalogrepo.RouteRepo
	publisher   Publisher
	invalidator RouteInvalidator
	validate    *validator.Validate
	tracer      trace.Tracer
	cfg         Config
	now         func() time.Time
}

// NewStore wires the activity store. publisher and invalidator may be nil.
func NewStore(
	log *logger.Logger,
	tx db.TxRunner,
	events activityrepo.EventRepo,
	notes activityrepo.NoteRepo,
	routes catalogrepo.RouteRepo,
	publisher Publisher,
	invalidator RouteInvalidator,
	cfg Config,
) Store {
	return &store{
		log:         log.With("service", "ActivityStore"),
		tx:          tx,
		events:      events,
		notes:       notes,
		routes:      routes,
		publisher:   publisher,
		invalidator: invalidator,
		validate:    newValidator(),
		tracer:      otel.Tracer("routemill/activity"),
		cfg:         cfg.withDefaults(),
		now:         time.Now,
	}
}

func (s *store) PageSize(limit int) int {
	if limit <= 0 {
		return s.cfg.DefaultPageSize
	}
	if limit > s.cfg.MaxPageSize {
		return s.cfg.MaxPageSize
	}
	return limit
}

// fetchLimit is PageSize plus room for a single lookahead row.
func (s *store) fetchLimit(limit int) int {
	if limit > s.cfg.MaxPageSize {
		return s.cfg.MaxPageSize + 1
	}
	return s.PageSize(limit)
}

func (s *store) Append(ctx context.Context, in types.EventInput) (types.ActivityEvent, error) {
	ctx, span := s.tracer.Start(ctx, "activity.Append", trace.WithAttributes(
		attribute.String("action_type", string(in.ActionType)),
		attribute.Bool("idempotent", strings.TrimSpace(in.ClientEventID) != ""),
	))
	defer span.End()

	out, created, err := s.append(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperr.CodeOf(err)))
		return types.ActivityEvent{}, err
	}
	span.SetAttributes(attribute.String("event_id", out.ID.String()), attribute.Bool("replayed", !created))
	if created {
		s.afterCommit(ctx, out)
	}
	return out, nil
}

func (s *store) append(ctx context.Context, in types.EventInput) (types.ActivityEvent, bool, error) {
	norm, err := normalizeInput(s.validate, in)
	if err != nil {
		return types.ActivityEvent{}, false, err
	}

	var (
		out     types.ActivityEvent
		created bool
	)
	err = s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		if norm.ClientEventID != "" {
			existing, err := s.events.GetByClientEventID(dbc.Ctx, dbc.Tx, norm.ActorID, norm.ClientEventID)
			if err == nil {
				out = *existing
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		ok, err := s.routes.Exists(dbc.Ctx, dbc.Tx, *norm.RouteID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound(opAppend, "route %s does not exist", norm.RouteID.String())
		}

		ev := &types.ActivityEvent{
			ID:         uuid.New(),
			ActorID:    norm.ActorID,
			RouteID:    norm.RouteID,
			ActionType: norm.ActionType,
			Content:    norm.Content,
			Metadata:   datatypes.NewJSONType(types.Metadata{IsBeta: norm.IsBeta}),
			CreatedAt:  s.now().UTC().Truncate(time.Microsecond),
		}
		if norm.ClientEventID == "" {
			if err := s.events.Create(dbc.Ctx, dbc.Tx, ev); err != nil {
				return err
			}
			out, created = *ev, true
			return nil
		}

		key := norm.ClientEventID
		ev.ClientEventID = &key
		inserted, err := s.events.CreateIgnoreDuplicates(dbc.Ctx, dbc.Tx, ev)
		if err != nil {
			return err
		}
		if inserted {
			out, created = *ev, true
			return nil
		}
		// lost a race with a concurrent replay of the same key
		existing, err := s.events.GetByClientEventID(dbc.Ctx, dbc.Tx, norm.ActorID, key)
		if err != nil {
			return err
		}
		out = *existing
		return nil
	})
	if err != nil {
		return types.ActivityEvent{}, false, db.MapError(opAppend, err)
	}
	if created {
		s.log.Debug("Activity appended", "event_id", out.ID, "actor_id", out.ActorID, "action_type", out.ActionType)
	} else {
		s.log.Debug("Activity replayed", "event_id", out.ID, "actor_id", out.ActorID)
	}
	return out, created, nil
}

// afterCommit fans the event out. The event is already durable, so failures
// here are logged and never reach the caller.
func (s *store) afterCommit(ctx context.Context, ev types.ActivityEvent) {
	if s.invalidator != nil && ev.RouteID != nil {
		if err := s.invalidator.InvalidateRoute(ctx, *ev.RouteID); err != nil {
			s.log.Warn("Route stats invalidation failed", "route_id", *ev.RouteID, "error", err)
		}
	}
	if s.publisher == nil {
		return
	}
	channels := []string{realtime.ChannelFeed, realtime.UserChannel(ev.ActorID)}
	if ev.RouteID != nil {
		channels = append(channels, realtime.RouteChannel(*ev.RouteID))
	}
	for _, ch := range channels {
		msg := realtime.SSEMessage{Channel: ch, Event: realtime.SSEEventActivityCreated, Data: ev}
		if err := s.publisher.Publish(ctx, msg); err != nil {
			s.log.Warn("Realtime publish failed", "channel", ch, "event_id", ev.ID, "error", err)
		}
	}
}

func (s *store) LogAttempt(ctx context.Context, actorID, routeID uuid.UUID) (types.ActivityEvent, error) {
	return s.Append(ctx, types.EventInput{
		ActorID:    actorID,
		RouteID:    &routeID,
		ActionType: types.ActionAttempt,
	})
}

func (s *store) QueryByRoute(ctx context.Context, routeID uuid.UUID, limit int, before *Cursor) ([]types.ActivityEvent, error) {
	const op = "activity.query_by_route"
	if err := s.requireRoute(ctx, op, routeID); err != nil {
		return nil, err
	}
	return s.list(ctx, op, activityrepo.Filter{RouteID: &routeID}, s.fetchLimit(limit), before)
}

func (s *store) QueryByUser(ctx context.Context, userID uuid.UUID) ([]types.ActivityEvent, error) {
	return s.list(ctx, "activity.query_by_user", activityrepo.Filter{ActorID: &userID}, 0, nil)
}

func (s *store) QueryByUserPage(ctx context.Context, userID uuid.UUID, limit int, before *Cursor) ([]types.ActivityEvent, error) {
	return s.list(ctx, "activity.query_by_user", activityrepo.Filter{ActorID: &userID}, s.fetchLimit(limit), before)
}

func (s *store) QueryGlobal(ctx context.Context, limit int, before *Cursor) ([]types.ActivityEvent, error) {
	return s.list(ctx, "activity.query_global", activityrepo.Filter{}, s.fetchLimit(limit), before)
}

// list returns newest-first events strictly after before. limit 0 is unbounded.
func (s *store) list(ctx context.Context, op string, f activityrepo.Filter, limit int, before *Cursor) ([]types.ActivityEvent, error) {
	rows, err := s.events.ListNewestFirst(ctx, nil, f, before.position(), limit)
	if err != nil {
		return nil, db.MapError(op, err)
	}
	out := make([]types.ActivityEvent, 0, len(rows))
	for _, r := range rows {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *store) UpsertNote(ctx context.Context, userID, routeID uuid.UUID, text string) error {
	const op = "activity.upsert_note"
	if userID == uuid.Nil {
		return apperr.Validation(op, "user is required")
	}
	if n := len([]rune(text)); n > MaxNoteLength {
		return apperr.Validation(op, "note is %d characters; max %d", n, MaxNoteLength)
	}
	if err := s.requireRoute(ctx, op, routeID); err != nil {
		return err
	}
	note := &types.PersonalNote{
		UserID:    userID,
		RouteID:   routeID,
		Text:      text,
		UpdatedAt: s.now().UTC().Truncate(time.Microsecond),
	}
	if err := s.notes.Upsert(ctx, nil, note); err != nil {
		return db.MapError(op, err)
	}
	return nil
}

func (s *store) GetNote(ctx context.Context, userID, routeID uuid.UUID) (string, error) {
	const op = "activity.get_note"
	if err := s.requireRoute(ctx, op, routeID); err != nil {
		return "", err
	}
	note, err := s.notes.Get(ctx, nil, userID, routeID)
	if err != nil {
		return "", db.MapError(op, err)
	}
	if note == nil {
		return "", nil
	}
	return note.Text, nil
}

func (s *store) requireRoute(ctx context.Context, op string, routeID uuid.UUID) error {
	if routeID == uuid.Nil {
		return apperr.Validation(op, "route is required")
	}
	ok, err := s.routes.Exists(ctx, nil, routeID)
	if err != nil {
		return db.MapError(op, err)
	}
	if !ok {
		return apperr.NotFound(op, "route %s does not exist", routeID.String())
	}
	return nil
}
