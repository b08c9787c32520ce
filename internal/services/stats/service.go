package stats

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/yungbote/routemill-backend/internal/data/cache"
	"github.com/yungbote/routemill-backend/internal/data/db"
	activityrepo "github.com/yungbote/routemill-backend/internal/data/repos/activity"
	catalogrepo "github.com/yungbote/routemill-backend/internal/data/repos/catalog"
	userrepo "github.com/yungbote/routemill-backend/internal/data/repos/users"
	types "github.com/yungbote/routemill-backend/internal/domain/activity"
	"github.com/yungbote/routemill-backend/internal/domain/apperr"
	"github.com/yungbote/routemill-backend/internal/domain/catalog"
	"github.com/yungbote/routemill-backend/internal/domain/user"
	"github.com/yungbote/routemill-backend/internal/platform/logger"
)

const defaultCacheTTL = 10 * time.Minute

type Config struct {
	CacheTTL time.Duration
}

type ProfileUser struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Placeholder bool      `json:"placeholder,omitempty"`
}

type GradeCount struct {
	Grade string `json:"grade"`
	Count int    `json:"count"`
}

type Profile struct {
	User              ProfileUser  `json:"user"`
	Stats             UserStats    `json:"stats"`
	GradeDistribution []GradeCount `json:"grade_distribution"`
}

type Service interface {
	// RouteStats returns route-wide stats plus the viewer's own status when
	// viewerID is set.
	RouteStats(ctx context.Context, routeID uuid.UUID, viewerID *uuid.UUID) (RouteStats, error)
	RouteStatsBatch(ctx context.Context, routeIDs []uuid.UUID, viewerID *uuid.UUID) (map[uuid.UUID]RouteStats, error)
	UserStats(ctx context.Context, userID uuid.UUID) (UserStats, error)
	Profile(ctx context.Context, userID uuid.UUID, display catalog.GradeDisplay) (Profile, error)
	InvalidateRoute(ctx context.Context, routeID uuid.UUID) error
}

type service struct {
	log    *logger.Logger
	events activityrepo.EventRepo
	routes catalogrepo.RouteRepo
	users  userrepo.UserRepo
	cache  cache.Cache
	ttl    time.Duration
	group  singleflight.Group
}

func NewService(
	log *logger.Logger,
	events activityrepo.EventRepo,
	routes catalogrepo.RouteRepo,
	users userrepo.UserRepo,
	c cache.Cache,
	cfg Config,
) Service {
	if c == nil {
		c = cache.Noop()
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &service{
		log:    log.With("service", "StatsService"),
		events: events,
		routes: routes,
		users:  users,
		cache:  c,
		ttl:    ttl,
	}
}

// cachedRouteStats is tagged with the number of events it was computed
// from. The log is append-only, so an equal count means an equal event set.
type cachedRouteStats struct {
	EventCount int64      `json:"event_count"`
	Stats      RouteStats `json:"stats"`
}

func routeKey(routeID uuid.UUID) string { return "stats:route:" + routeID.String() }

func (s *service) RouteStats(ctx context.Context, routeID uuid.UUID, viewerID *uuid.UUID) (RouteStats, error) {
	const op = "stats.route"
	if routeID == uuid.Nil {
		return RouteStats{}, apperr.Validation(op, "route is required")
	}
	ok, err := s.routes.Exists(ctx, nil, routeID)
	if err != nil {
		return RouteStats{}, db.MapError(op, err)
	}
	if !ok {
		return RouteStats{}, apperr.NotFound(op, "route %s does not exist", routeID.String())
	}

	out, err := s.routeWide(ctx, routeID)
	if err != nil {
		return RouteStats{}, db.MapError(op, err)
	}
	out.ViewerStatus = nil
	if viewerID != nil && *viewerID != uuid.Nil {
		mine, err := s.events.ListByActorAndRoute(ctx, nil, *viewerID, routeID)
		if err != nil {
			return RouteStats{}, db.MapError(op, err)
		}
		out.ViewerStatus = ViewerStatus(derefEvents(mine))
	}
	return out, nil
}

func (s *service) routeWide(ctx context.Context, routeID uuid.UUID) (RouteStats, error) {
	key := routeKey(routeID)
	count, err := s.events.CountByRoute(ctx, nil, routeID)
	if err != nil {
		return RouteStats{}, err
	}

	raw, hit, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn("Stats cache read failed", "route_id", routeID, "error", err)
	}
	if hit {
		var entry cachedRouteStats
		if err := json.Unmarshal(raw, &entry); err == nil && entry.EventCount == count {
			return entry.Stats, nil
		}
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		rows, err := s.events.ListByRouteIDs(ctx, nil, []uuid.UUID{routeID})
		if err != nil {
			return nil, err
		}
		events := derefEvents(rows)
		computed := ComputeRouteStats(events, nil)
		if raw, err := json.Marshal(cachedRouteStats{EventCount: int64(len(events)), Stats: computed}); err == nil {
			if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
				s.log.Warn("Stats cache write failed", "route_id", routeID, "error", err)
			}
		}
		return computed, nil
	})
	if err != nil {
		return RouteStats{}, err
	}
	return v.(RouteStats), nil
}

func (s *service) RouteStatsBatch(ctx context.Context, routeIDs []uuid.UUID, viewerID *uuid.UUID) (map[uuid.UUID]RouteStats, error) {
	const op = "stats.route_batch"
	out := make(map[uuid.UUID]RouteStats, len(routeIDs))
	if len(routeIDs) == 0 {
		return out, nil
	}
	rows, err := s.events.ListByRouteIDs(ctx, nil, routeIDs)
	if err != nil {
		return nil, db.MapError(op, err)
	}
	byRoute := make(map[uuid.UUID][]types.ActivityEvent, len(routeIDs))
	for _, r := range rows {
		if r == nil || r.RouteID == nil {
			continue
		}
		byRoute[*r.RouteID] = append(byRoute[*r.RouteID], *r)
	}
	var viewer *uuid.UUID
	if viewerID != nil && *viewerID != uuid.Nil {
		viewer = viewerID
	}
	for _, id := range routeIDs {
		out[id] = ComputeRouteStats(byRoute[id], viewer)
	}
	return out, nil
}

func (s *service) UserStats(ctx context.Context, userID uuid.UUID) (UserStats, error) {
	events, err := s.userEvents(ctx, userID)
	if err != nil {
		return UserStats{}, db.MapError("stats.user", err)
	}
	return ComputeUserStats(events), nil
}

func (s *service) Profile(ctx context.Context, userID uuid.UUID, display catalog.GradeDisplay) (Profile, error) {
	const op = "stats.profile"
	if userID == uuid.Nil {
		return Profile{}, apperr.Validation(op, "user is required")
	}
	events, err := s.userEvents(ctx, userID)
	if err != nil {
		return Profile{}, db.MapError(op, err)
	}

	out := Profile{
		User:              ProfileUser{ID: userID, Name: user.PlaceholderName, Placeholder: true},
		Stats:             ComputeUserStats(events),
		GradeDistribution: []GradeCount{},
	}
	u, err := s.users.GetByID(ctx, nil, userID)
	switch {
	case err == nil:
		out.User = ProfileUser{ID: u.ID, Name: u.Name, AvatarURL: u.AvatarURL}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if len(events) == 0 {
			return Profile{}, apperr.NotFound(op, "user %s has no profile", userID.String())
		}
	default:
		return Profile{}, db.MapError(op, err)
	}

	sent := sentRouteIDs(events)
	if len(sent) == 0 {
		return out, nil
	}
	routes, err := s.routes.GetByIDs(ctx, nil, sent)
	if err != nil {
		s.log.Warn("Profile route lookup failed; using placeholders", "user_id", userID, "error", err)
		routes = nil
	}
	out.GradeDistribution = gradeDistribution(sent, routes, display)
	return out, nil
}

func (s *service) InvalidateRoute(ctx context.Context, routeID uuid.UUID) error {
	return s.cache.Delete(ctx, routeKey(routeID))
}

func (s *service) userEvents(ctx context.Context, userID uuid.UUID) ([]types.ActivityEvent, error) {
	rows, err := s.events.ListNewestFirst(ctx, nil, activityrepo.Filter{ActorID: &userID}, nil, 0)
	if err != nil {
		return nil, err
	}
	return derefEvents(rows), nil
}

// gradeDistribution counts sent routes per displayed grade, easiest first.
func gradeDistribution(sent []uuid.UUID, routes []*catalog.Route, display catalog.GradeDisplay) []GradeCount {
	byID := make(map[uuid.UUID]catalog.Route, len(routes))
	for _, r := range routes {
		if r != nil {
			byID[r.ID] = *r
		}
	}
	counts := map[string]int{}
	order := map[string]int{}
	for _, id := range sent {
		r, ok := byID[id]
		if !ok {
			r = catalog.PlaceholderRoute(id)
		}
		label := r.DisplayGrade(display)
		counts[label]++
		n := catalog.VGradeNumber(r.Grade)
		if prev, ok := order[label]; !ok || (n >= 0 && (prev < 0 || n < prev)) {
			order[label] = n
		}
	}
	out := make([]GradeCount, 0, len(counts))
	for g, c := range counts {
		out = append(out, GradeCount{Grade: g, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		oi, oj := order[out[i].Grade], order[out[j].Grade]
		switch {
		case oi >= 0 && oj >= 0 && oi != oj:
			return oi < oj
		case oi >= 0 && oj < 0:
			return true
		case oi < 0 && oj >= 0:
			return false
		}
		return strings.Compare(out[i].Grade, out[j].Grade) < 0
	})
	return out
}

func derefEvents(rows []*types.ActivityEvent) []types.ActivityEvent {
	out := make([]types.ActivityEvent, 0, len(rows))
	for _, r := range rows {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}
