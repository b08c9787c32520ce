package browse

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/routemill-backend/internal/data/db"
	catalogrepo "github.com/yungbote/routemill-backend/internal/data/repos/catalog"
	"github.com/yungbote/routemill-backend/internal/domain/apperr"
	"github.com/yungbote/routemill-backend/internal/domain/catalog"
	"github.com/yungbote/routemill-backend/internal/platform/logger"
	"github.com/yungbote/routemill-backend/internal/services/activity"
	"github.com/yungbote/routemill-backend/internal/services/stats"
)

const (
	DefaultFreshWindow = 7 * 24 * time.Hour
	maxWallColors      = 5
)

type Config struct {
	FreshWindow time.Duration
}

type WallSummary struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Type          string     `json:"type"`
	RouteCount    int        `json:"route_count"`
	Colors        []string   `json:"colors"`
	LatestSetDate *time.Time `json:"latest_set_date,omitempty"`
	// Fresh marks a wall with a route set inside the fresh window.
	Fresh bool `json:"fresh"`
}

type RouteCard struct {
	ID         uuid.UUID        `json:"id"`
	WallID     string           `json:"wall_id"`
	Grade      string           `json:"grade"`
	Color      string           `json:"color"`
	SetterName string           `json:"setter_name"`
	SetDate    time.Time        `json:"set_date"`
	Stats      stats.RouteStats `json:"stats"`
}

type RouteDetail struct {
	RouteCard
	WallName string `json:"wall_name"`
	Note     string `json:"note"`
}

type Service interface {
	ListWalls(ctx context.Context) ([]WallSummary, error)
	ListWallRoutes(ctx context.Context, wallID string, viewerID *uuid.UUID, display catalog.GradeDisplay) ([]RouteCard, error)
	RouteDetail(ctx context.Context, routeID, viewerID uuid.UUID, display catalog.GradeDisplay) (RouteDetail, error)
}

type service struct {
	log    *logger.Logger
	walls  catalogrepo.WallRepo
	routes catalogrepo.RouteRepo
	stats  stats.Service
	store  activity.Store
	fresh  time.Duration
	now    func() time.Time
}

func NewService(
	log *logger.Logger,
	walls catalogrepo.WallRepo,
	routes catalogrepo.RouteRepo,
	statsSvc stats.Service,
	store activity.Store,
	cfg Config,
) Service {
	fresh := cfg.FreshWindow
	if fresh <= 0 {
		fresh = DefaultFreshWindow
	}
	return &service{
		log:    log.With("service", "BrowseService"),
		walls:  walls,
		routes: routes,
		stats:  statsSvc,
		store:  store,
		fresh:  fresh,
		now:    time.Now,
	}
}

func (s *service) ListWalls(ctx context.Context) ([]WallSummary, error) {
	const op = "browse.list_walls"
	walls, err := s.walls.List(ctx, nil)
	if err != nil {
		return nil, db.MapError(op, err)
	}
	routes, err := s.routes.ListAll(ctx, nil)
	if err != nil {
		return nil, db.MapError(op, err)
	}

	// ListAll returns each wall's routes newest set first.
	byWall := make(map[string][]*catalog.Route, len(walls))
	for _, r := range routes {
		if r != nil {
			byWall[r.WallID] = append(byWall[r.WallID], r)
		}
	}
	cutoff := s.now().UTC().Add(-s.fresh)

	out := make([]WallSummary, 0, len(walls))
	for _, w := range walls {
		if w == nil {
			continue
		}
		wr := byWall[w.ID]
		sum := WallSummary{
			ID:         w.ID,
			Name:       w.Name,
			Type:       w.Type,
			RouteCount: len(wr),
			Colors:     distinctColors(wr, maxWallColors),
		}
		if len(wr) > 0 {
			latest := wr[0].SetDate
			sum.LatestSetDate = &latest
			sum.Fresh = latest.After(cutoff)
		}
		out = append(out, sum)
	}
	return out, nil
}

func (s *service) ListWallRoutes(ctx context.Context, wallID string, viewerID *uuid.UUID, display catalog.GradeDisplay) ([]RouteCard, error) {
	const op = "browse.list_wall_routes"
	if wallID == "" {
		return nil, apperr.Validation(op, "wall is required")
	}
	if _, err := s.walls.GetByID(ctx, nil, wallID); err != nil {
		return nil, db.MapError(op, err)
	}
	routes, err := s.routes.ListByWall(ctx, nil, wallID)
	if err != nil {
		return nil, db.MapError(op, err)
	}
	ids := make([]uuid.UUID, 0, len(routes))
	for _, r := range routes {
		ids = append(ids, r.ID)
	}
	byRoute, err := s.stats.RouteStatsBatch(ctx, ids, viewerID)
	if err != nil {
		return nil, err
	}
	out := make([]RouteCard, 0, len(routes))
	for _, r := range routes {
		out = append(out, card(*r, byRoute[r.ID], display))
	}
	return out, nil
}

func (s *service) RouteDetail(ctx context.Context, routeID, viewerID uuid.UUID, display catalog.GradeDisplay) (RouteDetail, error) {
	const op = "browse.route_detail"
	r, err := s.routes.GetByID(ctx, nil, routeID)
	if err != nil {
		return RouteDetail{}, db.MapError(op, err)
	}
	var viewer *uuid.UUID
	if viewerID != uuid.Nil {
		viewer = &viewerID
	}
	st, err := s.stats.RouteStats(ctx, routeID, viewer)
	if err != nil {
		return RouteDetail{}, err
	}
	out := RouteDetail{RouteCard: card(*r, st, display), WallName: r.WallID}
	if w, err := s.walls.GetByID(ctx, nil, r.WallID); err == nil {
		out.WallName = w.Name
	} else {
		s.log.Warn("Route wall lookup failed", "route_id", routeID, "wall_id", r.WallID, "error", err)
	}
	if viewer != nil {
		note, err := s.store.GetNote(ctx, viewerID, routeID)
		if err != nil {
			return RouteDetail{}, err
		}
		out.Note = note
	}
	return out, nil
}

func card(r catalog.Route, st stats.RouteStats, display catalog.GradeDisplay) RouteCard {
	return RouteCard{
		ID:         r.ID,
		WallID:     r.WallID,
		Grade:      r.DisplayGrade(display),
		Color:      r.Color,
		SetterName: r.SetterName,
		SetDate:    r.SetDate,
		Stats:      st,
	}
}

func distinctColors(routes []*catalog.Route, limit int) []string {
	out := make([]string, 0, limit)
	seen := map[string]bool{}
	for _, r := range routes {
		if len(out) == limit {
			break
		}
		if r.Color == "" || seen[r.Color] {
			continue
		}
		seen[r.Color] = true
		out = append(out, r.Color)
	}
	return out
}
