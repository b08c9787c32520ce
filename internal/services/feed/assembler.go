package feed

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	catalogrepo "github.com/yungbote/routemill-backend/internal/data/repos/catalog"
	userrepo "github.com/yungbote/routemill-backend/internal/data/repos/users"
	types "github.com/yungbote/routemill-backend/internal/domain/activity"
	"github.com/yungbote/routemill-backend/internal/domain/catalog"
	"github.com/yungbote/routemill-backend/internal/domain/user"
	"github.com/yungbote/routemill-backend/internal/platform/logger"
	"github.com/yungbote/routemill-backend/internal/services/activity"
)

type PageRequest struct {
	Limit  int
	Cursor string
}

type Options struct {
	GradeDisplay catalog.GradeDisplay
}

type Actor struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Placeholder bool      `json:"placeholder,omitempty"`
}

// RouteRef is the route half of a feed item. SetDate is nil for a placeholder.
type RouteRef struct {
	ID          uuid.UUID  `json:"id"`
	Grade       string     `json:"grade"`
	Color       string     `json:"color"`
	WallID      string     `json:"wall_id"`
	WallName    string     `json:"wall_name"`
	SetterName  string     `json:"setter_name"`
	SetDate     *time.Time `json:"set_date,omitempty"`
	Placeholder bool       `json:"placeholder,omitempty"`
}

type Item struct {
	ID         uuid.UUID        `json:"id"`
	ActionType types.ActionType `json:"action_type"`
	Verb       string           `json:"verb"`
	Content    *string          `json:"content,omitempty"`
	IsBeta     bool             `json:"is_beta"`
	CreatedAt  time.Time        `json:"created_at"`
	Actor      Actor            `json:"actor"`
	Route      *RouteRef        `json:"route,omitempty"`
}

type Page struct {
	Items []Item `json:"items"`
	// NextCursor is empty once the stream is exhausted.
	NextCursor string `json:"next_cursor"`
}

type Assembler interface {
	Global(ctx context.Context, req PageRequest, opts Options) (Page, error)
	ByRoute(ctx context.Context, routeID uuid.UUID, req PageRequest, opts Options) (Page, error)
	ByUser(ctx context.Context, userID uuid.UUID, req PageRequest, opts Options) (Page, error)
}

type assembler struct {
	log    *logger.Logger
	store  activity.Store
	users  userrepo.UserRepo
	routes catalogrepo.RouteRepo
	walls  catalogrepo.WallRepo
}

func NewAssembler(
	log *logger.Logger,
	store activity.Store,
	users userrepo.UserRepo,
	routes catalogrepo.RouteRepo,
	walls catalogrepo.WallRepo,
) Assembler {
	return &assembler{
		log:    log.With("service", "FeedAssembler"),
		store:  store,
		users:  users,
		routes: routes,
		walls:  walls,
	}
}

type queryFunc func(ctx context.Context, limit int, before *activity.Cursor) ([]types.ActivityEvent, error)

func (a *assembler) Global(ctx context.Context, req PageRequest, opts Options) (Page, error) {
	return a.page(ctx, req, opts, a.store.QueryGlobal)
}

func (a *assembler) ByRoute(ctx context.Context, routeID uuid.UUID, req PageRequest, opts Options) (Page, error) {
	return a.page(ctx, req, opts, func(ctx context.Context, limit int, before *activity.Cursor) ([]types.ActivityEvent, error) {
		return a.store.QueryByRoute(ctx, routeID, limit, before)
	})
}

func (a *assembler) ByUser(ctx context.Context, userID uuid.UUID, req PageRequest, opts Options) (Page, error) {
	return a.page(ctx, req, opts, func(ctx context.Context, limit int, before *activity.Cursor) ([]types.ActivityEvent, error) {
		return a.store.QueryByUserPage(ctx, userID, limit, before)
	})
}

func (a *assembler) page(ctx context.Context, req PageRequest, opts Options, query queryFunc) (Page, error) {
	before, err := activity.DecodeCursor(req.Cursor)
	if err != nil {
		return Page{}, err
	}
	limit := a.store.PageSize(req.Limit)

	events, err := query(ctx, limit+1, before)
	if err != nil {
		return Page{}, err
	}
	out := Page{Items: make([]Item, 0, limit)}
	if len(events) > limit {
		events = events[:limit]
		out.NextCursor = activity.CursorAt(events[len(events)-1]).Encode()
	}
	if len(events) == 0 {
		return out, nil
	}

	actors, routes := a.join(ctx, events, opts)
	for _, e := range events {
		item := Item{
			ID:         e.ID,
			ActionType: e.ActionType,
			Verb:       Verb(e.ActionType),
			Content:    e.Content,
			IsBeta:     e.IsBeta(),
			CreatedAt:  e.CreatedAt,
			Actor:      actors[e.ActorID],
		}
		if e.RouteID != nil {
			ref := routes[*e.RouteID]
			item.Route = &ref
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}

// join resolves actors and routes concurrently. A failed lookup degrades to
// placeholders; it never fails the page.
func (a *assembler) join(ctx context.Context, events []types.ActivityEvent, opts Options) (map[uuid.UUID]Actor, map[uuid.UUID]RouteRef) {
	actorIDs, routeIDs := collectIDs(events)
	actors := make(map[uuid.UUID]Actor, len(actorIDs))
	routes := make(map[uuid.UUID]RouteRef, len(routeIDs))
	for _, id := range actorIDs {
		actors[id] = Actor{ID: id, Name: user.PlaceholderName, Placeholder: true}
	}
	for _, id := range routeIDs {
		routes[id] = routeRef(catalog.PlaceholderRoute(id), "", opts, true)
	}

	var (
		foundUsers  []*user.User
		foundRoutes []*catalog.Route
		wallNames   = map[string]string{}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := a.users.GetByIDs(gctx, nil, actorIDs)
		if err != nil {
			a.log.Warn("Feed actor lookup failed; using placeholders", "count", len(actorIDs), "error", err)
			return nil
		}
		foundUsers = rows
		return nil
	})
	g.Go(func() error {
		rows, err := a.routes.GetByIDs(gctx, nil, routeIDs)
		if err != nil {
			a.log.Warn("Feed route lookup failed; using placeholders", "count", len(routeIDs), "error", err)
			return nil
		}
		foundRoutes = rows
		wallIDs := make([]string, 0, len(rows))
		seen := map[string]bool{}
		for _, r := range rows {
			if r != nil && !seen[r.WallID] {
				seen[r.WallID] = true
				wallIDs = append(wallIDs, r.WallID)
			}
		}
		walls, err := a.walls.GetByIDs(gctx, nil, wallIDs)
		if err != nil {
			a.log.Warn("Feed wall lookup failed", "count", len(wallIDs), "error", err)
			return nil
		}
		for _, w := range walls {
			if w != nil {
				wallNames[w.ID] = w.Name
			}
		}
		return nil
	})
	_ = g.Wait()

	for _, u := range foundUsers {
		if u != nil {
			actors[u.ID] = Actor{ID: u.ID, Name: u.Name, AvatarURL: u.AvatarURL}
		}
	}
	for _, r := range foundRoutes {
		if r != nil {
			routes[r.ID] = routeRef(*r, wallNames[r.WallID], opts, false)
		}
	}
	return actors, routes
}

func routeRef(r catalog.Route, wallName string, opts Options, placeholder bool) RouteRef {
	if wallName == "" {
		wallName = r.WallID
	}
	ref := RouteRef{
		ID:          r.ID,
		Grade:       r.DisplayGrade(opts.GradeDisplay),
		Color:       r.Color,
		WallID:      r.WallID,
		WallName:    wallName,
		SetterName:  r.SetterName,
		Placeholder: placeholder,
	}
	if !placeholder && !r.SetDate.IsZero() {
		setDate := r.SetDate.UTC()
		ref.SetDate = &setDate
	}
	return ref
}

func collectIDs(events []types.ActivityEvent) ([]uuid.UUID, []uuid.UUID) {
	seenActor := map[uuid.UUID]bool{}
	seenRoute := map[uuid.UUID]bool{}
	var actorIDs, routeIDs []uuid.UUID
	for _, e := range events {
		if !seenActor[e.ActorID] {
			seenActor[e.ActorID] = true
			actorIDs = append(actorIDs, e.ActorID)
		}
		if e.RouteID != nil && !seenRoute[*e.RouteID] {
			seenRoute[*e.RouteID] = true
			routeIDs = append(routeIDs, *e.RouteID)
		}
	}
	return actorIDs, routeIDs
}
