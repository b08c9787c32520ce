package browse

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/routemill-backend/internal/data/cache"
	"github.com/yungbote/routemill-backend/internal/data/db"
	activityrepo "github.com/yungbote/routemill-backend/internal/data/repos/activity"
	catalogrepo "github.com/yungbote/routemill-backend/internal/data/repos/catalog"
	"github.com/yungbote/routemill-backend/internal/data/repos/testutil"
	userrepo "github.com/yungbote/routemill-backend/internal/data/repos/users"
	types "github.com/yungbote/routemill-backend/internal/domain/activity"
	"github.com/yungbote/routemill-backend/internal/domain/apperr"
	"github.com/yungbote/routemill-backend/internal/domain/catalog"
	"github.com/yungbote/routemill-backend/internal/services/activity"
	"github.com/yungbote/routemill-backend/internal/services/stats"
)

func newBrowse(t *testing.T) (*service, activity.Store, func(name string) *catalog.Wall, func(wallID, color string, setDate time.Time) *catalog.Route) {
	t.Helper()
	gdb := testutil.SQLite(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	events := activityrepo.NewEventRepo(gdb, log)
	routes := catalogrepo.NewRouteRepo(gdb, log)
	walls := catalogrepo.NewWallRepo(gdb, log)
	statsSvc := stats.NewService(log, events, routes, userrepo.NewUserRepo(gdb, log), cache.Noop(), stats.Config{})
	store := activity.NewStore(log, db.NewTxRunner(gdb), events, activityrepo.NewNoteRepo(gdb, log), routes, nil, statsSvc, activity.Config{})
	svc := NewService(log, walls, routes, statsSvc, store, Config{}).(*service)
	svc.now = func() time.Time { return time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC) }

	seedWall := func(name string) *catalog.Wall { return testutil.SeedWall(t, ctx, gdb, name) }
	seedRoute := func(wallID, color string, setDate time.Time) *catalog.Route {
		return testutil.SeedRoute(t, ctx, gdb, wallID, "V3", color, setDate)
	}
	return svc, store, seedWall, seedRoute
}

func TestListWallsSummaries(t *testing.T) {
	svc, _, seedWall, seedRoute := newBrowse(t)
	fresh := seedWall("Fresh Wall")
	stale := seedWall("Stale Wall")
	empty := seedWall("Empty Wall")

	day := func(d int) time.Time { return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC) }
	for i, c := range []string{"Red", "Blue", "Red", "Green", "Pink", "Black", "White"} {
		seedRoute(fresh.ID, c, day(8-i))
	}
	seedRoute(stale.ID, "Orange", day(1))

	got, err := svc.ListWalls(context.Background())
	if err != nil {
		t.Fatalf("ListWalls: %v", err)
	}
	byID := map[string]WallSummary{}
	for _, w := range got {
		byID[w.ID] = w
	}

	f := byID[fresh.ID]
	if f.RouteCount != 7 || !f.Fresh {
		t.Fatalf("fresh wall: %+v", f)
	}
	wantColors := []string{"Red", "Blue", "Green", "Pink", "Black"}
	if len(f.Colors) != len(wantColors) {
		t.Fatalf("colors: want=%v got=%v", wantColors, f.Colors)
	}
	for i := range wantColors {
		if f.Colors[i] != wantColors[i] {
			t.Fatalf("colors: want=%v got=%v", wantColors, f.Colors)
		}
	}
	if s := byID[stale.ID]; s.Fresh || s.RouteCount != 1 {
		t.Fatalf("stale wall: %+v", s)
	}
	if e := byID[empty.ID]; e.RouteCount != 0 || e.LatestSetDate != nil || len(e.Colors) != 0 {
		t.Fatalf("empty wall: %+v", e)
	}
}

func TestListWallRoutesAndDetail(t *testing.T) {
	svc, store, seedWall, seedRoute := newBrowse(t)
	ctx := context.Background()
	wall := seedWall("Prow")
	route := seedRoute(wall.ID, "Yellow", time.Now())
	viewer := uuid.New()

	if _, err := store.Append(ctx, types.EventInput{ActorID: viewer, RouteID: &route.ID, ActionType: types.ActionSend}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := store.Append(ctx, types.EventInput{ActorID: uuid.New(), RouteID: &route.ID, ActionType: types.ActionRating, Content: testutil.PtrString("4")}); err != nil {
		t.Fatalf("Append(rating): %v", err)
	}
	if err := store.UpsertNote(ctx, viewer, route.ID, "start matched"); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}

	cards, err := svc.ListWallRoutes(ctx, wall.ID, &viewer, catalog.GradeDisplayVScale)
	if err != nil {
		t.Fatalf("ListWallRoutes: %v", err)
	}
	if len(cards) != 1 || cards[0].Stats.ViewerStatus == nil || *cards[0].Stats.ViewerStatus != types.ActionSend {
		t.Fatalf("cards: %+v", cards)
	}
	if cards[0].Stats.AverageRating == nil || *cards[0].Stats.AverageRating != 4 {
		t.Fatalf("average rating: %v", cards[0].Stats.AverageRating)
	}

	detail, err := svc.RouteDetail(ctx, route.ID, viewer, catalog.GradeDisplayVScale)
	if err != nil {
		t.Fatalf("RouteDetail: %v", err)
	}
	if detail.WallName != "Prow" || detail.Note != "start matched" || detail.Stats.SendCount != 1 {
		t.Fatalf("detail: %+v", detail)
	}

	if _, err := svc.ListWallRoutes(ctx, "no-such-wall", nil, catalog.GradeDisplayVScale); !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Fatalf("unknown wall: want not_found got=%v", err)
	}
	if _, err := svc.RouteDetail(ctx, uuid.New(), viewer, catalog.GradeDisplayVScale); !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Fatalf("unknown route: want not_found got=%v", err)
	}
}
