package feed

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/routemill-backend/internal/data/db"
	activityrepo "github.com/yungbote/routemill-backend/internal/data/repos/activity"
	catalogrepo "github.com/yungbote/routemill-backend/internal/data/repos/catalog"
	"github.com/yungbote/routemill-backend/internal/data/repos/testutil"
	userrepo "github.com/yungbote/routemill-backend/internal/data/repos/users"
	types "github.com/yungbote/routemill-backend/internal/domain/activity"
	"github.com/yungbote/routemill-backend/internal/domain/apperr"
	"github.com/yungbote/routemill-backend/internal/domain/catalog"
	"github.com/yungbote/routemill-backend/internal/domain/user"
	"github.com/yungbote/routemill-backend/internal/services/activity"
)

type feedFixture struct {
	db        *gorm.DB
	events    activityrepo.EventRepo
	store     activity.Store
	assembler Assembler
	wall      *catalog.Wall
}

func newFeedFixture(t *testing.T) *feedFixture {
	t.Helper()
	gdb := testutil.SQLite(t)
	log := testutil.Logger(t)
	events := activityrepo.NewEventRepo(gdb, log)
	routes := catalogrepo.NewRouteRepo(gdb, log)
	store := activity.NewStore(log, db.NewTxRunner(gdb), events, activityrepo.NewNoteRepo(gdb, log), routes, nil, nil, activity.Config{})
	return &feedFixture{
		db:        gdb,
		events:    events,
		store:     store,
		assembler: NewAssembler(log, store, userrepo.NewUserRepo(gdb, log), routes, catalogrepo.NewWallRepo(gdb, log)),
		wall:      testutil.SeedWall(t, context.Background(), gdb, "The Cave"),
	}
}

// insert writes an event with an explicit timestamp, bypassing the store clock.
func (f *feedFixture) insert(t *testing.T, actor uuid.UUID, route uuid.UUID, action types.ActionType, at time.Time) types.ActivityEvent {
	t.Helper()
	e := &types.ActivityEvent{
		ID:         uuid.New(),
		ActorID:    actor,
		RouteID:    &route,
		ActionType: action,
		Metadata:   datatypes.NewJSONType(types.Metadata{}),
		CreatedAt:  at.UTC().Truncate(time.Microsecond),
	}
	if err := f.events.Create(context.Background(), nil, e); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return *e
}

func collect(t *testing.T, fetch func(cursor string) (Page, error)) ([]Item, int) {
	t.Helper()
	var items []Item
	cursor := ""
	pages := 0
	for pages < 50 {
		p, err := fetch(cursor)
		if err != nil {
			t.Fatalf("fetch page %d: %v", pages, err)
		}
		pages++
		items = append(items, p.Items...)
		if p.NextCursor == "" {
			return items, pages
		}
		cursor = p.NextCursor
	}
	t.Fatalf("pagination did not terminate")
	return nil, 0
}

func TestGlobalFeedPaginationIsStable(t *testing.T) {
	f := newFeedFixture(t)
	ctx := context.Background()
	route := testutil.SeedRoute(t, ctx, f.db, f.wall.ID, "V4", "Green", time.Now())
	base := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	// three events share a timestamp so the id tie-break is exercised
	stamps := []time.Duration{0, time.Second, time.Second, time.Second, 2 * time.Second, 3 * time.Second, 4 * time.Second}
	for _, d := range stamps {
		f.insert(t, uuid.New(), route.ID, types.ActionAttempt, base.Add(d))
	}

	full, err := f.assembler.Global(ctx, PageRequest{Limit: 100}, Options{})
	if err != nil {
		t.Fatalf("Global(full): %v", err)
	}
	if full.NextCursor != "" || len(full.Items) != len(stamps) {
		t.Fatalf("full page: items=%d next=%q", len(full.Items), full.NextCursor)
	}

	for _, size := range []int{1, 3, 7} {
		got, _ := collect(t, func(cursor string) (Page, error) {
			return f.assembler.Global(ctx, PageRequest{Limit: size, Cursor: cursor}, Options{})
		})
		if len(got) != len(full.Items) {
			t.Fatalf("size %d: paged=%d full=%d", size, len(got), len(full.Items))
		}
		for i := range got {
			if got[i].ID != full.Items[i].ID {
				t.Fatalf("size %d: mismatch at %d", size, i)
			}
		}
	}

	// exact multiple of the page size ends without an empty trailing page
	_, pages := collect(t, func(cursor string) (Page, error) {
		return f.assembler.Global(ctx, PageRequest{Limit: 7, Cursor: cursor}, Options{})
	})
	if pages != 1 {
		t.Fatalf("want a single page, got %d", pages)
	}
}

func TestFeedPlaceholdersForMissingActorAndRoute(t *testing.T) {
	f := newFeedFixture(t)
	ctx := context.Background()
	known := testutil.SeedUser(t, ctx, f.db, "Sam")
	setDate := time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)
	route := testutil.SeedRoute(t, ctx, f.db, f.wall.ID, "V1", "Yellow", setDate)
	base := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)

	ghostRoute := uuid.New()
	f.insert(t, known.ID, route.ID, types.ActionFlash, base)
	f.insert(t, uuid.New(), route.ID, types.ActionSend, base.Add(time.Minute))
	f.insert(t, known.ID, ghostRoute, types.ActionAttempt, base.Add(2*time.Minute))

	page, err := f.assembler.Global(ctx, PageRequest{}, Options{GradeDisplay: catalog.GradeDisplayVScale})
	if err != nil {
		t.Fatalf("Global: %v", err)
	}
	if len(page.Items) != 3 {
		t.Fatalf("want 3 items got=%d", len(page.Items))
	}

	ghost := page.Items[0]
	if ghost.Route == nil || !ghost.Route.Placeholder || ghost.Route.Grade != "?" || ghost.Route.Color != "gray" || ghost.Route.WallName != "unknown" || ghost.Route.SetterName != "Unknown" {
		t.Fatalf("missing route placeholder: %+v", ghost.Route)
	}
	if ghost.Route.SetDate != nil {
		t.Fatalf("placeholder route should have no set date: %v", ghost.Route.SetDate)
	}
	if ghost.Actor.Name != "Sam" || ghost.Actor.Placeholder {
		t.Fatalf("known actor should resolve: %+v", ghost.Actor)
	}

	stranger := page.Items[1]
	if !stranger.Actor.Placeholder || stranger.Actor.Name != user.PlaceholderName || stranger.Actor.AvatarURL != "" {
		t.Fatalf("missing actor placeholder: %+v", stranger.Actor)
	}
	if stranger.Route.WallName != "The Cave" || stranger.Verb != "sent" {
		t.Fatalf("route join: %+v verb=%s", stranger.Route, stranger.Verb)
	}
	if stranger.Route.SetDate == nil || !stranger.Route.SetDate.Equal(setDate) {
		t.Fatalf("route set date: want=%s got=%v", setDate, stranger.Route.SetDate)
	}
	if page.Items[2].Verb != "flashed" {
		t.Fatalf("verb: got=%s", page.Items[2].Verb)
	}
}

func TestFeedGradeDisplayOption(t *testing.T) {
	f := newFeedFixture(t)
	ctx := context.Background()
	route := &catalog.Route{ID: uuid.New(), WallID: f.wall.ID, Grade: "V6", DifficultyLabel: "Hard", Color: "Purple", SetDate: time.Now().UTC()}
	if err := f.db.Create(route).Error; err != nil {
		t.Fatalf("create route: %v", err)
	}
	if _, err := f.store.LogAttempt(ctx, uuid.New(), route.ID); err != nil {
		t.Fatalf("LogAttempt: %v", err)
	}

	vscale, err := f.assembler.ByRoute(ctx, route.ID, PageRequest{}, Options{GradeDisplay: catalog.GradeDisplayVScale})
	if err != nil {
		t.Fatalf("ByRoute(v-scale): %v", err)
	}
	difficulty, err := f.assembler.ByRoute(ctx, route.ID, PageRequest{}, Options{GradeDisplay: catalog.GradeDisplayDifficulty})
	if err != nil {
		t.Fatalf("ByRoute(difficulty): %v", err)
	}
	if vscale.Items[0].Route.Grade != "V6" || difficulty.Items[0].Route.Grade != "Hard" {
		t.Fatalf("grade display: v-scale=%s difficulty=%s", vscale.Items[0].Route.Grade, difficulty.Items[0].Route.Grade)
	}
}

func TestFeedByUserAndErrors(t *testing.T) {
	f := newFeedFixture(t)
	ctx := context.Background()
	route := testutil.SeedRoute(t, ctx, f.db, f.wall.ID, "V2", "Blue", time.Now())
	me, other := uuid.New(), uuid.New()
	f.insert(t, me, route.ID, types.ActionSend, time.Now())
	f.insert(t, other, route.ID, types.ActionSend, time.Now())

	page, err := f.assembler.ByUser(ctx, me, PageRequest{}, Options{})
	if err != nil {
		t.Fatalf("ByUser: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Actor.ID != me {
		t.Fatalf("ByUser should only list own events: %+v", page.Items)
	}

	if _, err := f.assembler.Global(ctx, PageRequest{Cursor: "%%%"}, Options{}); !apperr.IsCode(err, apperr.CodeValidation) {
		t.Fatalf("malformed cursor: want validation got=%v", err)
	}
	if _, err := f.assembler.ByRoute(ctx, uuid.New(), PageRequest{}, Options{}); !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Fatalf("unknown route: want not_found got=%v", err)
	}
}

func TestVerbCoversEveryAction(t *testing.T) {
	for _, a := range types.ActionTypes() {
		if Verb(a) == "logged" {
			t.Fatalf("no verb for %s", a)
		}
	}
}
