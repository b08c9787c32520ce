package activity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/yungbote/routemill-backend/internal/domain/activity"
	"github.com/yungbote/routemill-backend/internal/data/repos/testutil"
)

func newEvent(actorID, routeID uuid.UUID, action types.ActionType, at time.Time) *types.ActivityEvent {
	return &types.ActivityEvent{
		ID:         uuid.New(),
		ActorID:    actorID,
		RouteID:    testutil.PtrUUID(routeID),
		ActionType: action,
		Metadata:   datatypes.NewJSONType(types.Metadata{}),
		CreatedAt:  at.UTC().Truncate(time.Microsecond),
	}
}

func TestEventRepoListNewestFirstPaginationIsStable(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewEventRepo(db, testutil.Logger(t))

	wall := testutil.SeedWall(t, ctx, tx, "Cave")
	route := testutil.SeedRoute(t, ctx, tx, wall.ID, "V3", "Blue", time.Now())
	actor := uuid.New()

	base := time.Date(2025, 5, 1, 18, 0, 0, 0, time.UTC)
	stamps := []time.Time{base, base.Add(time.Second), base.Add(time.Second), base.Add(time.Second), base.Add(2 * time.Second)}
	for _, ts := range stamps {
		if err := repo.Create(ctx, tx, newEvent(actor, route.ID, types.ActionAttempt, ts)); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	f := Filter{RouteID: testutil.PtrUUID(route.ID)}
	all, err := repo.ListNewestFirst(ctx, tx, f, nil, 0)
	if err != nil {
		t.Fatalf("ListNewestFirst(all): %v", err)
	}
	if len(all) != len(stamps) {
		t.Fatalf("all: want=%d got=%d", len(stamps), len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Position().Compare(all[i].Position()) <= 0 {
			t.Fatalf("not strictly newest-first at %d", i)
		}
	}

	var paged []*types.ActivityEvent
	var before *types.Position
	for page := 0; page < 10; page++ {
		batch, err := repo.ListNewestFirst(ctx, tx, f, before, 2)
		if err != nil {
			t.Fatalf("ListNewestFirst(page %d): %v", page, err)
		}
		if len(batch) == 0 {
			break
		}
		paged = append(paged, batch...)
		last := batch[len(batch)-1].Position()
		before = &last
	}
	if len(paged) != len(all) {
		t.Fatalf("paged: want=%d got=%d", len(all), len(paged))
	}
	for i := range all {
		if paged[i].ID != all[i].ID {
			t.Fatalf("page order mismatch at %d: want=%s got=%s", i, all[i].ID, paged[i].ID)
		}
	}
}

func TestEventRepoCreateIgnoreDuplicates(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewEventRepo(db, testutil.Logger(t))

	wall := testutil.SeedWall(t, ctx, tx, "Slab")
	route := testutil.SeedRoute(t, ctx, tx, wall.ID, "V1", "Green", time.Now())
	actor := uuid.New()

	first := newEvent(actor, route.ID, types.ActionSend, time.Now())
	first.ClientEventID = testutil.PtrString("client-1")
	created, err := repo.CreateIgnoreDuplicates(ctx, tx, first)
	if err != nil || !created {
		t.Fatalf("first insert: created=%v err=%v", created, err)
	}

	replay := newEvent(actor, route.ID, types.ActionSend, time.Now())
	replay.ClientEventID = testutil.PtrString("client-1")
	created, err = repo.CreateIgnoreDuplicates(ctx, tx, replay)
	if err != nil {
		t.Fatalf("replay insert: %v", err)
	}
	if created {
		t.Fatalf("replay with same client_event_id should be ignored")
	}

	got, err := repo.GetByClientEventID(ctx, tx, actor, "client-1")
	if err != nil {
		t.Fatalf("GetByClientEventID: %v", err)
	}
	if got.ID != first.ID {
		t.Fatalf("want original id=%s got=%s", first.ID, got.ID)
	}

	n, err := repo.CountByRoute(ctx, tx, route.ID)
	if err != nil {
		t.Fatalf("CountByRoute: %v", err)
	}
	if n != 1 {
		t.Fatalf("count: want=1 got=%d", n)
	}
}

func TestEventRepoFiltersByActorAndRoute(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewEventRepo(db, testutil.Logger(t))

	wall := testutil.SeedWall(t, ctx, tx, "Arete")
	r1 := testutil.SeedRoute(t, ctx, tx, wall.ID, "V2", "Red", time.Now())
	r2 := testutil.SeedRoute(t, ctx, tx, wall.ID, "V5", "Black", time.Now())
	a, b := uuid.New(), uuid.New()
	now := time.Now()

	for _, ev := range []*types.ActivityEvent{
		newEvent(a, r1.ID, types.ActionAttempt, now),
		newEvent(a, r2.ID, types.ActionFlash, now.Add(time.Second)),
		newEvent(b, r1.ID, types.ActionSend, now.Add(2*time.Second)),
	} {
		if err := repo.Create(ctx, tx, ev); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	mine, err := repo.ListByActorAndRoute(ctx, tx, a, r1.ID)
	if err != nil {
		t.Fatalf("ListByActorAndRoute: %v", err)
	}
	if len(mine) != 1 || mine[0].ActionType != types.ActionAttempt {
		t.Fatalf("unexpected actor/route events: %+v", mine)
	}

	byActor, err := repo.ListNewestFirst(ctx, tx, Filter{ActorID: testutil.PtrUUID(a)}, nil, 0)
	if err != nil {
		t.Fatalf("ListNewestFirst(actor): %v", err)
	}
	if len(byActor) != 2 || byActor[0].ActionType != types.ActionFlash {
		t.Fatalf("unexpected actor listing: %+v", byActor)
	}

	both, err := repo.ListByRouteIDs(ctx, tx, []uuid.UUID{r1.ID, r2.ID})
	if err != nil {
		t.Fatalf("ListByRouteIDs: %v", err)
	}
	if len(both) != 3 {
		t.Fatalf("ListByRouteIDs: want=3 got=%d", len(both))
	}
}
