package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/routemill-backend/internal/domain/catalog"
	"github.com/yungbote/routemill-backend/internal/data/repos/testutil"
)

func TestRouteRepoUpsertManyAndLookups(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	routes := NewRouteRepo(db, testutil.Logger(t))
	walls := NewWallRepo(db, testutil.Logger(t))

	wallID := "wall-" + uuid.NewString()[:8]
	if err := walls.UpsertMany(ctx, tx, []*types.Wall{{ID: wallID, Name: "The Prow", Type: "Overhang"}}); err != nil {
		t.Fatalf("walls.UpsertMany: %v", err)
	}

	id := uuid.New()
	setDate := time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)
	in := []*types.Route{{ID: id, WallID: wallID, Grade: "V4", Color: "Yellow", SetterName: "Mo", SetDate: setDate}}
	if err := routes.UpsertMany(ctx, tx, in); err != nil {
		t.Fatalf("UpsertMany: %v", err)
	}
	in[0].Grade = "V5"
	if err := routes.UpsertMany(ctx, tx, in); err != nil {
		t.Fatalf("UpsertMany(regrade): %v", err)
	}

	got, err := routes.GetByID(ctx, tx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Grade != "V5" {
		t.Fatalf("regrade not applied: %+v", got)
	}

	ok, err := routes.Exists(ctx, tx, id)
	if err != nil || !ok {
		t.Fatalf("Exists: ok=%v err=%v", ok, err)
	}
	ok, err = routes.Exists(ctx, tx, uuid.New())
	if err != nil || ok {
		t.Fatalf("Exists(unknown): ok=%v err=%v", ok, err)
	}

	onWall, err := routes.ListByWall(ctx, tx, wallID)
	if err != nil {
		t.Fatalf("ListByWall: %v", err)
	}
	if len(onWall) != 1 || onWall[0].ID != id {
		t.Fatalf("ListByWall: %+v", onWall)
	}

	w, err := walls.GetByID(ctx, tx, wallID)
	if err != nil || w.Name != "The Prow" {
		t.Fatalf("walls.GetByID: %+v err=%v", w, err)
	}
}
