package catalogseed

import (
	"context"
	"strings"
	"testing"

	"github.com/yungbote/routemill-backend/internal/data/db"
	catalogrepo "github.com/yungbote/routemill-backend/internal/data/repos/catalog"
	"github.com/yungbote/routemill-backend/internal/data/repos/testutil"
)

func TestDefaultCatalogBuilds(t *testing.T) {
	f, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	walls, routes, err := f.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(walls) == 0 || len(routes) == 0 {
		t.Fatalf("default catalog should not be empty: walls=%d routes=%d", len(walls), len(routes))
	}
}

func TestBuildRejectsUnknownWall(t *testing.T) {
	raw := `
walls:
  - id: a
    name: A
routes:
  - id: 5d0c3c55-8f21-4f38-9f6c-1f3e2a4b7c09
    wall_id: b
    grade: V2
    color: Red
    set_date: 2025-01-01
`
	f, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, _, err := f.Build(); err == nil || !strings.Contains(err.Error(), "unknown wall") {
		t.Fatalf("want unknown wall error, got=%v", err)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	gdb := testutil.SQLite(t)
	ctx := context.Background()
	log := testutil.Logger(t)
	walls := catalogrepo.NewWallRepo(gdb, log)
	routes := catalogrepo.NewRouteRepo(gdb, log)
	seeder := NewSeeder(log, db.NewTxRunner(gdb), walls, routes)

	f, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := seeder.Seed(ctx, f); err != nil {
			t.Fatalf("Seed #%d: %v", i, err)
		}
	}
	all, err := routes.ListAll(ctx, nil)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != len(f.Routes) {
		t.Fatalf("routes: want=%d got=%d", len(f.Routes), len(all))
	}
}
