package catalogseed

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/routemill-backend/internal/data/db"
	catalogrepo "github.com/yungbote/routemill-backend/internal/data/repos/catalog"
	"github.com/yungbote/routemill-backend/internal/domain/catalog"
	"github.com/yungbote/routemill-backend/internal/platform/dbctx"
	"github.com/yungbote/routemill-backend/internal/platform/logger"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

type File struct {
	Walls  []WallEntry  `yaml:"walls"`
	Routes []RouteEntry `yaml:"routes"`
}

type WallEntry struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	SortOrder int    `yaml:"sort_order"`
}

// RouteEntry keeps set_date as a string so both "2025-09-02" and RFC3339 work.
type RouteEntry struct {
	ID              string `yaml:"id"`
	WallID          string `yaml:"wall_id"`
	Grade           string `yaml:"grade"`
	DifficultyLabel string `yaml:"difficulty_label"`
	Color           string `yaml:"color"`
	SetterName      string `yaml:"setter_name"`
	SetDate         string `yaml:"set_date"`
}

// Load reads path, or the embedded default catalog when path is empty.
func Load(path string) (*File, error) {
	raw := defaultCatalog
	if p := strings.TrimSpace(path); p != "" {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %q: %w", p, err)
		}
		raw = b
	}
	return Parse(raw)
}

func Parse(raw []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return &f, nil
}

// Build validates the file and converts it to catalog models. Every route must
// point at a wall declared in the same file.
func (f *File) Build() ([]*catalog.Wall, []*catalog.Route, error) {
	walls := make([]*catalog.Wall, 0, len(f.Walls))
	known := make(map[string]bool, len(f.Walls))
	for i, w := range f.Walls {
		id := strings.TrimSpace(w.ID)
		if id == "" || strings.TrimSpace(w.Name) == "" {
			return nil, nil, fmt.Errorf("wall[%d]: id and name are required", i)
		}
		if known[id] {
			return nil, nil, fmt.Errorf("wall[%d]: duplicate id %q", i, id)
		}
		known[id] = true
		walls = append(walls, &catalog.Wall{ID: id, Name: strings.TrimSpace(w.Name), Type: strings.TrimSpace(w.Type), SortOrder: w.SortOrder})
	}

	routes := make([]*catalog.Route, 0, len(f.Routes))
	for i, r := range f.Routes {
		id, err := uuid.Parse(strings.TrimSpace(r.ID))
		if err != nil {
			return nil, nil, fmt.Errorf("route[%d]: bad id %q: %w", i, r.ID, err)
		}
		if !known[strings.TrimSpace(r.WallID)] {
			return nil, nil, fmt.Errorf("route[%d]: unknown wall %q", i, r.WallID)
		}
		if strings.TrimSpace(r.Grade) == "" || strings.TrimSpace(r.Color) == "" {
			return nil, nil, fmt.Errorf("route[%d]: grade and color are required", i)
		}
		setDate, err := parseSetDate(r.SetDate)
		if err != nil {
			return nil, nil, fmt.Errorf("route[%d]: %w", i, err)
		}
		routes = append(routes, &catalog.Route{
			ID:              id,
			WallID:          strings.TrimSpace(r.WallID),
			Grade:           strings.TrimSpace(r.Grade),
			DifficultyLabel: strings.TrimSpace(r.DifficultyLabel),
			Color:           strings.TrimSpace(r.Color),
			SetterName:      strings.TrimSpace(r.SetterName),
			SetDate:         setDate,
		})
	}
	return walls, routes, nil
}

func parseSetDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("bad set_date %q", raw)
}

type Seeder struct {
	log    *logger.Logger
	tx     db.TxRunner
	walls  catalogrepo.WallRepo
	routes catalogrepo.RouteRepo
}

func NewSeeder(baseLog *logger.Logger, tx db.TxRunner, walls catalogrepo.WallRepo, routes catalogrepo.RouteRepo) *Seeder {
	return &Seeder{log: baseLog.With("service", "CatalogSeeder"), tx: tx, walls: walls, routes: routes}
}

// Seed upserts the catalog by id in one transaction.
func (s *Seeder) Seed(ctx context.Context, f *File) error {
	walls, routes, err := f.Build()
	if err != nil {
		return err
	}
	err = s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		if err := s.walls.UpsertMany(dbc.Ctx, dbc.Tx, walls); err != nil {
			return fmt.Errorf("upsert walls: %w", err)
		}
		if err := s.routes.UpsertMany(dbc.Ctx, dbc.Tx, routes); err != nil {
			return fmt.Errorf("upsert routes: %w", err)
		}
		return nil
	})
	if err != nil {
		return db.MapError("catalog.seed", err)
	}
	s.log.Info("Catalog seeded", "walls", len(walls), "routes", len(routes))
	return nil
}
