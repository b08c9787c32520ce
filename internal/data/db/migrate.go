package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/routemill-backend/internal/domain/activity"
	"github.com/yungbote/routemill-backend/internal/domain/catalog"
	"github.com/yungbote/routemill-backend/internal/domain/user"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		// Identity
		&user.User{},
		&user.Settings{},

		// Catalog
		&catalog.Wall{},
		&catalog.Route{},

		// Activity log + private notes
		&activity.ActivityEvent{},
		&activity.PersonalNote{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return EnsureActivityIndexes(db)
}

// EnsureActivityIndexes adds the descending feed indexes and, on postgres, a
// trigger that rejects UPDATE/DELETE on the activity log.
func EnsureActivityIndexes(db *gorm.DB) error {
	stmts := []string{
		`CREATE INDEX IF NOT EXISTS idx_activity_feed_desc ON activity_event (created_at DESC, id DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_activity_route_feed_desc ON activity_event (route_id, created_at DESC, id DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_activity_actor_feed_desc ON activity_event (actor_id, created_at DESC, id DESC);`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("ensure activity index: %w", err)
		}
	}
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	if err := db.Exec(`
		CREATE OR REPLACE FUNCTION activity_event_append_only() RETURNS trigger AS $$
		BEGIN
			RAISE EXCEPTION 'activity_event is append-only';
		END;
		$$ LANGUAGE plpgsql;
	`).Error; err != nil {
		return fmt.Errorf("create activity_event_append_only: %w", err)
	}
	if err := db.Exec(`DROP TRIGGER IF EXISTS trg_activity_event_append_only ON activity_event;`).Error; err != nil {
		return fmt.Errorf("drop trg_activity_event_append_only: %w", err)
	}
	if err := db.Exec(`
		CREATE TRIGGER trg_activity_event_append_only
		BEFORE UPDATE OR DELETE ON activity_event
		FOR EACH ROW EXECUTE FUNCTION activity_event_append_only();
	`).Error; err != nil {
		return fmt.Errorf("create trg_activity_event_append_only: %w", err)
	}
	return nil
}
