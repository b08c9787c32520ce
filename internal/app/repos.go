package app

import (
	"gorm.io/gorm"

	activityrepo "github.com/yungbote/routemill-backend/internal/data/repos/activity"
	catalogrepo "github.com/yungbote/routemill-backend/internal/data/repos/catalog"
	userrepo "github.com/yungbote/routemill-backend/internal/data/repos/users"
	"github.com/yungbote/routemill-backend/internal/platform/logger"
)

type Repos struct {
	Events   activityrepo.EventRepo
	Notes    activityrepo.NoteRepo
	Walls    catalogrepo.WallRepo
	Routes   catalogrepo.RouteRepo
	Users    userrepo.UserRepo
	Settings userrepo.SettingsRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Events:   activityrepo.NewEventRepo(db, log),
		Notes:    activityrepo.NewNoteRepo(db, log),
		Walls:    catalogrepo.NewWallRepo(db, log),
		Routes:   catalogrepo.NewRouteRepo(db, log),
		Users:    userrepo.NewUserRepo(db, log),
		Settings: userrepo.NewSettingsRepo(db, log),
	}
}
