package users

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/routemill-backend/internal/data/db"
	userrepo "github.com/yungbote/routemill-backend/internal/data/repos/users"
	"github.com/yungbote/routemill-backend/internal/domain/user"
	"github.com/yungbote/routemill-backend/internal/platform/logger"
)

// ProfileSync mirrors the identity token's name and avatar into the user
// table so feeds can join on it.
type ProfileSync interface {
	Sync(ctx context.Context, userID uuid.UUID, name, avatarURL string) error
}

type profileSync struct {
	log  *logger.Logger
	repo userrepo.UserRepo
	// last written profile per user; skips the write when nothing changed
	seen sync.Map
}

func NewProfileSync(log *logger.Logger, repo userrepo.UserRepo) ProfileSync {
	return &profileSync{log: log.With("service", "ProfileSync"), repo: repo}
}

type profileKey struct {
	name   string
	avatar string
}

func (p *profileSync) Sync(ctx context.Context, userID uuid.UUID, name, avatarURL string) error {
	if userID == uuid.Nil {
		return nil
	}
	key := profileKey{name: strings.TrimSpace(name), avatar: strings.TrimSpace(avatarURL)}
	if prev, ok := p.seen.Load(userID); ok && prev.(profileKey) == key {
		return nil
	}
	u := &user.User{ID: userID, Name: key.name, AvatarURL: key.avatar}
	if err := p.repo.UpsertProfile(ctx, nil, u); err != nil {
		return db.MapError("users.sync_profile", err)
	}
	p.seen.Store(userID, key)
	p.log.Debug("User profile synced", "user_id", userID)
	return nil
}
