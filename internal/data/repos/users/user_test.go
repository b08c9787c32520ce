package users

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/routemill-backend/internal/domain/catalog"
	types "github.com/yungbote/routemill-backend/internal/domain/user"
	"github.com/yungbote/routemill-backend/internal/data/repos/testutil"
)

func TestUserRepoUpsertProfile(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewUserRepo(db, testutil.Logger(t))

	id := uuid.New()
	if err := repo.UpsertProfile(ctx, tx, &types.User{ID: id, Name: "Alex"}); err != nil {
		t.Fatalf("UpsertProfile: %v", err)
	}
	if err := repo.UpsertProfile(ctx, tx, &types.User{ID: id, Name: "Alex H", AvatarURL: "https://img.example/a.png"}); err != nil {
		t.Fatalf("UpsertProfile(update): %v", err)
	}
	got, err := repo.GetByIDs(ctx, tx, []uuid.UUID{id})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Alex H" || got[0].AvatarURL == "" {
		t.Fatalf("unexpected profile: %+v", got)
	}
}

func TestSettingsRepoRoundTrip(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewSettingsRepo(db, testutil.Logger(t))

	id := uuid.New()
	got, err := repo.Get(ctx, tx, id)
	if err != nil || got != nil {
		t.Fatalf("Get(missing): got=%+v err=%v", got, err)
	}
	if err := repo.Upsert(ctx, tx, &types.Settings{UserID: id, GradeDisplay: catalog.GradeDisplayDifficulty}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	got, err = repo.Get(ctx, tx, id)
	if err != nil || got == nil || got.GradeDisplay != catalog.GradeDisplayDifficulty {
		t.Fatalf("Get: got=%+v err=%v", got, err)
	}
}
