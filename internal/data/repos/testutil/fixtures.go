package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/routemill-backend/internal/domain/catalog"
	"github.com/yungbote/routemill-backend/internal/domain/user"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *user.User {
	tb.Helper()
	u := &user.User{
		ID:        uuid.New(),
		Name:      name,
		AvatarURL: "https://img.example/" + name + ".png",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedWall(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *catalog.Wall {
	tb.Helper()
	w := &catalog.Wall{
		ID:   "wall-" + uuid.NewString()[:8],
		Name: name,
		Type: "Bouldering",
	}
	if err := tx.WithContext(ctx).Create(w).Error; err != nil {
		tb.Fatalf("seed wall: %v", err)
	}
	return w
}

func SeedRoute(tb testing.TB, ctx context.Context, tx *gorm.DB, wallID, grade, color string, setDate time.Time) *catalog.Route {
	tb.Helper()
	r := &catalog.Route{
		ID:         uuid.New(),
		WallID:     wallID,
		Grade:      grade,
		Color:      color,
		SetterName: "Setter",
		SetDate:    setDate.UTC(),
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed route: %v", err)
	}
	return r
}

func PtrUUID(id uuid.UUID) *uuid.UUID { return &id }

func PtrString(s string) *string { return &s }

func PtrTime(t time.Time) *time.Time { return &t }
