package user

import (
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/routemill-backend/internal/domain/catalog"
)

type Settings struct {
	UserID       uuid.UUID            `gorm:"type:uuid;primaryKey;column:user_id" json:"user_id"`
	GradeDisplay catalog.GradeDisplay `gorm:"column:grade_display;not null" json:"grade_display"`
	UpdatedAt    time.Time            `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (Settings) TableName() string { return "user_settings" }

func DefaultSettings(userID uuid.UUID) Settings {
	return Settings{UserID: userID, GradeDisplay: catalog.GradeDisplayVScale}
}
