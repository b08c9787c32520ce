package activity

import (
	"time"

	"github.com/google/uuid"
)

// PersonalNote is a private per-(user, route) note. It has no history: each
// save overwrites the previous text.
type PersonalNote struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey;column:user_id" json:"user_id"`
	RouteID   uuid.UUID `gorm:"type:uuid;primaryKey;column:route_id" json:"route_id"`
	Text      string    `gorm:"column:text;not null;default:''" json:"text"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (PersonalNote) TableName() string { return "personal_note" }
