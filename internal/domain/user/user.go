package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the public profile of a climber as last reported by the identity
// provider. The row is upserted on authenticated requests, never edited here.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null;default:''" json:"name"`
	AvatarURL string    `gorm:"column:avatar_url" json:"avatar_url"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "user" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// PlaceholderName is shown for activity whose author no longer resolves.
const PlaceholderName = "Unknown Climber"
