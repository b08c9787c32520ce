package activity

import (
	"bytes"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Metadata is the structured extension stored next to an event.
type Metadata struct {
	IsBeta bool `json:"is_beta,omitempty"`
}

// ActivityEvent is one immutable entry of the append-only activity log.
// It has no UpdatedAt or DeletedAt; a correction is a new event.
type ActivityEvent struct {
	ID            uuid.UUID                    `gorm:"type:uuid;primaryKey" json:"id"`
	ActorID       uuid.UUID                    `gorm:"type:uuid;not null;column:actor_id;index:idx_activity_actor_created,priority:1;uniqueIndex:idx_activity_actor_client_event,priority:1" json:"actor_id"`
	RouteID       *uuid.UUID                   `gorm:"type:uuid;column:route_id;index:idx_activity_route_created,priority:1" json:"route_id,omitempty"`
	ActionType    ActionType                   `gorm:"column:action_type;not null" json:"action_type"`
	Content       *string                      `gorm:"column:content" json:"content,omitempty"`
	Metadata      datatypes.JSONType[Metadata] `gorm:"column:metadata" json:"metadata"`
	ClientEventID *string                      `gorm:"column:client_event_id;uniqueIndex:idx_activity_actor_client_event,priority:2" json:"client_event_id,omitempty"`
	CreatedAt     time.Time                    `gorm:"not null;column:created_at;index:idx_activity_created_id,priority:1;index:idx_activity_route_created,priority:2;index:idx_activity_actor_created,priority:2" json:"created_at"`
}

func (ActivityEvent) TableName() string { return "activity_event" }

func (e *ActivityEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func (e ActivityEvent) IsBeta() bool { return e.Metadata.Data().IsBeta }

func (e ActivityEvent) ContentString() string {
	if e.Content == nil {
		return ""
	}
	return *e.Content
}

func (e ActivityEvent) Position() Position {
	return Position{CreatedAt: e.CreatedAt, ID: e.ID}
}

// EventInput is what a caller supplies to append an event; id and createdAt
// are assigned by the store.
type EventInput struct {
	ActorID       uuid.UUID  `json:"actor_id" validate:"required"`
	RouteID       *uuid.UUID `json:"route_id,omitempty"`
	ActionType    ActionType `json:"action_type" validate:"required"`
	Content       *string    `json:"content,omitempty" validate:"omitempty,max=2000"`
	IsBeta        bool       `json:"is_beta,omitempty"`
	ClientEventID string     `json:"client_event_id,omitempty" validate:"omitempty,max=128"`
}

func (in EventInput) ContentString() string {
	if in.Content == nil {
		return ""
	}
	return strings.TrimSpace(*in.Content)
}

// Position is a point in the total order (created_at, id).
type Position struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// Compare orders positions oldest-first: -1 when p sorts before o.
func (p Position) Compare(o Position) int {
	switch {
	case p.CreatedAt.Before(o.CreatedAt):
		return -1
	case p.CreatedAt.After(o.CreatedAt):
		return 1
	}
	return bytes.Compare(p.ID[:], o.ID[:])
}

// NewestFirst is a sort.Slice/slices.SortFunc comparator for feed order.
func NewestFirst(a, b ActivityEvent) int {
	return b.Position().Compare(a.Position())
}
