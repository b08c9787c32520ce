package activity

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/routemill-backend/internal/domain/activity"
	"github.com/yungbote/routemill-backend/internal/domain/apperr"
)

// Cursor marks the last event a caller has seen. Pages continue strictly
// after it in newest-first order.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

func CursorAt(e types.ActivityEvent) *Cursor {
	return &Cursor{CreatedAt: e.CreatedAt, ID: e.ID}
}

func (c *Cursor) position() *types.Position {
	if c == nil {
		return nil
	}
	return &types.Position{CreatedAt: c.CreatedAt, ID: c.ID}
}

// Encode renders the cursor as an opaque url-safe token.
func (c *Cursor) Encode() string {
	if c == nil {
		return ""
	}
	raw := c.CreatedAt.UTC().Format(time.RFC3339Nano) + "|" + c.ID.String()
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a token produced by Encode. An empty token means "start
// from the newest event" and yields nil.
func DecodeCursor(token string) (*Cursor, error) {
	const op = "activity.decode_cursor"
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, apperr.Validation(op, "malformed cursor")
	}
	ts, id, ok := strings.Cut(string(raw), "|")
	if !ok {
		return nil, apperr.Validation(op, "malformed cursor")
	}
	createdAt, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, apperr.Validation(op, "malformed cursor timestamp")
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation(op, "malformed cursor id")
	}
	return &Cursor{CreatedAt: createdAt.UTC(), ID: parsed}, nil
}
