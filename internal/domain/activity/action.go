package activity

import (
	"strings"

	"github.com/yungbote/routemill-backend/internal/domain/apperr"
)

// ActionType is the closed set of things a climber can log against a route.
type ActionType string

const (
	ActionSend    ActionType = "SEND"
	ActionFlash   ActionType = "FLASH"
	ActionAttempt ActionType = "ATTEMPT"
	ActionComment ActionType = "COMMENT"
	ActionRating  ActionType = "RATING"
)

// ActionTypes lists every variant in declaration order.
func ActionTypes() []ActionType {
	return []ActionType{ActionSend, ActionFlash, ActionAttempt, ActionComment, ActionRating}
}

func (a ActionType) Valid() bool {
	switch a {
	case ActionSend, ActionFlash, ActionAttempt, ActionComment, ActionRating:
		return true
	default:
		return false
	}
}

func ParseActionType(s string) (ActionType, error) {
	a := ActionType(strings.ToUpper(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", apperr.Validation("activity.parse_action", "unknown action type %q", s)
	}
	return a, nil
}

// ActionVisitor has one method per ActionType. Consumers that must treat every
// variant implement it, so a new variant breaks their build until handled.
type ActionVisitor[T any] interface {
	Send() T
	Flash() T
	Attempt() T
	Comment() T
	Rating() T
}

// Visit dispatches a to the matching visitor method.
func Visit[T any](a ActionType, v ActionVisitor[T]) (T, error) {
	switch a {
	case ActionSend:
		return v.Send(), nil
	case ActionFlash:
		return v.Flash(), nil
	case ActionAttempt:
		return v.Attempt(), nil
	case ActionComment:
		return v.Comment(), nil
	case ActionRating:
		return v.Rating(), nil
	}
	var zero T
	return zero, apperr.Validation("activity.visit", "unknown action type %q", string(a))
}
