package activity

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	types "github.com/yungbote/routemill-backend/internal/domain/activity"
	"github.com/yungbote/routemill-backend/internal/domain/apperr"
)

const (
	MaxCommentLength = 2000
	MaxNoteLength    = 5000
)

const opAppend = "activity.append"

// rule checks an input and returns it normalized.
type rule func(in types.EventInput) (types.EventInput, error)

// actionRules is the per-variant half of input validation. Adding an
// ActionType will not compile until it gets a rule here.
type actionRules struct{}

var _ types.ActionVisitor[rule] = actionRules{}

func (actionRules) Send() rule    { return ascentRule(types.ActionSend) }
func (actionRules) Flash() rule   { return ascentRule(types.ActionFlash) }
func (actionRules) Attempt() rule { return ascentRule(types.ActionAttempt) }

func (actionRules) Comment() rule {
	return func(in types.EventInput) (types.EventInput, error) {
		if err := requireRoute(in); err != nil {
			return in, err
		}
		// stored as written; only the blank check looks at the trimmed text
		if in.ContentString() == "" {
			return in, apperr.Validation(opAppend, "comment content is required")
		}
		if n := utf8.RuneCountInString(*in.Content); n > MaxCommentLength {
			return in, apperr.Validation(opAppend, "comment is %d characters; max %d", n, MaxCommentLength)
		}
		return in, nil
	}
}

func (actionRules) Rating() rule {
	return func(in types.EventInput) (types.EventInput, error) {
		if err := requireRoute(in); err != nil {
			return in, err
		}
		if in.IsBeta {
			return in, apperr.Validation(opAppend, "only comments can be marked as beta")
		}
		v, err := types.ParseRating(in.ContentString())
		if err != nil {
			return in, apperr.New(apperr.CodeValidation, opAppend, err.Error(), err)
		}
		normalized := strconv.Itoa(v)
		in.Content = &normalized
		return in, nil
	}
}

// Ascents carry no text; anything the climber wants to say is a comment.
func ascentRule(a types.ActionType) rule {
	return func(in types.EventInput) (types.EventInput, error) {
		if err := requireRoute(in); err != nil {
			return in, err
		}
		if in.ContentString() != "" {
			return in, apperr.Validation(opAppend, "%s does not take content", strings.ToLower(string(a)))
		}
		if in.IsBeta {
			return in, apperr.Validation(opAppend, "only comments can be marked as beta")
		}
		in.Content = nil
		return in, nil
	}
}

func requireRoute(in types.EventInput) error {
	if in.RouteID == nil || *in.RouteID == uuid.Nil {
		return apperr.Validation(opAppend, "%s requires a route", strings.ToLower(string(in.ActionType)))
	}
	return nil
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// normalizeInput runs struct tag rules first and the per-action rule second.
func normalizeInput(v *validator.Validate, in types.EventInput) (types.EventInput, error) {
	in.ClientEventID = strings.TrimSpace(in.ClientEventID)
	if in.ActorID == uuid.Nil {
		return in, apperr.Validation(opAppend, "actor is required")
	}
	if err := v.Struct(in); err != nil {
		return in, validationError(err)
	}
	action, err := types.ParseActionType(string(in.ActionType))
	if err != nil {
		return in, err
	}
	in.ActionType = action
	check, err := types.Visit[rule](action, actionRules{})
	if err != nil {
		return in, err
	}
	return check(in)
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.New(apperr.CodeValidation, opAppend, err.Error(), err)
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", fe.Field()))
		case "max":
			parts = append(parts, fmt.Sprintf("%s exceeds %s characters", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return apperr.New(apperr.CodeValidation, opAppend, strings.Join(parts, "; "), err)
}
