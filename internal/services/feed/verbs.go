package feed

import types "github.com/yungbote/routemill-backend/internal/domain/activity"

// verbs renders an action the way the feed sentence reads:
// "Sam flashed V4 on The Cave".
type verbs struct{}

var _ types.ActionVisitor[string] = verbs{}

func (verbs) Send() string    { return "sent" }
func (verbs) Flash() string   { return "flashed" }
func (verbs) Attempt() string { return "attempted" }
func (verbs) Comment() string { return "commented on" }
func (verbs) Rating() string  { return "rated" }

func Verb(a types.ActionType) string {
	v, err := types.Visit[string](a, verbs{})
	if err != nil {
		return "logged"
	}
	return v
}
