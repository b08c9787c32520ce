package stats

import (
	"bytes"
	"slices"

	"github.com/google/uuid"

	types "github.com/yungbote/routemill-backend/internal/domain/activity"
)

// RouteStats is derived on demand from a route's events and never stored as
// a source of truth.
type RouteStats struct {
	// AverageRating is nil when nobody has rated the route.
	AverageRating    *float64          `json:"average_rating"`
	RatingCount      int               `json:"rating_count"`
	CommentCount     int               `json:"comment_count"`
	BetaCommentCount int               `json:"beta_comment_count"`
	SendCount        int               `json:"send_count"`
	FlashCount       int               `json:"flash_count"`
	AttemptCount     int               `json:"attempt_count"`
	ViewerStatus     *types.ActionType `json:"viewer_status"`
}

type UserStats struct {
	Sends    int `json:"sends"`
	Flashes  int `json:"flashes"`
	Attempts int `json:"attempts"`
	Comments int `json:"comments"`
	Ratings  int `json:"ratings"`
}

// statusRank orders ascent outcomes: FLASH beats SEND beats ATTEMPT. Zero
// means the action says nothing about the climber's progress.
type statusRank struct{}

func (statusRank) Send() int    { return 2 }
func (statusRank) Flash() int   { return 3 }
func (statusRank) Attempt() int { return 1 }
func (statusRank) Comment() int { return 0 }
func (statusRank) Rating() int  { return 0 }

type routeTally func(s *RouteStats, e types.ActivityEvent)

type routeCounter struct{}

func (routeCounter) Send() routeTally    { return func(s *RouteStats, _ types.ActivityEvent) { s.SendCount++ } }
func (routeCounter) Flash() routeTally   { return func(s *RouteStats, _ types.ActivityEvent) { s.FlashCount++ } }
func (routeCounter) Attempt() routeTally { return func(s *RouteStats, _ types.ActivityEvent) { s.AttemptCount++ } }
func (routeCounter) Rating() routeTally  { return func(*RouteStats, types.ActivityEvent) {} }

func (routeCounter) Comment() routeTally {
	return func(s *RouteStats, e types.ActivityEvent) {
		s.CommentCount++
		if e.IsBeta() {
			s.BetaCommentCount++
		}
	}
}

type userTally func(s *UserStats)

type userCounter struct{}

func (userCounter) Send() userTally    { return func(s *UserStats) { s.Sends++ } }
func (userCounter) Flash() userTally   { return func(s *UserStats) { s.Flashes++ } }
func (userCounter) Attempt() userTally { return func(s *UserStats) { s.Attempts++ } }
func (userCounter) Comment() userTally { return func(s *UserStats) { s.Comments++ } }
func (userCounter) Rating() userTally  { return func(s *UserStats) { s.Ratings++ } }

var (
	_ types.ActionVisitor[int]        = statusRank{}
	_ types.ActionVisitor[routeTally] = routeCounter{}
	_ types.ActionVisitor[userTally]  = userCounter{}
)

// ComputeRouteStats aggregates events for one route. The result does not
// depend on the order of events. AverageRating is the mean of every RATING
// value, so a climber who rates twice counts twice. ViewerStatus is set only
// when viewerID is non-nil.
func ComputeRouteStats(events []types.ActivityEvent, viewerID *uuid.UUID) RouteStats {
	var out RouteStats
	var mine []types.ActivityEvent
	sum, n := 0, 0

	for _, e := range events {
		tally, err := types.Visit[routeTally](e.ActionType, routeCounter{})
		if err != nil {
			continue
		}
		tally(&out, e)

		if e.ActionType == types.ActionRating {
			if v, err := types.ParseRating(e.ContentString()); err == nil {
				sum += v
				n++
			}
		}
		if viewerID != nil && e.ActorID == *viewerID {
			mine = append(mine, e)
		}
	}

	out.RatingCount = n
	if n > 0 {
		avg := float64(sum) / float64(n)
		out.AverageRating = &avg
	}
	if viewerID != nil {
		out.ViewerStatus = ViewerStatus(mine)
	}
	return out
}

// ViewerStatus is the best ascent outcome among events, or nil.
func ViewerStatus(events []types.ActivityEvent) *types.ActionType {
	bestRank := 0
	var best types.ActionType
	for _, e := range events {
		if rank, _ := types.Visit[int](e.ActionType, statusRank{}); rank > bestRank {
			bestRank, best = rank, e.ActionType
		}
	}
	if bestRank == 0 {
		return nil
	}
	return &best
}

func ComputeUserStats(events []types.ActivityEvent) UserStats {
	var out UserStats
	for _, e := range events {
		tally, err := types.Visit[userTally](e.ActionType, userCounter{})
		if err != nil {
			continue
		}
		tally(&out)
	}
	return out
}

// sentRouteIDs lists distinct routes the climber sent or flashed, sorted.
func sentRouteIDs(events []types.ActivityEvent) []uuid.UUID {
	seen := map[uuid.UUID]bool{}
	out := make([]uuid.UUID, 0)
	for _, e := range events {
		if e.RouteID == nil {
			continue
		}
		if e.ActionType != types.ActionSend && e.ActionType != types.ActionFlash {
			continue
		}
		if !seen[*e.RouteID] {
			seen[*e.RouteID] = true
			out = append(out, *e.RouteID)
		}
	}
	slices.SortFunc(out, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	return out
}
