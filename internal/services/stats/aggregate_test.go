package stats

import (
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/yungbote/routemill-backend/internal/domain/activity"
)

var base = time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)

func ev(actor, route uuid.UUID, action types.ActionType, content string, minute int) types.ActivityEvent {
	e := types.ActivityEvent{
		ID:         uuid.New(),
		ActorID:    actor,
		RouteID:    &route,
		ActionType: action,
		Metadata:   datatypes.NewJSONType(types.Metadata{}),
		CreatedAt:  base.Add(time.Duration(minute) * time.Minute),
	}
	if content != "" {
		e.Content = &content
	}
	return e
}

func betaComment(actor, route uuid.UUID, text string, minute int) types.ActivityEvent {
	e := ev(actor, route, types.ActionComment, text, minute)
	e.Metadata = datatypes.NewJSONType(types.Metadata{IsBeta: true})
	return e
}

func TestComputeRouteStatsIsDeterministic(t *testing.T) {
	route := uuid.New()
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	events := []types.ActivityEvent{
		ev(a, route, types.ActionAttempt, "", 1),
		ev(a, route, types.ActionSend, "", 2),
		ev(b, route, types.ActionFlash, "", 3),
		ev(b, route, types.ActionRating, "5", 4),
		ev(c, route, types.ActionRating, "2", 5),
		ev(c, route, types.ActionComment, "Fun", 6),
		betaComment(a, route, "Drop knee", 7),
	}
	want := ComputeRouteStats(events, &a)

	r := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]types.ActivityEvent(nil), events...)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got := ComputeRouteStats(shuffled, &a)
		if !reflect.DeepEqual(want, got) {
			t.Fatalf("non-deterministic result: want=%+v got=%+v", want, got)
		}
	}

	if want.SendCount != 1 || want.FlashCount != 1 || want.AttemptCount != 1 {
		t.Fatalf("ascent counts: %+v", want)
	}
	if want.CommentCount != 2 || want.BetaCommentCount != 1 {
		t.Fatalf("comment counts: %+v", want)
	}
	if want.RatingCount != 2 || want.AverageRating == nil || *want.AverageRating != 3.5 {
		t.Fatalf("rating: %+v", want)
	}
}

func TestViewerStatusSequences(t *testing.T) {
	route := uuid.New()
	viewer := uuid.New()
	cases := []struct {
		seq  []types.ActionType
		want types.ActionType
	}{
		{[]types.ActionType{types.ActionAttempt, types.ActionSend, types.ActionAttempt}, types.ActionSend},
		{[]types.ActionType{types.ActionSend, types.ActionFlash}, types.ActionFlash},
		{[]types.ActionType{types.ActionFlash, types.ActionAttempt}, types.ActionFlash},
		{[]types.ActionType{types.ActionAttempt}, types.ActionAttempt},
	}
	for _, tc := range cases {
		var events []types.ActivityEvent
		for i, a := range tc.seq {
			events = append(events, ev(viewer, route, a, "", i))
		}
		got := ComputeRouteStats(events, &viewer).ViewerStatus
		if got == nil || *got != tc.want {
			t.Fatalf("%v: want=%s got=%v", tc.seq, tc.want, got)
		}
	}
}

func TestViewerStatusNilWithoutAscents(t *testing.T) {
	route := uuid.New()
	viewer, other := uuid.New(), uuid.New()
	events := []types.ActivityEvent{
		ev(viewer, route, types.ActionComment, "hi", 1),
		ev(other, route, types.ActionFlash, "", 2),
	}
	if got := ComputeRouteStats(events, &viewer).ViewerStatus; got != nil {
		t.Fatalf("comment only: want nil got=%s", *got)
	}
	if got := ComputeRouteStats(events, nil).ViewerStatus; got != nil {
		t.Fatalf("no viewer: want nil got=%s", *got)
	}
}

func TestNoRatingsMeansNilAverage(t *testing.T) {
	route := uuid.New()
	got := ComputeRouteStats([]types.ActivityEvent{ev(uuid.New(), route, types.ActionSend, "", 1)}, nil)
	if got.AverageRating != nil || got.RatingCount != 0 {
		t.Fatalf("want nil average, got=%v count=%d", got.AverageRating, got.RatingCount)
	}
	if empty := ComputeRouteStats(nil, nil); empty.AverageRating != nil {
		t.Fatalf("empty: want nil average")
	}
}

func TestAverageRatingCountsEveryRating(t *testing.T) {
	route := uuid.New()
	a, b := uuid.New(), uuid.New()
	events := []types.ActivityEvent{
		ev(a, route, types.ActionRating, "5", 1),
		ev(a, route, types.ActionRating, "1", 2),
		ev(b, route, types.ActionRating, "3", 3),
		ev(b, route, types.ActionRating, "not a number", 4),
	}
	got := ComputeRouteStats(events, nil)
	if got.RatingCount != 3 || got.AverageRating == nil || *got.AverageRating != 3 {
		t.Fatalf("want mean of all ratings 3 over 3 events, got count=%d avg=%v", got.RatingCount, got.AverageRating)
	}
}

func TestComputeUserStats(t *testing.T) {
	route := uuid.New()
	u := uuid.New()
	got := ComputeUserStats([]types.ActivityEvent{
		ev(u, route, types.ActionSend, "", 1),
		ev(u, route, types.ActionSend, "", 2),
		ev(u, route, types.ActionFlash, "", 3),
		ev(u, route, types.ActionComment, "x", 4),
		betaComment(u, route, "y", 5),
		ev(u, route, types.ActionAttempt, "", 6),
	})
	want := UserStats{Sends: 2, Flashes: 1, Attempts: 1, Comments: 2}
	if got != want {
		t.Fatalf("want=%+v got=%+v", want, got)
	}
}
