package optimistic

import (
	"context"
	"fmt"
	"sync"
	"time"

	types "github.com/yungbote/routemill-backend/internal/domain/activity"
)

type State int

const (
	StatePending State = iota
	StateConfirmed
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StateConfirmed:
		return "CONFIRMED"
	case StateRolledBack:
		return "ROLLED_BACK"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Entry is one locally submitted action. It starts PENDING and ends in
// exactly one of CONFIRMED or ROLLED_BACK.
type Entry struct {
	TempID      string
	Input       types.EventInput
	SubmittedAt time.Time

	seq  uint64
	done chan struct{}

	mu    sync.Mutex
	state State
	event types.ActivityEvent
	err   error
}

func newEntry(tempID string, in types.EventInput, at time.Time, seq uint64) *Entry {
	return &Entry{
		TempID:      tempID,
		Input:       in,
		SubmittedAt: at,
		seq:         seq,
		done:        make(chan struct{}),
		state:       StatePending,
	}
}

func (e *Entry) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Event returns the confirmed event; ok is false until the entry confirms.
func (e *Entry) Event() (types.ActivityEvent, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.event, e.state == StateConfirmed
}

func (e *Entry) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Done is closed once the entry leaves PENDING.
func (e *Entry) Done() <-chan struct{} { return e.done }

// Wait blocks until the durable append settles or ctx ends. Abandoning the
// wait does not cancel the append.
func (e *Entry) Wait(ctx context.Context) (types.ActivityEvent, error) {
	select {
	case <-e.done:
	case <-ctx.Done():
		return types.ActivityEvent{}, ctx.Err()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.event, e.err
}

// transition moves the entry out of PENDING. Every other move is refused.
func (e *Entry) transition(to State, ev types.ActivityEvent, err error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StatePending || (to != StateConfirmed && to != StateRolledBack) {
		return fmt.Errorf("illegal transition %s -> %s", e.state, to)
	}
	e.state = to
	e.event = ev
	e.err = err
	return nil
}

// timestamp is the best known creation time: server time once confirmed.
func (e *Entry) timestamp() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateConfirmed {
		return e.event.CreatedAt
	}
	return e.SubmittedAt
}
