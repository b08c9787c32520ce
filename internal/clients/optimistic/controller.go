package optimistic

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/yungbote/routemill-backend/internal/domain/activity"
	"github.com/yungbote/routemill-backend/internal/domain/apperr"
	"github.com/yungbote/routemill-backend/internal/platform/logger"
)

// Appender is the durable write path: the activity store in-process or the
// HTTP API client.
type Appender interface {
	Append(ctx context.Context, in types.EventInput) (types.ActivityEvent, error)
}

type Config struct {
	// Timeout bounds each append attempt.
	Timeout time.Duration
	// MaxRetries applies only to inputs with a ClientEventID.
	MaxRetries   uint
	RetryBackoff time.Duration
	// DedupeWindow is how far apart a local entry and a server event may be
	// and still be treated as the same action.
	DedupeWindow time.Duration
	// OnChange, if set, is called after every change to the view.
	OnChange func()
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 200 * time.Millisecond
	}
	if c.DedupeWindow <= 0 {
		c.DedupeWindow = 2 * time.Minute
	}
	return c
}

// ViewItem is one row of the merged view. Pending rows carry a temp id and
// a zero event id.
type ViewItem struct {
	ID    string
	State State
	Event types.ActivityEvent
}

// Controller reflects submitted actions immediately and reconciles them
// with the server once the append settles.
type Controller struct {
	log      *logger.Logger
	appender Appender
	cfg      Config
	now      func() time.Time

	mu      sync.Mutex
	seq     uint64
	entries []*Entry
	server  []types.ActivityEvent
	// server ids already owned by a local entry via its true id; they never
	// claim another entry through the fallback key
	reconciled map[uuid.UUID]bool
	// last entry per actor; the next submission waits for it
	tails    map[uuid.UUID]*Entry
	inflight sync.WaitGroup
}

func NewController(log *logger.Logger, appender Appender, cfg Config) *Controller {
	return &Controller{
		log:      log.With("component", "OptimisticController"),
		appender: appender,
		cfg:      cfg.withDefaults(),
		now:      time.Now,
		tails:    make(map[uuid.UUID]*Entry),

		reconciled: make(map[uuid.UUID]bool),
	}
}

// Submit adds a PENDING entry at the head of the view and dispatches the
// append in the background. Appends from one actor run in submission order.
func (c *Controller) Submit(ctx context.Context, in types.EventInput) *Entry {
	c.mu.Lock()
	c.seq++
	e := newEntry("tmp-"+uuid.NewString(), in, c.now().UTC(), c.seq)
	prev := c.tails[in.ActorID]
	c.tails[in.ActorID] = e
	c.entries = append(c.entries, e)
	c.inflight.Add(1)
	c.mu.Unlock()
	c.changed()

	go c.dispatch(context.WithoutCancel(ctx), e, prev)
	return e
}

// Do submits and waits for the outcome.
func (c *Controller) Do(ctx context.Context, in types.EventInput) (types.ActivityEvent, error) {
	return c.Submit(ctx, in).Wait(ctx)
}

// Flush waits for every in-flight append to settle.
func (c *Controller) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) dispatch(ctx context.Context, e, prev *Entry) {
	defer c.inflight.Done()
	if prev != nil {
		<-prev.done
	}
	ev, err := c.appendWithRetry(ctx, e.Input)
	c.settle(e, ev, err)
}

func (c *Controller) appendWithRetry(ctx context.Context, in types.EventInput) (types.ActivityEvent, error) {
	const op = "optimistic.append"
	attempt := func() (types.ActivityEvent, error) {
		ev, err := c.appendOnce(ctx, in)
		if err == nil {
			return ev, nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			err = apperr.Transient(op, fmt.Errorf("append timed out after %s: %w", c.cfg.Timeout, err))
		}
		if in.ClientEventID == "" || !apperr.IsTransient(err) {
			return types.ActivityEvent{}, backoff.Permanent(err)
		}
		return types.ActivityEvent{}, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.RetryBackoff
	ev, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.cfg.MaxRetries+1),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.log.Warn("Append failed; retrying", "client_event_id", in.ClientEventID, "next", next, "error", err)
		}),
	)
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Err
	}
	return ev, err
}

// appendOnce returns when the appender does or when the timeout fires,
// whichever comes first.
func (c *Controller) appendOnce(ctx context.Context, in types.EventInput) (types.ActivityEvent, error) {
	actx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	type result struct {
		ev  types.ActivityEvent
		err error
	}
	ch := make(chan result, 1)
	go func() {
		ev, err := c.appender.Append(actx, in)
		ch <- result{ev: ev, err: err}
	}()
	select {
	case r := <-ch:
		return r.ev, r.err
	case <-actx.Done():
		return types.ActivityEvent{}, actx.Err()
	}
}

func (c *Controller) settle(e *Entry, ev types.ActivityEvent, err error) {
	c.mu.Lock()
	if err != nil {
		if terr := e.transition(StateRolledBack, types.ActivityEvent{}, err); terr != nil {
			c.log.Error("Entry settle refused", "temp_id", e.TempID, "error", terr)
		}
		c.entries = slices.DeleteFunc(c.entries, func(x *Entry) bool { return x == e })
	} else if terr := e.transition(StateConfirmed, ev, nil); terr != nil {
		c.log.Error("Entry settle refused", "temp_id", e.TempID, "error", terr)
	} else {
		c.reconciled[ev.ID] = true
	}
	if c.tails[e.Input.ActorID] == e {
		delete(c.tails, e.Input.ActorID)
	}
	c.mu.Unlock()

	if err != nil {
		c.log.Info("Optimistic entry rolled back", "temp_id", e.TempID, "code", apperr.CodeOf(err), "error", err)
	}
	close(e.done)
	c.changed()
}

// Refresh replaces the server baseline. Confirmed entries now present on the
// server by id are dropped from local state; their ids stay reconciled for as
// long as the baseline holds them.
func (c *Controller) Refresh(events []types.ActivityEvent) {
	c.mu.Lock()
	c.server = append([]types.ActivityEvent(nil), events...)
	ids := make(map[uuid.UUID]bool, len(events))
	for _, ev := range events {
		ids[ev.ID] = true
	}
	c.entries = slices.DeleteFunc(c.entries, func(e *Entry) bool {
		ev, ok := e.Event()
		return ok && ids[ev.ID]
	})
	held := make(map[uuid.UUID]bool, len(c.entries))
	for _, e := range c.entries {
		if ev, ok := e.Event(); ok {
			held[ev.ID] = true
		}
	}
	for id := range c.reconciled {
		if !ids[id] && !held[id] {
			delete(c.reconciled, id)
		}
	}
	c.mu.Unlock()
	c.changed()
}

// View returns unclaimed pending entries (newest submission first) followed
// by confirmed and server events, newest first by (createdAt, id).
func (c *Controller) View() []ViewItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	serverIDs := make(map[uuid.UUID]bool, len(c.server))
	for _, ev := range c.server {
		serverIDs[ev.ID] = true
	}

	var pending []*Entry
	settled := make([]types.ActivityEvent, 0, len(c.server)+len(c.entries))
	settled = append(settled, c.server...)
	for _, e := range c.entries {
		switch ev, ok := e.Event(); {
		case ok && !serverIDs[ev.ID]:
			settled = append(settled, ev)
		case !ok && e.State() == StatePending:
			pending = append(pending, e)
		}
	}
	pending = c.unclaimed(pending)

	slices.SortFunc(pending, func(a, b *Entry) int {
		switch {
		case a.seq > b.seq:
			return -1
		case a.seq < b.seq:
			return 1
		}
		return 0
	})
	slices.SortFunc(settled, types.NewestFirst)

	out := make([]ViewItem, 0, len(pending)+len(settled))
	for _, e := range pending {
		out = append(out, ViewItem{ID: e.TempID, State: StatePending, Event: provisional(e)})
	}
	for _, ev := range settled {
		out = append(out, ViewItem{ID: ev.ID.String(), State: StateConfirmed, Event: ev})
	}
	return out
}

// unclaimed drops pending entries already visible as a server event. Each
// server event claims at most one entry, oldest submission first, and an event
// already reconciled by id claims none.
func (c *Controller) unclaimed(pending []*Entry) []*Entry {
	if len(pending) == 0 || len(c.server) == 0 {
		return pending
	}
	slices.SortFunc(pending, func(a, b *Entry) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})
	server := append([]types.ActivityEvent(nil), c.server...)
	slices.SortFunc(server, func(a, b types.ActivityEvent) int { return a.Position().Compare(b.Position()) })

	claimed := make(map[*Entry]bool, len(pending))
	for _, ev := range server {
		if c.reconciled[ev.ID] {
			continue
		}
		for _, e := range pending {
			if !claimed[e] && c.sameAction(e, ev) {
				claimed[e] = true
				break
			}
		}
	}
	out := pending[:0:0]
	for _, e := range pending {
		if !claimed[e] {
			out = append(out, e)
		}
	}
	return out
}

func (c *Controller) sameAction(e *Entry, ev types.ActivityEvent) bool {
	in := e.Input
	if in.ActorID != ev.ActorID || !sameRoute(in.RouteID, ev.RouteID) {
		return false
	}
	if !sameActionType(in.ActionType, ev.ActionType) || in.ContentString() != strings.TrimSpace(ev.ContentString()) {
		return false
	}
	d := ev.CreatedAt.Sub(e.timestamp())
	if d < 0 {
		d = -d
	}
	return d <= c.cfg.DedupeWindow
}

func (c *Controller) changed() {
	if c.cfg.OnChange != nil {
		c.cfg.OnChange()
	}
}

func provisional(e *Entry) types.ActivityEvent {
	in := e.Input
	ev := types.ActivityEvent{
		ActorID:    in.ActorID,
		RouteID:    in.RouteID,
		ActionType: in.ActionType,
		CreatedAt:  e.SubmittedAt,
	}
	if in.ContentString() != "" {
		text := *in.Content
		ev.Content = &text
	}
	ev.Metadata = datatypes.NewJSONType(types.Metadata{IsBeta: in.IsBeta})
	return ev
}

func sameRoute(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sameActionType(a, b types.ActionType) bool {
	parsed, err := types.ParseActionType(string(a))
	return err == nil && parsed == b
}
