package optimistic

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// NoteSaver persists a personal note. Saves are not optimistic: the editor
// only reports a value as saved once the saver returns.
type NoteSaver interface {
	SaveNote(ctx context.Context, routeID uuid.UUID, text string) error
}

// NoteEditor holds the edit buffer for one route's note and saves it on blur.
type NoteEditor struct {
	saver   NoteSaver
	routeID uuid.UUID
	timeout time.Duration

	mu        sync.Mutex
	text      string
	saved     string
	requested string
	seq       uint64
	applied   uint64
	inflight  int
}

func NewNoteEditor(saver NoteSaver, routeID uuid.UUID, initial string, timeout time.Duration) *NoteEditor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NoteEditor{
		saver:     saver,
		routeID:   routeID,
		timeout:   timeout,
		text:      initial,
		saved:     initial,
		requested: initial,
	}
}

func (n *NoteEditor) Edit(text string) {
	n.mu.Lock()
	n.text = text
	n.mu.Unlock()
}

func (n *NoteEditor) Text() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.text
}

// Saved is the newest value the server acknowledged.
func (n *NoteEditor) Saved() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.saved
}

// Pending reports whether a save is in flight.
func (n *NoteEditor) Pending() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.inflight > 0
}

// Blur saves the buffer if it differs from the last saved or requested
// value. A completion older than one already applied is ignored.
func (n *NoteEditor) Blur(ctx context.Context) error {
	n.mu.Lock()
	if n.text == n.requested {
		n.mu.Unlock()
		return nil
	}
	n.seq++
	mine := n.seq
	text := n.text
	n.requested = text
	n.inflight++
	n.mu.Unlock()

	sctx, cancel := context.WithTimeout(ctx, n.timeout)
	err := n.saver.SaveNote(sctx, n.routeID, text)
	cancel()

	n.mu.Lock()
	defer n.mu.Unlock()
	n.inflight--
	if err != nil {
		if mine == n.seq {
			// let the next blur retry the same text
			n.requested = n.saved
		}
		return err
	}
	if mine > n.applied {
		n.applied = mine
		n.saved = text
	}
	return nil
}
