package dispatch

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/khanhle/gocab/internal/domain/entity"
)

// Ticket is the per-request completion handle. Each submission gets its
// own ticket, so a waiter can never be woken by someone else's request
// finishing.
type Ticket struct {
	id uuid.UUID

	mu     sync.Mutex
	status entity.RequestStatus
	cause  error
	doneAt time.Time

	done chan struct{}
}

func newTicket(id uuid.UUID) *Ticket {
	return &Ticket{
		id:     id,
		status: entity.StatusQueued,
		done:   make(chan struct{}),
	}
}

func (t *Ticket) ID() uuid.UUID { return t.id }

func (t *Ticket) Status() entity.RequestStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Err returns the processing failure cause for a ticket in StatusFailed,
// nil otherwise.
func (t *Ticket) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cause
}

// Done is closed once the request reaches a terminal state.
func (t *Ticket) Done() <-chan struct{} { return t.done }

// Await blocks until the request is terminal or the timeout elapses. The
// second return reports whether a terminal state was reached; on timeout
// the caller gets the last observed status and should treat the outcome as
// unknown rather than failed.
func (t *Ticket) Await(timeout time.Duration) (entity.RequestStatus, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-t.done:
		return t.Status(), true
	case <-timer.C:
		return t.Status(), false
	}
}

func (t *Ticket) transition(to entity.RequestStatus) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !entity.CanTransition(t.status, to) {
		return fmt.Errorf("request %s: %s -> %s: %w",
			t.id, t.status, to, entity.ErrInvalidStateTransition)
	}
	t.status = to
	if to.Terminal() {
		t.doneAt = time.Now()
		close(t.done)
	}
	return nil
}

func (t *Ticket) fail(cause error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.Terminal() {
		return
	}
	t.status = entity.StatusFailed
	t.cause = cause
	t.doneAt = time.Now()
	close(t.done)
}

// finishedBefore reports whether the ticket reached a terminal state
// before cutoff.
func (t *Ticket) finishedBefore(cutoff time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status.Terminal() && t.doneAt.Before(cutoff)
}
