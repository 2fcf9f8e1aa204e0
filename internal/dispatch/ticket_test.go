package dispatch

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khanhle/gocab/internal/domain/entity"
)

func TestTicket_StartsQueued(t *testing.T) {
	tk := newTicket(uuid.New())

	assert.Equal(t, entity.StatusQueued, tk.Status())
	assert.NoError(t, tk.Err())

	status, terminal := tk.Await(10 * time.Millisecond)
	assert.Equal(t, entity.StatusQueued, status)
	assert.False(t, terminal, "an unfinished request times out with outcome unknown")
}

func TestTicket_HappyPathTransitions(t *testing.T) {
	tk := newTicket(uuid.New())

	require.NoError(t, tk.transition(entity.StatusMatching))
	require.NoError(t, tk.transition(entity.StatusBilled))
	require.NoError(t, tk.transition(entity.StatusSettled))

	status, terminal := tk.Await(10 * time.Millisecond)
	assert.Equal(t, entity.StatusSettled, status)
	assert.True(t, terminal)

	select {
	case <-tk.Done():
	default:
		t.Fatal("done channel must be closed on a terminal state")
	}
}

func TestTicket_RejectsInvalidTransition(t *testing.T) {
	tk := newTicket(uuid.New())

	err := tk.transition(entity.StatusSettled)

	assert.ErrorIs(t, err, entity.ErrInvalidStateTransition)
	assert.Equal(t, entity.StatusQueued, tk.Status(), "a rejected transition must not change state")
}

func TestTicket_FailRecordsCause(t *testing.T) {
	tk := newTicket(uuid.New())
	require.NoError(t, tk.transition(entity.StatusMatching))
	cause := errors.New("settlement blew up")

	tk.fail(cause)

	assert.Equal(t, entity.StatusFailed, tk.Status())
	assert.ErrorIs(t, tk.Err(), cause)
	_, terminal := tk.Await(10 * time.Millisecond)
	assert.True(t, terminal)
}

func TestTicket_FailAfterTerminalIsNoop(t *testing.T) {
	tk := newTicket(uuid.New())
	require.NoError(t, tk.transition(entity.StatusRejected))

	tk.fail(errors.New("late failure"))

	assert.Equal(t, entity.StatusRejected, tk.Status())
	assert.NoError(t, tk.Err())
}
