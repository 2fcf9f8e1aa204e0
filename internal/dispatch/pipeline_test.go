package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khanhle/gocab/internal/domain/entity"
	"github.com/khanhle/gocab/internal/registry"
)

const awaitBound = 5 * time.Second

func newTestPipeline(t *testing.T, reg Registry) *Pipeline {
	t.Helper()
	p := New(reg, Options{QueuePoll: 10 * time.Millisecond})
	t.Cleanup(func() { p.Stop(time.Second) })
	return p
}

func seedWorld(t *testing.T) *registry.Registry {
	t.Helper()
	ctx := context.Background()
	reg := registry.New(50*time.Millisecond, nil)
	require.NoError(t, reg.AddRider(ctx, "khanh", "M", 22))
	require.NoError(t, reg.AddRider(ctx, "thu", "F", 22))
	require.NoError(t, reg.UpdateRiderLocation(ctx, "thu", entity.Coord{X: 10, Y: 0}))
	require.NoError(t, reg.AddDriver(ctx, "driver-1", "M", 22, "Swift", "KA-01-12345", entity.Coord{X: 10, Y: 1}))
	require.NoError(t, reg.AddDriver(ctx, "driver-2", "M", 29, "Swift", "KA-01-12346", entity.Coord{X: 11, Y: 10}))
	require.NoError(t, reg.AddDriver(ctx, "driver-3", "M", 24, "Swift", "KA-01-12347", entity.Coord{X: 5, Y: 3}))
	return reg
}

func TestPipeline_SettlesMatchedRide(t *testing.T) {
	ctx := context.Background()
	reg := seedWorld(t)
	p := newTestPipeline(t, reg)
	p.Start(ctx)

	ticket, err := p.Submit(ctx, "thu", entity.Coord{X: 10, Y: 0}, entity.Coord{X: 15, Y: 3})
	require.NoError(t, err)

	status, terminal := ticket.Await(awaitBound)
	require.True(t, terminal)
	assert.Equal(t, entity.StatusSettled, status)

	view, err := reg.Driver(ctx, "driver-1")
	require.NoError(t, err)
	assert.Equal(t, int64(80), view.Earnings)
	assert.Equal(t, entity.Coord{X: 15, Y: 3}, view.Location, "the driver ends up at the drop-off point")
	assert.False(t, view.Available)
}

func TestPipeline_NoMatchRejectsWithoutQueueing(t *testing.T) {
	ctx := context.Background()
	reg := seedWorld(t)
	p := newTestPipeline(t, reg)

	// khanh sits at (0,0); every driver is more than 5 away.
	ticket, err := p.Submit(ctx, "khanh", entity.Coord{X: 0, Y: 0}, entity.Coord{X: 3, Y: 3})

	require.NoError(t, err, "no match is an outcome, not an error")
	assert.Equal(t, entity.StatusRejected, ticket.Status())
	assert.Equal(t, 0, p.QueueDepth())
}

func TestPipeline_UnknownRider(t *testing.T) {
	reg := seedWorld(t)
	p := newTestPipeline(t, reg)

	ticket, err := p.Submit(context.Background(), "ghost", entity.Coord{}, entity.Coord{})

	assert.ErrorIs(t, err, entity.ErrNotFound)
	assert.Nil(t, ticket)
}

func TestPipeline_StaleDriverRejectedAtSettlement(t *testing.T) {
	ctx := context.Background()
	reg := seedWorld(t)
	p := newTestPipeline(t, reg)

	// Match while driver-1 is free, then take the driver before any worker
	// runs. Settlement must re-validate and reject without paying anyone.
	ticket, err := p.Submit(ctx, "thu", entity.Coord{X: 10, Y: 0}, entity.Coord{X: 15, Y: 3})
	require.NoError(t, err)
	require.Equal(t, entity.StatusQueued, ticket.Status())
	require.NoError(t, reg.SetDriverAvailability(ctx, "driver-1", false))

	p.Start(ctx)

	status, terminal := ticket.Await(awaitBound)
	require.True(t, terminal)
	assert.Equal(t, entity.StatusRejected, status)

	view, err := reg.Driver(ctx, "driver-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), view.Earnings, "a rejected settlement must not pay the driver")
	assert.Equal(t, entity.Coord{X: 10, Y: 1}, view.Location)
}

func TestPipeline_ConcurrentSubmissionsSettleExactlyOnce(t *testing.T) {
	ctx := context.Background()
	reg := seedWorld(t)
	p := newTestPipeline(t, reg)

	// All submissions happen before the workers start, so every one of them
	// matches driver-1 and competes for the same availability window.
	const attempts = 8
	tickets := make([]*Ticket, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ticket, err := p.Submit(ctx, "thu", entity.Coord{X: 10, Y: 0}, entity.Coord{X: 15, Y: 3})
			require.NoError(t, err)
			tickets[i] = ticket
		}(i)
	}
	wg.Wait()

	p.Start(ctx)

	settled, rejected := 0, 0
	for _, ticket := range tickets {
		status, terminal := ticket.Await(awaitBound)
		require.True(t, terminal)
		switch status {
		case entity.StatusSettled:
			settled++
		case entity.StatusRejected:
			rejected++
		default:
			t.Fatalf("unexpected terminal status %s", status)
		}
	}
	assert.Equal(t, 1, settled, "exactly one request wins the driver")
	assert.Equal(t, attempts-1, rejected)

	view, err := reg.Driver(ctx, "driver-1")
	require.NoError(t, err)
	assert.Equal(t, int64(80), view.Earnings, "earnings must reflect exactly one fare")
}

func TestPipeline_StopDrainsQueuedWork(t *testing.T) {
	ctx := context.Background()
	reg := seedWorld(t)
	p := New(reg, Options{QueuePoll: 10 * time.Millisecond})
	p.Start(ctx)

	const submissions = 3
	tickets := make([]*Ticket, 0, submissions)
	for i := 0; i < submissions; i++ {
		ticket, err := p.Submit(ctx, "thu", entity.Coord{X: 10, Y: 0}, entity.Coord{X: 15, Y: 3})
		require.NoError(t, err)
		tickets = append(tickets, ticket)
	}

	require.True(t, p.Stop(awaitBound), "workers must drain and exit within the bound")
	assert.False(t, p.Running())

	settled := 0
	for _, ticket := range tickets {
		status := ticket.Status()
		assert.True(t, status.Terminal(), "queued work must reach a terminal state before shutdown completes")
		if status == entity.StatusSettled {
			settled++
		}
	}
	assert.Equal(t, 1, settled)

	_, err := p.Submit(ctx, "thu", entity.Coord{X: 10, Y: 0}, entity.Coord{X: 15, Y: 3})
	assert.ErrorIs(t, err, ErrStopped)
}

func TestPipeline_TicketLookup(t *testing.T) {
	ctx := context.Background()
	reg := seedWorld(t)
	p := newTestPipeline(t, reg)

	ticket, err := p.Submit(ctx, "khanh", entity.Coord{X: 0, Y: 0}, entity.Coord{X: 3, Y: 3})
	require.NoError(t, err)

	got, ok := p.Ticket(ticket.ID())
	require.True(t, ok)
	assert.Same(t, ticket, got)

	_, ok = p.Ticket(uuid.New())
	assert.False(t, ok)
}

func TestPipeline_EvictsFinishedTickets(t *testing.T) {
	ctx := context.Background()
	reg := seedWorld(t)
	p := New(reg, Options{QueuePoll: 10 * time.Millisecond, TicketRetention: 20 * time.Millisecond})
	t.Cleanup(func() { p.Stop(time.Second) })

	// Synchronous no-match, terminal right away.
	ticket, err := p.Submit(ctx, "khanh", entity.Coord{X: 0, Y: 0}, entity.Coord{X: 3, Y: 3})
	require.NoError(t, err)
	require.True(t, ticket.Status().Terminal())

	p.Start(ctx)

	assert.Eventually(t, func() bool {
		_, ok := p.Ticket(ticket.ID())
		return !ok
	}, awaitBound, 10*time.Millisecond, "terminal tickets must be dropped after the retention window")
}

func TestPipeline_UnexpectedTicketStateFailsTheRequest(t *testing.T) {
	ctx := context.Background()
	p := newTestPipeline(t, seedWorld(t))

	// A dequeued request whose ticket is already past Queued cannot restart
	// its lifecycle; the ticket must still end terminal.
	ticket := newTicket(uuid.New())
	p.registerTicket(ticket)
	require.NoError(t, ticket.transition(entity.StatusMatching))

	p.process(ctx, entity.RideRequest{
		ID:          ticket.ID(),
		RiderName:   "thu",
		Source:      entity.Coord{X: 10, Y: 0},
		Destination: entity.Coord{X: 15, Y: 3},
		DriverName:  "driver-1",
	})

	assert.Equal(t, entity.StatusFailed, ticket.Status())
	assert.ErrorIs(t, ticket.Err(), entity.ErrInvalidStateTransition)
}

// stuckRegistry simulates a record whose guard never frees up in time.
type stuckRegistry struct{}

func (stuckRegistry) RiderLocation(context.Context, string) (entity.Coord, error) {
	return entity.Coord{X: 10, Y: 0}, nil
}

func (stuckRegistry) SnapshotDrivers(context.Context) []entity.DriverView {
	return []entity.DriverView{
		{Name: "driver-1", Location: entity.Coord{X: 10, Y: 1}, Available: true},
	}
}

func (stuckRegistry) SettleDriver(context.Context, string, int64, entity.Coord) (bool, error) {
	return false, entity.ErrLockTimeout
}

func TestPipeline_GuardTimeoutFailsTheRequest(t *testing.T) {
	ctx := context.Background()
	p := newTestPipeline(t, stuckRegistry{})
	p.Start(ctx)

	ticket, err := p.Submit(ctx, "thu", entity.Coord{X: 10, Y: 0}, entity.Coord{X: 15, Y: 3})
	require.NoError(t, err)

	status, terminal := ticket.Await(awaitBound)
	require.True(t, terminal)
	assert.Equal(t, entity.StatusFailed, status)
	assert.ErrorIs(t, ticket.Err(), entity.ErrLockTimeout)
}
