// Package dispatch turns matched ride requests into settled transactions.
// It owns the request queue, the worker loops and the per-request lifecycle
// tickets; all shared record state stays behind the Registry port.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/khanhle/gocab/internal/billing"
	"github.com/khanhle/gocab/internal/domain/entity"
	"github.com/khanhle/gocab/internal/matching"
	"github.com/khanhle/gocab/pkg/logger"
	"github.com/khanhle/gocab/pkg/metrics"
)

// ErrStopped is returned by Submit after Stop has been called. Requests
// already queued at that point are still drained.
var ErrStopped = errors.New("dispatch pipeline stopped")

// Registry is the slice of the record store the pipeline needs.
type Registry interface {
	RiderLocation(ctx context.Context, name string) (entity.Coord, error)
	SnapshotDrivers(ctx context.Context) []entity.DriverView
	SettleDriver(ctx context.Context, name string, fare int64, dest entity.Coord) (bool, error)
}

type Options struct {
	Workers          int           // worker loops; default 1
	QueuePoll        time.Duration // dequeue poll bound; default 1s
	MaxMatchDistance int           // default 5
	FareRatePerUnit  int64         // default billing.DefaultRatePerUnit
	TicketRetention  time.Duration // how long terminal tickets stay queryable; default 15m
	Logger           logger.Logger
	Metrics          metrics.Metrics
}

type Pipeline struct {
	reg      Registry
	queue     *requestQueue
	workers   int
	poll      time.Duration
	maxDist   int
	fareRate  int64
	retention time.Duration

	tmu     sync.RWMutex
	tickets map[uuid.UUID]*Ticket

	stopped atomic.Bool
	cancel  context.CancelFunc
	group   *errgroup.Group

	breaker *gobreaker.CircuitBreaker
	tracer  trace.Tracer
	log     logger.Logger
	metrics metrics.Metrics
}

func New(reg Registry, opts Options) *Pipeline {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueuePoll <= 0 {
		opts.QueuePoll = time.Second
	}
	if opts.MaxMatchDistance <= 0 {
		opts.MaxMatchDistance = 5
	}
	if opts.FareRatePerUnit <= 0 {
		opts.FareRatePerUnit = billing.DefaultRatePerUnit
	}
	if opts.TicketRetention <= 0 {
		opts.TicketRetention = 15 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop()
	}

	return &Pipeline{
		reg:       reg,
		queue:     newRequestQueue(),
		workers:   opts.Workers,
		poll:      opts.QueuePoll,
		maxDist:   opts.MaxMatchDistance,
		fareRate:  opts.FareRatePerUnit,
		retention: opts.TicketRetention,
		tickets:   make(map[uuid.UUID]*Ticket),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "settlement",
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		tracer:  otel.Tracer("gocab/dispatch"),
		log:     opts.Logger,
		metrics: opts.Metrics,
	}
}

// Start launches the worker loops. The pipeline stops when Stop is called
// or ctx is cancelled.
func (p *Pipeline) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.group, ctx = errgroup.WithContext(ctx)
	for i := 0; i < p.workers; i++ {
		id := i
		p.group.Go(func() error {
			p.worker(ctx, id)
			return nil
		})
	}
	p.group.Go(func() error {
		p.janitor(ctx)
		return nil
	})
}

// Submit looks up the rider, matches against the current driver snapshot
// and enqueues the request with the first matching driver pinned. When no
// driver qualifies the returned ticket is already rejected and nothing is
// queued; that is a legitimate outcome, not an error.
func (p *Pipeline) Submit(ctx context.Context, riderName string, source, dest entity.Coord) (*Ticket, error) {
	if p.stopped.Load() {
		return nil, ErrStopped
	}

	ctx, span := p.tracer.Start(ctx, "SubmitRide", trace.WithAttributes(
		attribute.String("ride.rider", riderName),
	))
	defer span.End()

	riderLoc, err := p.reg.RiderLocation(ctx, riderName)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	ticket := newTicket(uuid.New())
	p.registerTicket(ticket)
	span.SetAttributes(attribute.String("ride.request_id", ticket.ID().String()))

	candidates := matching.FindAvailable(riderLoc, p.reg.SnapshotDrivers(ctx), p.maxDist)
	if len(candidates) == 0 {
		// Rejected synchronously; the queue is never touched.
		_ = ticket.transition(entity.StatusRejected)
		p.metrics.RecordRideSubmitted(metrics.OutcomeNoMatch)
		p.log.Info(ctx, "no ride found",
			logger.String("rider", riderName),
			logger.String("request_id", ticket.ID().String()),
		)
		return ticket, nil
	}

	req := entity.RideRequest{
		ID:          ticket.ID(),
		RiderName:   riderName,
		Source:      source,
		Destination: dest,
		DriverName:  candidates[0].Name,
	}
	p.queue.push(req)
	p.metrics.RecordRideSubmitted(metrics.OutcomeMatched)
	p.metrics.SetQueueDepth(p.queue.len())
	p.log.Info(ctx, "ride request queued",
		logger.String("rider", riderName),
		logger.String("driver", req.DriverName),
		logger.String("request_id", ticket.ID().String()),
	)
	return ticket, nil
}

// Ticket returns the lifecycle handle for a previously submitted request.
func (p *Pipeline) Ticket(id uuid.UUID) (*Ticket, bool) {
	p.tmu.RLock()
	defer p.tmu.RUnlock()
	t, ok := p.tickets[id]
	return t, ok
}

func (p *Pipeline) QueueDepth() int { return p.queue.len() }

// Running reports whether the pipeline accepts submissions.
func (p *Pipeline) Running() bool { return !p.stopped.Load() }

// Stop asks the workers to finish and waits up to wait for them. A false
// return means the bound elapsed first; callers should log a warning and
// move on rather than treat it as fatal.
func (p *Pipeline) Stop(wait time.Duration) bool {
	if p.stopped.Swap(true) {
		return true
	}
	if p.cancel == nil {
		return true
	}
	p.cancel()

	done := make(chan struct{})
	go func() {
		_ = p.group.Wait()
		close(done)
	}()

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

func (p *Pipeline) worker(ctx context.Context, id int) {
	log := p.log.With(logger.Int("worker", id))
	log.Info(ctx, "dispatch worker started")

	// Cancellation stops the dequeue loop, never work already in flight:
	// a begun settlement always runs to completion under its own bound.
	procCtx := context.WithoutCancel(ctx)

	for {
		req, ok := p.queue.popWait(ctx, p.poll)
		if ok {
			p.process(procCtx, req)
			p.metrics.SetQueueDepth(p.queue.len())
			continue
		}
		if ctx.Err() != nil {
			// Drain whatever was queued before the stop signal.
			for {
				req, ok := p.queue.tryPop()
				if !ok {
					break
				}
				p.process(procCtx, req)
			}
			p.metrics.SetQueueDepth(p.queue.len())
			log.Info(ctx, "dispatch worker stopped")
			return
		}
	}
}

// process runs one request to a terminal state. Failures are recorded on
// the ticket and never escape to the worker loop.
func (p *Pipeline) process(ctx context.Context, req entity.RideRequest) {
	start := time.Now()
	ctx, span := p.tracer.Start(ctx, "ProcessRideRequest", trace.WithAttributes(
		attribute.String("ride.request_id", req.ID.String()),
		attribute.String("ride.rider", req.RiderName),
		attribute.String("ride.driver", req.DriverName),
	))
	defer span.End()

	ticket, ok := p.Ticket(req.ID)
	if !ok {
		p.log.Error(ctx, "dequeued request has no ticket",
			logger.String("request_id", req.ID.String()))
		return
	}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("ride processing panic: %v", r)
			ticket.fail(err)
			span.RecordError(err)
			p.log.Error(ctx, "ride request processing panicked",
				logger.String("request_id", req.ID.String()),
				logger.WithError(err),
			)
			p.observe(metrics.OutcomeFailed, start)
		}
	}()

	if err := ticket.transition(entity.StatusMatching); err != nil {
		// Should not happen; fail the ticket anyway so no waiter is left
		// hanging on a non-terminal request.
		ticket.fail(err)
		span.RecordError(err)
		p.log.Error(ctx, "ride request in unexpected state", logger.WithError(err))
		p.observe(metrics.OutcomeFailed, start)
		return
	}

	fare := billing.Fare(req.Source, req.Destination, p.fareRate)
	_ = ticket.transition(entity.StatusBilled)

	settled, err := p.settle(ctx, req, fare)
	switch {
	case err != nil:
		ticket.fail(err)
		span.RecordError(err)
		p.log.Warn(ctx, "ride request failed",
			logger.String("request_id", req.ID.String()),
			logger.String("driver", req.DriverName),
			logger.WithError(err),
		)
		p.observe(metrics.OutcomeFailed, start)
	case !settled:
		// The driver was taken between match time and now.
		_ = ticket.transition(entity.StatusRejected)
		p.log.Info(ctx, "driver no longer available",
			logger.String("request_id", req.ID.String()),
			logger.String("driver", req.DriverName),
		)
		p.observe(metrics.OutcomeRejected, start)
	default:
		_ = ticket.transition(entity.StatusSettled)
		p.log.Info(ctx, "ride settled",
			logger.String("request_id", req.ID.String()),
			logger.String("rider", req.RiderName),
			logger.String("driver", req.DriverName),
			logger.Int64("fare", fare),
		)
		p.observe(metrics.OutcomeSettled, start)
	}
}

// settle goes through the circuit breaker so a run of retryable guard
// timeouts fails fast instead of stacking workers on a stuck record.
func (p *Pipeline) settle(ctx context.Context, req entity.RideRequest, fare int64) (bool, error) {
	res, err := p.breaker.Execute(func() (any, error) {
		return p.reg.SettleDriver(ctx, req.DriverName, fare, req.Destination)
	})
	if err != nil {
		return false, err
	}
	return res.(bool), nil
}

func (p *Pipeline) observe(outcome string, start time.Time) {
	p.metrics.RecordRideSettled(outcome)
	p.metrics.ObserveSettlementDuration(outcome, time.Since(start))
}

func (p *Pipeline) registerTicket(t *Ticket) {
	p.tmu.Lock()
	defer p.tmu.Unlock()
	p.tickets[t.id] = t
}

// janitor evicts tickets that have been terminal for longer than the
// retention window, so a long-running server does not grow one map entry
// per submission forever.
func (p *Pipeline) janitor(ctx context.Context) {
	ticker := time.NewTicker(p.retention)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.evictFinishedTickets(time.Now().Add(-p.retention))
		}
	}
}

func (p *Pipeline) evictFinishedTickets(cutoff time.Time) {
	p.tmu.Lock()
	defer p.tmu.Unlock()
	for id, t := range p.tickets {
		if t.finishedBefore(cutoff) {
			delete(p.tickets, id)
		}
	}
}
