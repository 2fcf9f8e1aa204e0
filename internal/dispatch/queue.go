package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/khanhle/gocab/internal/domain/entity"
)

// requestQueue is an unbounded multi-producer FIFO. Producers never block;
// consumers wait with a bounded poll so shutdown stays cooperative.
type requestQueue struct {
	mu    sync.Mutex
	items []entity.RideRequest
	wake  chan struct{}
}

func newRequestQueue() *requestQueue {
	return &requestQueue{wake: make(chan struct{}, 1)}
}

func (q *requestQueue) push(req entity.RideRequest) {
	q.mu.Lock()
	q.items = append(q.items, req)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *requestQueue) tryPop() (entity.RideRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return entity.RideRequest{}, false
	}
	req := q.items[0]
	q.items = q.items[1:]
	return req, true
}

// popWait returns the next request, waiting at most timeout. A false return
// means either an empty poll cycle or context cancellation; the caller
// decides which by inspecting ctx.
func (q *requestQueue) popWait(ctx context.Context, timeout time.Duration) (entity.RideRequest, bool) {
	if req, ok := q.tryPop(); ok {
		return req, true
	}

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return entity.RideRequest{}, false
	case <-q.wake:
		return q.tryPop()
	case <-t.C:
		return q.tryPop()
	}
}

func (q *requestQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
