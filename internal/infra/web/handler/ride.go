package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/khanhle/gocab/internal/dispatch"
	"github.com/khanhle/gocab/internal/domain/entity"
)

// Dispatcher is the slice of the pipeline the ride handler needs.
type Dispatcher interface {
	Submit(ctx context.Context, riderName string, source, dest entity.Coord) (*dispatch.Ticket, error)
	Ticket(id uuid.UUID) (*dispatch.Ticket, bool)
}

type Ride struct {
	dispatcher Dispatcher
}

func NewRideHandler(dispatcher Dispatcher) *Ride {
	return &Ride{dispatcher: dispatcher}
}

type SubmitRideInput struct {
	Rider       string        `json:"rider"`
	Source      LocationInput `json:"source"`
	Destination LocationInput `json:"destination"`
}

type RideOutput struct {
	RequestID string               `json:"request_id"`
	Status    entity.RequestStatus `json:"status"`
	Error     string               `json:"error,omitempty"`
}

func rideOutput(t *dispatch.Ticket) RideOutput {
	out := RideOutput{RequestID: t.ID().String(), Status: t.Status()}
	if err := t.Err(); err != nil {
		out.Error = err.Error()
	}
	return out
}

// Submit enqueues a ride request. 202 means the request was matched and
// queued; a synchronous no-match comes back 200 with status "rejected".
func (h *Ride) Submit(w http.ResponseWriter, r *http.Request) {
	var dto SubmitRideInput
	if !decode(w, r, &dto) {
		return
	}
	ticket, err := h.dispatcher.Submit(r.Context(), dto.Rider,
		entity.Coord{X: dto.Source.X, Y: dto.Source.Y},
		entity.Coord{X: dto.Destination.X, Y: dto.Destination.Y})
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusAccepted
	if ticket.Status() == entity.StatusRejected {
		status = http.StatusOK
	}
	writeJSON(w, status, rideOutput(ticket))
}

func (h *Ride) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request id"})
		return
	}
	ticket, ok := h.dispatcher.Ticket(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "ride request not found"})
		return
	}
	writeJSON(w, http.StatusOK, rideOutput(ticket))
}
