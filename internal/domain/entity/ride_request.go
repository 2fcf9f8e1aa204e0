package entity

import "github.com/google/uuid"

// RideRequest is the payload handed to the dispatch queue. Immutable once
// enqueued; the chosen driver is pinned at match time and re-validated by
// the worker.
type RideRequest struct {
	ID          uuid.UUID
	RiderName   string
	Source      Coord
	Destination Coord
	DriverName  string
}
