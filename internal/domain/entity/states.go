package entity

// RequestStatus is the lifecycle state of one ride request inside the
// dispatch pipeline.
type RequestStatus string

const (
	StatusQueued   RequestStatus = "queued"
	StatusMatching RequestStatus = "matching"
	StatusBilled   RequestStatus = "billed"
	StatusSettled  RequestStatus = "settled"
	StatusRejected RequestStatus = "rejected"
	StatusFailed   RequestStatus = "failed"
)

// allowedTransitions encodes the request state flow. Rejection is legal
// before queueing (no match), at matching (driver went away before the
// worker got there) and after billing (re-validation under the guard).
var allowedTransitions = map[RequestStatus][]RequestStatus{
	StatusQueued:   {StatusMatching, StatusRejected},
	StatusMatching: {StatusBilled, StatusRejected, StatusFailed},
	StatusBilled:   {StatusSettled, StatusRejected, StatusFailed},
}

func CanTransition(from, to RequestStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether a request in this state is finished.
func (s RequestStatus) Terminal() bool {
	switch s {
	case StatusSettled, StatusRejected, StatusFailed:
		return true
	}
	return false
}
