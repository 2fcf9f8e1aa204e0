package metrics

import "time"

// Submission and settlement outcome labels.
const (
	OutcomeMatched  = "matched"
	OutcomeNoMatch  = "no_match"
	OutcomeSettled  = "settled"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

type Metrics interface {
	// Business
	RecordRideSubmitted(outcome string)
	RecordRideSettled(outcome string)
	ObserveSettlementDuration(outcome string, duration time.Duration)
	SetQueueDepth(depth int)

	// Infrastructure
	ObserveHTTPRequestDuration(method, path, statusCode string, duration float64)
}

// Nop satisfies Metrics without recording anything.
func Nop() Metrics { return nop{} }

type nop struct{}

func (nop) RecordRideSubmitted(string)                                 {}
func (nop) RecordRideSettled(string)                                   {}
func (nop) ObserveSettlementDuration(string, time.Duration)            {}
func (nop) SetQueueDepth(int)                                          {}
func (nop) ObserveHTTPRequestDuration(string, string, string, float64) {}
