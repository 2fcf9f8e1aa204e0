package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/hellofresh/health-go/v5"
)

type healthOptions struct {
	checks []*health.Config
}

type HealthOption func(*healthOptions)

// WithDispatch reports unhealthy once the dispatch pipeline has stopped
// accepting rides.
func WithDispatch(p interface{ Running() bool }) HealthOption {
	return func(o *healthOptions) {
		if p == nil {
			return
		}
		o.checks = append(o.checks, &health.Config{
			Name:      "dispatch",
			Timeout:   time.Second,
			SkipOnErr: false,
			Check: func(ctx context.Context) error {
				if !p.Running() {
					return errors.New("dispatch pipeline stopped")
				}
				return nil
			},
		})
	}
}

func NewHealthHandler(serviceName string, opts ...HealthOption) http.Handler {
	options := &healthOptions{checks: make([]*health.Config, 0)}
	for _, opt := range opts {
		opt(options)
	}

	h, _ := health.New(health.WithComponent(health.Component{
		Name:    serviceName,
		Version: "1.0.0",
	}))

	for _, check := range options.checks {
		h.Register(*check)
	}

	return h.Handler()
}
