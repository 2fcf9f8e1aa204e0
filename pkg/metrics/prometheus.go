package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Prometheus struct {
	rideSubmitted      *prometheus.CounterVec
	rideSettled        *prometheus.CounterVec
	settlementDuration *prometheus.HistogramVec
	queueDepth         prometheus.Gauge
	httpDuration       *prometheus.HistogramVec
}

func NewPrometheusMetrics(reg prometheus.Registerer, serviceName string) *Prometheus {
	m := &Prometheus{
		rideSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "gocab_ride_submitted_total",
			Help:        "Ride requests submitted, by submission outcome.",
			ConstLabels: prometheus.Labels{"service": serviceName},
		}, []string{"outcome"}),
		rideSettled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "gocab_ride_processed_total",
			Help:        "Ride requests that reached a terminal state, by outcome.",
			ConstLabels: prometheus.Labels{"service": serviceName},
		}, []string{"outcome"}),
		settlementDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "gocab_settlement_duration_seconds",
			Help:        "Worker-side processing latency per ride request.",
			Buckets:     []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			ConstLabels: prometheus.Labels{"service": serviceName},
		}, []string{"outcome"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "gocab_ride_queue_depth",
			Help:        "Ride requests currently waiting in the dispatch queue.",
			ConstLabels: prometheus.Labels{"service": serviceName},
		}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "gocab_http_duration_seconds",
			Help:        "Duration of HTTP requests.",
			Buckets:     []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			ConstLabels: prometheus.Labels{"service": serviceName},
		}, []string{"method", "path", "status_code"}),
	}

	reg.MustRegister(
		m.rideSubmitted,
		m.rideSettled,
		m.settlementDuration,
		m.queueDepth,
		m.httpDuration,
	)
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

func (p *Prometheus) RecordRideSubmitted(outcome string) {
	p.rideSubmitted.WithLabelValues(outcome).Inc()
}

func (p *Prometheus) RecordRideSettled(outcome string) {
	p.rideSettled.WithLabelValues(outcome).Inc()
}

func (p *Prometheus) ObserveSettlementDuration(outcome string, duration time.Duration) {
	p.settlementDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (p *Prometheus) SetQueueDepth(depth int) {
	p.queueDepth.Set(float64(depth))
}

func (p *Prometheus) ObserveHTTPRequestDuration(method, path, code string, duration float64) {
	p.httpDuration.WithLabelValues(method, path, code).Observe(duration)
}
