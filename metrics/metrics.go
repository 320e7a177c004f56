// Package metrics exposes counters for the pixel, ingest and query paths.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sink receives view counter events. Implementations must be safe for
// concurrent use and must not block.
type Sink interface {
	PixelServed()
	IngestFailed()
	QueryCompleted(duration time.Duration, err error)
}

type noop struct{}

// Noop discards everything.
func Noop() Sink { return noop{} }

func (noop) PixelServed()                        {}
func (noop) IngestFailed()                       {}
func (noop) QueryCompleted(time.Duration, error) {}

// Prometheus implements Sink with client_golang collectors.
type Prometheus struct {
	pixelRequests  prometheus.Counter
	ingestFailures prometheus.Counter
	queryFailures  prometheus.Counter
	queryDuration  prometheus.Histogram
}

// NewPrometheus creates the collectors and registers them with reg.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		pixelRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "viewcounter_pixel_requests_total",
			Help: "Total number of tracking pixels served with a valid id.",
		}),
		ingestFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "viewcounter_ingest_failures_total",
			Help: "Total number of view events the backend failed to ingest.",
		}),
		queryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "viewcounter_query_failures_total",
			Help: "Total number of count queries answered with 0 because the backend failed.",
		}),
		queryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "viewcounter_query_duration_seconds",
			Help:    "Latency of backend count queries in seconds.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}

	for _, c := range []prometheus.Collector{p.pixelRequests, p.ingestFailures, p.queryFailures, p.queryDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Prometheus) PixelServed() {
	p.pixelRequests.Inc()
}

func (p *Prometheus) IngestFailed() {
	p.ingestFailures.Inc()
}

func (p *Prometheus) QueryCompleted(duration time.Duration, err error) {
	p.queryDuration.Observe(duration.Seconds())
	if err != nil {
		p.queryFailures.Inc()
	}
}

// Handler serves the registry in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
