// Package metrics constructs the metrics the application will track.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ledger"

// Metrics represents the set of request metrics we gather. These fields are
// safe to be accessed concurrently thanks to the prometheus types.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	errors   prometheus.Counter
	panics   prometheus.Counter
}

// New constructs the request metrics and registers them with the
// specified registerer.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Number of requests handled, by route and status code.",
		}, []string{"method", "route", "code"}),

		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Time taken to handle a request, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "Number of requests that ended in an error.",
		}),

		panics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "panics_total",
			Help:      "Number of panics recovered while handling requests.",
		}),
	}

	for _, c := range []prometheus.Collector{m.requests, m.duration, m.errors, m.panics} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return &m, nil
}

// ObserveRequest records a completed request.
func (m *Metrics) ObserveRequest(method string, route string, statusCode int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.duration.WithLabelValues(method, route).Observe(d.Seconds())
}

// AddError increments the errors counter.
func (m *Metrics) AddError() {
	m.errors.Inc()
}

// AddPanic increments the panics counter.
func (m *Metrics) AddPanic() {
	m.panics.Inc()
}
