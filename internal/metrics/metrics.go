// Package metrics exposes solve statistics as Prometheus collectors.
package metrics

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wgp"

// Recorder implements wgp.Recorder on top of Prometheus collectors.
type Recorder struct {
	solves      *prometheus.CounterVec
	duration    prometheus.Histogram
	variables   prometheus.Gauge
	constraints prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is handy in tests.
func New(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solves_total",
			Help:      "Number of finished solves by status.",
		}, []string{"status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solve_duration_seconds",
			Help:      "Wall-clock time spent in the solver engine.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}),
		variables: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_variables",
			Help:      "Variables in the most recently solved model, deviation variables included.",
		}),
		constraints: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_constraints",
			Help:      "Constraints in the most recently solved model, goal links included.",
		}),
	}
	if reg == nil {
		return r, nil
	}
	collectors := r.Collectors()
	for i, c := range collectors {
		if err := reg.Register(c); err != nil {
			for _, done := range collectors[:i] {
				reg.Unregister(done)
			}
			return nil, errors.Wrap(err, "failed to register solve metrics")
		}
	}
	return r, nil
}

// Collectors returns every collector owned by r.
func (r *Recorder) Collectors() []prometheus.Collector {
	return []prometheus.Collector{r.solves, r.duration, r.variables, r.constraints}
}

// ObserveSolve records one finished solve.
func (r *Recorder) ObserveSolve(status string, elapsed time.Duration, variables, constraints int) {
	r.solves.WithLabelValues(status).Inc()
	r.duration.Observe(elapsed.Seconds())
	r.variables.Set(float64(variables))
	r.constraints.Set(float64(constraints))
}
