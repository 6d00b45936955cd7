// Package metrics exposes kiosk counters to Prometheus. A nil *Collectors is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "checkin"

// Collectors groups the kiosk's Prometheus instruments.
type Collectors struct {
	samples      prometheus.Counter
	decodes      *prometheus.CounterVec
	outcomes     *prometheus.CounterVec
	cameraErrors *prometheus.CounterVec
	transitions  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		samples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "scan_samples_total",
			Help: "Frames sampled by the scan loop.",
		}),
		decodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "decodes_total",
			Help: "Decode attempts by result.",
		}, []string{"result"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "outcomes_total",
			Help: "Verification outcomes by kind and path.",
		}, []string{"kind", "path"}),
		cameraErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "camera_errors_total",
			Help: "Camera acquisition failures by kind.",
		}, []string{"kind"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "state_transitions_total",
			Help: "Check-in state machine transitions.",
		}, []string{"from", "to"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "verification_seconds",
			Help:    "Round-trip time of verification calls.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"path"}),
	}
	if reg != nil {
		reg.MustRegister(c.samples, c.decodes, c.outcomes, c.cameraErrors, c.transitions, c.latency)
	}
	return c
}

// Sampled counts one frame read.
func (c *Collectors) Sampled() {
	if c == nil {
		return
	}
	c.samples.Inc()
}

// Decoded counts one decode by result: "found", "empty" or "error".
func (c *Collectors) Decoded(result string) {
	if c == nil {
		return
	}
	c.decodes.WithLabelValues(result).Inc()
}

// Outcome counts a resolved attempt.
func (c *Collectors) Outcome(kind, path string) {
	if c == nil {
		return
	}
	c.outcomes.WithLabelValues(kind, path).Inc()
}

// CameraError counts an acquisition failure.
func (c *Collectors) CameraError(kind string) {
	if c == nil {
		return
	}
	c.cameraErrors.WithLabelValues(kind).Inc()
}

// Transition counts a state change.
func (c *Collectors) Transition(from, to string) {
	if c == nil {
		return
	}
	c.transitions.WithLabelValues(from, to).Inc()
}

// ObserveVerification records how long a verification call took.
func (c *Collectors) ObserveVerification(path string, d time.Duration) {
	if c == nil {
		return
	}
	c.latency.WithLabelValues(path).Observe(d.Seconds())
}
