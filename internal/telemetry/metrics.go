package telemetry

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "scriptgen"

// Metrics exposes Prometheus collectors for generation attempts and script runs.
type Metrics struct {
	attempts        *prometheus.CounterVec
	attemptDuration *prometheus.HistogramVec
	placeholders    prometheus.Counter
	generations     *prometheus.CounterVec
	runs            *prometheus.CounterVec
	runDuration     prometheus.Histogram
}

var (
	defaultMetricsOnce sync.Once
	sharedMetrics      *Metrics
)

// Default returns the process-wide metrics registered with the default
// Prometheus registerer. Collectors are created once so repeated calls do not
// panic on duplicate registration.
func Default() *Metrics {
	defaultMetricsOnce.Do(func() {
		sharedMetrics = MustNewMetrics(prometheus.DefaultRegisterer)
	})
	return sharedMetrics
}

// MustNewMetrics constructs Metrics against reg. Tests pass a fresh registry.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "attempts_total",
			Help:      "Model endpoint attempts by dialect and outcome.",
		}, []string{"dialect", "outcome"}),
		attemptDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "attempt_duration_seconds",
			Help:      "Latency of a single model endpoint attempt.",
			Buckets:   []float64{0.05, 0.25, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"dialect"}),
		placeholders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "placeholder_total",
			Help:      "Generations that exhausted every candidate and returned the placeholder script.",
		}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generator",
			Name:      "scripts_total",
			Help:      "Produced scripts by origin (model or canned).",
		}, []string{"origin"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runner",
			Name:      "runs_total",
			Help:      "Script executions by result.",
		}, []string{"result"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "runner",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a script execution.",
			Buckets:   []float64{1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
	}
	reg.MustRegister(m.attempts, m.attemptDuration, m.placeholders, m.generations, m.runs, m.runDuration)
	return m
}

// ObserveAttempt records one gateway attempt. Safe on a nil receiver.
func (m *Metrics) ObserveAttempt(dialect, outcome string, latency time.Duration) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(dialect, outcome).Inc()
	m.attemptDuration.WithLabelValues(dialect).Observe(latency.Seconds())
}

// IncPlaceholder counts a fully exhausted cascade.
func (m *Metrics) IncPlaceholder() {
	if m == nil {
		return
	}
	m.placeholders.Inc()
}

// IncGeneration counts a produced script by origin.
func (m *Metrics) IncGeneration(canned bool) {
	if m == nil {
		return
	}
	origin := "model"
	if canned {
		origin = "canned"
	}
	m.generations.WithLabelValues(origin).Inc()
}

// ObserveRun records a finished script execution.
func (m *Metrics) ObserveRun(pass, timedOut bool, d time.Duration) {
	if m == nil {
		return
	}
	result := "fail"
	switch {
	case timedOut:
		result = "timeout"
	case pass:
		result = "pass"
	}
	m.runs.WithLabelValues(result).Inc()
	m.runDuration.Observe(d.Seconds())
}
