package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsObserve(t *testing.T) {
	m := MustNewMetrics(prometheus.NewRegistry())

	m.ObserveAttempt("chat", "no_answer", 10*time.Millisecond)
	m.ObserveAttempt("chat", "answer", 20*time.Millisecond)
	m.ObserveAttempt("native", "answer", 20*time.Millisecond)
	m.IncPlaceholder()
	m.IncGeneration(true)
	m.ObserveRun(false, true, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.attempts.WithLabelValues("chat", "answer")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.attempts.WithLabelValues("native", "answer")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.placeholders))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.generations.WithLabelValues("canned")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("timeout")))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAttempt("chat", "answer", time.Millisecond)
		m.IncPlaceholder()
		m.IncGeneration(false)
		m.ObserveRun(true, false, time.Millisecond)
	})
}
