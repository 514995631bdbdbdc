package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	outcomeSignificant    = "significant"
	outcomeNotSignificant = "not_significant"
	outcomeRejected       = "rejected"
	outcomeError          = "error"
)

type metrics struct {
	registry *prometheus.Registry
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "splitcheck",
			Name:      "runs_total",
			Help:      "Analysis and null-test runs by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "splitcheck",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a request from arrival to result, including request decoding and dataset loading.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"endpoint"}),
	}

	m.registry.MustRegister(
		m.runs,
		m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *metrics) observe(endpoint, outcome string, start time.Time) {
	m.runs.WithLabelValues(endpoint, outcome).Inc()
	m.duration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func outcomeOf(significant bool) string {
	if significant {
		return outcomeSignificant
	}
	return outcomeNotSignificant
}
