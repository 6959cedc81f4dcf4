package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the service's prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	// Semantic grading calls by result: success/fallback
	delegateCalls *prometheus.CounterVec

	delegateDuration *prometheus.HistogramVec

	// Completed grading passes
	gradingPasses prometheus.Counter

	gradingDuration prometheus.Histogram

	// Final percentage of graded sessions
	sessionScore prometheus.Histogram

	activeSessions prometheus.Gauge

	// Session operations by name and status
	sessionOps *prometheus.CounterVec

	// Delegate cache lookups by result: hit/miss/error
	cacheLookups *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		delegateCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assessment_delegate_calls_total",
				Help: "Total number of short answer grading calls",
			},
			[]string{"result"},
		),
		delegateDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "assessment_delegate_duration_seconds",
				Help:    "Time spent waiting for the semantic grader",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		),
		gradingPasses: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "assessment_grading_passes_total",
				Help: "Total number of completed grading passes",
			},
		),
		gradingDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "assessment_grading_duration_seconds",
				Help:    "Time from submit until every question is resolved",
				Buckets: prometheus.DefBuckets,
			},
		),
		sessionScore: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "assessment_session_percentage",
				Help:    "Percentage score of graded sessions",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
		),
		activeSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "assessment_active_sessions_current",
				Help: "Current number of assessment sessions held in memory",
			},
		),
		sessionOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assessment_session_operations_total",
				Help: "Total number of session operations",
			},
			[]string{"operation", "status"},
		),
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assessment_grade_cache_lookups_total",
				Help: "Total number of grade cache lookups",
			},
			[]string{"result"},
		),
	}
}

func (m *Metrics) ObserveDelegate(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.delegateCalls.WithLabelValues(result).Inc()
	m.delegateDuration.WithLabelValues(result).Observe(d.Seconds())
}

func (m *Metrics) ObserveGradingPass(d time.Duration) {
	if m == nil {
		return
	}
	m.gradingPasses.Inc()
	m.gradingDuration.Observe(d.Seconds())
}

// ObserveScore records a graded session. Sessions without questions have
// no percentage and are skipped.
func (m *Metrics) ObserveScore(percentage *int) {
	if m == nil || percentage == nil {
		return
	}
	m.sessionScore.Observe(float64(*percentage))
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

func (m *Metrics) SessionOperation(operation string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.sessionOps.WithLabelValues(operation, status).Inc()
}

func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
