package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveDelegate("success", 20*time.Millisecond)
	m.ObserveDelegate("fallback", time.Second)
	m.ObserveDelegate("fallback", time.Second)
	m.SessionOperation("submit", nil)
	m.SessionOperation("submit", errors.New("boom"))
	m.SetActiveSessions(3)
	m.CacheLookup("hit")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.delegateCalls.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.delegateCalls.WithLabelValues("fallback")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionOps.WithLabelValues("submit", "error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.activeSessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveDelegate("success", time.Second)
		m.ObserveGradingPass(time.Second)
		m.ObserveScore(nil)
		m.SetActiveSessions(1)
		m.SessionOperation("reset", nil)
		m.CacheLookup("miss")
	})
}
