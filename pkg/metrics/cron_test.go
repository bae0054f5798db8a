package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronJobMetricsObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	m.now = func() time.Time { return time.Unix(1_760_000_000, 0) }

	m.ObserveRun("stale_sessions", 250*time.Millisecond, nil)
	m.ObserveRun("stale_sessions", time.Second, errors.New("db down"))
	m.ObserveRun("", time.Millisecond, nil)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	success, err := findMetric(mfs, "tableorder_cron_job_runs_total", map[string]string{"job": "stale_sessions", "outcome": "success"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, success.GetCounter().GetValue())

	failure, err := findMetric(mfs, "tableorder_cron_job_runs_total", map[string]string{"job": "stale_sessions", "outcome": "failure"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, failure.GetCounter().GetValue())

	hist, err := findMetric(mfs, "tableorder_cron_job_duration_seconds", map[string]string{"job": "stale_sessions"})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), hist.GetHistogram().GetSampleCount())
	assert.InDelta(t, 1.25, hist.GetHistogram().GetSampleSum(), 1e-9)

	last, err := findMetric(mfs, "tableorder_cron_job_last_success_timestamp_seconds", map[string]string{"job": "stale_sessions"})
	require.NoError(t, err)
	assert.Equal(t, float64(1_760_000_000), last.GetGauge().GetValue())

	_, err = findMetric(mfs, "tableorder_cron_job_runs_total", map[string]string{"job": "unknown", "outcome": "success"})
	assert.NoError(t, err)
}

func TestNilCronMetricsAreNoops(t *testing.T) {
	var m *CronJobMetrics
	assert.NotPanics(t, func() { m.ObserveRun("x", time.Second, nil) })
	assert.Nil(t, NewCronJobMetrics(nil))
}
