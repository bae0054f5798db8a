package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tableorder"

// CronJobMetrics tracks maintenance job runs. A nil value is a no-op.
type CronJobMetrics struct {
	duration    *prometheus.HistogramVec
	runs        *prometheus.CounterVec
	lastSuccess *prometheus.GaugeVec
	now         func() time.Time
}

func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return nil
	}
	m := &CronJobMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cron",
			Name:      "job_duration_seconds",
			Help:      "Cron job run time.",
			Buckets:   []float64{.01, .05, .1, .5, 1, 5, 15, 60},
		}, []string{"job"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cron",
			Name:      "job_runs_total",
			Help:      "Cron job runs by outcome.",
		}, []string{"job", "outcome"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cron",
			Name:      "job_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}, []string{"job"}),
		now: time.Now,
	}
	reg.MustRegister(m.duration, m.runs, m.lastSuccess)
	return m
}

// ObserveRun records one run of job. A non-nil err counts as a failure.
func (c *CronJobMetrics) ObserveRun(job string, elapsed time.Duration, err error) {
	if c == nil {
		return
	}
	job = normalizeLabel(job)
	c.duration.WithLabelValues(job).Observe(elapsed.Seconds())
	if err != nil {
		c.runs.WithLabelValues(job, "failure").Inc()
		return
	}
	c.runs.WithLabelValues(job, "success").Inc()
	c.lastSuccess.WithLabelValues(job).Set(float64(c.now().Unix()))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
