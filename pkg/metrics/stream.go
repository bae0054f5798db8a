package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StreamMetrics tracks live dashboard connections fed by the broadcast hub.
type StreamMetrics struct {
	subscribers prometheus.Gauge
	events      *prometheus.CounterVec
	evictions   prometheus.Counter
}

// NewStreamMetrics registers the stream metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewStreamMetrics(reg prometheus.Registerer) *StreamMetrics {
	if reg == nil {
		return &StreamMetrics{}
	}
	subscribers := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "stream",
		Name:      "subscribers",
		Help:      "Currently registered live order subscribers.",
	})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "stream",
		Name:      "events_total",
		Help:      "Events broadcast to at least one subscriber.",
	}, []string{"event_type"})
	evictions := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "stream",
		Name:      "evictions_total",
		Help:      "Subscribers dropped because their queue was full.",
	})
	reg.MustRegister(subscribers, events, evictions)
	return &StreamMetrics{
		subscribers: subscribers,
		events:      events,
		evictions:   evictions,
	}
}

func (s *StreamMetrics) SubscriberAdded() {
	if s == nil || s.subscribers == nil {
		return
	}
	s.subscribers.Inc()
}

func (s *StreamMetrics) SubscriberRemoved() {
	if s == nil || s.subscribers == nil {
		return
	}
	s.subscribers.Dec()
}

func (s *StreamMetrics) EventBroadcast(eventType string) {
	if s == nil || s.events == nil {
		return
	}
	s.events.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (s *StreamMetrics) SubscriberEvicted() {
	if s == nil || s.evictions == nil {
		return
	}
	s.evictions.Inc()
}
