package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// FeedMetrics records item change feed processing.
type FeedMetrics struct {
	applied  *prometheus.CounterVec
	dropped  prometheus.Counter
	failures prometheus.Counter
}

// NewFeedMetrics registers the feed metrics on the provided registerer.
func NewFeedMetrics(reg prometheus.Registerer) *FeedMetrics {
	if reg == nil {
		return &FeedMetrics{}
	}
	applied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "item_feed_events_applied",
		Help: "Change feed events applied to the collection, by event type.",
	}, []string{"event_type"})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "item_feed_events_dropped",
		Help: "Duplicate or unapplicable feed events dropped by the cache.",
	})
	failures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "item_feed_decode_failures",
		Help: "Feed messages that could not be decoded.",
	})
	reg.MustRegister(applied, dropped, failures)
	return &FeedMetrics{applied: applied, dropped: dropped, failures: failures}
}

// IncApplied increments the applied counter for the event type.
func (f *FeedMetrics) IncApplied(eventType string) {
	if f == nil || f.applied == nil {
		return
	}
	f.applied.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncDropped increments the dropped counter.
func (f *FeedMetrics) IncDropped() {
	if f == nil || f.dropped == nil {
		return
	}
	f.dropped.Inc()
}

// IncDecodeFailure increments the decode failure counter.
func (f *FeedMetrics) IncDecodeFailure() {
	if f == nil || f.failures == nil {
		return
	}
	f.failures.Inc()
}

// MutationMetrics records gateway mutation outcomes.
type MutationMetrics struct {
	failures  *prometheus.CounterVec
	rollbacks prometheus.Counter
}

// NewMutationMetrics registers the mutation metrics on the provided registerer.
func NewMutationMetrics(reg prometheus.Registerer) *MutationMetrics {
	if reg == nil {
		return &MutationMetrics{}
	}
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "item_mutation_failures",
		Help: "Failed remote item mutations, by operation.",
	}, []string{"operation"})
	rollbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "item_cache_rollbacks",
		Help: "Optimistic cache rollbacks after a failed mutation.",
	})
	reg.MustRegister(failures, rollbacks)
	return &MutationMetrics{failures: failures, rollbacks: rollbacks}
}

// IncFailure increments the failure counter for the named operation.
func (m *MutationMetrics) IncFailure(operation string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncRollback increments the rollback counter.
func (m *MutationMetrics) IncRollback() {
	if m == nil || m.rollbacks == nil {
		return
	}
	m.rollbacks.Inc()
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "unknown"
	}
	return strings.ReplaceAll(value, " ", "_")
}
