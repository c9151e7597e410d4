package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ConsolidationMetrics records rebuild health. Skipped references surface the
// dangling foreign keys that the rebuilder tolerates silently, so data
// integrity regressions stay observable.
type ConsolidationMetrics struct {
	rebuildDuration   *prometheus.HistogramVec
	skippedReferences *prometheus.CounterVec
	lotsRebuilt       prometheus.Counter
	transitions       *prometheus.CounterVec
}

// NewConsolidationMetrics registers the consolidation metrics on the provided registerer.
func NewConsolidationMetrics(reg prometheus.Registerer) *ConsolidationMetrics {
	if reg == nil {
		return &ConsolidationMetrics{}
	}
	rebuildDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lot_rebuild_duration_seconds",
		Help:    "Duration of lot rebuild passes in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"trigger"})
	skippedReferences := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lot_rebuild_skipped_references_total",
		Help: "Cart item references excluded during rebuilds, by reason.",
	}, []string{"reason"})
	lotsRebuilt := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lots_rebuilt_total",
		Help: "Lots produced by rebuild passes.",
	})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "status_transitions_total",
		Help: "Entity status transitions applied by mutation handlers.",
	}, []string{"entity", "to"})
	reg.MustRegister(rebuildDuration, skippedReferences, lotsRebuilt, transitions)
	return &ConsolidationMetrics{
		rebuildDuration:   rebuildDuration,
		skippedReferences: skippedReferences,
		lotsRebuilt:       lotsRebuilt,
		transitions:       transitions,
	}
}

// ObserveRebuildDuration records the duration of one rebuild pass.
func (c *ConsolidationMetrics) ObserveRebuildDuration(trigger string, duration time.Duration) {
	if c == nil || c.rebuildDuration == nil {
		return
	}
	c.rebuildDuration.WithLabelValues(normalizeLabel(trigger)).Observe(duration.Seconds())
}

// AddSkippedReferences counts references excluded for the given reason.
func (c *ConsolidationMetrics) AddSkippedReferences(reason string, count int) {
	if c == nil || c.skippedReferences == nil || count <= 0 {
		return
	}
	c.skippedReferences.WithLabelValues(normalizeLabel(reason)).Add(float64(count))
}

// AddLotsRebuilt counts lots produced by a rebuild pass.
func (c *ConsolidationMetrics) AddLotsRebuilt(count int) {
	if c == nil || c.lotsRebuilt == nil || count <= 0 {
		return
	}
	c.lotsRebuilt.Add(float64(count))
}

// IncTransition counts a status transition applied to an entity.
func (c *ConsolidationMetrics) IncTransition(entity, to string) {
	if c == nil || c.transitions == nil {
		return
	}
	c.transitions.WithLabelValues(normalizeLabel(entity), normalizeLabel(to)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
