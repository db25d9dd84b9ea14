// Package metrics exposes the engine's operation counters and histograms
// via prometheus/client_golang. The engine never starts an HTTP listener
// itself; a host process that wants to scrape these mounts the Gatherer
// returned by Registry() on its own external server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every counter/histogram the engine updates. One instance
// is created per façade so two engines in a process don't collide on
// metric names when each owns its own registry.
type Metrics struct {
	registry *prometheus.Registry

	MemoriesAdded      prometheus.Counter
	RecallTotal        prometheus.Counter
	RecallCandidates   prometheus.Histogram
	RecallDuration     prometheus.Histogram
	ConsolidationRuns  prometheus.Counter
	ConsolidationDuration prometheus.Histogram
	Promotions         *prometheus.CounterVec // labeled by target layer
	ForgottenTotal     prometheus.Counter
	ArchivedTotal      prometheus.Counter
	HebbianLinksFormed prometheus.Counter
	RewardApplied      prometheus.Counter
}

// New creates a fresh registry and registers every metric against it.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		MemoriesAdded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memories_added_total",
			Help:      "Total memories created via add().",
		}),
		RecallTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recall_total",
			Help:      "Total recall() calls.",
		}),
		RecallCandidates: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recall_candidates",
			Help:      "Number of results returned per recall().",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250},
		}),
		RecallDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recall_duration_seconds",
			Help:      "Wall time of recall() end to end.",
			Buckets:   prometheus.DefBuckets,
		}),
		ConsolidationRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consolidation_runs_total",
			Help:      "Total consolidate() cycles executed.",
		}),
		ConsolidationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "consolidation_duration_seconds",
			Help:      "Wall time of a consolidate() cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
		Promotions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layer_transitions_total",
			Help:      "Memories transitioned to a layer during consolidate().",
		}, []string{"layer"}),
		ForgottenTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forgotten_total",
			Help:      "Total memories hard-deleted by forget().",
		}),
		ArchivedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archived_total",
			Help:      "Total memories moved to the archive layer by consolidate().",
		}),
		HebbianLinksFormed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hebbian_links_formed_total",
			Help:      "Total Hebbian links that crossed the formation threshold.",
		}),
		RewardApplied: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reward_applied_total",
			Help:      "Total memories modulated by reward().",
		}),
	}
}

// Registry exposes the underlying prometheus.Gatherer so a host process
// can mount its own /metrics endpoint.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
