package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics provides observability for the generation pipeline. Tracks
// generation outcomes, cache behavior, and storage effects.
type Metrics struct {
	Generations        *prometheus.CounterVec
	GenerationDuration prometheus.Histogram
	DedupHits          prometheus.Counter
	PlaceholderPhotos  prometheus.Counter
	CleanupRemovals    *prometheus.CounterVec
}

// New creates a Metrics instance registered on the given registerer. Pass
// prometheus.DefaultRegisterer in main; tests use a fresh registry so
// parallel suites do not collide on metric names.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cardforge_generations_total",
			Help: "License generations by terminal state (cached, generated, failed)",
		}, []string{"outcome"}),
		GenerationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cardforge_generation_duration_seconds",
			Help:    "Duration of full artifact set generation",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		DedupHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cardforge_storage_dedup_hits_total",
			Help: "Stores that resolved to an existing content-addressed file",
		}),
		PlaceholderPhotos: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cardforge_placeholder_photos_total",
			Help: "Generations that substituted a placeholder photo",
		}),
		CleanupRemovals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cardforge_cleanup_removals_total",
			Help: "Files removed by retention cleanup, by category",
		}, []string{"category"}),
	}
	reg.MustRegister(
		m.Generations, m.GenerationDuration, m.DedupHits,
		m.PlaceholderPhotos, m.CleanupRemovals,
	)
	return m
}

// ObserveGeneration records one generation outcome and its duration.
func (m *Metrics) ObserveGeneration(outcome string, start time.Time) {
	m.Generations.WithLabelValues(outcome).Inc()
	m.GenerationDuration.Observe(time.Since(start).Seconds())
}
