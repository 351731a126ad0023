// Package metrics holds the Prometheus collectors of the document pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the pipeline collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	extractions    *prometheus.CounterVec
	cache          *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	chatOutcomes   *prometheus.CounterVec
	degradedBlocks prometheus.Counter
	cacheEvictions prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paggo_extractions_total",
			Help: "Extractions run, by artifact kind and result.",
		}, []string{"kind", "result"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paggo_extraction_cache_total",
			Help: "Extraction cache lookups, by result (hit, miss, shared).",
		}, []string{"result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "paggo_extraction_duration_seconds",
			Help:    "Wall time of uncached extractions.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"kind"}),
		chatOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paggo_chat_outcomes_total",
			Help: "Classified language model outcomes.",
		}, []string{"outcome"}),
		degradedBlocks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "paggo_report_degraded_blocks_total",
			Help: "Report text blocks rendered through the ASCII fallback.",
		}),
		cacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "paggo_extraction_cache_evictions_total",
			Help: "Entries evicted from a bounded extraction cache.",
		}),
	}
	reg.MustRegister(m.extractions, m.cache, m.duration, m.chatOutcomes, m.degradedBlocks, m.cacheEvictions)
	return m
}

func (m *Metrics) ObserveExtraction(kind string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.extractions.WithLabelValues(kind, result).Inc()
	m.duration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.cache.WithLabelValues(result).Inc()
}

func (m *Metrics) CacheEviction() {
	if m == nil {
		return
	}
	m.cacheEvictions.Inc()
}

func (m *Metrics) ChatOutcome(outcome string) {
	if m == nil {
		return
	}
	m.chatOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) DegradedBlocks(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.degradedBlocks.Add(float64(n))
}
