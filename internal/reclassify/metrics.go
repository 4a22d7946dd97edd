package reclassify

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	items               *prometheus.CounterVec
	variantFailures     prometheus.Counter
	referencesRewritten prometheus.Counter
	batchDuration       prometheus.Histogram
}

// NewMetrics registers the engine collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		items: f.NewCounterVec(prometheus.CounterOpts{
			Name: "media_reclassify_items_total",
			Help: "Attachments processed, by outcome",
		}, []string{"outcome", "dry_run"}),
		variantFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "media_reclassify_variant_failures_total",
			Help: "Variant files that existed but could not be moved",
		}),
		referencesRewritten: f.NewCounter(prometheus.CounterOpts{
			Name: "media_reclassify_references_rewritten_total",
			Help: "Content rows and meta values whose URLs were rewritten",
		}),
		batchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "media_reclassify_batch_duration_seconds",
			Help:    "Wall time of one ProcessBatch call",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms … ~80s
		}),
	}
}

func (m *Metrics) observe(o Outcome, dryRun bool) {
	if m == nil {
		return
	}
	m.items.WithLabelValues(string(o.Status()), strconv.FormatBool(dryRun)).Inc()
	if s, ok := o.(*Success); ok {
		m.variantFailures.Add(float64(len(s.VariantFailures())))
		m.referencesRewritten.Add(float64(s.ReferencesUpdated))
	}
}

func (m *Metrics) observeBatch(seconds float64) {
	if m == nil {
		return
	}
	m.batchDuration.Observe(seconds)
}
