package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for analyses.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeAborted = "aborted"
	OutcomeFailed  = "failed"
)

// Metrics holds the service collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	analyses        *prometheus.CounterVec
	analysisSeconds *prometheus.HistogramVec
	geneSetsScored  prometheus.Counter
	degenerateSets  prometheus.Counter
	inFlight        prometheus.Gauge
	catalogLoads    *prometheus.CounterVec
	catalogSeconds  prometheus.Histogram
	catalogSets     *prometheus.GaugeVec
}

// New registers all collectors plus Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gogsea",
			Name:      "analyses_total",
			Help:      "Analyses handled, by species and outcome.",
		}, []string{"species", "outcome"}),
		analysisSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gogsea",
			Name:      "analysis_duration_seconds",
			Help:      "Wall time of completed analyses.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}, []string{"species"}),
		geneSetsScored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gogsea",
			Name:      "gene_sets_scored_total",
			Help:      "Gene sets that passed the size filter and were scored.",
		}),
		degenerateSets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gogsea",
			Name:      "degenerate_gene_sets_total",
			Help:      "Gene sets whose same-sign null distribution was empty.",
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gogsea",
			Name:      "analyses_in_flight",
			Help:      "Analyses currently holding an admission slot.",
		}),
		catalogLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gogsea",
			Name:      "catalog_loads_total",
			Help:      "Catalog load attempts, by species and result.",
		}, []string{"species", "result"}),
		catalogSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gogsea",
			Name:      "catalog_load_duration_seconds",
			Help:      "Time to open and parse a catalog.",
			Buckets:   prometheus.DefBuckets,
		}),
		catalogSets: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "gogsea",
			Name:      "catalog_gene_sets",
			Help:      "Gene sets in the loaded catalog.",
		}, []string{"species"}),
	}

	reg.MustRegister(
		m.analyses, m.analysisSeconds, m.geneSetsScored, m.degenerateSets, m.inFlight,
		m.catalogLoads, m.catalogSeconds, m.catalogSets,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry; used by tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// AnalysisFinished records one analysis outcome.
func (m *Metrics) AnalysisFinished(species, outcome string, elapsed time.Duration, scored, degenerate int) {
	m.analyses.WithLabelValues(species, outcome).Inc()
	if outcome == OutcomeOK {
		m.analysisSeconds.WithLabelValues(species).Observe(elapsed.Seconds())
		m.geneSetsScored.Add(float64(scored))
		m.degenerateSets.Add(float64(degenerate))
	}
}

// AnalysisStarted and AnalysisDone bracket an admitted analysis.
func (m *Metrics) AnalysisStarted() { m.inFlight.Inc() }

func (m *Metrics) AnalysisDone() { m.inFlight.Dec() }

// CatalogLoaded implements the catalog registry's load observer.
func (m *Metrics) CatalogLoaded(species string, sets int, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.catalogLoads.WithLabelValues(species, result).Inc()
	if err == nil {
		m.catalogSeconds.Observe(elapsed.Seconds())
		m.catalogSets.WithLabelValues(species).Set(float64(sets))
	}
}
