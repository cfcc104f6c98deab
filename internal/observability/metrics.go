package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "civic_report"

// Metrics holds the Prometheus counters, histograms, and gauges for the report service.
type Metrics struct {
	DraftsActive    prometheus.Gauge
	DraftsExpired   prometheus.Counter
	StepTransitions *prometheus.CounterVec // labels: direction={advance,retreat}, outcome={ok,rejected}

	// Postal code lookup metrics.
	PostalLookups     *prometheus.CounterVec // labels: outcome={found,not_found,error}
	PostalCache       *prometheus.CounterVec // labels: result={hit,miss}
	PostalAPIDuration prometheus.Histogram

	// Submission metrics.
	Submissions   *prometheus.CounterVec // labels: outcome={success,error}
	PublishErrors prometheus.Counter
	MediaStaged   prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.DraftsActive,
		m.DraftsExpired,
		m.StepTransitions,
		m.PostalLookups,
		m.PostalCache,
		m.PostalAPIDuration,
		m.Submissions,
		m.PublishErrors,
		m.MediaStaged,
	)
	return m
}

// NewMetricsForTesting creates Metrics with fresh, unregistered collectors to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		DraftsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "drafts_active",
			Help:      "Report drafts currently held in memory.",
		}),
		DraftsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drafts_expired_total",
			Help:      "Drafts discarded after sitting idle past the draft TTL.",
		}),
		StepTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_transitions_total",
			Help:      "Wizard step transitions by direction and outcome.",
		}, []string{"direction", "outcome"}),
		PostalLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "postal_lookups_total",
			Help:      "Postal code lookups by outcome.",
		}, []string{"outcome"}),
		PostalCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "postal_cache_total",
			Help:      "Postal code cache lookups by result.",
		}, []string{"result"}),
		PostalAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "postal_api_duration_seconds",
			Help:      "ViaCEP API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Report submissions by outcome.",
		}, []string{"outcome"}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Submitted reports that could not be published to Kafka.",
		}),
		MediaStaged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_staged_total",
			Help:      "Files staged for attachment to a draft.",
		}),
	}
}
