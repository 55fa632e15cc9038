package metrics

import "github.com/prometheus/client_golang/prometheus"

// Create outcomes.
const (
	OutcomeCreated   = "created"
	OutcomeInvalid   = "invalid"
	OutcomeDuplicate = "duplicate"
	OutcomeError     = "error"
)

// LeadMetrics exposes counters/histograms for lead intake.
type LeadMetrics struct {
	createTotal   *prometheus.CounterVec
	createLatency *prometheus.HistogramVec
	listCache     *prometheus.CounterVec
}

func NewLeadMetrics(reg prometheus.Registerer) *LeadMetrics {
	m := &LeadMetrics{
		createTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "buyerleads",
			Subsystem: "leads",
			Name:      "create_total",
			Help:      "Lead submissions by outcome",
		}, []string{"outcome"}),
		createLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "buyerleads",
			Subsystem: "leads",
			Name:      "create_duration_seconds",
			Help:      "Latency of lead submissions",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		listCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "buyerleads",
			Subsystem: "leads",
			Name:      "list_cache_total",
			Help:      "Recent-leads list cache lookups",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.createTotal, m.createLatency, m.listCache)
	return m
}

// ObserveCreate records one submission and how long it took.
func (m *LeadMetrics) ObserveCreate(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.createTotal.WithLabelValues(outcome).Inc()
	m.createLatency.WithLabelValues(outcome).Observe(seconds)
}

// ObserveListCache records a cache lookup: hit, miss or error.
func (m *LeadMetrics) ObserveListCache(result string) {
	if m == nil {
		return
	}
	m.listCache.WithLabelValues(result).Inc()
}
