package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "refgraph"

// Metrics holds the engine's prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	// ReferencesRegistered counts successful registrations.
	// Labels: kind
	ReferencesRegistered *prometheus.CounterVec

	// RegistrationErrors counts rejected registrations.
	// Labels: reason (normalization, invalid_count)
	RegistrationErrors *prometheus.CounterVec

	// QueryDuration measures read queries.
	// Labels: query
	QueryDuration *prometheus.HistogramVec

	GraphNodes prometheus.Gauge
	GraphEdges prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ReferencesRegistered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "references_registered_total",
			Help:      "Total reference registrations by kind",
		}, []string{"kind"}),
		RegistrationErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "registration_errors_total",
			Help:      "Total rejected reference registrations by reason",
		}, []string{"reason"}),
		QueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "query_duration_seconds",
			Help:      "Graph query latency in seconds",
			Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		}, []string{"query"}),
		GraphNodes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "graph_nodes",
			Help:      "Number of nodes in the reference graph",
		}),
		GraphEdges: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "graph_edges",
			Help:      "Number of distinct parent/child edges in the reference graph",
		}),
	}
}

const (
	reasonNormalization = "normalization"
	reasonInvalidCount  = "invalid_count"
)

func (m *Metrics) recordRegistration(kind string, nodes, edges int) {
	if m == nil {
		return
	}
	m.ReferencesRegistered.WithLabelValues(kind).Inc()
	m.setSize(nodes, edges)
}

func (m *Metrics) recordError(reason string) {
	if m == nil {
		return
	}
	m.RegistrationErrors.WithLabelValues(reason).Inc()
}

func (m *Metrics) setSize(nodes, edges int) {
	if m == nil {
		return
	}
	m.GraphNodes.Set(float64(nodes))
	m.GraphEdges.Set(float64(edges))
}

// observe is meant to be deferred: defer e.metrics.observe("name", time.Now())
func (m *Metrics) observe(query string, start time.Time) {
	if m == nil {
		return
	}
	m.QueryDuration.WithLabelValues(query).Observe(time.Since(start).Seconds())
}
