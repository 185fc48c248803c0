package calc

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts evaluations and live nodes per family. A nil *Metrics
// records nothing.
type Metrics struct {
	evaluations *prometheus.CounterVec
	nodes       *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "calcgraph",
			Name:      "evaluations_total",
			Help:      "Top-level node evaluations by family and result.",
		}, []string{"family", "result"}),
		nodes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "calcgraph",
			Name:      "nodes",
			Help:      "Live nodes by family, named and anonymous.",
		}, []string{"family"}),
	}
	reg.MustRegister(m.evaluations, m.nodes)
	return m
}

func (m *Metrics) evaluated(fam Family, ok bool) {
	if m == nil {
		return
	}
	result := "miss"
	if ok {
		result = "hit"
	}
	m.evaluations.WithLabelValues(fam.String(), result).Inc()
}

func (m *Metrics) nodeAdded(fam Family) {
	if m == nil {
		return
	}
	m.nodes.WithLabelValues(fam.String()).Inc()
}

func (m *Metrics) nodeRemoved(fam Family) {
	if m == nil {
		return
	}
	m.nodes.WithLabelValues(fam.String()).Dec()
}
