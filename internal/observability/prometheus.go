package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"lineagecore/pkg/lineage"
)

// PrometheusMetrics exports division, fate and duration observations as
// Prometheus collectors.
type PrometheusMetrics struct {
	divisions *prometheus.CounterVec
	fates     *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// NewPrometheusMetrics registers the collectors on reg. A nil reg uses a
// fresh private registry.
func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &PrometheusMetrics{
		divisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lineagecore",
			Name:      "divisions_total",
			Help:      "Divisions decided, by variant, phase and mitotic mode.",
		}, []string{"variant", "phase", "mode"}),
		fates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lineagecore",
			Name:      "fates_total",
			Help:      "Terminal fates assigned, by variant and fate.",
		}, []string{"variant", "fate"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lineagecore",
			Name:      "cycle_duration",
			Help:      "Sampled finite cycle durations.",
			Buckets:   []float64{1, 2, 4, 6, 8, 12, 16, 24, 36, 48, 72, 96},
		}, []string{"variant"}),
	}
	for _, c := range []prometheus.Collector{m.divisions, m.fates, m.durations} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveDivision implements lineage.Metrics.
func (m *PrometheusMetrics) ObserveDivision(kind lineage.Kind, phase int, mode lineage.MitoticMode) {
	m.divisions.WithLabelValues(string(kind), strconv.Itoa(phase), mode.String()).Inc()
}

// ObserveFate implements lineage.Metrics.
func (m *PrometheusMetrics) ObserveFate(kind lineage.Kind, fate lineage.Fate) {
	m.fates.WithLabelValues(string(kind), string(fate)).Inc()
}

// ObserveCycleDuration implements lineage.Metrics. Infinite durations are ignored.
func (m *PrometheusMetrics) ObserveCycleDuration(kind lineage.Kind, d float64) {
	if d == lineage.Infinite {
		return
	}
	m.durations.WithLabelValues(string(kind)).Observe(d)
}

// Divisions exposes the division counter for inspection.
func (m *PrometheusMetrics) Divisions() *prometheus.CounterVec { return m.divisions }

// Fates exposes the fate counter for inspection.
func (m *PrometheusMetrics) Fates() *prometheus.CounterVec { return m.fates }

// Fanout forwards every observation to each recorder in order.
type Fanout []lineage.Metrics

func (f Fanout) ObserveDivision(kind lineage.Kind, phase int, mode lineage.MitoticMode) {
	for _, m := range f {
		m.ObserveDivision(kind, phase, mode)
	}
}

func (f Fanout) ObserveFate(kind lineage.Kind, fate lineage.Fate) {
	for _, m := range f {
		m.ObserveFate(kind, fate)
	}
}

func (f Fanout) ObserveCycleDuration(kind lineage.Kind, d float64) {
	for _, m := range f {
		m.ObserveCycleDuration(kind, d)
	}
}
