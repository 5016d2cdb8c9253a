package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// Metrics provides observability for the plan orchestrator.
// Tracks row writes, link changes and the duration of top-level cascades.
type Metrics struct {
	Writes          *prometheus.CounterVec
	Links           *prometheus.CounterVec
	CascadeDuration *prometheus.HistogramVec
}

// New creates a Metrics instance registered on reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Writes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arho_plan_writes_total",
			Help: "Row writes by table, operation and outcome",
		}, []string{"kind", "op", "outcome"}),
		Links: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arho_plan_link_changes_total",
			Help: "Association rows created or removed by table and operation",
		}, []string{"kind", "op"}),
		CascadeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "arho_plan_cascade_duration_seconds",
			Help:    "Duration of top-level save and delete calls",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"kind", "op"}),
	}
}

// IncrementWrite records one row write.
func (m *Metrics) IncrementWrite(kind, op, outcome string) {
	m.Writes.WithLabelValues(kind, op, outcome).Inc()
}

// IncrementLink records one association row change.
func (m *Metrics) IncrementLink(kind, op string) {
	m.Links.WithLabelValues(kind, op).Inc()
}

// ObserveCascade records the duration of a cascade.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveCascade(kind, op string, start time.Time) {
	m.CascadeDuration.WithLabelValues(kind, op).Observe(time.Since(start).Seconds())
}
