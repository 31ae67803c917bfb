package tvws

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Datum lookup outcomes.
const (
	datumShifted       = "shifted"
	datumNotApplicable = "not_applicable"
	datumError         = "error"
)

// Metrics holds the engine's prometheus collectors. A nil *Metrics records
// nothing.
type Metrics struct {
	DatumLookups     *prometheus.CounterVec
	ProjectionErrors *prometheus.CounterVec
	CandidateCells   prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg when it is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DatumLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tvws_datum_lookups_total",
			Help: "Datum shift lookups by outcome",
		}, []string{"outcome"}),
		ProjectionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tvws_projection_errors_total",
			Help: "National grid projection failures by direction",
		}, []string{"direction"}),
		CandidateCells: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tvws_candidate_cells",
			Help:    "Candidate cells returned per request",
			Buckets: prometheus.ExponentialBuckets(1, 4, 12),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.DatumLookups, m.ProjectionErrors, m.CandidateCells)
	}
	return m
}

func (m *Metrics) datumLookup(outcome string) {
	if m == nil {
		return
	}
	m.DatumLookups.WithLabelValues(outcome).Inc()
}

func (m *Metrics) projectionError(direction string) {
	if m == nil {
		return
	}
	m.ProjectionErrors.WithLabelValues(direction).Inc()
}

func (m *Metrics) candidateCells(n int) {
	if m == nil {
		return
	}
	m.CandidateCells.Observe(float64(n))
}
