// Package metrics exposes Prometheus counters for ledger activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Consumes     *prometheus.CounterVec
	Grants       *prometheus.CounterVec
	PointsSpent  prometheus.Counter
	PointsIssued prometheus.Counter
}

// New registers ledger metrics on the given registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Consumes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scoutpoint_consumes_total",
			Help: "Gated action consumptions by action kind and outcome.",
		}, []string{"action", "outcome"}),
		Grants: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scoutpoint_grants_total",
			Help: "Point grants and purchases by transaction type.",
		}, []string{"type"}),
		PointsSpent: factory.NewCounter(prometheus.CounterOpts{
			Name: "scoutpoint_points_spent_total",
			Help: "Total points debited by committed consumptions.",
		}),
		PointsIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "scoutpoint_points_issued_total",
			Help: "Total points added by grants and purchases.",
		}),
	}
}
