package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess              = "success"
	OutcomeNotFound             = "not_found"
	OutcomeDuplicateReservation = "duplicate_reservation"
	OutcomeSeatUnavailable      = "seat_unavailable"
	OutcomeForbidden            = "forbidden"
	OutcomeError                = "error"
)

var (
	reservations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flightreserve_reservations_total",
			Help: "Reserve attempts by outcome",
		},
		[]string{"outcome"},
	)

	cancellations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flightreserve_cancellations_total",
			Help: "Cancel attempts by outcome",
		},
		[]string{"outcome"},
	)

	reserveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flightreserve_reserve_duration_seconds",
			Help:    "Duration of the reserve transaction",
			Buckets: prometheus.DefBuckets,
		},
	)

	inventoryViolations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flightreserve_inventory_violations",
			Help: "Seats whose inventory status disagrees with the reservation ledger at the last audit",
		},
	)
)

func ObserveReserve(outcome string, took time.Duration) {
	reservations.WithLabelValues(outcome).Inc()
	reserveDuration.Observe(took.Seconds())
}

func ObserveCancel(outcome string) {
	cancellations.WithLabelValues(outcome).Inc()
}

func SetInventoryViolations(n int) {
	inventoryViolations.Set(float64(n))
}
