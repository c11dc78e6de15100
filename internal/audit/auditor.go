package audit

import (
	"context"

	"github.com/Domenick1991/flightreserve/internal/domain"
	"github.com/Domenick1991/flightreserve/internal/metrics"
	"go.uber.org/zap"
)

type ViolationFinder interface {
	InventoryViolations(ctx context.Context) ([]domain.InventoryViolation, error)
}

// Auditor cross-checks seat statuses against reservations.
type Auditor struct {
	finder ViolationFinder
	log    *zap.Logger
}

func NewAuditor(finder ViolationFinder, log *zap.Logger) *Auditor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Auditor{finder: finder, log: log}
}

// Run reports every seat that is reserved without a reservation, or
// available while a reservation points at it.
func (a *Auditor) Run(ctx context.Context) ([]domain.InventoryViolation, error) {
	violations, err := a.finder.InventoryViolations(ctx)
	if err != nil {
		a.log.Error("inventory audit", zap.Error(err))
		return nil, err
	}

	metrics.SetInventoryViolations(len(violations))
	for _, v := range violations {
		a.log.Warn("inventory violation",
			zap.Int64("flight_id", v.FlightID),
			zap.String("seat", v.SeatLabel),
			zap.String("status", string(v.Status)),
			zap.Int64("reservation_id", v.ReservationID),
		)
	}
	if len(violations) == 0 {
		a.log.Debug("inventory consistent")
	}
	return violations, nil
}
