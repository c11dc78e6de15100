package notify

import (
	"context"

	"github.com/Domenick1991/flightreserve/internal/kafka"
	"go.uber.org/zap"
)

type Notifier struct {
	log *zap.Logger
}

func NewNotifier(log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{log: log}
}

// Send tells the passenger about a change to their reservation.
func (n *Notifier) Send(ctx context.Context, event kafka.ReservationEvent) error {
	n.log.Info("notify passenger",
		zap.String("type", event.Type),
		zap.Int64("user_id", event.UserID),
		zap.Int64("reservation_id", event.ReservationID),
		zap.Int64("flight_id", event.FlightID),
		zap.String("seat", event.SeatLabel),
		zap.Time("occurred_at", event.OccurredAt),
	)
	return nil
}
