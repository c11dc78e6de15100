package notify

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/flightreserve/internal/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNotifier_Send(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewNotifier(zap.New(core))

	err := n.Send(context.Background(), kafka.ReservationEvent{
		Type:          kafka.EventReservationCancelled,
		ReservationID: 7,
		UserID:        1,
		FlightID:      2,
		SeatLabel:     "1A",
		OccurredAt:    time.Now(),
	})

	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "notify passenger", entry.Message)
	assert.Equal(t, kafka.EventReservationCancelled, entry.ContextMap()["type"])
	assert.Equal(t, "1A", entry.ContextMap()["seat"])
}

func TestNewNotifier_NilLogger(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.Send(context.Background(), kafka.ReservationEvent{}))
}
