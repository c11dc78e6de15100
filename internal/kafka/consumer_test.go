package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDecodeHandler(t *testing.T) {
	event := ReservationEvent{
		Type:          EventReservationCreated,
		ReservationID: 7,
		UserID:        1,
		FlightID:      2,
		SeatLabel:     "1A",
		OccurredAt:    time.Date(2024, 12, 1, 10, 0, 0, 0, time.UTC),
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	var got ReservationEvent
	h := DecodeHandler(zap.NewNop(), func(_ context.Context, e ReservationEvent) error {
		got = e
		return nil
	})

	require.NoError(t, h(context.Background(), kafka.Message{Value: payload}))
	assert.Equal(t, event, got)
}

func TestDecodeHandler_SkipsMalformed(t *testing.T) {
	called := false
	h := DecodeHandler(zap.NewNop(), func(context.Context, ReservationEvent) error {
		called = true
		return nil
	})

	assert.NoError(t, h(context.Background(), kafka.Message{Value: []byte("{not json")}))
	assert.False(t, called)
}

func TestDecodeHandler_PropagatesHandlerError(t *testing.T) {
	h := DecodeHandler(zap.NewNop(), func(context.Context, ReservationEvent) error {
		return errors.New("downstream")
	})
	assert.EqualError(t, h(context.Background(), kafka.Message{Value: []byte(`{"type":"reservation_cancelled"}`)}), "downstream")
}

func TestConsumer_CloseNil(t *testing.T) {
	var c *Consumer
	assert.NoError(t, c.Close())
}
