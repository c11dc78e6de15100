package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/flightreserve/internal/domain"
	"github.com/Domenick1991/flightreserve/internal/kafka"
	"github.com/Domenick1991/flightreserve/internal/metrics"
	"github.com/Domenick1991/flightreserve/internal/repository"
	"go.uber.org/zap"
)

type BookingUseCase interface {
	Reserve(ctx context.Context, input ReserveInput) (*domain.Reservation, error)
	Cancel(ctx context.Context, reservationID, requestingUserID int64) error
	ListForUser(ctx context.Context, userID int64) ([]domain.Reservation, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	tx                 repository.Transactor
	users              repository.UserRepository
	flights            repository.FlightRepository
	reservations       repository.ReservationRepository
	producer           Producer
	reservationTopic   string
	notificationsTopic string
	log                *zap.Logger
	now                func() time.Time
}

type ReserveInput struct {
	UserID    int64  `json:"user_id"`
	FlightID  int64  `json:"flight_id"`
	SeatLabel string `json:"seat_number"`
}

type BookingServiceOption func(*BookingService)

func WithProducer(producer Producer, reservationTopic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.reservationTopic = reservationTopic
	}
}

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithLogger(log *zap.Logger) BookingServiceOption {
	return func(s *BookingService) {
		if log != nil {
			s.log = log
		}
	}
}

func NewBookingService(
	tx repository.Transactor,
	users repository.UserRepository,
	flights repository.FlightRepository,
	reservations repository.ReservationRepository,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		tx:           tx,
		users:        users,
		flights:      flights,
		reservations: reservations,
		log:          zap.NewNop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Reserve books one seat for the user. The seat leaves the flight's available
// set and the reservation is written in the same transaction, under the
// flight row lock.
func (s *BookingService) Reserve(ctx context.Context, input ReserveInput) (*domain.Reservation, error) {
	started := s.now()
	input.SeatLabel = strings.TrimSpace(input.SeatLabel)
	if !domain.ValidSeatLabel(input.SeatLabel) {
		return nil, fmt.Errorf("%w: seat number must be 1 to %d characters", domain.ErrValidation, domain.MaxSeatLabelLen)
	}

	var created *domain.Reservation
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.LockForShare(ctx, input.UserID); err != nil {
			return err
		}
		if err := s.flights.LockByID(ctx, input.FlightID); err != nil {
			return err
		}

		_, err := s.reservations.FindByUserAndFlight(ctx, input.UserID, input.FlightID)
		switch {
		case err == nil:
			return domain.ErrDuplicateReservation
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}

		taken, err := s.flights.TakeSeat(ctx, input.FlightID, input.SeatLabel)
		if err != nil {
			return err
		}
		if !taken {
			return domain.ErrSeatUnavailable
		}

		reservation := &domain.Reservation{
			UserID:    input.UserID,
			FlightID:  input.FlightID,
			SeatLabel: input.SeatLabel,
		}
		if err := s.reservations.Create(ctx, reservation); err != nil {
			return err
		}
		created = reservation
		return nil
	})

	metrics.ObserveReserve(outcome(err), s.now().Sub(started))
	if err != nil {
		if outcome(err) == metrics.OutcomeError {
			s.log.Error("reserve seat", zap.Int64("user_id", input.UserID), zap.Int64("flight_id", input.FlightID),
				zap.String("seat", input.SeatLabel), zap.Error(err))
		}
		return nil, err
	}

	s.log.Info("seat reserved", zap.Int64("reservation_id", created.ID), zap.Int64("user_id", created.UserID),
		zap.Int64("flight_id", created.FlightID), zap.String("seat", created.SeatLabel))
	s.publish(ctx, kafka.EventReservationCreated, created)
	return created, nil
}

// Cancel deletes the reservation and puts its seat back on the flight.
// Only the owner may cancel.
func (s *BookingService) Cancel(ctx context.Context, reservationID, requestingUserID int64) error {
	current, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		metrics.ObserveCancel(outcome(err))
		return err
	}
	if current.UserID != requestingUserID {
		metrics.ObserveCancel(metrics.OutcomeForbidden)
		return domain.ErrForbidden
	}

	var cancelled *domain.Reservation
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.LockForShare(ctx, current.UserID); err != nil {
			return err
		}
		if err := s.flights.LockByID(ctx, current.FlightID); err != nil {
			return err
		}
		locked, err := s.reservations.LockByID(ctx, reservationID)
		if err != nil {
			return err
		}
		if err := s.release(ctx, locked); err != nil {
			return err
		}
		cancelled = locked
		return nil
	})

	metrics.ObserveCancel(outcome(err))
	if err != nil {
		if outcome(err) == metrics.OutcomeError {
			s.log.Error("cancel reservation", zap.Int64("reservation_id", reservationID), zap.Error(err))
		}
		return err
	}

	s.log.Info("reservation cancelled", zap.Int64("reservation_id", cancelled.ID),
		zap.Int64("flight_id", cancelled.FlightID), zap.String("seat", cancelled.SeatLabel))
	s.publish(ctx, kafka.EventReservationCancelled, cancelled)
	return nil
}

func (s *BookingService) ListForUser(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	return s.reservations.ListByUser(ctx, userID)
}

// ReleaseUserReservations frees every seat the user holds and deletes the
// reservations. It must run inside the caller's transaction after the user
// row has been locked for update.
func (s *BookingService) ReleaseUserReservations(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	held, err := s.reservations.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	flightIDs := make([]int64, 0, len(held))
	seen := make(map[int64]struct{}, len(held))
	for _, r := range held {
		if _, ok := seen[r.FlightID]; ok {
			continue
		}
		seen[r.FlightID] = struct{}{}
		flightIDs = append(flightIDs, r.FlightID)
	}
	// Ascending lock order across flights.
	sort.Slice(flightIDs, func(i, j int) bool { return flightIDs[i] < flightIDs[j] })
	for _, id := range flightIDs {
		if err := s.flights.LockByID(ctx, id); err != nil {
			return nil, err
		}
	}

	released := make([]domain.Reservation, 0, len(held))
	for i := range held {
		if err := s.release(ctx, &held[i]); err != nil {
			return nil, err
		}
		released = append(released, held[i])
	}
	return released, nil
}

// AnnounceReleased publishes events for reservations removed by an account deletion.
func (s *BookingService) AnnounceReleased(ctx context.Context, released []domain.Reservation) {
	for i := range released {
		s.publish(ctx, kafka.EventReservationReleased, &released[i])
	}
}

func (s *BookingService) release(ctx context.Context, r *domain.Reservation) error {
	if err := s.reservations.Delete(ctx, r.ID); err != nil {
		return err
	}
	returned, err := s.flights.ReturnSeat(ctx, r.FlightID, r.SeatLabel)
	if err != nil {
		return err
	}
	if !returned {
		s.log.Warn("seat already available on release", zap.Int64("reservation_id", r.ID),
			zap.Int64("flight_id", r.FlightID), zap.String("seat", r.SeatLabel))
	}
	return nil
}

func (s *BookingService) publish(ctx context.Context, eventType string, r *domain.Reservation) {
	if s.producer == nil || s.reservationTopic == "" {
		return
	}
	event := kafka.ReservationEvent{
		Type:          eventType,
		ReservationID: r.ID,
		UserID:        r.UserID,
		FlightID:      r.FlightID,
		SeatLabel:     r.SeatLabel,
		OccurredAt:    s.now().UTC(),
	}
	key := eventKey(r.ID)
	if err := s.producer.Publish(ctx, s.reservationTopic, key, event); err != nil {
		s.log.Warn("publish event", zap.String("type", eventType), zap.Int64("reservation_id", r.ID), zap.Error(err))
		return
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, key, event); err != nil {
			s.log.Warn("publish notification", zap.String("type", eventType), zap.Int64("reservation_id", r.ID), zap.Error(err))
		}
	}
}

func eventKey(reservationID int64) string {
	return strconv.FormatInt(reservationID, 10)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, domain.ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, domain.ErrDuplicateReservation):
		return metrics.OutcomeDuplicateReservation
	case errors.Is(err, domain.ErrSeatUnavailable):
		return metrics.OutcomeSeatUnavailable
	case errors.Is(err, domain.ErrForbidden):
		return metrics.OutcomeForbidden
	default:
		return metrics.OutcomeError
	}
}

var _ BookingUseCase = (*BookingService)(nil)
