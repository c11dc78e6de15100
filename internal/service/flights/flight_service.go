package flights

import (
	"context"
	"errors"
	"strings"

	"github.com/Domenick1991/flightreserve/internal/domain"
	"github.com/Domenick1991/flightreserve/internal/repository"
	"go.uber.org/zap"
)

const maxUpcomingLimit = 100

type FlightUseCase interface {
	List(ctx context.Context) ([]domain.Flight, error)
	ListUpcoming(ctx context.Context, fromDate string, limit int) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
}

type FlightService struct {
	tx           repository.Transactor
	repo         repository.FlightRepository
	defaultLimit int
	reset        func(ctx context.Context) error
	log          *zap.Logger
}

type FlightServiceOption func(*FlightService)

func WithLogger(log *zap.Logger) FlightServiceOption {
	return func(s *FlightService) {
		if log != nil {
			s.log = log
		}
	}
}

// WithSchemaReset enables ResetFixture. Test setups only.
func WithSchemaReset(reset func(ctx context.Context) error) FlightServiceOption {
	return func(s *FlightService) {
		s.reset = reset
	}
}

func NewFlightService(tx repository.Transactor, repo repository.FlightRepository, defaultLimit int, opts ...FlightServiceOption) *FlightService {
	if defaultLimit <= 0 || defaultLimit > maxUpcomingLimit {
		defaultLimit = 10
	}
	service := &FlightService{tx: tx, repo: repo, defaultLimit: defaultLimit, log: zap.NewNop()}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	return s.repo.List(ctx)
}

// ListUpcoming returns flights on or after fromDate, earliest first.
func (s *FlightService) ListUpcoming(ctx context.Context, fromDate string, limit int) ([]domain.Flight, error) {
	if _, err := domain.ParseDate(strings.TrimSpace(fromDate)); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > maxUpcomingLimit {
		limit = maxUpcomingLimit
	}
	return s.repo.ListUpcoming(ctx, strings.TrimSpace(fromDate), limit)
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *FlightService) Create(ctx context.Context, flight *domain.Flight) error {
	flight.Origin = strings.TrimSpace(flight.Origin)
	flight.Destination = strings.TrimSpace(flight.Destination)
	if err := flight.Validate(); err != nil {
		return err
	}
	return s.repo.Create(ctx, flight)
}

// Seed fills an empty catalog with the demonstration flights and reports how
// many were inserted. A catalog holding any flight is left untouched.
func (s *FlightService) Seed(ctx context.Context) (int, error) {
	inserted := 0
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.LockCatalog(ctx); err != nil {
			return err
		}
		n, err := s.repo.Count(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		for _, f := range DemoFlights() {
			if err := s.Create(ctx, &f); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if inserted > 0 {
		s.log.Info("catalog seeded", zap.Int("flights", inserted))
	}
	return inserted, nil
}

// ResetFixture wipes every table and seeds the demonstration flights again.
func (s *FlightService) ResetFixture(ctx context.Context) error {
	if s.reset == nil {
		return errors.New("schema reset is not enabled")
	}
	if err := s.reset(ctx); err != nil {
		return err
	}
	_, err := s.Seed(ctx)
	return err
}

func DemoFlights() []domain.Flight {
	return []domain.Flight{
		{Origin: "New York", Destination: "London", Date: "2024-12-15", AvailableSeats: []string{"1A", "1B", "1C", "1D", "2A", "2B"}},
		{Origin: "Paris", Destination: "Tokyo", Date: "2024-12-20", AvailableSeats: []string{"1A", "1B", "1C", "2A", "2B"}},
		{Origin: "Los Angeles", Destination: "Sydney", Date: "2024-12-25", AvailableSeats: []string{"1A", "1B", "2A", "2B", "3A"}},
		{Origin: "Dubai", Destination: "Moscow", Date: "2024-12-30", AvailableSeats: []string{"1A", "1B", "1C", "2A", "2B", "2C"}},
	}
}

var _ FlightUseCase = (*FlightService)(nil)
