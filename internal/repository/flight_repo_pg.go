package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/flightreserve/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FlightRepository interface {
	List(ctx context.Context) ([]domain.Flight, error)
	ListUpcoming(ctx context.Context, fromDate string, limit int) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	Create(ctx context.Context, flight *domain.Flight) error
	Count(ctx context.Context) (int, error)
	LockCatalog(ctx context.Context) error
	LockByID(ctx context.Context, id int64) error
	TakeSeat(ctx context.Context, flightID int64, seat string) (bool, error)
	ReturnSeat(ctx context.Context, flightID int64, seat string) (bool, error)
}

type PGFlightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{db: db}
}

const selectFlights = `
	SELECT f.id, f.origin, f.destination, to_char(f.date, 'YYYY-MM-DD'),
		COALESCE(array_agg(s.seat_label ORDER BY s.position) FILTER (WHERE s.status = 'AVAILABLE'), '{}'),
		COUNT(s.seat_label), f.created_at, f.updated_at
	FROM flights f
	LEFT JOIN seat_inventory s ON s.flight_id = f.id`

func (r *PGFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	rows, err := conn(ctx, r.db).Query(ctx, selectFlights+` GROUP BY f.id ORDER BY f.date, f.id`)
	if err != nil {
		return nil, fmt.Errorf("list flights: %w", err)
	}
	return scanFlights(rows)
}

func (r *PGFlightRepository) ListUpcoming(ctx context.Context, fromDate string, limit int) ([]domain.Flight, error) {
	rows, err := conn(ctx, r.db).Query(ctx, selectFlights+` WHERE f.date >= $1::date GROUP BY f.id ORDER BY f.date, f.id LIMIT $2`, fromDate, limit)
	if err != nil {
		return nil, fmt.Errorf("list upcoming flights: %w", err)
	}
	return scanFlights(rows)
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	row := conn(ctx, r.db).QueryRow(ctx, selectFlights+` WHERE f.id = $1 GROUP BY f.id`, id)
	f, err := scanFlight(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get flight %d: %w", id, err)
	}
	return f, nil
}

func (r *PGFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	q := conn(ctx, r.db)
	if err := q.QueryRow(ctx, `INSERT INTO flights (origin, destination, date) VALUES ($1, $2, $3::date)
		RETURNING id, created_at, updated_at`, flight.Origin, flight.Destination, flight.Date).
		Scan(&flight.ID, &flight.CreatedAt, &flight.UpdatedAt); err != nil {
		return fmt.Errorf("insert flight: %w", err)
	}

	if len(flight.AvailableSeats) > 0 {
		if _, err := q.Exec(ctx, `INSERT INTO seat_inventory (flight_id, seat_label, position)
			SELECT $1, t.label, t.ord FROM unnest($2::text[]) WITH ORDINALITY AS t(label, ord)`,
			flight.ID, flight.AvailableSeats); err != nil {
			return fmt.Errorf("insert seats for flight %d: %w", flight.ID, err)
		}
	}
	flight.TotalSeats = len(flight.AvailableSeats)
	return nil
}

func (r *PGFlightRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := conn(ctx, r.db).QueryRow(ctx, `SELECT COUNT(*) FROM flights`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count flights: %w", err)
	}
	return n, nil
}

// LockCatalog serializes catalog writers for the rest of the transaction.
func (r *PGFlightRepository) LockCatalog(ctx context.Context) error {
	if _, err := conn(ctx, r.db).Exec(ctx, `LOCK TABLE flights IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("lock flights: %w", err)
	}
	return nil
}

// LockByID takes a row lock on the flight; every seat change on the flight goes through it.
func (r *PGFlightRepository) LockByID(ctx context.Context, id int64) error {
	var locked int64
	err := conn(ctx, r.db).QueryRow(ctx, `SELECT id FROM flights WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("lock flight %d: %w", id, err)
	}
	return nil
}

// TakeSeat flips an available seat to reserved. It reports false when the
// seat does not exist or is already reserved.
func (r *PGFlightRepository) TakeSeat(ctx context.Context, flightID int64, seat string) (bool, error) {
	return r.setSeatStatus(ctx, flightID, seat, domain.SeatStatusAvailable, domain.SeatStatusReserved)
}

// ReturnSeat flips a reserved seat back to available. It reports false when
// the seat was not reserved.
func (r *PGFlightRepository) ReturnSeat(ctx context.Context, flightID int64, seat string) (bool, error) {
	return r.setSeatStatus(ctx, flightID, seat, domain.SeatStatusReserved, domain.SeatStatusAvailable)
}

func (r *PGFlightRepository) setSeatStatus(ctx context.Context, flightID int64, seat string, from, to domain.SeatStatus) (bool, error) {
	res, err := conn(ctx, r.db).Exec(ctx, `UPDATE seat_inventory SET status = $4, updated_at = now()
		WHERE flight_id = $1 AND seat_label = $2 AND status = $3`, flightID, seat, string(from), string(to))
	if err != nil {
		return false, fmt.Errorf("update seat %s on flight %d: %w", seat, flightID, err)
	}
	return res.RowsAffected() == 1, nil
}

func scanFlights(rows pgx.Rows) ([]domain.Flight, error) {
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, fmt.Errorf("scan flight: %w", err)
		}
		flights = append(flights, *f)
	}
	return flights, rows.Err()
}

func scanFlight(row pgx.Row) (*domain.Flight, error) {
	var f domain.Flight
	if err := row.Scan(&f.ID, &f.Origin, &f.Destination, &f.Date, &f.AvailableSeats, &f.TotalSeats, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

var _ FlightRepository = (*PGFlightRepository)(nil)
