package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/flightreserve/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReservationRepository interface {
	Create(ctx context.Context, reservation *domain.Reservation) error
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	LockByID(ctx context.Context, id int64) (*domain.Reservation, error)
	FindByUserAndFlight(ctx context.Context, userID, flightID int64) (*domain.Reservation, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Reservation, error)
	Delete(ctx context.Context, id int64) error
	InventoryViolations(ctx context.Context) ([]domain.InventoryViolation, error)
}

type PGReservationRepository struct {
	db *pgxpool.Pool
}

func NewReservationRepository(db *pgxpool.Pool) ReservationRepository {
	return &PGReservationRepository{db: db}
}

const selectReservation = `SELECT id, user_id, flight_id, seat_label, created_at FROM reservations`

func (r *PGReservationRepository) Create(ctx context.Context, reservation *domain.Reservation) error {
	err := conn(ctx, r.db).QueryRow(ctx, `INSERT INTO reservations (user_id, flight_id, seat_label)
		VALUES ($1, $2, $3) RETURNING id, created_at`, reservation.UserID, reservation.FlightID, reservation.SeatLabel).
		Scan(&reservation.ID, &reservation.CreatedAt)
	if err != nil {
		if derr := constraintError(err); derr != nil {
			return derr
		}
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

func (r *PGReservationRepository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	return scanReservation(conn(ctx, r.db).QueryRow(ctx, selectReservation+` WHERE id = $1`, id))
}

func (r *PGReservationRepository) LockByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	return scanReservation(conn(ctx, r.db).QueryRow(ctx, selectReservation+` WHERE id = $1 FOR UPDATE`, id))
}

func (r *PGReservationRepository) FindByUserAndFlight(ctx context.Context, userID, flightID int64) (*domain.Reservation, error) {
	return scanReservation(conn(ctx, r.db).QueryRow(ctx, selectReservation+` WHERE user_id = $1 AND flight_id = $2`, userID, flightID))
}

func (r *PGReservationRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `
		SELECT r.id, r.user_id, r.flight_id, r.seat_label, r.created_at,
			f.origin, f.destination, to_char(f.date, 'YYYY-MM-DD')
		FROM reservations r
		JOIN flights f ON f.id = r.flight_id
		WHERE r.user_id = $1
		ORDER BY r.created_at DESC, r.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list reservations of user %d: %w", userID, err)
	}
	defer rows.Close()

	reservations := make([]domain.Reservation, 0)
	for rows.Next() {
		var res domain.Reservation
		f := &domain.Flight{}
		if err := rows.Scan(&res.ID, &res.UserID, &res.FlightID, &res.SeatLabel, &res.CreatedAt, &f.Origin, &f.Destination, &f.Date); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		f.ID = res.FlightID
		res.Flight = f
		reservations = append(reservations, res)
	}
	return reservations, rows.Err()
}

func (r *PGReservationRepository) Delete(ctx context.Context, id int64) error {
	res, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete reservation %d: %w", id, err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// InventoryViolations lists seats whose status disagrees with the ledger:
// reserved without a reservation, or available while a reservation holds them.
func (r *PGReservationRepository) InventoryViolations(ctx context.Context) ([]domain.InventoryViolation, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `
		SELECT s.flight_id, s.seat_label, s.status, COALESCE(r.id, 0)
		FROM seat_inventory s
		LEFT JOIN reservations r ON r.flight_id = s.flight_id AND r.seat_label = s.seat_label
		WHERE (s.status = 'RESERVED' AND r.id IS NULL)
			OR (s.status = 'AVAILABLE' AND r.id IS NOT NULL)
		ORDER BY s.flight_id, s.position`)
	if err != nil {
		return nil, fmt.Errorf("query inventory violations: %w", err)
	}
	defer rows.Close()

	var violations []domain.InventoryViolation
	for rows.Next() {
		var v domain.InventoryViolation
		if err := rows.Scan(&v.FlightID, &v.SeatLabel, &v.Status, &v.ReservationID); err != nil {
			return nil, fmt.Errorf("scan inventory violation: %w", err)
		}
		violations = append(violations, v)
	}
	return violations, rows.Err()
}

func scanReservation(row pgx.Row) (*domain.Reservation, error) {
	var res domain.Reservation
	if err := row.Scan(&res.ID, &res.UserID, &res.FlightID, &res.SeatLabel, &res.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan reservation: %w", err)
	}
	return &res, nil
}

var _ ReservationRepository = (*PGReservationRepository)(nil)
