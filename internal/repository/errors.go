package repository

import (
	"errors"

	"github.com/Domenick1991/flightreserve/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"

	usersUsernameKey          = "users_username_key"
	reservationsFlightSeatKey = "reservations_flight_seat_key"
	reservationsUserFlightKey = "reservations_user_flight_key"
)

// constraintError maps integrity violations onto domain errors.
// It returns nil when err is not one of them.
func constraintError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}

	switch pgErr.Code {
	case uniqueViolation:
		switch pgErr.ConstraintName {
		case usersUsernameKey:
			return domain.ErrDuplicateUsername
		case reservationsFlightSeatKey:
			return domain.ErrSeatUnavailable
		case reservationsUserFlightKey:
			return domain.ErrDuplicateReservation
		}
	case foreignKeyViolation:
		return domain.ErrNotFound
	}
	return nil
}
