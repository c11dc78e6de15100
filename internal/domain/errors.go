package domain

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrDuplicateUsername    = errors.New("username already taken")
	ErrDuplicateReservation = errors.New("user already holds a seat on this flight")
	ErrSeatUnavailable      = errors.New("seat is not available")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrValidation           = errors.New("invalid input")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrTooManyAttempts      = errors.New("too many login attempts")
)
