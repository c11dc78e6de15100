package domain

import "time"

type Reservation struct {
	ID        int64
	UserID    int64
	FlightID  int64
	SeatLabel string
	CreatedAt time.Time

	// Flight is filled when listing a user's reservations.
	Flight *Flight
}

// InventoryViolation describes a seat whose inventory status disagrees with the ledger.
type InventoryViolation struct {
	FlightID      int64
	SeatLabel     string
	Status        SeatStatus
	ReservationID int64
}
