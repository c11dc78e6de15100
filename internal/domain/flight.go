package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// DateLayout is the wire and storage form of a flight date.
const DateLayout = "2006-01-02"

type Flight struct {
	ID             int64     `json:"id"`
	Origin         string    `json:"origin"`
	Destination    string    `json:"destination"`
	Date           string    `json:"date"`
	AvailableSeats []string  `json:"available_seats"`
	TotalSeats     int       `json:"total_seats"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "AVAILABLE"
	SeatStatusReserved  SeatStatus = "RESERVED"
)

// MaxSeatLabelLen matches the seat_label column width.
const MaxSeatLabelLen = 10

// ValidSeatLabel is the one rule for seat labels, shared by the catalog and
// the booking request. Whether the seat exists is left to the booking.
func ValidSeatLabel(label string) bool {
	return label != "" && label == strings.TrimSpace(label) && utf8.RuneCountInString(label) <= MaxSeatLabelLen
}

// Validate checks a flight before it enters the catalog.
func (f *Flight) Validate() error {
	if strings.TrimSpace(f.Origin) == "" || strings.TrimSpace(f.Destination) == "" {
		return fmt.Errorf("%w: origin and destination are required", ErrValidation)
	}
	if _, err := ParseDate(f.Date); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(f.AvailableSeats))
	for _, s := range f.AvailableSeats {
		if !ValidSeatLabel(s) {
			return fmt.Errorf("%w: invalid seat label %q", ErrValidation, s)
		}
		if _, ok := seen[s]; ok {
			return fmt.Errorf("%w: duplicate seat label %q", ErrValidation, s)
		}
		seen[s] = struct{}{}
	}
	return nil
}

// PrettyDate renders the date as "15th of December 2024".
func (f *Flight) PrettyDate() string {
	d, err := ParseDate(f.Date)
	if err != nil {
		return f.Date
	}
	return fmt.Sprintf("%d%s of %s", d.Day(), ordinalSuffix(d.Day()), d.Format("January 2006"))
}

func ParseDate(value string) (time.Time, error) {
	d, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrValidation, value)
	}
	return d, nil
}

func ordinalSuffix(day int) string {
	if day >= 11 && day <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}
