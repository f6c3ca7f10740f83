package reservation

import (
	"errors"
	"time"
)

// DayFormat is the calendar-day encoding used throughout: ISO-8601 dates
// with no time or zone component. Lexicographic order equals date order.
const DayFormat = "2006-01-02"

// ErrInvalidDate signals a date that is not a YYYY-MM-DD calendar day.
var ErrInvalidDate = errors.New("reservation: date must be a YYYY-MM-DD calendar day")

// ParseDay validates the encoding and returns the canonical form.
func ParseDay(s string) (string, error) {
	t, err := time.Parse(DayFormat, s)
	if err != nil || t.Format(DayFormat) != s {
		return "", ErrInvalidDate
	}
	return s, nil
}

// Reservation books one car for one calendar day on behalf of a user.
type Reservation struct {
	ID        string
	CarID     string
	UserID    string
	Day       string
	CreatedAt time.Time
}

// Detail is a reservation with its car and user references populated for
// presentation.
type Detail struct {
	Reservation
	CarBrand  string
	CarModel  string
	UserEmail string
}

// Policies names the booking rules that differ between deployments. All
// default to off.
type Policies struct {
	// SingleActiveReservation makes Reserve refuse a booking while the user
	// already holds a reservation dated today or later, for any car.
	SingleActiveReservation bool
}
