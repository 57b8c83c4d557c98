package domain

import (
	"fmt"
	"time"
)

type BookingStatus string

const (
	BookingStatusHeld      BookingStatus = "HELD"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusExpired   BookingStatus = "EXPIRED"
)

type FareType string

const (
	FareTypeLight FareType = "LIGHT"
	FareTypeFlex  FareType = "FLEX"
)

func (t FareType) Valid() bool {
	return t == FareTypeLight || t == FareTypeFlex
}

type HoldType string

const (
	// HoldTypeStandard is the free hold granted to every new booking.
	HoldTypeStandard HoldType = "STANDARD"
	// HoldTypePrice is the paid price-hold with a longer duration.
	HoldTypePrice HoldType = "PRICE"
)

type Passenger struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

type Booking struct {
	ID         string
	FlightID   int64
	Class      CabinClass
	FareType   FareType
	HoldType   HoldType
	Passengers []Passenger
	SeatIDs    []int64
	Status     BookingStatus

	// HoldExpiresAt is meaningful only while Held; it is zeroed on
	// every exit from Held.
	HoldExpiresAt time.Time

	Fare       FareQuote
	PaymentRef string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// legal status transitions; Cancelled and Expired are terminal.
var transitions = map[BookingStatus]map[BookingStatus]bool{
	BookingStatusHeld: {
		BookingStatusConfirmed: true,
		BookingStatusCancelled: true,
		BookingStatusExpired:   true,
	},
	BookingStatusConfirmed: {
		BookingStatusCancelled: true,
	},
}

// CanTransition reports whether status may move to next.
func CanTransition(status, next BookingStatus) bool {
	return transitions[status][next]
}

// TransitionTo moves the booking to next, or fails with
// ErrInvalidTransition leaving the booking unchanged. Leaving Held
// clears the hold expiry.
func (b *Booking) TransitionTo(next BookingStatus, now time.Time) error {
	if !CanTransition(b.Status, next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, next)
	}
	b.Status = next
	b.HoldExpiresAt = time.Time{}
	b.UpdatedAt = now
	return nil
}

// HoldLapsed reports whether a Held booking's hold has run out.
func (b *Booking) HoldLapsed(now time.Time) bool {
	return b.Status == BookingStatusHeld && !b.HoldExpiresAt.IsZero() && b.HoldExpiresAt.Before(now)
}
