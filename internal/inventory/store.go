// Package inventory is the sole mutator of seat status. Every claim is
// all-or-nothing and serialized per flight, closing the
// check-then-claim race.
package inventory

import (
	"context"

	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/domain"
)

// Counts of seats per status within one flight and class.
type Counts struct {
	Free      int
	Held      int
	Confirmed int
}

type Store interface {
	// CreateFlightSeats materializes the flight's seat rows, all Free.
	// Called once, at flight creation.
	CreateFlightSeats(ctx context.Context, flight *domain.Flight) error

	// ClaimSeats moves count Free seats of the class to Held for
	// bookingID, atomically: either every seat transitions or none
	// does. If requested seat numbers are given they are claimed
	// exactly; a requested seat that is not Free fails
	// ErrSeatUnavailable. Fewer than count Free seats fails
	// ErrInsufficientCapacity.
	ClaimSeats(ctx context.Context, flightID int64, class domain.CabinClass, count int, requested []string, bookingID string) ([]domain.Seat, error)

	// ConfirmSeats moves the seats Held->Confirmed. Any seat not
	// currently Held by bookingID fails ErrInvalidTransition and
	// nothing transitions.
	ConfirmSeats(ctx context.Context, seatIDs []int64, bookingID string) error

	// ReleaseSeats returns the booking's Held or Confirmed seats to
	// Free, clearing their booking reference. Seats no longer owned by
	// the booking are left untouched. Used by cancellation and expiry.
	ReleaseSeats(ctx context.Context, seatIDs []int64, bookingID string) error

	// SeatsByBooking returns the seats currently referencing a booking.
	SeatsByBooking(ctx context.Context, bookingID string) ([]domain.Seat, error)

	// CountByStatus reports seat counts for one flight and class.
	CountByStatus(ctx context.Context, flightID int64, class domain.CabinClass) (Counts, error)
}
