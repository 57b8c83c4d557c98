package domain

import "fmt"

type SeatStatus string

const (
	SeatStatusFree      SeatStatus = "FREE"
	SeatStatusHeld      SeatStatus = "HELD"
	SeatStatusConfirmed SeatStatus = "CONFIRMED"
)

// Seat belongs to exactly one flight. BookingID is empty while the
// seat is Free and references the holding or confirming booking
// otherwise.
type Seat struct {
	ID        int64
	FlightID  int64
	Number    string
	Class     CabinClass
	Status    SeatStatus
	BookingID string
}

var classColumns = map[CabinClass]string{
	ClassFirst:    "AB",
	ClassBusiness: "ABCD",
	ClassEconomy:  "ABCDEF",
}

// BuildSeatPlan lays out the cabin for a new flight: First rows at the
// front, then Business, then Economy, every seat Free. Seat IDs are
// assigned by the store.
func BuildSeatPlan(f *Flight) []Seat {
	var seats []Seat
	row := 1
	for _, class := range Classes {
		cols := classColumns[class]
		remaining := f.CapacityFor(class)
		for remaining > 0 {
			for i := 0; i < len(cols) && remaining > 0; i++ {
				seats = append(seats, Seat{
					FlightID: f.ID,
					Number:   fmt.Sprintf("%d%c", row, cols[i]),
					Class:    class,
					Status:   SeatStatusFree,
				})
				remaining--
			}
			row++
		}
	}
	return seats
}
