package domain

import "time"

type CabinClass string

const (
	ClassEconomy  CabinClass = "ECONOMY"
	ClassBusiness CabinClass = "BUSINESS"
	ClassFirst    CabinClass = "FIRST"
)

// Classes in cabin order, front to back.
var Classes = []CabinClass{ClassFirst, ClassBusiness, ClassEconomy}

func (c CabinClass) Valid() bool {
	switch c {
	case ClassEconomy, ClassBusiness, ClassFirst:
		return true
	}
	return false
}

type Flight struct {
	ID            int64
	FlightNumber  string
	FromAirport   string
	ToAirport     string
	DepartureTime time.Time
	ArrivalTime   time.Time

	// Capacity per class is fixed at creation; seat rows are
	// materialized once, all Free.
	EconomySeats  int
	BusinessSeats int
	FirstSeats    int

	EconomyPriceCents  int64
	BusinessPriceCents int64
	FirstPriceCents    int64

	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (f *Flight) CapacityFor(class CabinClass) int {
	switch class {
	case ClassEconomy:
		return f.EconomySeats
	case ClassBusiness:
		return f.BusinessSeats
	case ClassFirst:
		return f.FirstSeats
	}
	return 0
}

func (f *Flight) PriceCentsFor(class CabinClass) int64 {
	switch class {
	case ClassEconomy:
		return f.EconomyPriceCents
	case ClassBusiness:
		return f.BusinessPriceCents
	case ClassFirst:
		return f.FirstPriceCents
	}
	return 0
}
