// Package fare computes itemized price quotes. Calculation is pure:
// no I/O, no clock, identical inputs always produce identical quotes.
package fare

import (
	"fmt"
	"math"

	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/domain"
)

const (
	taxRate         = 0.12
	feePerPassenger = 15.00
	flexSurcharge   = 50.00

	priorityBoardingPrice = 15.00
	loungeAccessPrice     = 35.00
	insurancePrice        = 18.00
	carbonOffsetPrice     = 8.00
)

var baggagePrices = map[int]float64{0: 0, 1: 40.00, 2: 70.00}

var mealPrices = map[domain.MealOption]float64{
	domain.MealNone:     0,
	domain.MealStandard: 12.00,
	domain.MealPremium:  25.00,
}

// Calculate produces a quote for passengerCount passengers in the
// given class, with per-passenger extras and one-time addons (bundled
// car/hotel, priced upstream). Rounding to cents happens exactly once,
// on the final total.
func Calculate(flight *domain.Flight, class domain.CabinClass, fareType domain.FareType, passengerCount int, extras domain.Extras, oneTimeAddons float64) (domain.FareQuote, error) {
	if !class.Valid() {
		return domain.FareQuote{}, fmt.Errorf("unknown cabin class %q", class)
	}
	if !fareType.Valid() {
		return domain.FareQuote{}, fmt.Errorf("unknown fare type %q", fareType)
	}
	if passengerCount <= 0 {
		return domain.FareQuote{}, fmt.Errorf("passenger count must be positive, got %d", passengerCount)
	}

	perPassengerExtras, err := extrasPrice(extras)
	if err != nil {
		return domain.FareQuote{}, err
	}

	base := float64(flight.PriceCentsFor(class)) / 100
	if fareType == domain.FareTypeFlex {
		base += flexSurcharge
	}

	taxes := taxRate * base
	perPassenger := base + taxes + feePerPassenger + perPassengerExtras
	total := float64(passengerCount)*perPassenger + oneTimeAddons

	return domain.FareQuote{
		BasePerPassenger:   base,
		TaxesPerPassenger:  taxes,
		FeePerPassenger:    feePerPassenger,
		ExtrasPerPassenger: perPassengerExtras,
		Passengers:         passengerCount,
		OneTimeAddons:      oneTimeAddons,
		Total:              roundCents(total),
	}, nil
}

func extrasPrice(extras domain.Extras) (float64, error) {
	baggage, ok := baggagePrices[extras.BaggageTier]
	if !ok {
		return 0, fmt.Errorf("unknown baggage tier %d", extras.BaggageTier)
	}
	meal := extras.Meal
	if meal == "" {
		meal = domain.MealNone
	}
	mealPrice, ok := mealPrices[meal]
	if !ok {
		return 0, fmt.Errorf("unknown meal option %q", extras.Meal)
	}

	sum := baggage + mealPrice
	if extras.PriorityBoarding {
		sum += priorityBoardingPrice
	}
	if extras.LoungeAccess {
		sum += loungeAccessPrice
	}
	if extras.Insurance {
		sum += insurancePrice
	}
	if extras.CarbonOffset {
		sum += carbonOffsetPrice
	}
	return sum, nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
