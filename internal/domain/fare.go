package domain

type MealOption string

const (
	MealNone     MealOption = "NONE"
	MealStandard MealOption = "STANDARD"
	MealPremium  MealOption = "PREMIUM"
)

// Extras a passenger can attach to a booking. BaggageTier is 0, 1 or 2.
type Extras struct {
	BaggageTier      int        `json:"baggage_tier"`
	PriorityBoarding bool       `json:"priority_boarding"`
	LoungeAccess     bool       `json:"lounge_access"`
	Meal             MealOption `json:"meal"`
	Insurance        bool       `json:"insurance"`
	CarbonOffset     bool       `json:"carbon_offset"`
}

// FareQuote is an itemized price in dollars, embedded in a Booking.
// All per-passenger lines are exact; rounding happens once, on Total.
type FareQuote struct {
	BasePerPassenger   float64 `json:"base_per_passenger"`
	TaxesPerPassenger  float64 `json:"taxes_per_passenger"`
	FeePerPassenger    float64 `json:"fee_per_passenger"`
	ExtrasPerPassenger float64 `json:"extras_per_passenger"`
	Passengers         int     `json:"passengers"`
	OneTimeAddons      float64 `json:"one_time_addons"`
	Total              float64 `json:"total"`
}
