package flights

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/domain"
	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/inventory"
	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/repository"
)

type FlightUseCase interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	Create(ctx context.Context, input CreateFlightInput) (*domain.Flight, error)
	Availability(ctx context.Context, flightID int64, class domain.CabinClass) (inventory.Counts, error)
}

type Cache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
	InvalidateFlights(ctx context.Context) error
}

type FlightService struct {
	repo  repository.FlightRepository
	seats inventory.Store
	cache Cache
	log   *slog.Logger
}

type CreateFlightInput struct {
	FlightNumber  string
	FromAirport   string
	ToAirport     string
	DepartureTime time.Time
	ArrivalTime   time.Time

	EconomySeats  int
	BusinessSeats int
	FirstSeats    int

	EconomyPriceCents  int64
	BusinessPriceCents int64
	FirstPriceCents    int64
}

func flightFromInput(input CreateFlightInput) (*domain.Flight, error) {
	if input.FlightNumber == "" || input.FromAirport == "" || input.ToAirport == "" {
		return nil, errors.New("flight number and airports are required")
	}
	if !input.ArrivalTime.After(input.DepartureTime) {
		return nil, errors.New("arrival must be after departure")
	}
	if input.EconomySeats < 0 || input.BusinessSeats < 0 || input.FirstSeats < 0 {
		return nil, errors.New("seat counts must not be negative")
	}
	if input.EconomySeats+input.BusinessSeats+input.FirstSeats == 0 {
		return nil, errors.New("flight needs at least one seat")
	}
	return &domain.Flight{
		FlightNumber:       input.FlightNumber,
		FromAirport:        input.FromAirport,
		ToAirport:          input.ToAirport,
		DepartureTime:      input.DepartureTime,
		ArrivalTime:        input.ArrivalTime,
		EconomySeats:       input.EconomySeats,
		BusinessSeats:      input.BusinessSeats,
		FirstSeats:         input.FirstSeats,
		EconomyPriceCents:  input.EconomyPriceCents,
		BusinessPriceCents: input.BusinessPriceCents,
		FirstPriceCents:    input.FirstPriceCents,
		Active:             true,
	}, nil
}

func NewFlightService(repo repository.FlightRepository, seats inventory.Store, cache Cache, log *slog.Logger) *FlightService {
	return &FlightService{repo: repo, seats: seats, cache: cache, log: log}
}

func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetFlights(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	flights, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetFlights(ctx, flights); err != nil {
			s.log.Warn("cache flights", "error", err)
		}
	}
	return flights, nil
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.repo.GetByID(ctx, id)
}

// Create persists the flight and materializes its seat rows, all
// Free. Capacity is fixed from here on.
func (s *FlightService) Create(ctx context.Context, input CreateFlightInput) (*domain.Flight, error) {
	flight, err := flightFromInput(input)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, flight); err != nil {
		return nil, err
	}
	if err := s.seats.CreateFlightSeats(ctx, flight); err != nil {
		// Seatless flights are unsellable; hide the flight again.
		if deactivateErr := s.repo.SetActive(ctx, flight.ID, false); deactivateErr != nil {
			s.log.Error("deactivate seatless flight", "flight_id", flight.ID, "error", deactivateErr)
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.InvalidateFlights(ctx); err != nil {
			s.log.Warn("invalidate flights cache", "error", err)
		}
	}
	return flight, nil
}

func (s *FlightService) Availability(ctx context.Context, flightID int64, class domain.CabinClass) (inventory.Counts, error) {
	if !class.Valid() {
		return inventory.Counts{}, errors.New("unknown cabin class")
	}
	return s.seats.CountByStatus(ctx, flightID, class)
}

var _ FlightUseCase = (*FlightService)(nil)
