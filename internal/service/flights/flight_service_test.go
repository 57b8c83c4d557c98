package flights

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/domain"
	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/inventory"
	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockCache) SetFlights(ctx context.Context, flights []domain.Flight) error {
	args := m.Called(ctx, flights)
	return args.Error(0)
}

func (m *MockCache) InvalidateFlights(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validInput() CreateFlightInput {
	departure := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	return CreateFlightInput{
		FlightNumber:       "AR202",
		FromAirport:        "CAI",
		ToAirport:          "LHR",
		DepartureTime:      departure,
		ArrivalTime:        departure.Add(5 * time.Hour),
		EconomySeats:       12,
		BusinessSeats:      4,
		EconomyPriceCents:  45000,
		BusinessPriceCents: 120000,
	}
}

func TestCreate_MaterializesSeats(t *testing.T) {
	repo := repository.NewMemoryFlightRepository()
	seats := inventory.NewMemoryStore()
	service := NewFlightService(repo, seats, nil, testLogger())

	flight, err := service.Create(context.Background(), validInput())
	require.NoError(t, err)
	require.NotZero(t, flight.ID)
	assert.True(t, flight.Active)

	economy, err := seats.CountByStatus(context.Background(), flight.ID, domain.ClassEconomy)
	require.NoError(t, err)
	assert.Equal(t, inventory.Counts{Free: 12}, economy)

	business, err := seats.CountByStatus(context.Background(), flight.ID, domain.ClassBusiness)
	require.NoError(t, err)
	assert.Equal(t, inventory.Counts{Free: 4}, business)
}

func TestCreate_RejectsBadInput(t *testing.T) {
	repo := repository.NewMemoryFlightRepository()
	service := NewFlightService(repo, inventory.NewMemoryStore(), nil, testLogger())

	input := validInput()
	input.ArrivalTime = input.DepartureTime.Add(-time.Hour)
	_, err := service.Create(context.Background(), input)
	assert.Error(t, err)

	input = validInput()
	input.EconomySeats, input.BusinessSeats, input.FirstSeats = 0, 0, 0
	_, err = service.Create(context.Background(), input)
	assert.Error(t, err)
}

func TestList_CacheHit(t *testing.T) {
	cached := []domain.Flight{{ID: 1, FlightNumber: "AR101"}}
	cache := &MockCache{}
	cache.On("GetFlights", mock.Anything).Return(cached, nil).Once()

	service := NewFlightService(repository.NewMemoryFlightRepository(), inventory.NewMemoryStore(), cache, testLogger())
	flights, err := service.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cached, flights)
	cache.AssertExpectations(t)
}

func TestList_CacheMissFillsCache(t *testing.T) {
	repo := repository.NewMemoryFlightRepository()
	seats := inventory.NewMemoryStore()
	cache := &MockCache{}
	cache.On("GetFlights", mock.Anything).Return(nil, nil).Once()
	cache.On("SetFlights", mock.Anything, mock.Anything).Return(nil).Once()
	cache.On("InvalidateFlights", mock.Anything).Return(nil).Once()

	service := NewFlightService(repo, seats, cache, testLogger())
	_, err := service.Create(context.Background(), validInput())
	require.NoError(t, err)

	flights, err := service.List(context.Background())
	require.NoError(t, err)
	require.Len(t, flights, 1)
	cache.AssertExpectations(t)
}

func TestAvailability_RejectsUnknownClass(t *testing.T) {
	service := NewFlightService(repository.NewMemoryFlightRepository(), inventory.NewMemoryStore(), nil, testLogger())
	_, err := service.Availability(context.Background(), 1, "COACH")
	assert.Error(t, err)
}
