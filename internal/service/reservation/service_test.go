package reservation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/domain"
	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/inventory"
	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

// testClock is a movable clock for expiry scenarios.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(t time.Time) *testClock {
	return &testClock{now: t.UTC()}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	service    *ReservationService
	bookings   *repository.MemoryBookingRepository
	flightRepo *repository.MemoryFlightRepository
	seats      *inventory.MemoryStore
	producer   *MockProducer
	clock      *testClock
	flight     *domain.Flight
}

func newFixture(t *testing.T, economySeats int) *fixture {
	t.Helper()

	flightRepo := repository.NewMemoryFlightRepository()
	bookingRepo := repository.NewMemoryBookingRepository()
	seats := inventory.NewMemoryStore()
	producer := &MockProducer{}
	clk := newTestClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	flight := &domain.Flight{
		FlightNumber:      "AR101",
		FromAirport:       "CAI",
		ToAirport:         "DXB",
		DepartureTime:     clk.Now().Add(48 * time.Hour),
		ArrivalTime:       clk.Now().Add(52 * time.Hour),
		EconomySeats:      economySeats,
		EconomyPriceCents: 30000,
		Active:            true,
	}
	require.NoError(t, flightRepo.Create(context.Background(), flight))
	require.NoError(t, seats.CreateFlightSeats(context.Background(), flight))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewReservationService(
		bookingRepo, flightRepo, seats, producer, clk, logger,
		"booking-events",
		HoldDurations{Standard: 15 * time.Minute, PriceHold: 48 * time.Hour},
	)
	return &fixture{service: service, bookings: bookingRepo, flightRepo: flightRepo, seats: seats, producer: producer, clock: clk, flight: flight}
}

func passengers(n int) []domain.Passenger {
	out := make([]domain.Passenger, n)
	for i := range out {
		out[i] = domain.Passenger{ID: "p1", FullName: "Test Passenger", Email: "p@example.com"}
	}
	return out
}

func TestRequestBooking_Success(t *testing.T) {
	f := newFixture(t, 4)
	f.producer.On("Publish", mock.Anything, "booking-events", mock.Anything, mock.Anything).Return(nil)

	booking, err := f.service.RequestBooking(context.Background(), RequestBookingInput{
		FlightID:   f.flight.ID,
		Class:      domain.ClassEconomy,
		Passengers: passengers(1),
		Extras:     domain.Extras{BaggageTier: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.BookingStatusHeld, booking.Status)
	assert.Equal(t, f.clock.Now().Add(15*time.Minute), booking.HoldExpiresAt)
	assert.Equal(t, 391.00, booking.Fare.Total)
	assert.Len(t, booking.SeatIDs, 1)

	counts, err := f.seats.CountByStatus(context.Background(), f.flight.ID, domain.ClassEconomy)
	require.NoError(t, err)
	assert.Equal(t, inventory.Counts{Free: 3, Held: 1}, counts)

	f.producer.AssertCalled(t, "Publish", mock.Anything, "booking-events", booking.ID, mock.Anything)
}

func TestRequestBooking_PriceHoldDuration(t *testing.T) {
	f := newFixture(t, 2)
	f.producer.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	booking, err := f.service.RequestBooking(context.Background(), RequestBookingInput{
		FlightID:   f.flight.ID,
		Class:      domain.ClassEconomy,
		HoldType:   domain.HoldTypePrice,
		Passengers: passengers(1),
	})
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now().Add(48*time.Hour), booking.HoldExpiresAt)
}

func TestRequestBooking_InsufficientCapacity(t *testing.T) {
	f := newFixture(t, 1)
	f.producer.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := f.service.RequestBooking(context.Background(), RequestBookingInput{
		FlightID:   f.flight.ID,
		Class:      domain.ClassEconomy,
		Passengers: passengers(2),
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientCapacity)

	counts, err := f.seats.CountByStatus(context.Background(), f.flight.ID, domain.ClassEconomy)
	require.NoError(t, err)
	assert.Equal(t, inventory.Counts{Free: 1}, counts)
}

func TestRequestBooking_TwoConcurrentOneSeatEach(t *testing.T) {
	f := newFixture(t, 2)
	f.producer.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	const requests = 3
	results := make(chan error, requests)
	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.RequestBooking(context.Background(), RequestBookingInput{
				FlightID:   f.flight.ID,
				Class:      domain.ClassEconomy,
				Passengers: passengers(1),
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded, failed := 0, 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		failed++
		assert.True(t, errors.Is(err, domain.ErrInsufficientCapacity) || errors.Is(err, domain.ErrSeatUnavailable),
			"loser must see a capacity verdict, got %v", err)
	}
	assert.Equal(t, 2, succeeded)
	assert.Equal(t, 1, failed)
}

func TestConfirmBooking_Success(t *testing.T) {
	f := newFixture(t, 2)
	f.producer.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	booking, err := f.service.RequestBooking(context.Background(), RequestBookingInput{
		FlightID:   f.flight.ID,
		Class:      domain.ClassEconomy,
		Passengers: passengers(1),
	})
	require.NoError(t, err)

	confirmed, err := f.service.ConfirmBooking(context.Background(), booking.ID, "pay-123")
	require.NoError(t, err)

	assert.Equal(t, domain.BookingStatusConfirmed, confirmed.Status)
	assert.Equal(t, "pay-123", confirmed.PaymentRef)
	assert.True(t, confirmed.HoldExpiresAt.IsZero())

	counts, err := f.seats.CountByStatus(context.Background(), f.flight.ID, domain.ClassEconomy)
	require.NoError(t, err)
	assert.Equal(t, inventory.Counts{Free: 1, Confirmed: 1}, counts)
}

func TestConfirmBooking_Idempotent(t *testing.T) {
	f := newFixture(t, 2)
	f.producer.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	booking, err := f.service.RequestBooking(context.Background(), RequestBookingInput{
		FlightID:   f.flight.ID,
		Class:      domain.ClassEconomy,
		Passengers: passengers(1),
	})
	require.NoError(t, err)

	first, err := f.service.ConfirmBooking(context.Background(), booking.ID, "pay-123")
	require.NoError(t, err)
	again, err := f.service.ConfirmBooking(context.Background(), booking.ID, "pay-456")
	require.NoError(t, err)

	// Prior result, original payment reference, no re-mutation.
	assert.Equal(t, first.Status, again.Status)
	assert.Equal(t, "pay-123", again.PaymentRef)

	counts, err := f.seats.CountByStatus(context.Background(), f.flight.ID, domain.ClassEconomy)
	require.NoError(t, err)
	assert.Equal(t, inventory.Counts{Free: 1, Confirmed: 1}, counts)
}

func TestConfirmBooking_AfterHoldLapsed(t *testing.T) {
	f := newFixture(t, 2)
	f.producer.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	booking, err := f.service.RequestBooking(context.Background(), RequestBookingInput{
		FlightID:   f.flight.ID,
		Class:      domain.ClassEconomy,
		Passengers: passengers(1),
	})
	require.NoError(t, err)

	f.clock.Advance(16 * time.Minute)

	_, err = f.service.ConfirmBooking(context.Background(), booking.ID, "pay-123")
	assert.ErrorIs(t, err, domain.ErrBookingExpired)

	// A lapsed booking past its hold can never reach Confirmed; the
	// seat goes back to Free.
	stored, err := f.bookings.GetByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusExpired, stored.Status)

	counts, err := f.seats.CountByStatus(context.Background(), f.flight.ID, domain.ClassEconomy)
	require.NoError(t, err)
	assert.Equal(t, inventory.Counts{Free: 2}, counts)
}

func TestConfirmBooking_AfterSweepRan(t *testing.T) {
	f := newFixture(t, 2)
	f.producer.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	booking, err := f.service.RequestBooking(context.Background(), RequestBookingInput{
		FlightID:   f.flight.ID,
		Class:      domain.ClassEconomy,
		Passengers: passengers(1),
	})
	require.NoError(t, err)

	f.clock.Advance(16 * time.Minute)
	require.NoError(t, f.service.ExpireBooking(context.Background(), booking.ID))

	_, err = f.service.ConfirmBooking(context.Background(), booking.ID, "pay-123")
	assert.ErrorIs(t, err, domain.ErrBookingExpired)

	counts, err := f.seats.CountByStatus(context.Background(), f.flight.ID, domain.ClassEconomy)
	require.NoError(t, err)
	assert.Equal(t, inventory.Counts{Free: 2}, counts)
}

func TestCancelBooking_HeldRoundTrip(t *testing.T) {
	f := newFixture(t, 2)
	f.producer.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	before, err := f.seats.CountByStatus(context.Background(), f.flight.ID, domain.ClassEconomy)
	require.NoError(t, err)

	booking, err := f.service.RequestBooking(context.Background(), RequestBookingInput{
		FlightID:   f.flight.ID,
		Class:      domain.ClassEconomy,
		Passengers: passengers(1),
	})
	require.NoError(t, err)

	cancelled, err := f.service.CancelBooking(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, cancelled.Status)

	after, err := f.seats.CountByStatus(context.Background(), f.flight.ID, domain.ClassEconomy)
	require.NoError(t, err)
	assert.Equal(t, before, after, "cancel must restore the pre-claim capacity count")
}

func TestCancelBooking_Confirmed(t *testing.T) {
	f := newFixture(t, 2)
	f.producer.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	booking, err := f.service.RequestBooking(context.Background(), RequestBookingInput{
		FlightID:   f.flight.ID,
		Class:      domain.ClassEconomy,
		Passengers: passengers(1),
	})
	require.NoError(t, err)
	_, err = f.service.ConfirmBooking(context.Background(), booking.ID, "pay-123")
	require.NoError(t, err)

	cancelled, err := f.service.CancelBooking(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, cancelled.Status)

	counts, err := f.seats.CountByStatus(context.Background(), f.flight.ID, domain.ClassEconomy)
	require.NoError(t, err)
	assert.Equal(t, inventory.Counts{Free: 2}, counts, "post-confirmation cancel frees the seat")
}

func TestCancelBooking_ExpiredIsInvalid(t *testing.T) {
	f := newFixture(t, 2)
	f.producer.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	booking, err := f.service.RequestBooking(context.Background(), RequestBookingInput{
		FlightID:   f.flight.ID,
		Class:      domain.ClassEconomy,
		Passengers: passengers(1),
	})
	require.NoError(t, err)

	f.clock.Advance(16 * time.Minute)
	require.NoError(t, f.service.ExpireBooking(context.Background(), booking.ID))

	_, err = f.service.CancelBooking(context.Background(), booking.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestExpireBooking_SkipsFreshHolds(t *testing.T) {
	f := newFixture(t, 2)
	f.producer.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	booking, err := f.service.RequestBooking(context.Background(), RequestBookingInput{
		FlightID:   f.flight.ID,
		Class:      domain.ClassEconomy,
		Passengers: passengers(1),
	})
	require.NoError(t, err)

	require.NoError(t, f.service.ExpireBooking(context.Background(), booking.ID))

	stored, err := f.bookings.GetByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusHeld, stored.Status)
}

// sweepRacingRepo slips an expiry sweep in after a confirm's lapse
// check but before its status write, the worst legal interleaving.
type sweepRacingRepo struct {
	repository.BookingRepository
	service *ReservationService
	clock   *testClock
	once    sync.Once
}

func (r *sweepRacingRepo) UpdateStatus(ctx context.Context, b *domain.Booking, from domain.BookingStatus) (bool, error) {
	if b.Status == domain.BookingStatusConfirmed {
		r.once.Do(func() {
			r.clock.Advance(16 * time.Minute)
			_ = r.service.ExpireBooking(ctx, b.ID)
		})
	}
	return r.BookingRepository.UpdateStatus(ctx, b, from)
}

func TestConfirmBooking_SweepWinsBetweenCheckAndWrite(t *testing.T) {
	f := newFixture(t, 2)
	f.producer.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	booking, err := f.service.RequestBooking(context.Background(), RequestBookingInput{
		FlightID:   f.flight.ID,
		Class:      domain.ClassEconomy,
		Passengers: passengers(1),
	})
	require.NoError(t, err)

	racer := &sweepRacingRepo{BookingRepository: f.bookings, clock: f.clock}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewReservationService(
		racer, f.flightRepo, f.seats, f.producer, f.clock, logger,
		"booking-events",
		HoldDurations{Standard: 15 * time.Minute, PriceHold: 48 * time.Hour},
	)
	racer.service = service

	// The hold is fresh when confirm checks it, then lapses and the
	// sweep runs before confirm persists. The sweep must win.
	_, err = service.ConfirmBooking(context.Background(), booking.ID, "pay-123")
	assert.ErrorIs(t, err, domain.ErrBookingExpired)

	stored, err := f.bookings.GetByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusExpired, stored.Status)

	counts, err := f.seats.CountByStatus(context.Background(), f.flight.ID, domain.ClassEconomy)
	require.NoError(t, err)
	assert.Equal(t, inventory.Counts{Free: 2}, counts, "no seat may stay Held or Confirmed once the sweep wins")
}

type releaseFailingStore struct {
	inventory.Store
}

func (s *releaseFailingStore) ReleaseSeats(ctx context.Context, seatIDs []int64, bookingID string) error {
	return errors.New("store offline")
}

func TestCancelBooking_ReleaseFailureKeepsPersistedStatus(t *testing.T) {
	f := newFixture(t, 2)
	f.producer.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	booking, err := f.service.RequestBooking(context.Background(), RequestBookingInput{
		FlightID:   f.flight.ID,
		Class:      domain.ClassEconomy,
		Passengers: passengers(1),
	})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewReservationService(
		f.bookings, f.flightRepo, &releaseFailingStore{Store: f.seats}, f.producer, f.clock, logger,
		"booking-events",
		HoldDurations{Standard: 15 * time.Minute, PriceHold: 48 * time.Hour},
	)

	_, err = service.CancelBooking(context.Background(), booking.ID)
	require.Error(t, err)

	// The status write precedes the seat release, so a release failure
	// never leaves Free seats behind a booking that still reads Held.
	stored, err := f.bookings.GetByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, stored.Status)

	counts, err := f.seats.CountByStatus(context.Background(), f.flight.ID, domain.ClassEconomy)
	require.NoError(t, err)
	assert.Equal(t, inventory.Counts{Free: 1, Held: 1}, counts)
}

func TestRequestBooking_UnknownFlight(t *testing.T) {
	f := newFixture(t, 2)
	_, err := f.service.RequestBooking(context.Background(), RequestBookingInput{
		FlightID:   999,
		Class:      domain.ClassEconomy,
		Passengers: passengers(1),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
