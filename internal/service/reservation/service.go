package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/clock"
	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/domain"
	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/fare"
	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/inventory"
	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/kafka"
	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/repository"
	"github.com/google/uuid"
)

type ReservationUseCase interface {
	RequestBooking(ctx context.Context, input RequestBookingInput) (*domain.Booking, error)
	ConfirmBooking(ctx context.Context, bookingID, paymentRef string) (*domain.Booking, error)
	CancelBooking(ctx context.Context, bookingID string) (*domain.Booking, error)
	ExpireBooking(ctx context.Context, bookingID string) error
	GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// HoldDurations maps a hold type to its duration.
type HoldDurations struct {
	Standard  time.Duration
	PriceHold time.Duration
}

func (d HoldDurations) For(t domain.HoldType) time.Duration {
	if t == domain.HoldTypePrice {
		return d.PriceHold
	}
	return d.Standard
}

type ReservationService struct {
	bookings           repository.BookingRepository
	flights            repository.FlightRepository
	seats              inventory.Store
	producer           Producer
	clock              clock.Clock
	log                *slog.Logger
	bookingTopic       string
	notificationsTopic string
	holds              HoldDurations
	claimRetries       int
	claimBackoff       time.Duration
}

type RequestBookingInput struct {
	FlightID       int64
	Class          domain.CabinClass
	FareType       domain.FareType
	HoldType       domain.HoldType
	Passengers     []domain.Passenger
	RequestedSeats []string
	Extras         domain.Extras
	OneTimeAddons  float64
}

type ReservationServiceOption func(*ReservationService)

func WithNotificationsTopic(topic string) ReservationServiceOption {
	return func(s *ReservationService) {
		s.notificationsTopic = topic
	}
}

// WithClaimRetries bounds retries of a claim that failed on transient
// contention before surfacing ErrSeatUnavailable.
func WithClaimRetries(attempts int, backoff time.Duration) ReservationServiceOption {
	return func(s *ReservationService) {
		if attempts > 0 {
			s.claimRetries = attempts
		}
		if backoff > 0 {
			s.claimBackoff = backoff
		}
	}
}

func NewReservationService(
	bookings repository.BookingRepository,
	flights repository.FlightRepository,
	seats inventory.Store,
	producer Producer,
	clk clock.Clock,
	log *slog.Logger,
	bookingTopic string,
	holds HoldDurations,
	opts ...ReservationServiceOption,
) *ReservationService {
	service := &ReservationService{
		bookings:     bookings,
		flights:      flights,
		seats:        seats,
		producer:     producer,
		clock:        clk,
		log:          log,
		bookingTopic: bookingTopic,
		holds:        holds,
		claimRetries: 3,
		claimBackoff: 25 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *ReservationService) RequestBooking(ctx context.Context, input RequestBookingInput) (*domain.Booking, error) {
	if len(input.Passengers) == 0 {
		return nil, errors.New("at least one passenger is required")
	}
	if !input.Class.Valid() {
		return nil, fmt.Errorf("unknown cabin class %q", input.Class)
	}
	if input.FareType == "" {
		input.FareType = domain.FareTypeLight
	}
	if input.HoldType == "" {
		input.HoldType = domain.HoldTypeStandard
	}

	flight, err := s.flights.GetByID(ctx, input.FlightID)
	if err != nil {
		return nil, err
	}
	if !flight.Active {
		return nil, fmt.Errorf("%w: flight %d is not open for booking", domain.ErrNotFound, flight.ID)
	}

	quote, err := fare.Calculate(flight, input.Class, input.FareType, len(input.Passengers), input.Extras, input.OneTimeAddons)
	if err != nil {
		return nil, err
	}

	bookingID := uuid.NewString()
	seats, err := s.claimWithRetry(ctx, input, bookingID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	booking := &domain.Booking{
		ID:            bookingID,
		FlightID:      flight.ID,
		Class:         input.Class,
		FareType:      input.FareType,
		HoldType:      input.HoldType,
		Passengers:    input.Passengers,
		SeatIDs:       seatIDs(seats),
		Status:        domain.BookingStatusHeld,
		HoldExpiresAt: now.Add(s.holds.For(input.HoldType)),
		Fare:          quote,
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		// Compensate: the claim is only durable once the booking is.
		if relErr := s.seats.ReleaseSeats(ctx, booking.SeatIDs, bookingID); relErr != nil {
			s.log.Error("release seats after failed create", "booking_id", bookingID, "error", relErr)
		}
		return nil, err
	}

	s.publish(ctx, kafka.EventBookingCreated, booking)
	return booking, nil
}

// claimWithRetry retries transient claim failures a bounded number of
// times. Capacity and availability verdicts are final and never
// retried: the caller must re-request against current state.
func (s *ReservationService) claimWithRetry(ctx context.Context, input RequestBookingInput, bookingID string) ([]domain.Seat, error) {
	var lastErr error
	for attempt := 0; attempt < s.claimRetries; attempt++ {
		seats, err := s.seats.ClaimSeats(ctx, input.FlightID, input.Class, len(input.Passengers), input.RequestedSeats, bookingID)
		if err == nil {
			return seats, nil
		}
		if errors.Is(err, domain.ErrSeatUnavailable) ||
			errors.Is(err, domain.ErrInsufficientCapacity) ||
			errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		lastErr = err
		s.log.Warn("seat claim attempt failed", "flight_id", input.FlightID, "attempt", attempt+1, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.claimBackoff):
		}
	}
	return nil, fmt.Errorf("%w: claim failed after %d attempts: %v", domain.ErrSeatUnavailable, s.claimRetries, lastErr)
}

func (s *ReservationService) ConfirmBooking(ctx context.Context, bookingID, paymentRef string) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	switch booking.Status {
	case domain.BookingStatusConfirmed:
		// Second confirm returns the prior result without touching seats.
		return booking, nil
	case domain.BookingStatusExpired:
		return nil, fmt.Errorf("%w: booking %s", domain.ErrBookingExpired, bookingID)
	case domain.BookingStatusCancelled:
		return nil, fmt.Errorf("%w: booking %s is cancelled", domain.ErrInvalidTransition, bookingID)
	}

	now := s.clock.Now()
	if booking.HoldLapsed(now) {
		// The sweep wins races; if it hasn't run yet, expire eagerly
		// so the verdict is the same either way.
		if err := s.ExpireBooking(ctx, bookingID); err != nil {
			s.log.Error("expire lapsed booking on confirm", "booking_id", bookingID, "error", err)
		}
		return nil, fmt.Errorf("%w: hold lapsed at %s", domain.ErrBookingExpired, booking.HoldExpiresAt.Format(time.RFC3339))
	}

	if err := booking.TransitionTo(domain.BookingStatusConfirmed, now); err != nil {
		return nil, err
	}
	booking.PaymentRef = paymentRef

	// The status write is conditional on the booking still being Held,
	// so exactly one of confirm and the expiry sweep leaves Held. Seats
	// are only touched after winning that write.
	won, err := s.bookings.UpdateStatus(ctx, booking, domain.BookingStatusHeld)
	if err != nil {
		return nil, err
	}
	if !won {
		current, err := s.bookings.GetByID(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		if current.Status == domain.BookingStatusConfirmed {
			return current, nil
		}
		return nil, fmt.Errorf("%w: booking %s", domain.ErrBookingExpired, bookingID)
	}

	if err := s.seats.ConfirmSeats(ctx, booking.SeatIDs, booking.ID); err != nil {
		return nil, fmt.Errorf("confirm seats: %w", err)
	}

	s.publish(ctx, kafka.EventBookingConfirmed, booking)
	return booking, nil
}

func (s *ReservationService) CancelBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == domain.BookingStatusCancelled {
		return booking, nil
	}

	prior := booking.Status
	if err := booking.TransitionTo(domain.BookingStatusCancelled, s.clock.Now()); err != nil {
		return nil, err
	}

	won, err := s.bookings.UpdateStatus(ctx, booking, prior)
	if err != nil {
		return nil, err
	}
	if !won {
		current, err := s.bookings.GetByID(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		if current.Status == domain.BookingStatusCancelled {
			return current, nil
		}
		return nil, fmt.Errorf("%w: booking %s is %s", domain.ErrInvalidTransition, bookingID, current.Status)
	}

	if err := s.seats.ReleaseSeats(ctx, booking.SeatIDs, booking.ID); err != nil {
		return nil, fmt.Errorf("release seats: %w", err)
	}

	s.publish(ctx, kafka.EventBookingCancelled, booking)
	return booking, nil
}

// ExpireBooking is the sweep path: Held past its hold expiry moves to
// Expired and the seats go back to Free.
func (s *ReservationService) ExpireBooking(ctx context.Context, bookingID string) error {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.Status != domain.BookingStatusHeld {
		return nil
	}

	now := s.clock.Now()
	if !booking.HoldLapsed(now) {
		return nil
	}
	if err := booking.TransitionTo(domain.BookingStatusExpired, now); err != nil {
		return err
	}

	won, err := s.bookings.UpdateStatus(ctx, booking, domain.BookingStatusHeld)
	if err != nil {
		return err
	}
	if !won {
		// A confirm or cancel transitioned the booking first; its seats
		// are no longer ours to free.
		return nil
	}

	if err := s.seats.ReleaseSeats(ctx, booking.SeatIDs, booking.ID); err != nil {
		return fmt.Errorf("release seats: %w", err)
	}

	s.publish(ctx, kafka.EventBookingExpired, booking)
	return nil
}

func (s *ReservationService) GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	return s.bookings.GetByID(ctx, bookingID)
}

func (s *ReservationService) publish(ctx context.Context, eventType string, booking *domain.Booking) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}

	event := kafka.BookingEvent{
		Type:       eventType,
		BookingID:  booking.ID,
		FlightID:   booking.FlightID,
		Class:      string(booking.Class),
		SeatIDs:    booking.SeatIDs,
		Status:     string(booking.Status),
		Amount:     booking.Fare.Total,
		ExpiresAt:  booking.HoldExpiresAt,
		OccurredAt: s.clock.Now(),
	}
	if len(booking.Passengers) > 0 {
		event.PassengerID = booking.Passengers[0].ID
		event.Email = booking.Passengers[0].Email
	}

	if err := s.producer.Publish(ctx, s.bookingTopic, booking.ID, event); err != nil {
		s.log.Warn("publish booking event", "type", eventType, "booking_id", booking.ID, "error", err)
		return
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, booking.ID, event); err != nil {
			s.log.Warn("publish notification event", "type", eventType, "booking_id", booking.ID, "error", err)
		}
	}
}

func seatIDs(seats []domain.Seat) []int64 {
	ids := make([]int64, len(seats))
	for i, seat := range seats {
		ids[i] = seat.ID
	}
	return ids
}

var _ ReservationUseCase = (*ReservationService)(nil)
