package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/domain"
)

// In-memory repositories back the memory storage mode and tests.

type MemoryFlightRepository struct {
	mu      sync.RWMutex
	flights map[int64]domain.Flight
	nextID  int64
}

func NewMemoryFlightRepository() *MemoryFlightRepository {
	return &MemoryFlightRepository{flights: make(map[int64]domain.Flight)}
}

func (r *MemoryFlightRepository) Create(ctx context.Context, f *domain.Flight) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	f.ID = r.nextID
	now := time.Now().UTC()
	f.CreatedAt = now
	f.UpdatedAt = now
	r.flights[f.ID] = *f
	return nil
}

func (r *MemoryFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.flights[id]
	if !ok {
		return nil, fmt.Errorf("%w: flight %d", domain.ErrNotFound, id)
	}
	return &f, nil
}

func (r *MemoryFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	flights := make([]domain.Flight, 0, len(r.flights))
	for _, f := range r.flights {
		if f.Active {
			flights = append(flights, f)
		}
	}
	sort.Slice(flights, func(i, j int) bool { return flights[i].DepartureTime.Before(flights[j].DepartureTime) })
	return flights, nil
}

func (r *MemoryFlightRepository) SetActive(ctx context.Context, id int64, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.flights[id]
	if !ok {
		return fmt.Errorf("%w: flight %d", domain.ErrNotFound, id)
	}
	f.Active = active
	f.UpdatedAt = time.Now().UTC()
	r.flights[id] = f
	return nil
}

type MemoryBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]domain.Booking
}

func NewMemoryBookingRepository() *MemoryBookingRepository {
	return &MemoryBookingRepository{bookings: make(map[string]domain.Booking)}
}

func (r *MemoryBookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[b.ID]; ok {
		return fmt.Errorf("booking %s already exists", b.ID)
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	r.bookings[b.ID] = *b
	return nil
}

func (r *MemoryBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, fmt.Errorf("%w: booking %s", domain.ErrNotFound, id)
	}
	return &b, nil
}

func (r *MemoryBookingRepository) UpdateStatus(ctx context.Context, b *domain.Booking, from domain.BookingStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bookings[b.ID]
	if !ok {
		return false, fmt.Errorf("%w: booking %s", domain.ErrNotFound, b.ID)
	}
	if stored.Status != from {
		return false, nil
	}
	r.bookings[b.ID] = *b
	return true, nil
}

func (r *MemoryBookingRepository) ListHeldExpiredBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var expired []domain.Booking
	for _, b := range r.bookings {
		if b.Status == domain.BookingStatusHeld && !b.HoldExpiresAt.IsZero() && b.HoldExpiresAt.Before(deadline) {
			expired = append(expired, b)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].HoldExpiresAt.Before(expired[j].HoldExpiresAt) })
	return expired, nil
}

var (
	_ FlightRepository  = (*MemoryFlightRepository)(nil)
	_ BookingRepository = (*MemoryBookingRepository)(nil)
)
