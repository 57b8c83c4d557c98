package inventory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/domain"
)

// MemoryStore keeps seat state in process, one mutex per flight so
// unrelated flights claim fully in parallel.
type MemoryStore struct {
	mu      sync.RWMutex
	flights map[int64]*flightSeats
	nextID  int64
}

type flightSeats struct {
	mu    sync.Mutex
	seats []*domain.Seat // stable cabin order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{flights: make(map[int64]*flightSeats)}
}

func (s *MemoryStore) CreateFlightSeats(ctx context.Context, flight *domain.Flight) error {
	plan := domain.BuildSeatPlan(flight)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.flights[flight.ID]; ok {
		return fmt.Errorf("seats for flight %d already created", flight.ID)
	}

	fs := &flightSeats{seats: make([]*domain.Seat, 0, len(plan))}
	for i := range plan {
		s.nextID++
		seat := plan[i]
		seat.ID = s.nextID
		fs.seats = append(fs.seats, &seat)
	}
	s.flights[flight.ID] = fs
	return nil
}

func (s *MemoryStore) flight(flightID int64) (*flightSeats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fs, ok := s.flights[flightID]
	if !ok {
		return nil, fmt.Errorf("%w: flight %d", domain.ErrNotFound, flightID)
	}
	return fs, nil
}

func (s *MemoryStore) ClaimSeats(ctx context.Context, flightID int64, class domain.CabinClass, count int, requested []string, bookingID string) ([]domain.Seat, error) {
	if count <= 0 {
		return nil, fmt.Errorf("claim count must be positive, got %d", count)
	}
	fs, err := s.flight(flightID)
	if err != nil {
		return nil, err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	var candidates []*domain.Seat
	if len(requested) > 0 {
		if len(requested) != count {
			return nil, fmt.Errorf("requested %d seat numbers for %d seats", len(requested), count)
		}
		byNumber := make(map[string]*domain.Seat, len(fs.seats))
		for _, seat := range fs.seats {
			byNumber[seat.Number] = seat
		}
		seen := make(map[string]bool, len(requested))
		for _, number := range requested {
			if seen[number] {
				return nil, fmt.Errorf("duplicate seat number %s", number)
			}
			seen[number] = true
			seat, ok := byNumber[number]
			if !ok {
				return nil, fmt.Errorf("%w: seat %s", domain.ErrNotFound, number)
			}
			if seat.Class != class {
				return nil, fmt.Errorf("%w: seat %s is %s", domain.ErrSeatUnavailable, number, seat.Class)
			}
			if seat.Status != domain.SeatStatusFree {
				return nil, fmt.Errorf("%w: seat %s", domain.ErrSeatUnavailable, number)
			}
			candidates = append(candidates, seat)
		}
	} else {
		for _, seat := range fs.seats {
			if seat.Class == class && seat.Status == domain.SeatStatusFree {
				candidates = append(candidates, seat)
				if len(candidates) == count {
					break
				}
			}
		}
		if len(candidates) < count {
			return nil, fmt.Errorf("%w: %d free %s seats, need %d", domain.ErrInsufficientCapacity, len(candidates), class, count)
		}
	}

	// All candidates verified Free under the flight lock; flip them.
	claimed := make([]domain.Seat, 0, count)
	for _, seat := range candidates {
		seat.Status = domain.SeatStatusHeld
		seat.BookingID = bookingID
		claimed = append(claimed, *seat)
	}
	return claimed, nil
}

func (s *MemoryStore) ConfirmSeats(ctx context.Context, seatIDs []int64, bookingID string) error {
	return s.mutateSeats(seatIDs, func(seat *domain.Seat) error {
		if seat.Status != domain.SeatStatusHeld || seat.BookingID != bookingID {
			return fmt.Errorf("%w: seat %s not held by booking %s", domain.ErrInvalidTransition, seat.Number, bookingID)
		}
		return nil
	}, func(seat *domain.Seat) {
		seat.Status = domain.SeatStatusConfirmed
	})
}

func (s *MemoryStore) ReleaseSeats(ctx context.Context, seatIDs []int64, bookingID string) error {
	return s.mutateSeats(seatIDs, func(seat *domain.Seat) error {
		return nil
	}, func(seat *domain.Seat) {
		if seat.BookingID != bookingID {
			return
		}
		seat.Status = domain.SeatStatusFree
		seat.BookingID = ""
	})
}

// mutateSeats applies change to every seat after check passes on all
// of them, holding each affected flight's lock for the whole pass so
// the transition is all-or-nothing.
func (s *MemoryStore) mutateSeats(seatIDs []int64, check func(*domain.Seat) error, change func(*domain.Seat)) error {
	s.mu.RLock()
	targets := make([]*domain.Seat, 0, len(seatIDs))
	locks := make(map[int64]*flightSeats)
	for _, id := range seatIDs {
		var found *domain.Seat
		for flightID, fs := range s.flights {
			for _, seat := range fs.seats {
				if seat.ID == id {
					found = seat
					locks[flightID] = fs
					break
				}
			}
			if found != nil {
				break
			}
		}
		if found == nil {
			s.mu.RUnlock()
			return fmt.Errorf("%w: seat id %d", domain.ErrNotFound, id)
		}
		targets = append(targets, found)
	}
	s.mu.RUnlock()

	// Lock flights in stable order to avoid deadlock with concurrent
	// multi-flight mutations.
	ids := make([]int64, 0, len(locks))
	for id := range locks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		locks[id].mu.Lock()
	}
	defer func() {
		for _, id := range ids {
			locks[id].mu.Unlock()
		}
	}()

	for _, seat := range targets {
		if err := check(seat); err != nil {
			return err
		}
	}
	for _, seat := range targets {
		change(seat)
	}
	return nil
}

func (s *MemoryStore) SeatsByBooking(ctx context.Context, bookingID string) ([]domain.Seat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Seat
	for _, fs := range s.flights {
		fs.mu.Lock()
		for _, seat := range fs.seats {
			if seat.BookingID == bookingID {
				out = append(out, *seat)
			}
		}
		fs.mu.Unlock()
	}
	return out, nil
}

func (s *MemoryStore) CountByStatus(ctx context.Context, flightID int64, class domain.CabinClass) (Counts, error) {
	fs, err := s.flight(flightID)
	if err != nil {
		return Counts{}, err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	var c Counts
	for _, seat := range fs.seats {
		if seat.Class != class {
			continue
		}
		switch seat.Status {
		case domain.SeatStatusFree:
			c.Free++
		case domain.SeatStatusHeld:
			c.Held++
		case domain.SeatStatusConfirmed:
			c.Confirmed++
		}
	}
	return c, nil
}

var _ Store = (*MemoryStore)(nil)
