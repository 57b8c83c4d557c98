package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreWithFlight(t *testing.T, economy, business, first int) (*MemoryStore, *domain.Flight) {
	t.Helper()
	store := NewMemoryStore()
	flight := &domain.Flight{ID: 1, EconomySeats: economy, BusinessSeats: business, FirstSeats: first}
	require.NoError(t, store.CreateFlightSeats(context.Background(), flight))
	return store, flight
}

func TestClaimSeats_AllOrNothing(t *testing.T) {
	store, _ := newStoreWithFlight(t, 2, 0, 0)
	ctx := context.Background()

	_, err := store.ClaimSeats(ctx, 1, domain.ClassEconomy, 3, nil, "b1")
	assert.ErrorIs(t, err, domain.ErrInsufficientCapacity)

	// The failed claim must not have held anything.
	counts, err := store.CountByStatus(ctx, 1, domain.ClassEconomy)
	require.NoError(t, err)
	assert.Equal(t, Counts{Free: 2}, counts)

	seats, err := store.ClaimSeats(ctx, 1, domain.ClassEconomy, 2, nil, "b1")
	require.NoError(t, err)
	assert.Len(t, seats, 2)
	for _, seat := range seats {
		assert.Equal(t, domain.SeatStatusHeld, seat.Status)
		assert.Equal(t, "b1", seat.BookingID)
	}
}

func TestClaimSeats_RequestedSeatTaken(t *testing.T) {
	store, _ := newStoreWithFlight(t, 6, 0, 0)
	ctx := context.Background()

	first, err := store.ClaimSeats(ctx, 1, domain.ClassEconomy, 1, []string{"1A"}, "b1")
	require.NoError(t, err)
	require.Equal(t, "1A", first[0].Number)

	_, err = store.ClaimSeats(ctx, 1, domain.ClassEconomy, 2, []string{"1A", "1B"}, "b2")
	assert.ErrorIs(t, err, domain.ErrSeatUnavailable)

	// 1B must still be free after the failed pair claim.
	counts, err := store.CountByStatus(ctx, 1, domain.ClassEconomy)
	require.NoError(t, err)
	assert.Equal(t, Counts{Free: 5, Held: 1}, counts)
}

func TestClaimSeats_WrongClassRequested(t *testing.T) {
	store, _ := newStoreWithFlight(t, 6, 4, 0)
	ctx := context.Background()

	// 1A belongs to Business; claiming it as Economy is unavailable.
	_, err := store.ClaimSeats(ctx, 1, domain.ClassEconomy, 1, []string{"1A"}, "b1")
	assert.ErrorIs(t, err, domain.ErrSeatUnavailable)

	_, err = store.ClaimSeats(ctx, 1, domain.ClassEconomy, 1, []string{"99Z"}, "b1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConfirmSeats_OwnershipChecked(t *testing.T) {
	store, _ := newStoreWithFlight(t, 4, 0, 0)
	ctx := context.Background()

	seats, err := store.ClaimSeats(ctx, 1, domain.ClassEconomy, 2, nil, "b1")
	require.NoError(t, err)
	ids := []int64{seats[0].ID, seats[1].ID}

	assert.ErrorIs(t, store.ConfirmSeats(ctx, ids, "intruder"), domain.ErrInvalidTransition)
	require.NoError(t, store.ConfirmSeats(ctx, ids, "b1"))

	// Confirming released seats fails too.
	require.NoError(t, store.ReleaseSeats(ctx, ids, "b1"))
	assert.ErrorIs(t, store.ConfirmSeats(ctx, ids, "b1"), domain.ErrInvalidTransition)
}

func TestReleaseSeats_OwnershipChecked(t *testing.T) {
	store, _ := newStoreWithFlight(t, 2, 0, 0)
	ctx := context.Background()

	seats, err := store.ClaimSeats(ctx, 1, domain.ClassEconomy, 2, nil, "b1")
	require.NoError(t, err)
	ids := []int64{seats[0].ID, seats[1].ID}

	// A release naming the wrong booking must not free anything.
	require.NoError(t, store.ReleaseSeats(ctx, ids, "other"))
	counts, err := store.CountByStatus(ctx, 1, domain.ClassEconomy)
	require.NoError(t, err)
	assert.Equal(t, Counts{Held: 2}, counts)

	require.NoError(t, store.ReleaseSeats(ctx, ids, "b1"))
	counts, err = store.CountByStatus(ctx, 1, domain.ClassEconomy)
	require.NoError(t, err)
	assert.Equal(t, Counts{Free: 2}, counts)
}

func TestReleaseSeats_RestoresCapacity(t *testing.T) {
	store, _ := newStoreWithFlight(t, 3, 0, 0)
	ctx := context.Background()

	seats, err := store.ClaimSeats(ctx, 1, domain.ClassEconomy, 3, nil, "b1")
	require.NoError(t, err)

	require.NoError(t, store.ReleaseSeats(ctx, []int64{seats[0].ID, seats[1].ID, seats[2].ID}, "b1"))

	counts, err := store.CountByStatus(ctx, 1, domain.ClassEconomy)
	require.NoError(t, err)
	assert.Equal(t, Counts{Free: 3}, counts)

	owned, err := store.SeatsByBooking(ctx, "b1")
	require.NoError(t, err)
	assert.Empty(t, owned)
}

func TestClaimSeats_CapacityInvariantUnderConcurrency(t *testing.T) {
	const capacity = 10
	const claimers = 50

	store, _ := newStoreWithFlight(t, capacity, 0, 0)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := store.ClaimSeats(ctx, 1, domain.ClassEconomy, 1, nil, "booking")
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			if !errors.Is(err, domain.ErrInsufficientCapacity) {
				t.Errorf("claimer %d: unexpected error %v", n, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, capacity, succeeded, "exactly capacity claims may win")

	counts, err := store.CountByStatus(ctx, 1, domain.ClassEconomy)
	require.NoError(t, err)
	assert.Equal(t, capacity, counts.Held)
	assert.Equal(t, 0, counts.Free)
	assert.LessOrEqual(t, counts.Held+counts.Confirmed, capacity)
}

func TestCreateFlightSeats_OncePerFlight(t *testing.T) {
	store, flight := newStoreWithFlight(t, 2, 0, 0)
	assert.Error(t, store.CreateFlightSeats(context.Background(), flight))
}
