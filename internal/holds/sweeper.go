// Package holds owns the hold-expiry lifecycle: the periodic sweep
// that moves lapsed Held bookings to Expired and frees their seats.
package holds

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/clock"
	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bookingsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "holds_sweep_bookings_expired_total",
		Help: "Held bookings moved to Expired by the sweep",
	})
	sweepErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "holds_sweep_errors_total",
		Help: "Per-booking failures during sweeps; retried next tick",
	})
	sweepsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "holds_sweeps_skipped_total",
		Help: "Ticks skipped because a sweep was still in flight",
	})
)

type BookingSource interface {
	ListHeldExpiredBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error)
}

type Expirer interface {
	ExpireBooking(ctx context.Context, bookingID string) error
}

// LeaderLock elects one sweep owner when several workers run. Nil
// means this process always sweeps.
type LeaderLock interface {
	AcquireSweepLock(ctx context.Context, ttl time.Duration) (bool, error)
	ReleaseSweepLock(ctx context.Context) error
}

type Sweeper struct {
	bookings BookingSource
	expirer  Expirer
	leader   LeaderLock
	clock    clock.Clock
	log      *slog.Logger
	interval time.Duration
	running  atomic.Bool
}

type SweeperOption func(*Sweeper)

func WithLeaderLock(lock LeaderLock) SweeperOption {
	return func(s *Sweeper) {
		s.leader = lock
	}
}

func NewSweeper(bookings BookingSource, expirer Expirer, clk clock.Clock, log *slog.Logger, interval time.Duration, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{
		bookings: bookings,
		expirer:  expirer,
		clock:    clk,
		log:      log,
		interval: interval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps on a fixed interval until ctx is canceled. A tick that
// fires while the previous sweep is still in flight is skipped, so two
// sweeps never run concurrently.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("hold sweeper started", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("hold sweeper stopped")
			return
		case <-ticker.C:
			if expired, err := s.Sweep(ctx); err != nil {
				s.log.Error("sweep failed", "error", err)
			} else if expired > 0 {
				s.log.Info("expired bookings", "count", expired)
			}
		}
	}
}

// Sweep runs one expiry pass. Each booking is processed independently:
// a failure is counted, logged, and retried on the next tick without
// aborting the batch.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	if !s.running.CompareAndSwap(false, true) {
		sweepsSkipped.Inc()
		s.log.Warn("sweep still in flight, skipping tick")
		return 0, nil
	}
	defer s.running.Store(false)

	if s.leader != nil {
		ok, err := s.leader.AcquireSweepLock(ctx, s.interval)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, nil
		}
		defer func() {
			if err := s.leader.ReleaseSweepLock(ctx); err != nil {
				s.log.Warn("release sweep lock", "error", err)
			}
		}()
	}

	due, err := s.bookings.ListHeldExpiredBefore(ctx, s.clock.Now())
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, booking := range due {
		if err := s.expirer.ExpireBooking(ctx, booking.ID); err != nil {
			sweepErrors.Inc()
			s.log.Error("expire booking", "booking_id", booking.ID, "error", err)
			continue
		}
		bookingsExpired.Inc()
		expired++
	}
	return expired, nil
}
