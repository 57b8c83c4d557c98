package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OmarMa7fouz/airline-reservation-system-sub000/api"
	"github.com/OmarMa7fouz/airline-reservation-system-sub000/config"
	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/bootstrap"
	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/cache"
	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/clock"
	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/holds"
	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/inventory"
	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/kafka"
	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/repository"
	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/service/flights"
	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/service/reservation"
	"github.com/OmarMa7fouz/airline-reservation-system-sub000/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		flightRepo  repository.FlightRepository
		bookingRepo repository.BookingRepository
		seatStore   inventory.Store
		inProcess   bool
	)
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		flightRepo = repository.NewMemoryFlightRepository()
		bookingRepo = repository.NewMemoryBookingRepository()
		seatStore = inventory.NewMemoryStore()
		inProcess = true
	default:
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			logger.Error("connect postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := migrations.Apply(ctx, pool); err != nil {
			logger.Error("apply migrations", "error", err)
			os.Exit(1)
		}

		flightRepo = repository.NewFlightRepository(pool)
		bookingRepo = repository.NewBookingRepository(pool)
		seatStore = inventory.NewPostgresStore(pool)
	}

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.FlightsCacheTTL)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	flightService := flights.NewFlightService(flightRepo, seatStore, redisCache, logger)
	reservationService := reservation.NewReservationService(
		bookingRepo,
		flightRepo,
		seatStore,
		producer,
		clock.NewSystem(),
		logger,
		cfg.Kafka.BookingEventsTopic,
		reservation.HoldDurations{
			Standard:  cfg.Booking.HoldTTL(),
			PriceHold: cfg.Booking.PriceHoldTTL(),
		},
		reservation.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		reservation.WithClaimRetries(cfg.Booking.ClaimRetries, time.Duration(cfg.Booking.ClaimBackoffMillis)*time.Millisecond),
	)

	// Memory state is invisible to the worker binary, so the expiry
	// sweep runs in-process with it.
	if inProcess {
		sweeper := holds.NewSweeper(bookingRepo, reservationService, clock.NewSystem(), logger, cfg.Worker.SweepInterval())
		go sweeper.Run(ctx)
	}

	flightHandler := api.NewFlightHandler(flightService)
	bookingHandler := api.NewBookingHandler(reservationService)

	if err := bootstrap.Run(ctx, cfg, flightHandler, bookingHandler); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
