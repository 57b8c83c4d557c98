package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OmarMa7fouz/airline-reservation-system-sub000/config"
	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/cache"
	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/clock"
	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/email"
	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/holds"
	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/inventory"
	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/kafka"
	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/repository"
	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/service/reservation"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
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

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	flightRepo := repository.NewFlightRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	seatStore := inventory.NewPostgresStore(pool)
	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.FlightsCacheTTL)*time.Second)

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

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
	)

	sweeper := holds.NewSweeper(
		bookingRepo,
		reservationService,
		clock.NewSystem(),
		logger,
		cfg.Worker.SweepInterval(),
		holds.WithLeaderLock(redisCache),
	)

	if cfg.Worker.MetricsAddress != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Info("worker metrics listening", "address", cfg.Worker.MetricsAddress)
			if err := http.ListenAndServe(cfg.Worker.MetricsAddress, mux); err != nil {
				logger.Error("metrics server", "error", err)
			}
		}()
	}

	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	emailSender := email.NewSender(logger)
	go func() {
		if err := consumer.Consume(ctx, func(ctx context.Context, event kafka.BookingEvent) error {
			return emailSender.Send(ctx, event)
		}); err != nil {
			logger.Warn("consumer stopped", "error", err)
		}
	}()

	sweeper.Run(ctx)
}
