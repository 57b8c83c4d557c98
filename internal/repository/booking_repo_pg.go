package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	// UpdateStatus persists the booking only while the stored status
	// still equals from. A false return means another writer
	// transitioned the booking first.
	UpdateStatus(ctx context.Context, booking *domain.Booking, from domain.BookingStatus) (bool, error)
	ListHeldExpiredBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) *PGBookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, flight_id, class, fare_type, hold_type, passengers, seat_ids,
	status, hold_expires_at, fare, payment_ref, created_at, updated_at`

func (r *PGBookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	passengers, err := json.Marshal(b.Passengers)
	if err != nil {
		return fmt.Errorf("marshal passengers: %w", err)
	}
	fareJSON, err := json.Marshal(b.Fare)
	if err != nil {
		return fmt.Errorf("marshal fare: %w", err)
	}

	return r.db.QueryRow(ctx, `INSERT INTO bookings
		(id, flight_id, class, fare_type, hold_type, passengers, seat_ids, status, hold_expires_at, fare, payment_ref)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at, updated_at`,
		b.ID, b.FlightID, b.Class, b.FareType, b.HoldType, passengers, b.SeatIDs,
		b.Status, nullableTime(b.HoldExpiresAt), fareJSON, b.PaymentRef).
		Scan(&b.CreatedAt, &b.UpdatedAt)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: booking %s", domain.ErrNotFound, id)
		}
		return nil, err
	}
	return b, nil
}

func (r *PGBookingRepository) UpdateStatus(ctx context.Context, b *domain.Booking, from domain.BookingStatus) (bool, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE bookings
		SET status=$1, hold_expires_at=$2, payment_ref=$3, updated_at=now()
		WHERE id=$4 AND status=$5`,
		b.Status, nullableTime(b.HoldExpiresAt), b.PaymentRef, b.ID, from)
	if err != nil {
		return false, err
	}
	if cmd.RowsAffected() > 0 {
		return true, nil
	}
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id=$1)`, b.ID).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, fmt.Errorf("%w: booking %s", domain.ErrNotFound, b.ID)
	}
	return false, nil
}

func (r *PGBookingRepository) ListHeldExpiredBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE status=$1 AND hold_expires_at IS NOT NULL AND hold_expires_at < $2
		ORDER BY hold_expires_at`, domain.BookingStatusHeld, deadline)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expired []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		expired = append(expired, *b)
	}
	return expired, rows.Err()
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b          domain.Booking
		passengers []byte
		fareJSON   []byte
		expiresAt  *time.Time
	)
	if err := row.Scan(&b.ID, &b.FlightID, &b.Class, &b.FareType, &b.HoldType, &passengers, &b.SeatIDs,
		&b.Status, &expiresAt, &fareJSON, &b.PaymentRef, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(passengers, &b.Passengers); err != nil {
		return nil, fmt.Errorf("unmarshal passengers: %w", err)
	}
	if err := json.Unmarshal(fareJSON, &b.Fare); err != nil {
		return nil, fmt.Errorf("unmarshal fare: %w", err)
	}
	if expiresAt != nil {
		b.HoldExpiresAt = *expiresAt
	}
	return &b, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

var _ BookingRepository = (*PGBookingRepository)(nil)
