package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps seat state in Postgres. Claims run inside a
// transaction with row locks on the candidate seats, so concurrent
// claims for the same flight serialize on the rows themselves.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateFlightSeats(ctx context.Context, flight *domain.Flight) error {
	plan := domain.BuildSeatPlan(flight)

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, seat := range plan {
		if _, err := tx.Exec(ctx, `INSERT INTO seats (flight_id, number, class, status)
			VALUES ($1, $2, $3, $4)`, seat.FlightID, seat.Number, seat.Class, seat.Status); err != nil {
			return fmt.Errorf("insert seat %s: %w", seat.Number, err)
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) ClaimSeats(ctx context.Context, flightID int64, class domain.CabinClass, count int, requested []string, bookingID string) ([]domain.Seat, error) {
	if count <= 0 {
		return nil, fmt.Errorf("claim count must be positive, got %d", count)
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var candidates []domain.Seat
	if len(requested) > 0 {
		if len(requested) != count {
			return nil, fmt.Errorf("requested %d seat numbers for %d seats", len(requested), count)
		}
		rows, err := tx.Query(ctx, `SELECT id, flight_id, number, class, status, COALESCE(booking_id, '')
			FROM seats WHERE flight_id = $1 AND number = ANY($2)
			ORDER BY id FOR UPDATE`, flightID, requested)
		if err != nil {
			return nil, err
		}
		candidates, err = scanSeats(rows)
		if err != nil {
			return nil, err
		}
		if len(candidates) != len(requested) {
			return nil, fmt.Errorf("%w: unknown or duplicate seat number", domain.ErrNotFound)
		}
		for _, seat := range candidates {
			if seat.Class != class || seat.Status != domain.SeatStatusFree {
				return nil, fmt.Errorf("%w: seat %s", domain.ErrSeatUnavailable, seat.Number)
			}
		}
	} else {
		rows, err := tx.Query(ctx, `SELECT id, flight_id, number, class, status, COALESCE(booking_id, '')
			FROM seats WHERE flight_id = $1 AND class = $2 AND status = $3
			ORDER BY id LIMIT $4 FOR UPDATE`, flightID, class, domain.SeatStatusFree, count)
		if err != nil {
			return nil, err
		}
		candidates, err = scanSeats(rows)
		if err != nil {
			return nil, err
		}
		if len(candidates) < count {
			return nil, fmt.Errorf("%w: %d free %s seats, need %d", domain.ErrInsufficientCapacity, len(candidates), class, count)
		}
	}

	ids := seatIDs(candidates)
	if _, err := tx.Exec(ctx, `UPDATE seats SET status = $1, booking_id = $2 WHERE id = ANY($3)`,
		domain.SeatStatusHeld, bookingID, ids); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	for i := range candidates {
		candidates[i].Status = domain.SeatStatusHeld
		candidates[i].BookingID = bookingID
	}
	return candidates, nil
}

func (s *PostgresStore) ConfirmSeats(ctx context.Context, seatIDs []int64, bookingID string) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `UPDATE seats SET status = $1
		WHERE id = ANY($2) AND status = $3 AND booking_id = $4`,
		domain.SeatStatusConfirmed, seatIDs, domain.SeatStatusHeld, bookingID)
	if err != nil {
		return err
	}
	if int(cmd.RowsAffected()) != len(seatIDs) {
		// Rollback keeps the transition all-or-nothing.
		return fmt.Errorf("%w: %d of %d seats held by booking %s", domain.ErrInvalidTransition, cmd.RowsAffected(), len(seatIDs), bookingID)
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) ReleaseSeats(ctx context.Context, seatIDs []int64, bookingID string) error {
	_, err := s.db.Exec(ctx, `UPDATE seats SET status = $1, booking_id = NULL
		WHERE id = ANY($2) AND booking_id = $3`,
		domain.SeatStatusFree, seatIDs, bookingID)
	return err
}

func (s *PostgresStore) SeatsByBooking(ctx context.Context, bookingID string) ([]domain.Seat, error) {
	rows, err := s.db.Query(ctx, `SELECT id, flight_id, number, class, status, COALESCE(booking_id, '')
		FROM seats WHERE booking_id = $1 ORDER BY id`, bookingID)
	if err != nil {
		return nil, err
	}
	return scanSeats(rows)
}

func (s *PostgresStore) CountByStatus(ctx context.Context, flightID int64, class domain.CabinClass) (Counts, error) {
	rows, err := s.db.Query(ctx, `SELECT status, COUNT(*) FROM seats
		WHERE flight_id = $1 AND class = $2 GROUP BY status`, flightID, class)
	if err != nil {
		return Counts{}, err
	}
	defer rows.Close()

	var c Counts
	found := false
	for rows.Next() {
		var status domain.SeatStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return Counts{}, err
		}
		found = true
		switch status {
		case domain.SeatStatusFree:
			c.Free = n
		case domain.SeatStatusHeld:
			c.Held = n
		case domain.SeatStatusConfirmed:
			c.Confirmed = n
		}
	}
	if err := rows.Err(); err != nil {
		return Counts{}, err
	}
	if !found {
		var exists bool
		if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM flights WHERE id = $1)`, flightID).Scan(&exists); err != nil {
			return Counts{}, err
		}
		if !exists {
			return Counts{}, fmt.Errorf("%w: flight %d", domain.ErrNotFound, flightID)
		}
	}
	return c, nil
}

func scanSeats(rows pgx.Rows) ([]domain.Seat, error) {
	defer rows.Close()

	var seats []domain.Seat
	for rows.Next() {
		var seat domain.Seat
		if err := rows.Scan(&seat.ID, &seat.FlightID, &seat.Number, &seat.Class, &seat.Status, &seat.BookingID); err != nil {
			return nil, err
		}
		seats = append(seats, seat)
	}
	if err := rows.Err(); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return seats, nil
}

func seatIDs(seats []domain.Seat) []int64 {
	ids := make([]int64, len(seats))
	for i, seat := range seats {
		ids[i] = seat.ID
	}
	return ids
}

var _ Store = (*PostgresStore)(nil)
