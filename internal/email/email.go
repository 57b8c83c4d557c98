// Package email is the notification collaborator fed from the
// notifications topic. The reservation core itself never sends mail.
package email

import (
	"context"
	"log/slog"

	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/kafka"
)

type Sender struct {
	log *slog.Logger
}

func NewSender(log *slog.Logger) *Sender {
	return &Sender{log: log}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	s.log.Info("send booking email",
		"to", event.Email,
		"event", event.Type,
		"booking_id", event.BookingID,
		"flight_id", event.FlightID,
		"amount", event.Amount,
	)
	return nil
}
