package email

import (
	"context"
	"fmt"

	"github.com/Domenick1991/skyclient/internal/kafka"
	"github.com/Domenick1991/skyclient/internal/logger"
)

// Sender turns booking events into customer notifications. Delivery is a
// structured log line; no mail transport is configured.
type Sender struct {
	logger logger.Logger
}

func NewSender(log logger.Logger) *Sender {
	return &Sender{logger: log.WithFields(map[string]interface{}{"component": "email"})}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	if event.Email == "" {
		return nil
	}
	s.logger.Info("booking notification", map[string]interface{}{
		"to":      event.Email,
		"subject": Subject(event),
	})
	return nil
}

func Subject(event kafka.BookingEvent) string {
	switch event.Type {
	case kafka.BookingCreated:
		return fmt.Sprintf("Booking %s confirmed: flight %s for %s", event.BookingNr, event.FlightNr, event.PassengerName)
	case kafka.BookingCancelled:
		return fmt.Sprintf("Booking %s cancelled", event.BookingNr)
	case kafka.BookingDeleted:
		return fmt.Sprintf("Booking %s removed from your account", event.BookingNr)
	default:
		return fmt.Sprintf("Update on booking %s", event.BookingNr)
	}
}
