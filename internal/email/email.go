package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/Domenick1991/flightbooking/internal/kafka"
	"go.uber.org/zap"
)

// Sender delivers booking notifications. Delivery is a structured log line;
// there is no mail transport in this deployment.
type Sender struct {
	log *zap.Logger
}

func NewSender(log *zap.Logger) *Sender {
	return &Sender{log: log}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	subject, body := Compose(event)
	s.log.Info("send email",
		zap.String("to", event.Email),
		zap.String("subject", subject),
		zap.String("booking_id", event.BookingID),
		zap.String("body", body),
	)
	return nil
}

func Compose(event kafka.BookingEvent) (string, string) {
	var subject string
	switch event.Type {
	case kafka.EventBookingCreated:
		subject = "Your booking is confirmed"
	case kafka.EventBookingUpdated:
		subject = "Your booking was updated"
	case kafka.EventBookingDeleted:
		subject = "Your booking was cancelled"
	default:
		subject = "Booking notification"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n", event.Fullname)
	fmt.Fprintf(&b, "Booking %s (%s), total %d JPY\n", event.BookingID, event.TripType, event.TotalPrice)
	for _, t := range event.Trips {
		fmt.Fprintf(&b, "Trip %d: %s -> %s, departs %s, flights %s\n",
			t.Order, t.Source, t.Destination, t.DepartureTime.Format("2006-01-02 15:04"), strings.Join(t.Flights, ", "))
	}
	return subject, b.String()
}
