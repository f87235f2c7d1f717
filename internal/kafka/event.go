package kafka

import (
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
)

const (
	EventBookingCreated = "booking_created"
	EventBookingUpdated = "booking_updated"
	EventBookingDeleted = "booking_deleted"
)

type TripSummary struct {
	Order         int       `json:"order"`
	Source        string    `json:"source"`
	Destination   string    `json:"destination"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	Flights       []string  `json:"flights"`
}

type BookingEvent struct {
	Type       string        `json:"type"`
	BookingID  string        `json:"booking_id"`
	UserID     string        `json:"user_id"`
	Fullname   string        `json:"fullname"`
	Email      string        `json:"email"`
	TripType   string        `json:"trip_type"`
	TotalPrice int64         `json:"total_price"`
	Trips      []TripSummary `json:"trips,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

func NewBookingEvent(eventType string, b *domain.Booking, at time.Time) BookingEvent {
	event := BookingEvent{
		Type:       eventType,
		BookingID:  b.ID,
		UserID:     b.UserID,
		Fullname:   b.Fullname,
		Email:      b.Email,
		TripType:   string(b.TripType),
		TotalPrice: b.TotalPrice,
		OccurredAt: at.UTC(),
	}
	for _, t := range b.Trips {
		summary := TripSummary{
			Order:         t.TripOrder,
			Source:        t.SourceAirport,
			Destination:   t.DestinationAirport,
			DepartureTime: t.DepartureTime,
			ArrivalTime:   t.ArrivalTime,
		}
		for _, f := range t.Flights {
			summary.Flights = append(summary.Flights, f.FlightNumber)
		}
		event.Trips = append(event.Trips, summary)
	}
	return event
}
