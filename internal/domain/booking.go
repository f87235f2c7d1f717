package domain

import "time"

type TripType string

const (
	TripTypeOneWay    TripType = "one_way"
	TripTypeRoundTrip TripType = "round_trip"
	TripTypeMultiStop TripType = "multi_stop"
)

func (t TripType) Valid() bool {
	switch t {
	case TripTypeOneWay, TripTypeRoundTrip, TripTypeMultiStop:
		return true
	}
	return false
}

// Booking is the aggregate root. Trips are ordered by TripOrder and each
// trip's Flights by FlightOrder.
type Booking struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Fullname   string     `json:"fullname"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone,omitempty"`
	TripType   TripType   `json:"trip_type"`
	TotalPrice int64      `json:"total_price"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
	Trips      []Trip     `json:"trips"`
}

type Trip struct {
	ID                 string           `json:"id"`
	UserID             string           `json:"user_id"`
	BookingID          string           `json:"booking_id"`
	TripOrder          int              `json:"trip_order"`
	SourceAirport      string           `json:"source_airport"`
	DestinationAirport string           `json:"destination_airport"`
	DepartureTime      time.Time        `json:"departure_time"`
	ArrivalTime        time.Time        `json:"arrival_time"`
	TotalPrice         int64            `json:"total_price"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
	Flights            []FlightSnapshot `json:"flights"`
}

// FlightSnapshot is a copy of a catalog flight taken at booking time.
type FlightSnapshot struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	BookingID          string    `json:"booking_id"`
	TripID             string    `json:"booking_trip_id"`
	FlightOrder        int       `json:"flight_order"`
	Airline            string    `json:"airline"`
	FlightNumber       string    `json:"flight_number"`
	DepartureTime      time.Time `json:"departure_time"`
	ArrivalTime        time.Time `json:"arrival_time"`
	SourceAirport      string    `json:"source_airport"`
	DestinationAirport string    `json:"destination_airport"`
	DepartureDate      time.Time `json:"departure_date"`
	ArrivalDate        time.Time `json:"arrival_date"`
	Price              int64     `json:"price"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// SnapshotOf copies the descriptive fields of a catalog flight.
func SnapshotOf(f Flight, order int) FlightSnapshot {
	return FlightSnapshot{
		FlightOrder:        order,
		Airline:            f.Airline,
		FlightNumber:       f.FlightNumber,
		DepartureTime:      f.DepartureTime,
		ArrivalTime:        f.ArrivalTime,
		SourceAirport:      f.Source,
		DestinationAirport: f.Destination,
		DepartureDate:      f.DepartureDate,
		ArrivalDate:        f.ArrivalDate,
		Price:              f.Price,
	}
}

// PassengerUpdate carries the editable passenger fields. Nil means unchanged.
type PassengerUpdate struct {
	Fullname *string
	Email    *string
	Phone    *string
}

func (u PassengerUpdate) Empty() bool {
	return u.Fullname == nil && u.Email == nil && u.Phone == nil
}
