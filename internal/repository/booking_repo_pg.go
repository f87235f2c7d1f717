package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// BookingTx is the write surface available inside a booking transaction.
type BookingTx interface {
	GetFlight(ctx context.Context, id string) (*domain.Flight, error)
	InsertBooking(ctx context.Context, b *domain.Booking) error
	InsertTrip(ctx context.Context, t *domain.Trip) error
	InsertFlightSnapshot(ctx context.Context, s *domain.FlightSnapshot) error
}

type BookingRepository interface {
	// WithinTx commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx BookingTx) error) error
	ListByUser(ctx context.Context, userID string) ([]domain.Booking, error)
	GetByID(ctx context.Context, userID, id string) (*domain.Booking, error)
	UpdatePassenger(ctx context.Context, userID, id string, upd domain.PassengerUpdate) (*domain.Booking, error)
	SoftDelete(ctx context.Context, userID, id string) error
}

type PGBookingRepository struct {
	db DB
}

func NewBookingRepository(db DB) BookingRepository {
	return &PGBookingRepository{db: db}
}

func (r *PGBookingRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx BookingTx) error) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &pgBookingTx{tx: tx})
	})
}

type pgBookingTx struct {
	tx pgx.Tx
}

func (t *pgBookingTx) GetFlight(ctx context.Context, id string) (*domain.Flight, error) {
	return getFlight(ctx, t.tx, id, true)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (t *pgBookingTx) InsertBooking(ctx context.Context, b *domain.Booking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	err := t.tx.QueryRow(ctx, `INSERT INTO bookings (id, user_id, fullname, email, phone, trip_type, total_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		b.ID, b.UserID, b.Fullname, b.Email, nullable(b.Phone), string(b.TripType), b.TotalPrice).
		Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (t *pgBookingTx) InsertTrip(ctx context.Context, tr *domain.Trip) error {
	if tr.ID == "" {
		tr.ID = uuid.NewString()
	}
	err := t.tx.QueryRow(ctx, `INSERT INTO booking_trips (id, user_id, booking_id, trip_order, source_airport, destination_airport, departure_time, arrival_time, total_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		tr.ID, tr.UserID, tr.BookingID, tr.TripOrder, tr.SourceAirport, tr.DestinationAirport, tr.DepartureTime, tr.ArrivalTime, tr.TotalPrice).
		Scan(&tr.CreatedAt, &tr.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert trip %d: %w", tr.TripOrder, err)
	}
	return nil
}

func (t *pgBookingTx) InsertFlightSnapshot(ctx context.Context, s *domain.FlightSnapshot) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	err := t.tx.QueryRow(ctx, `INSERT INTO booking_flights (id, user_id, booking_id, booking_trip_id, flight_order, airline, flight_number, departure_time, arrival_time, source_airport, destination_airport, departure_date, arrival_date, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at`,
		s.ID, s.UserID, s.BookingID, s.TripID, s.FlightOrder, s.Airline, s.FlightNumber, s.DepartureTime, s.ArrivalTime,
		s.SourceAirport, s.DestinationAirport, s.DepartureDate, s.ArrivalDate, s.Price).
		Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert booking flight %s: %w", s.FlightNumber, err)
	}
	return nil
}

const bookingColumns = `id, user_id, fullname, email, COALESCE(phone, ''), trip_type, total_price, created_at, updated_at`

func scanBooking(row pgx.Row) (domain.Booking, error) {
	var b domain.Booking
	var tripType string
	err := row.Scan(&b.ID, &b.UserID, &b.Fullname, &b.Email, &b.Phone, &tripType, &b.TotalPrice, &b.CreatedAt, &b.UpdatedAt)
	b.TripType = domain.TripType(tripType)
	return b, err
}

func (r *PGBookingRepository) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE user_id=$1 AND `+notDeleted("")+`
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachTrips(ctx, bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, userID, id string) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE id=$1 AND user_id=$2 AND `+notDeleted(""), id, userID))
	if err != nil {
		return nil, notFound(err, "booking", id)
	}
	list := []domain.Booking{b}
	if err := r.attachTrips(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// attachTrips loads trips and flight snapshots for the given bookings with
// one query per level.
func (r *PGBookingRepository) attachTrips(ctx context.Context, bookings []domain.Booking) error {
	if len(bookings) == 0 {
		return nil
	}
	ids := make([]string, len(bookings))
	byID := make(map[string]*domain.Booking, len(bookings))
	for i := range bookings {
		ids[i] = bookings[i].ID
		bookings[i].Trips = []domain.Trip{}
		byID[bookings[i].ID] = &bookings[i]
	}

	flightsByTrip, err := r.loadSnapshots(ctx, ids)
	if err != nil {
		return err
	}

	rows, err := r.db.Query(ctx, `SELECT id, user_id, booking_id, trip_order, source_airport, destination_airport, departure_time, arrival_time, total_price, created_at, updated_at
		FROM booking_trips
		WHERE booking_id = ANY($1) AND `+notDeleted("")+`
		ORDER BY booking_id, trip_order`, ids)
	if err != nil {
		return fmt.Errorf("load trips: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t domain.Trip
		if err := rows.Scan(&t.ID, &t.UserID, &t.BookingID, &t.TripOrder, &t.SourceAirport, &t.DestinationAirport,
			&t.DepartureTime, &t.ArrivalTime, &t.TotalPrice, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return fmt.Errorf("scan trip: %w", err)
		}
		t.Flights = flightsByTrip[t.ID]
		if t.Flights == nil {
			t.Flights = []domain.FlightSnapshot{}
		}
		if b, ok := byID[t.BookingID]; ok {
			b.Trips = append(b.Trips, t)
		}
	}
	return rows.Err()
}

func (r *PGBookingRepository) loadSnapshots(ctx context.Context, bookingIDs []string) (map[string][]domain.FlightSnapshot, error) {
	rows, err := r.db.Query(ctx, `SELECT id, user_id, booking_id, booking_trip_id, flight_order, airline, flight_number, departure_time, arrival_time, source_airport, destination_airport, departure_date, arrival_date, price, created_at, updated_at
		FROM booking_flights
		WHERE booking_id = ANY($1) AND `+notDeleted("")+`
		ORDER BY booking_trip_id, flight_order`, bookingIDs)
	if err != nil {
		return nil, fmt.Errorf("load booking flights: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.FlightSnapshot)
	for rows.Next() {
		var s domain.FlightSnapshot
		if err := rows.Scan(&s.ID, &s.UserID, &s.BookingID, &s.TripID, &s.FlightOrder, &s.Airline, &s.FlightNumber,
			&s.DepartureTime, &s.ArrivalTime, &s.SourceAirport, &s.DestinationAirport, &s.DepartureDate, &s.ArrivalDate,
			&s.Price, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan booking flight: %w", err)
		}
		out[s.TripID] = append(out[s.TripID], s)
	}
	return out, rows.Err()
}

func (r *PGBookingRepository) UpdatePassenger(ctx context.Context, userID, id string, upd domain.PassengerUpdate) (*domain.Booking, error) {
	var phone *string
	setPhone := upd.Phone != nil
	if setPhone {
		phone = nullable(*upd.Phone)
	}

	var updatedID string
	err := r.db.QueryRow(ctx, `UPDATE bookings SET
			fullname = COALESCE($3, fullname),
			email = COALESCE($4, email),
			phone = CASE WHEN $5::boolean THEN $6 ELSE phone END,
			updated_at = now()
		WHERE id=$1 AND user_id=$2 AND `+notDeleted("")+`
		RETURNING id`,
		id, userID, upd.Fullname, upd.Email, setPhone, phone).Scan(&updatedID)
	if err != nil {
		return nil, notFound(err, "booking", id)
	}
	return r.GetByID(ctx, userID, updatedID)
}

// SoftDelete hides the whole aggregate in one transaction.
func (r *PGBookingRepository) SoftDelete(ctx context.Context, userID, id string) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE bookings SET deleted_at = now(), updated_at = now()
			WHERE id=$1 AND user_id=$2 AND `+notDeleted(""), id, userID)
		if err != nil {
			return fmt.Errorf("delete booking %s: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return &domain.NotFoundError{Resource: "booking", ID: id}
		}
		if _, err := tx.Exec(ctx, `UPDATE booking_trips SET deleted_at = now(), updated_at = now()
			WHERE booking_id=$1 AND `+notDeleted(""), id); err != nil {
			return fmt.Errorf("delete trips of %s: %w", id, err)
		}
		if _, err := tx.Exec(ctx, `UPDATE booking_flights SET deleted_at = now(), updated_at = now()
			WHERE booking_id=$1 AND `+notDeleted(""), id); err != nil {
			return fmt.Errorf("delete booking flights of %s: %w", id, err)
		}
		return nil
	})
}

var (
	_ BookingRepository = (*PGBookingRepository)(nil)
	_ BookingTx         = (*pgBookingTx)(nil)
)
