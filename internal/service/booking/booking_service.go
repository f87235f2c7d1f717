package booking

import (
	"context"
	"strings"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/Domenick1991/flightbooking/internal/validation"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, userID string, input CreateBookingInput) (*domain.Booking, error)
	ListBookings(ctx context.Context, userID string) ([]domain.Booking, error)
	GetBooking(ctx context.Context, userID, id string) (*domain.Booking, error)
	UpdatePassenger(ctx context.Context, userID, id string, input UpdatePassengerInput) (*domain.Booking, error)
	DeleteBooking(ctx context.Context, userID, id string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type FlightRef struct {
	FlightID    string `json:"flight_id" validate:"required"`
	FlightOrder int    `json:"flight_order" validate:"required,min=1"`
}

type TripInput struct {
	Flights []FlightRef `json:"flights" validate:"required,min=1,dive"`
}

type CreateBookingInput struct {
	Fullname string      `json:"fullname" validate:"required,min=2,max=200"`
	Email    string      `json:"email" validate:"required,email"`
	Phone    string      `json:"phone" validate:"omitempty,phone"`
	TripType string      `json:"trip_type" validate:"required,oneof=one_way round_trip multi_stop"`
	Trips    []TripInput `json:"trips" validate:"required,min=1,dive"`
}

type UpdatePassengerInput struct {
	Fullname *string `json:"fullname" validate:"omitempty,min=2,max=200"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone" validate:"omitempty,phone"`
}

type BookingService struct {
	bookings           repository.BookingRepository
	producer           Producer
	validate           *validator.Validate
	log                *zap.Logger
	now                func() time.Time
	bookingTopic       string
	notificationsTopic string
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithLogger(log *zap.Logger) BookingServiceOption {
	return func(s *BookingService) {
		s.log = log
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

// NewBookingService wires the use cases. producer may be nil, in which case
// no events are emitted.
func NewBookingService(
	bookings repository.BookingRepository,
	producer Producer,
	bookingTopic string,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:     bookings,
		producer:     producer,
		validate:     validation.New(),
		log:          zap.NewNop(),
		now:          time.Now,
		bookingTopic: bookingTopic,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateBooking resolves every referenced flight, prices the trips and stores
// the whole aggregate in one transaction. Lookups run before the first insert
// and hold the catalog rows until commit.
func (s *BookingService) CreateBooking(ctx context.Context, userID string, input CreateBookingInput) (*domain.Booking, error) {
	input.Fullname = strings.TrimSpace(input.Fullname)
	input.Email = strings.TrimSpace(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)
	if err := validation.Translate(s.validate.Struct(input)); err != nil {
		return nil, err
	}

	var created *domain.Booking
	err := s.bookings.WithinTx(ctx, func(ctx context.Context, tx repository.BookingTx) error {
		resolved := make(map[string]*domain.Flight)
		for _, trip := range input.Trips {
			for _, ref := range trip.Flights {
				if _, ok := resolved[ref.FlightID]; ok {
					continue
				}
				f, err := tx.GetFlight(ctx, ref.FlightID)
				if err != nil {
					return err
				}
				resolved[ref.FlightID] = f
			}
		}

		b := assemble(userID, input, resolved)
		if err := tx.InsertBooking(ctx, b); err != nil {
			return err
		}
		for i := range b.Trips {
			trip := &b.Trips[i]
			trip.BookingID = b.ID
			if err := tx.InsertTrip(ctx, trip); err != nil {
				return err
			}
			for j := range trip.Flights {
				snap := &trip.Flights[j]
				snap.BookingID = b.ID
				snap.TripID = trip.ID
				if err := tx.InsertFlightSnapshot(ctx, snap); err != nil {
					return err
				}
			}
		}
		created = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("booking created",
		zap.String("booking_id", created.ID),
		zap.String("user_id", userID),
		zap.Int("trips", len(created.Trips)),
		zap.Int64("total_price", created.TotalPrice),
	)
	s.publish(ctx, kafka.EventBookingCreated, created)
	return created, nil
}

// assemble builds the unsaved aggregate. Trip endpoints come from the first
// and last snapshot in input order; prices are plain sums.
func assemble(userID string, input CreateBookingInput, flights map[string]*domain.Flight) *domain.Booking {
	b := &domain.Booking{
		UserID:   userID,
		Fullname: input.Fullname,
		Email:    input.Email,
		Phone:    input.Phone,
		TripType: domain.TripType(input.TripType),
		Trips:    make([]domain.Trip, 0, len(input.Trips)),
	}

	for i, in := range input.Trips {
		trip := domain.Trip{
			UserID:    userID,
			TripOrder: i + 1,
			Flights:   make([]domain.FlightSnapshot, 0, len(in.Flights)),
		}
		for _, ref := range in.Flights {
			snap := domain.SnapshotOf(*flights[ref.FlightID], ref.FlightOrder)
			snap.UserID = userID
			trip.Flights = append(trip.Flights, snap)
			trip.TotalPrice += snap.Price
		}
		first, last := trip.Flights[0], trip.Flights[len(trip.Flights)-1]
		trip.SourceAirport = first.SourceAirport
		trip.DepartureTime = first.DepartureTime
		trip.DestinationAirport = last.DestinationAirport
		trip.ArrivalTime = last.ArrivalTime

		b.TotalPrice += trip.TotalPrice
		b.Trips = append(b.Trips, trip)
	}
	return b
}

func (s *BookingService) ListBookings(ctx context.Context, userID string) ([]domain.Booking, error) {
	return s.bookings.ListByUser(ctx, userID)
}

func (s *BookingService) GetBooking(ctx context.Context, userID, id string) (*domain.Booking, error) {
	return s.bookings.GetByID(ctx, userID, id)
}

func (s *BookingService) UpdatePassenger(ctx context.Context, userID, id string, input UpdatePassengerInput) (*domain.Booking, error) {
	upd := domain.PassengerUpdate{
		Fullname: trimmed(input.Fullname),
		Email:    trimmed(input.Email),
		Phone:    trimmed(input.Phone),
	}
	if upd.Empty() {
		return nil, domain.NewValidationError("body", "at least one of fullname, email, phone is required")
	}
	// An empty phone clears the stored one.
	check := UpdatePassengerInput(upd)
	if check.Phone != nil && *check.Phone == "" {
		check.Phone = nil
	}
	if err := validation.Translate(s.validate.Struct(check)); err != nil {
		return nil, err
	}

	updated, err := s.bookings.UpdatePassenger(ctx, userID, id, upd)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, kafka.EventBookingUpdated, updated)
	return updated, nil
}

func (s *BookingService) DeleteBooking(ctx context.Context, userID, id string) error {
	current, err := s.bookings.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.bookings.SoftDelete(ctx, userID, id); err != nil {
		return err
	}
	s.log.Info("booking deleted", zap.String("booking_id", id), zap.String("user_id", userID))
	s.publish(ctx, kafka.EventBookingDeleted, current)
	return nil
}

// publish runs after commit. A broker failure is logged and never surfaces
// to the caller.
func (s *BookingService) publish(ctx context.Context, eventType string, b *domain.Booking) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.NewBookingEvent(eventType, b, s.now())
	topics := []string{s.bookingTopic}
	if s.notificationsTopic != "" {
		topics = append(topics, s.notificationsTopic)
	}
	for _, topic := range topics {
		if err := s.producer.Publish(ctx, topic, b.ID, event); err != nil {
			s.log.Warn("failed to publish booking event",
				zap.String("type", eventType),
				zap.String("topic", topic),
				zap.String("booking_id", b.ID),
				zap.Error(err),
			)
		}
	}
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}

var _ BookingUseCase = (*BookingService)(nil)
