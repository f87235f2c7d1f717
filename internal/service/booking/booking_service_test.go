package booking

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeTx keeps inserts pending until the enclosing WithinTx commits.
type fakeTx struct {
	flights  map[string]*domain.Flight
	lookups  []string
	pending  []string
	failOn   string
	inserted int
}

func (f *fakeTx) GetFlight(_ context.Context, id string) (*domain.Flight, error) {
	f.lookups = append(f.lookups, id)
	fl, ok := f.flights[id]
	if !ok {
		return nil, &domain.NotFoundError{Resource: "flight", ID: id}
	}
	cp := *fl
	return &cp, nil
}

func (f *fakeTx) record(kind, id string) error {
	if kind == f.failOn {
		return fmt.Errorf("insert %s: boom", kind)
	}
	f.inserted++
	f.pending = append(f.pending, kind+":"+id)
	return nil
}

func (f *fakeTx) InsertBooking(_ context.Context, b *domain.Booking) error {
	b.ID = "b1"
	return f.record("booking", b.ID)
}

func (f *fakeTx) InsertTrip(_ context.Context, t *domain.Trip) error {
	t.ID = fmt.Sprintf("t%d", t.TripOrder)
	return f.record("trip", t.ID)
}

func (f *fakeTx) InsertFlightSnapshot(_ context.Context, s *domain.FlightSnapshot) error {
	s.ID = s.TripID + "-" + s.FlightNumber
	return f.record("flight", s.ID)
}

type MockBookingRepository struct {
	mock.Mock
	tx        *fakeTx
	committed []string
}

func (m *MockBookingRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.BookingTx) error) error {
	m.Called(ctx)
	if err := fn(ctx, m.tx); err != nil {
		m.tx.pending = nil
		return err
	}
	m.committed = append(m.committed, m.tx.pending...)
	m.tx.pending = nil
	return nil
}

func (m *MockBookingRepository) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, userID, id string) (*domain.Booking, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) UpdatePassenger(ctx context.Context, userID, id string, upd domain.PassengerUpdate) (*domain.Booking, error) {
	args := m.Called(ctx, userID, id, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) SoftDelete(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

func at(h, m int) time.Time {
	return time.Date(2025, 1, 15, h, m, 0, 0, time.UTC)
}

func catalog() map[string]*domain.Flight {
	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	mk := func(id, number, src, dst string, dep, arr time.Time, price int64) *domain.Flight {
		return &domain.Flight{ID: id, Airline: "ANA", FlightNumber: number, Source: src, Destination: dst,
			DepartureTime: dep, ArrivalTime: arr, DepartureDate: day, ArrivalDate: day, Price: price}
	}
	return map[string]*domain.Flight{
		"ab": mk("ab", "NH101", "Tokyo (NRT)", "Osaka (KIX)", at(8, 0), at(9, 30), 12000),
		"bc": mk("bc", "NH205", "Osaka (KIX)", "Fukuoka (FUK)", at(11, 0), at(12, 15), 9000),
		"ba": mk("ba", "JL22", "Osaka (KIX)", "Tokyo (NRT)", at(18, 0), at(19, 20), 11500),
	}
}

func newService(t *testing.T, opts ...BookingServiceOption) (*BookingService, *MockBookingRepository, *MockProducer) {
	t.Helper()
	repo := &MockBookingRepository{tx: &fakeTx{flights: catalog()}}
	producer := &MockProducer{}
	opts = append([]BookingServiceOption{WithClock(func() time.Time { return at(7, 0) })}, opts...)
	return NewBookingService(repo, producer, "booking-events", opts...), repo, producer
}

func validInput() CreateBookingInput {
	return CreateBookingInput{
		Fullname: "Taro Yamada",
		Email:    "taro@example.com",
		Phone:    "+81 90-1234-5678",
		TripType: "one_way",
		Trips: []TripInput{{Flights: []FlightRef{
			{FlightID: "ab", FlightOrder: 1},
			{FlightID: "bc", FlightOrder: 2},
		}}},
	}
}

func TestBookingService_CreateBooking_ChainedFlights(t *testing.T) {
	service, repo, producer := newService(t)
	ctx := context.Background()

	repo.On("WithinTx", ctx).Return().Once()
	producer.On("Publish", ctx, "booking-events", "b1", mock.AnythingOfType("kafka.BookingEvent")).Return(nil).Once()

	b, err := service.CreateBooking(ctx, "user", validInput())
	require.NoError(t, err)

	require.Len(t, b.Trips, 1)
	trip := b.Trips[0]
	assert.Equal(t, "Tokyo (NRT)", trip.SourceAirport)
	assert.Equal(t, "Fukuoka (FUK)", trip.DestinationAirport)
	assert.Equal(t, at(8, 0), trip.DepartureTime)
	assert.Equal(t, at(12, 15), trip.ArrivalTime)
	assert.Equal(t, int64(21000), trip.TotalPrice)
	assert.Equal(t, int64(21000), b.TotalPrice)
	assert.Equal(t, 1, trip.TripOrder)
	assert.Equal(t, "b1", trip.BookingID)

	require.Len(t, trip.Flights, 2)
	assert.Equal(t, "NH101", trip.Flights[0].FlightNumber)
	assert.Equal(t, "t1", trip.Flights[1].TripID)
	assert.Equal(t, "user", trip.Flights[1].UserID)
	assert.Equal(t, "user", b.UserID)

	assert.Equal(t, []string{"booking:b1", "trip:t1", "flight:t1-NH101", "flight:t1-NH205"}, repo.committed)
	repo.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestBookingService_CreateBooking_RoundTripTotals(t *testing.T) {
	service, repo, producer := newService(t, WithNotificationsTopic("booking-notifications"))
	ctx := context.Background()

	repo.On("WithinTx", ctx).Return()
	producer.On("Publish", ctx, mock.Anything, "b1", mock.Anything).Return(nil)

	input := validInput()
	input.TripType = "round_trip"
	input.Trips = []TripInput{
		{Flights: []FlightRef{{FlightID: "ab", FlightOrder: 1}}},
		{Flights: []FlightRef{{FlightID: "ba", FlightOrder: 1}}},
	}

	b, err := service.CreateBooking(ctx, "user", input)
	require.NoError(t, err)

	var sum int64
	for _, trip := range b.Trips {
		for _, f := range trip.Flights {
			sum += f.Price
		}
	}
	assert.Equal(t, int64(23500), b.TotalPrice)
	assert.Equal(t, sum, b.TotalPrice)
	assert.Equal(t, 2, b.Trips[1].TripOrder)
	assert.Equal(t, domain.TripTypeRoundTrip, b.TripType)

	producer.AssertCalled(t, "Publish", ctx, "booking-events", "b1", mock.Anything)
	producer.AssertCalled(t, "Publish", ctx, "booking-notifications", "b1", mock.Anything)
}

func TestBookingService_CreateBooking_KeepsCallerFlightOrder(t *testing.T) {
	service, repo, producer := newService(t)
	ctx := context.Background()
	repo.On("WithinTx", ctx).Return()
	producer.On("Publish", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	input := validInput()
	input.Trips[0].Flights[0].FlightOrder = 5
	input.Trips[0].Flights[1].FlightOrder = 9

	b, err := service.CreateBooking(ctx, "user", input)
	require.NoError(t, err)
	assert.Equal(t, 5, b.Trips[0].Flights[0].FlightOrder)
	assert.Equal(t, 9, b.Trips[0].Flights[1].FlightOrder)
}

func TestBookingService_CreateBooking_UnknownFlightInSecondTrip(t *testing.T) {
	service, repo, producer := newService(t)
	ctx := context.Background()
	repo.On("WithinTx", ctx).Return()

	input := validInput()
	input.Trips = append(input.Trips, TripInput{Flights: []FlightRef{{FlightID: "nope", FlightOrder: 1}}})

	_, err := service.CreateBooking(ctx, "user", input)
	require.Error(t, err)

	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "nope", nf.ID)
	assert.Equal(t, 0, repo.tx.inserted)
	assert.Empty(t, repo.committed)
	producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_CreateBooking_InsertFailureLeavesNothing(t *testing.T) {
	for _, kind := range []string{"booking", "trip", "flight"} {
		t.Run(kind, func(t *testing.T) {
			service, repo, producer := newService(t)
			repo.tx.failOn = kind
			ctx := context.Background()
			repo.On("WithinTx", ctx).Return()

			_, err := service.CreateBooking(ctx, "user", validInput())
			assert.ErrorContains(t, err, "boom")
			assert.Empty(t, repo.committed)
			producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestBookingService_CreateBooking_LooksUpEachFlightOnce(t *testing.T) {
	service, repo, producer := newService(t)
	ctx := context.Background()
	repo.On("WithinTx", ctx).Return()
	producer.On("Publish", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	input := validInput()
	input.TripType = "multi_stop"
	input.Trips = append(input.Trips, TripInput{Flights: []FlightRef{{FlightID: "ab", FlightOrder: 1}}})

	b, err := service.CreateBooking(ctx, "user", input)
	require.NoError(t, err)
	assert.Equal(t, []string{"ab", "bc"}, repo.tx.lookups)
	assert.Equal(t, int64(33000), b.TotalPrice)
}

func TestBookingService_CreateBooking_PublishFailureIgnored(t *testing.T) {
	service, repo, producer := newService(t)
	ctx := context.Background()
	repo.On("WithinTx", ctx).Return()
	producer.On("Publish", ctx, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	b, err := service.CreateBooking(ctx, "user", validInput())
	require.NoError(t, err)
	assert.Equal(t, "b1", b.ID)
	assert.Len(t, repo.committed, 4)
}

func TestBookingService_CreateBooking_ValidationErrors(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*CreateBookingInput)
		field  string
	}{
		{"short name", func(in *CreateBookingInput) { in.Fullname = "A" }, "fullname"},
		{"blank name", func(in *CreateBookingInput) { in.Fullname = "   " }, "fullname"},
		{"padded short name", func(in *CreateBookingInput) { in.Fullname = " a " }, "fullname"},
		{"blank email", func(in *CreateBookingInput) { in.Email = "  " }, "email"},
		{"bad email", func(in *CreateBookingInput) { in.Email = "taro" }, "email"},
		{"bad phone", func(in *CreateBookingInput) { in.Phone = "call me" }, "phone"},
		{"bad trip type", func(in *CreateBookingInput) { in.TripType = "one-way" }, "trip_type"},
		{"no trips", func(in *CreateBookingInput) { in.Trips = nil }, "trips"},
		{"empty trip", func(in *CreateBookingInput) { in.Trips[0].Flights = nil }, "trips[0].flights"},
		{"missing flight id", func(in *CreateBookingInput) { in.Trips[0].Flights[1].FlightID = "" }, "trips[0].flights[1].flight_id"},
		{"zero order", func(in *CreateBookingInput) { in.Trips[0].Flights[0].FlightOrder = 0 }, "trips[0].flights[0].flight_order"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			service, repo, _ := newService(t)
			input := validInput()
			tc.mutate(&input)

			_, err := service.CreateBooking(context.Background(), "user", input)

			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Fields[0].Field)
			repo.AssertNotCalled(t, "WithinTx", mock.Anything)
		})
	}
}

func TestBookingService_CreateBooking_TrimsPassenger(t *testing.T) {
	service, repo, producer := newService(t)
	ctx := context.Background()

	repo.On("WithinTx", ctx).Return()
	producer.On("Publish", ctx, mock.Anything, "b1", mock.Anything).Return(nil)

	input := validInput()
	input.Fullname = "  Taro Yamada "
	input.Email = " taro@example.com "
	input.Phone = "   "

	b, err := service.CreateBooking(ctx, "user", input)
	require.NoError(t, err)
	assert.Equal(t, "Taro Yamada", b.Fullname)
	assert.Equal(t, "taro@example.com", b.Email)
	assert.Empty(t, b.Phone)
}

func TestBookingService_ListAndGet(t *testing.T) {
	service, repo, _ := newService(t)
	ctx := context.Background()

	list := []domain.Booking{{ID: "b2"}, {ID: "b1"}}
	repo.On("ListByUser", ctx, "user").Return(list, nil)
	repo.On("GetByID", ctx, "user", "b1").Return(&list[1], nil)
	repo.On("GetByID", ctx, "user", "zz").Return(nil, &domain.NotFoundError{Resource: "booking", ID: "zz"})

	got, err := service.ListBookings(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, list, got)

	one, err := service.GetBooking(ctx, "user", "b1")
	require.NoError(t, err)
	assert.Equal(t, "b1", one.ID)

	_, err = service.GetBooking(ctx, "user", "zz")
	assert.True(t, domain.IsNotFound(err))
}

func TestBookingService_UpdatePassenger(t *testing.T) {
	service, repo, producer := newService(t)
	ctx := context.Background()

	name := "  Hanako Sato "
	updated := &domain.Booking{ID: "b1", Fullname: "Hanako Sato"}
	repo.On("UpdatePassenger", ctx, "user", "b1", mock.MatchedBy(func(u domain.PassengerUpdate) bool {
		return u.Fullname != nil && *u.Fullname == "Hanako Sato" && u.Email == nil && u.Phone == nil
	})).Return(updated, nil).Once()
	producer.On("Publish", ctx, "booking-events", "b1", mock.MatchedBy(func(e kafka.BookingEvent) bool {
		return e.Type == kafka.EventBookingUpdated
	})).Return(nil).Once()

	got, err := service.UpdatePassenger(ctx, "user", "b1", UpdatePassengerInput{Fullname: &name})
	require.NoError(t, err)
	assert.Equal(t, updated, got)
	repo.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestBookingService_UpdatePassenger_ClearPhone(t *testing.T) {
	service, repo, producer := newService(t)
	ctx := context.Background()

	empty := ""
	repo.On("UpdatePassenger", ctx, "user", "b1", mock.MatchedBy(func(u domain.PassengerUpdate) bool {
		return u.Phone != nil && *u.Phone == ""
	})).Return(&domain.Booking{ID: "b1"}, nil)
	producer.On("Publish", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := service.UpdatePassenger(ctx, "user", "b1", UpdatePassengerInput{Phone: &empty})
	assert.NoError(t, err)
}

func TestBookingService_UpdatePassenger_Invalid(t *testing.T) {
	service, repo, _ := newService(t)
	ctx := context.Background()

	_, err := service.UpdatePassenger(ctx, "user", "b1", UpdatePassengerInput{})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "body", verr.Fields[0].Field)

	bad := "not-an-email"
	_, err = service.UpdatePassenger(ctx, "user", "b1", UpdatePassengerInput{Email: &bad})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Fields[0].Field)

	repo.AssertNotCalled(t, "UpdatePassenger", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_DeleteBooking(t *testing.T) {
	service, repo, producer := newService(t)
	ctx := context.Background()

	current := &domain.Booking{ID: "b1", Email: "taro@example.com"}
	repo.On("GetByID", ctx, "user", "b1").Return(current, nil)
	repo.On("SoftDelete", ctx, "user", "b1").Return(nil)
	producer.On("Publish", ctx, "booking-events", "b1", mock.MatchedBy(func(e kafka.BookingEvent) bool {
		return e.Type == kafka.EventBookingDeleted && e.Email == "taro@example.com"
	})).Return(nil)

	require.NoError(t, service.DeleteBooking(ctx, "user", "b1"))
	repo.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestBookingService_DeleteBooking_NotFound(t *testing.T) {
	service, repo, producer := newService(t)
	ctx := context.Background()

	repo.On("GetByID", ctx, "user", "b9").Return(nil, &domain.NotFoundError{Resource: "booking", ID: "b9"})

	err := service.DeleteBooking(ctx, "user", "b9")
	assert.True(t, domain.IsNotFound(err))
	repo.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything, mock.Anything)
	producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_NoProducer(t *testing.T) {
	repo := &MockBookingRepository{tx: &fakeTx{flights: catalog()}}
	service := NewBookingService(repo, nil, "")
	ctx := context.Background()
	repo.On("WithinTx", ctx).Return()

	_, err := service.CreateBooking(ctx, "user", validInput())
	assert.NoError(t, err)
}
