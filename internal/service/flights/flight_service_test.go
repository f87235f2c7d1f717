package flights

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) Search(ctx context.Context, q domain.FlightSearch) ([]domain.Flight, int64, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Flight), args.Get(1).(int64), args.Error(2)
}

func (m *MockFlightRepository) GetByID(ctx context.Context, id string) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) SoftDelete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFlightRepository) InsertMany(ctx context.Context, flights []domain.Flight) (int64, error) {
	args := m.Called(ctx, flights)
	return args.Get(0).(int64), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetSearch(ctx context.Context, q domain.FlightSearch) (*domain.FlightPage, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FlightPage), args.Error(1)
}

func (m *MockCache) SetSearch(ctx context.Context, q domain.FlightSearch, page *domain.FlightPage) error {
	args := m.Called(ctx, q, page)
	return args.Error(0)
}

func (m *MockCache) InvalidateSearch(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func intPtr(v int) *int { return &v }

func TestFlightService_Normalize(t *testing.T) {
	s := NewFlightService(&MockFlightRepository{}, nil)

	q, err := s.Normalize(SearchInput{Source: " Tokyo (NRT) ", DepartureDate: "2025-01-15"})
	require.NoError(t, err)
	assert.Equal(t, "Tokyo (NRT)", q.Source)
	assert.Equal(t, domain.SortPriceAsc, q.SortBy)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 5, q.Limit)
	require.NotNil(t, q.DepartureDate)
	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), *q.DepartureDate)

	q, err = s.Normalize(SearchInput{SortBy: "duration_asc", Page: intPtr(3), Limit: intPtr(100)})
	require.NoError(t, err)
	assert.Equal(t, domain.SortDurationAsc, q.SortBy)
	assert.Equal(t, 200, q.Offset())
}

func TestFlightService_Normalize_Invalid(t *testing.T) {
	s := NewFlightService(&MockFlightRepository{}, nil)

	_, err := s.Normalize(SearchInput{SortBy: "cheapest", Page: intPtr(-1), Limit: intPtr(101), DepartureDate: "15/01/2025"})
	require.Error(t, err)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	fields := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"sort_by", "page", "limit", "departure_date"}, fields)
}

func TestFlightService_Normalize_ExplicitBounds(t *testing.T) {
	s := NewFlightService(&MockFlightRepository{}, nil)

	tests := []struct {
		name  string
		input SearchInput
		field string
	}{
		{"zero page", SearchInput{Page: intPtr(0)}, "page"},
		{"zero limit", SearchInput{Limit: intPtr(0)}, "limit"},
		{"page past max", SearchInput{Page: intPtr(domain.MaxPage + 1)}, "page"},
		{"overflowing page", SearchInput{Page: intPtr(1 << 40), Limit: intPtr(100)}, "page"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Normalize(tc.input)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			require.Len(t, verr.Fields, 1)
			assert.Equal(t, tc.field, verr.Fields[0].Field)
		})
	}

	q, err := s.Normalize(SearchInput{Page: intPtr(domain.MaxPage), Limit: intPtr(domain.MaxSearchLimit)})
	require.NoError(t, err)
	assert.Equal(t, (domain.MaxPage-1)*domain.MaxSearchLimit, q.Offset())
}

func TestFlightService_Search_CacheMiss(t *testing.T) {
	repo := &MockFlightRepository{}
	cache := &MockCache{}
	s := NewFlightService(repo, cache)
	ctx := context.Background()

	flights := []domain.Flight{{ID: "f1", Price: 8000}, {ID: "f2", Price: 9500}}
	repo.On("Search", ctx, mock.MatchedBy(func(q domain.FlightSearch) bool {
		return q.Source == "Tokyo" && q.Limit == 2 && q.Page == 1
	})).Return(flights, int64(7), nil)
	cache.On("GetSearch", ctx, mock.Anything).Return(nil, nil)
	cache.On("SetSearch", ctx, mock.Anything, mock.Anything).Return(nil)

	page, err := s.Search(ctx, SearchInput{Source: "Tokyo", Limit: intPtr(2)})
	require.NoError(t, err)
	assert.Equal(t, flights, page.Flights)
	assert.Equal(t, domain.Pagination{Page: 1, Limit: 2, Total: 7, TotalPages: 4}, page.Pagination)

	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestFlightService_Search_CacheHit(t *testing.T) {
	repo := &MockFlightRepository{}
	cache := &MockCache{}
	s := NewFlightService(repo, cache)
	ctx := context.Background()

	cached := &domain.FlightPage{Flights: []domain.Flight{{ID: "f1"}}, Pagination: domain.NewPagination(1, 5, 1)}
	cache.On("GetSearch", ctx, mock.Anything).Return(cached, nil)

	page, err := s.Search(ctx, SearchInput{})
	require.NoError(t, err)
	assert.Same(t, cached, page)
	repo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestFlightService_Search_CacheErrorsIgnored(t *testing.T) {
	repo := &MockFlightRepository{}
	cache := &MockCache{}
	s := NewFlightService(repo, cache)
	ctx := context.Background()

	cache.On("GetSearch", ctx, mock.Anything).Return(nil, errors.New("redis down"))
	cache.On("SetSearch", ctx, mock.Anything, mock.Anything).Return(errors.New("redis down"))
	repo.On("Search", ctx, mock.Anything).Return([]domain.Flight{}, int64(0), nil)

	page, err := s.Search(ctx, SearchInput{})
	require.NoError(t, err)
	assert.Empty(t, page.Flights)
	assert.Equal(t, 0, page.Pagination.TotalPages)
}

func TestFlightService_Search_RepoError(t *testing.T) {
	repo := &MockFlightRepository{}
	s := NewFlightService(repo, nil)
	ctx := context.Background()

	repo.On("Search", ctx, mock.Anything).Return(nil, int64(0), errors.New("db down"))

	_, err := s.Search(ctx, SearchInput{})
	assert.EqualError(t, err, "db down")
}

func TestFlightService_Search_InvalidInputSkipsRepo(t *testing.T) {
	repo := &MockFlightRepository{}
	s := NewFlightService(repo, nil)

	_, err := s.Search(context.Background(), SearchInput{SortBy: "nope"})
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
	repo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestFlightService_GetByID(t *testing.T) {
	repo := &MockFlightRepository{}
	s := NewFlightService(repo, nil)
	ctx := context.Background()

	expected := &domain.Flight{ID: "f1", FlightNumber: "NH101"}
	repo.On("GetByID", ctx, "f1").Return(expected, nil)
	repo.On("GetByID", ctx, "gone").Return(nil, &domain.NotFoundError{Resource: "flight", ID: "gone"})

	got, err := s.GetByID(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, expected, got)

	_, err = s.GetByID(ctx, "gone")
	assert.True(t, domain.IsNotFound(err))

	_, err = s.GetByID(ctx, " ")
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestFlightService_Retire(t *testing.T) {
	repo := &MockFlightRepository{}
	cache := &MockCache{}
	s := NewFlightService(repo, cache)
	ctx := context.Background()

	repo.On("SoftDelete", ctx, "f1").Return(nil)
	cache.On("InvalidateSearch", ctx).Return(nil)
	require.NoError(t, s.Retire(ctx, "f1"))
	cache.AssertCalled(t, "InvalidateSearch", ctx)

	repo.On("SoftDelete", ctx, "missing").Return(&domain.NotFoundError{Resource: "flight", ID: "missing"})
	err := s.Retire(ctx, "missing")
	assert.True(t, domain.IsNotFound(err))
	cache.AssertNumberOfCalls(t, "InvalidateSearch", 1)
}

func TestWithLimits(t *testing.T) {
	s := NewFlightService(&MockFlightRepository{}, nil, WithLimits(10, 50))

	q, err := s.Normalize(SearchInput{})
	require.NoError(t, err)
	assert.Equal(t, 10, q.Limit)

	_, err = s.Normalize(SearchInput{Limit: intPtr(51)})
	assert.Error(t, err)
}
