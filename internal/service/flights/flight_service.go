package flights

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"go.uber.org/zap"
)

type FlightUseCase interface {
	Search(ctx context.Context, input SearchInput) (*domain.FlightPage, error)
	GetByID(ctx context.Context, id string) (*domain.Flight, error)
	Retire(ctx context.Context, id string) error
}

// SearchCache is optional; a nil cache disables result caching.
type SearchCache interface {
	GetSearch(ctx context.Context, q domain.FlightSearch) (*domain.FlightPage, error)
	SetSearch(ctx context.Context, q domain.FlightSearch, page *domain.FlightPage) error
	InvalidateSearch(ctx context.Context) error
}

// SearchInput is the raw query as received from a caller.
type SearchInput struct {
	Source        string
	Destination   string
	DepartureDate string
	SortBy        string
	// Page and Limit are nil when the caller did not send them.
	Page          *int
	Limit         *int
}

type FlightService struct {
	repo         repository.FlightRepository
	cache        SearchCache
	log          *zap.Logger
	defaultLimit int
	maxLimit     int
}

type Option func(*FlightService)

func WithLimits(defaultLimit, maxLimit int) Option {
	return func(s *FlightService) {
		if defaultLimit > 0 {
			s.defaultLimit = defaultLimit
		}
		if maxLimit > 0 {
			s.maxLimit = maxLimit
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(s *FlightService) {
		s.log = log
	}
}

func NewFlightService(repo repository.FlightRepository, cache SearchCache, opts ...Option) *FlightService {
	s := &FlightService{
		repo:         repo,
		cache:        cache,
		log:          zap.NewNop(),
		defaultLimit: domain.DefaultSearchLimit,
		maxLimit:     domain.MaxSearchLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Normalize applies defaults and checks every field, collecting all failures.
func (s *FlightService) Normalize(in SearchInput) (domain.FlightSearch, error) {
	verr := &domain.ValidationError{}
	q := domain.FlightSearch{
		Source:      strings.TrimSpace(in.Source),
		Destination: strings.TrimSpace(in.Destination),
		SortBy:      domain.SortOrder(in.SortBy),
		Page:        domain.DefaultPage,
		Limit:       s.defaultLimit,
	}

	if q.SortBy == "" {
		q.SortBy = domain.SortPriceAsc
	} else if !q.SortBy.Valid() {
		verr.Add("sort_by", "must be one of price_asc, price_desc, departure_asc, departure_desc, duration_asc")
	}

	if in.Page != nil {
		if *in.Page < 1 || *in.Page > domain.MaxPage {
			verr.Add("page", "must be between 1 and "+strconv.Itoa(domain.MaxPage))
		} else {
			q.Page = *in.Page
		}
	}

	if in.Limit != nil {
		if *in.Limit < 1 || *in.Limit > s.maxLimit {
			verr.Add("limit", "must be between 1 and "+strconv.Itoa(s.maxLimit))
		} else {
			q.Limit = *in.Limit
		}
	}

	if d := strings.TrimSpace(in.DepartureDate); d != "" {
		day, err := time.ParseInLocation(time.DateOnly, d, time.UTC)
		if err != nil {
			verr.Add("departure_date", "must be a date in YYYY-MM-DD format")
		} else {
			q.DepartureDate = &day
		}
	}

	if err := verr.OrNil(); err != nil {
		return domain.FlightSearch{}, err
	}
	return q, nil
}

func (s *FlightService) Search(ctx context.Context, input SearchInput) (*domain.FlightPage, error) {
	q, err := s.Normalize(input)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		cached, err := s.cache.GetSearch(ctx, q)
		if err != nil {
			s.log.Warn("search cache read failed", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	flights, total, err := s.repo.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	page := &domain.FlightPage{
		Flights:    flights,
		Pagination: domain.NewPagination(q.Page, q.Limit, total),
	}

	if s.cache != nil {
		if err := s.cache.SetSearch(ctx, q, page); err != nil {
			s.log.Warn("search cache write failed", zap.Error(err))
		}
	}
	return page, nil
}

func (s *FlightService) GetByID(ctx context.Context, id string) (*domain.Flight, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.NewValidationError("id", "is required")
	}
	return s.repo.GetByID(ctx, id)
}

// Retire soft-deletes a catalog flight. Existing bookings keep their snapshots.
func (s *FlightService) Retire(ctx context.Context, id string) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.InvalidateSearch(ctx); err != nil {
			s.log.Warn("search cache invalidation failed", zap.String("flight_id", id), zap.Error(err))
		}
	}
	s.log.Info("flight retired", zap.String("flight_id", id))
	return nil
}

var _ FlightUseCase = (*FlightService)(nil)
