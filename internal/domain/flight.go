package domain

import (
	"math"
	"time"
)

type Flight struct {
	ID            string     `json:"id"`
	Airline       string     `json:"airline"`
	FlightNumber  string     `json:"flight_number"`
	DepartureTime time.Time  `json:"departure_time"`
	ArrivalTime   time.Time  `json:"arrival_time"`
	DepartureDate time.Time  `json:"departure_date"`
	ArrivalDate   time.Time  `json:"arrival_date"`
	Source        string     `json:"source"`
	Destination   string     `json:"destination"`
	Price         int64      `json:"price"`
	IsRoundTrip   bool       `json:"is_round_trip"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
}

// Duration is computed, never stored.
func (f Flight) Duration() time.Duration {
	return f.ArrivalTime.Sub(f.DepartureTime)
}

type SortOrder string

const (
	SortPriceAsc      SortOrder = "price_asc"
	SortPriceDesc     SortOrder = "price_desc"
	SortDepartureAsc  SortOrder = "departure_asc"
	SortDepartureDesc SortOrder = "departure_desc"
	SortDurationAsc   SortOrder = "duration_asc"
)

func (s SortOrder) Valid() bool {
	switch s {
	case SortPriceAsc, SortPriceDesc, SortDepartureAsc, SortDepartureDesc, SortDurationAsc:
		return true
	}
	return false
}

const (
	DefaultPage        = 1
	DefaultSearchLimit = 5
	MaxSearchLimit     = 100
	// MaxPage keeps Offset well inside the range Postgres accepts.
	MaxPage = 10000
)

// FlightSearch is a normalised search request. DepartureDate, when set, is
// midnight UTC of the requested calendar day.
type FlightSearch struct {
	Source        string
	Destination   string
	DepartureDate *time.Time
	SortBy        SortOrder
	Page          int
	Limit         int
}

func (q FlightSearch) Offset() int {
	return (q.Page - 1) * q.Limit
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int(math.Ceil(float64(total) / float64(limit)))
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

type FlightPage struct {
	Flights    []Flight   `json:"flights"`
	Pagination Pagination `json:"pagination"`
}
