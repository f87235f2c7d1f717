package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type FlightRepository interface {
	Search(ctx context.Context, q domain.FlightSearch) ([]domain.Flight, int64, error)
	GetByID(ctx context.Context, id string) (*domain.Flight, error)
	SoftDelete(ctx context.Context, id string) error
	InsertMany(ctx context.Context, flights []domain.Flight) (int64, error)
}

type PGFlightRepository struct {
	db DB
}

func NewFlightRepository(db DB) FlightRepository {
	return &PGFlightRepository{db: db}
}

const flightColumns = `id, airline, flight_number, departure_time, arrival_time, departure_date, arrival_date, source, destination, price, is_round_trip, created_at, updated_at`

var flightCopyColumns = []string{
	"id", "airline", "flight_number", "departure_time", "arrival_time", "departure_date", "arrival_date",
	"source", "destination", "price", "is_round_trip", "created_at", "updated_at",
}

func scanFlight(row pgx.Row) (domain.Flight, error) {
	var f domain.Flight
	err := row.Scan(&f.ID, &f.Airline, &f.FlightNumber, &f.DepartureTime, &f.ArrivalTime, &f.DepartureDate, &f.ArrivalDate,
		&f.Source, &f.Destination, &f.Price, &f.IsRoundTrip, &f.CreatedAt, &f.UpdatedAt)
	return f, err
}

// escapeLike makes user input literal inside a LIKE pattern.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// searchWhere builds the filter shared by the count and page queries.
// Soft-deleted and round-trip rows are always excluded.
func searchWhere(q domain.FlightSearch) (string, []any) {
	where := []string{notDeleted(""), "is_round_trip = FALSE"}
	args := []any{}

	if q.Source != "" {
		args = append(args, "%"+escapeLike(strings.ToLower(q.Source))+"%")
		where = append(where, fmt.Sprintf("LOWER(source) LIKE $%d", len(args)))
	}
	if q.Destination != "" {
		args = append(args, "%"+escapeLike(strings.ToLower(q.Destination))+"%")
		where = append(where, fmt.Sprintf("LOWER(destination) LIKE $%d", len(args)))
	}
	if q.DepartureDate != nil {
		day := *q.DepartureDate
		args = append(args, day, day.AddDate(0, 0, 1))
		where = append(where, fmt.Sprintf("departure_date >= $%d AND departure_date < $%d", len(args)-1, len(args)))
	}
	return strings.Join(where, " AND "), args
}

func searchOrder(sort domain.SortOrder) string {
	switch sort {
	case domain.SortPriceDesc:
		return "price DESC"
	case domain.SortDepartureAsc:
		return "departure_time ASC"
	case domain.SortDepartureDesc:
		return "departure_time DESC"
	case domain.SortDurationAsc:
		return "(arrival_time - departure_time) ASC"
	default:
		return "price ASC"
	}
}

func (r *PGFlightRepository) Search(ctx context.Context, q domain.FlightSearch) ([]domain.Flight, int64, error) {
	cond, args := searchWhere(q)

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM flights WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count flights: %w", err)
	}

	pageArgs := append(append([]any{}, args...), q.Limit, q.Offset())
	pageSQL := fmt.Sprintf(`SELECT %s FROM flights WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		flightColumns, cond, searchOrder(q.SortBy), len(pageArgs)-1, len(pageArgs))

	rows, err := r.db.Query(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("search flights: %w", err)
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0, q.Limit)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan flight: %w", err)
		}
		flights = append(flights, f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return flights, total, nil
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id string) (*domain.Flight, error) {
	return getFlight(ctx, r.db, id, false)
}

// getFlight loads a visible flight. With lock set the row is held FOR SHARE
// so a concurrent retire cannot slip under an open booking transaction.
func getFlight(ctx context.Context, q querier, id string, lock bool) (*domain.Flight, error) {
	sql := `SELECT ` + flightColumns + ` FROM flights WHERE id=$1 AND ` + notDeleted("")
	if lock {
		sql += ` FOR SHARE`
	}
	f, err := scanFlight(q.QueryRow(ctx, sql, id))
	if err != nil {
		return nil, notFound(err, "flight", id)
	}
	return &f, nil
}

func (r *PGFlightRepository) SoftDelete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `UPDATE flights SET deleted_at = now(), updated_at = now() WHERE id=$1 AND `+notDeleted(""), id)
	if err != nil {
		return fmt.Errorf("retire flight %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Resource: "flight", ID: id}
	}
	return nil
}

// InsertMany bulk-loads catalog rows with COPY. Missing ids and timestamps are filled in.
func (r *PGFlightRepository) InsertMany(ctx context.Context, flights []domain.Flight) (int64, error) {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(flights))
	for i := range flights {
		f := &flights[i]
		if f.ID == "" {
			f.ID = uuid.NewString()
		}
		if f.CreatedAt.IsZero() {
			f.CreatedAt = now
		}
		if f.UpdatedAt.IsZero() {
			f.UpdatedAt = now
		}
		rows = append(rows, []any{
			f.ID, f.Airline, f.FlightNumber, f.DepartureTime, f.ArrivalTime, f.DepartureDate, f.ArrivalDate,
			f.Source, f.Destination, f.Price, f.IsRoundTrip, f.CreatedAt, f.UpdatedAt,
		})
	}

	n, err := r.db.CopyFrom(ctx, pgx.Identifier{"flights"}, flightCopyColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("copy flights: %w", err)
	}
	return n, nil
}

var _ FlightRepository = (*PGFlightRepository)(nil)
