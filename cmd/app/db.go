package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/flightbooking/internal/cache"
	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/Domenick1991/flightbooking/internal/seed"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/Domenick1991/flightbooking/internal/service/flights"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := repository.Migrate(cmd.Context(), rt.pool); err != nil {
				return err
			}
			rt.log.Info("schema is up to date")
			return nil
		},
	}
}

func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Drop every table",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := repository.Reset(cmd.Context(), rt.pool); err != nil {
				return err
			}
			rt.log.Info("database reset completed")
			return nil
		},
	}
}

func pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check the database and Kafka connections",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			rt, err := setup(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.pool.Ping(ctx); err != nil {
				return fmt.Errorf("database connection failed: %w", err)
			}
			var now time.Time
			if err := rt.pool.QueryRow(ctx, `SELECT now()`).Scan(&now); err != nil {
				return fmt.Errorf("database query failed: %w", err)
			}
			rt.log.Info("database connection successful", zap.Time("server_time", now))

			if len(rt.cfg.Kafka.Brokers) == 0 {
				rt.log.Info("no kafka brokers configured, skipping")
				return nil
			}
			producer := kafka.NewProducer(rt.cfg.Kafka.Brokers, rt.log)
			defer producer.Close()
			return producer.CheckConnection(ctx)
		},
	}
}

func seedCmd() *cobra.Command {
	var (
		days           int
		randSeed       uint64
		sampleBookings bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate the flight catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 {
				return fmt.Errorf("--days must be at least 1, got %d", days)
			}
			ctx := cmd.Context()
			rt, err := setup(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := repository.Migrate(ctx, rt.pool); err != nil {
				return err
			}

			catalog := seed.NewGenerator(randSeed).Generate(time.Now().UTC(), days)
			flightRepo := repository.NewFlightRepository(rt.pool)
			n, err := flightRepo.InsertMany(ctx, catalog)
			if err != nil {
				return err
			}
			rt.log.Info("flights seeded", zap.Int64("flights", n), zap.Int("days", days))

			if sampleBookings {
				if err := createSampleBookings(ctx, rt, catalog); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", 365, "number of days to generate, starting today")
	cmd.Flags().Uint64Var(&randSeed, "seed", uint64(time.Now().UnixNano()), "random seed")
	cmd.Flags().BoolVar(&sampleBookings, "sample-bookings", false, "also create demo bookings for the configured user")
	return cmd
}

// createSampleBookings books a one-way flight and a round trip on the first
// matching pair of the generated catalog.
func createSampleBookings(ctx context.Context, rt *app, catalog []domain.Flight) error {
	if len(catalog) == 0 {
		return nil
	}
	out := catalog[0]
	var back *domain.Flight
	for i := range catalog {
		f := &catalog[i]
		if f.Source == out.Destination && f.Destination == out.Source && f.DepartureTime.After(out.ArrivalTime) {
			back = f
			break
		}
	}

	svc := booking.NewBookingService(repository.NewBookingRepository(rt.pool), nil, "", booking.WithLogger(rt.log))
	user := rt.cfg.Auth.Username

	_, err := svc.CreateBooking(ctx, user, booking.CreateBookingInput{
		Fullname: "John Doe",
		Email:    "john.doe@example.com",
		Phone:    "+81-90-1234-5678",
		TripType: string(domain.TripTypeOneWay),
		Trips:    []booking.TripInput{{Flights: []booking.FlightRef{{FlightID: out.ID, FlightOrder: 1}}}},
	})
	if err != nil {
		return fmt.Errorf("sample one-way booking: %w", err)
	}

	if back == nil {
		return nil
	}
	_, err = svc.CreateBooking(ctx, user, booking.CreateBookingInput{
		Fullname: "Jane Smith",
		Email:    "jane.smith@example.com",
		TripType: string(domain.TripTypeRoundTrip),
		Trips: []booking.TripInput{
			{Flights: []booking.FlightRef{{FlightID: out.ID, FlightOrder: 1}}},
			{Flights: []booking.FlightRef{{FlightID: back.ID, FlightOrder: 1}}},
		},
	})
	if err != nil {
		return fmt.Errorf("sample round-trip booking: %w", err)
	}
	return nil
}

func retireFlightCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retire-flight [id]",
		Short: "Soft-delete a catalog flight and drop cached searches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := setup(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			redisCache := cache.NewRedisCache(rt.cfg.Redis, rt.cfg.Search.CacheTTL())
			defer redisCache.Close()

			svc := flights.NewFlightService(repository.NewFlightRepository(rt.pool), redisCache, flights.WithLogger(rt.log))
			return svc.Retire(ctx, args[0])
		},
	}
}
