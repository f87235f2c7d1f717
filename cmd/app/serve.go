package main

import (
	"fmt"

	"github.com/Domenick1991/flightbooking/api"
	"github.com/Domenick1991/flightbooking/internal/auth"
	"github.com/Domenick1991/flightbooking/internal/bootstrap"
	"github.com/Domenick1991/flightbooking/internal/cache"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/Domenick1991/flightbooking/internal/service/flights"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the gRPC health endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := setup(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()
			cfg, log := rt.cfg, rt.log

			if !cfg.App.IsDevelopment() {
				gin.SetMode(gin.ReleaseMode)
			}

			if err := rt.pool.Ping(ctx); err != nil {
				return fmt.Errorf("ping postgres: %w", err)
			}

			authSvc, err := auth.NewService(cfg.Auth)
			if err != nil {
				return err
			}

			redisCache := cache.NewRedisCache(cfg.Redis, cfg.Search.CacheTTL())
			defer redisCache.Close()
			if err := redisCache.Ping(ctx); err != nil {
				log.Warn("redis unavailable, search cache and rate limit degrade", zap.Error(err))
			}

			var producer booking.Producer
			if len(cfg.Kafka.Brokers) > 0 {
				p := kafka.NewProducer(cfg.Kafka.Brokers, log)
				defer p.Close()
				producer = p
			}

			flightRepo := repository.NewFlightRepository(rt.pool)
			bookingRepo := repository.NewBookingRepository(rt.pool)

			flightService := flights.NewFlightService(flightRepo, redisCache,
				flights.WithLimits(cfg.Search.DefaultLimit, cfg.Search.MaxLimit),
				flights.WithLogger(log),
			)
			bookingService := booking.NewBookingService(
				bookingRepo,
				producer,
				cfg.Kafka.BookingEventsTopic,
				booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
				booking.WithLogger(log),
			)

			router := api.NewRouter(api.Deps{
				Config:   cfg,
				Log:      log,
				Auth:     authSvc,
				Flights:  flightService,
				Bookings: bookingService,
				Limiter:  redisCache,
			})

			return bootstrap.Run(ctx, cfg, router, log)
		},
	}
}
