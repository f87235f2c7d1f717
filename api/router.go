package api

import (
	_ "embed"
	"fmt"
	"net/http"
	"time"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/auth"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/Domenick1991/flightbooking/internal/service/flights"
	"github.com/Domenick1991/flightbooking/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

//go:embed openapi.json
var openAPISpec []byte

const apiVersion = "1.0.0"

type Deps struct {
	Config   *config.Config
	Log      *zap.Logger
	Auth     auth.Authenticator
	Flights  flights.FlightUseCase
	Bookings booking.BookingUseCase
	// Limiter is optional; rate limiting is off when nil.
	Limiter RateLimiter
}

func NewRouter(d Deps) *gin.Engine {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		validation.Register(v)
	}

	r := gin.New()
	r.Use(RequestLogger(d.Log), ErrorHandler(d.Log, d.Config.App.IsDevelopment()), Recovery(d.Log))
	if d.Limiter != nil && d.Config.RateLimit.Enabled {
		r.Use(RateLimit(d.Limiter, d.Config.RateLimit.Requests, d.Config.RateLimit.Window(), d.Log))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"message":     "Server is healthy",
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"environment": d.Config.App.Env,
		})
	})

	r.GET("/openapi.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", openAPISpec)
	})
	if d.Config.HTTP.Swagger {
		r.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/openapi.json"))))
	}

	protect := AuthMiddleware(d.Auth)

	api := r.Group("/api")
	api.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Flight Booking API",
			"version": apiVersion,
			"endpoints": gin.H{
				"auth":     "/api/auth",
				"flights":  "/api/flights",
				"bookings": "/api/bookings",
			},
		})
	})

	NewAuthHandler(d.Auth).Register(api.Group("/auth"), protect)
	NewFlightHandler(d.Flights).Register(api.Group("/flights"))
	NewBookingHandler(d.Bookings).Register(api.Group("/bookings", protect))

	r.NoRoute(func(c *gin.Context) {
		message := fmt.Sprintf("Route %s %s not found", c.Request.Method, c.Request.URL.Path)
		d.Log.Warn(message)
		c.JSON(http.StatusNotFound, envelope{Error: "Not Found", Message: message})
	})

	return r
}
