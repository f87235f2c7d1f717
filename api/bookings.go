package api

import (
	"net/http"

	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

// Register expects router to already carry the auth middleware.
func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.POST("", h.create)
	router.GET("/:id", h.get)
	router.PUT("/:id", h.update)
	router.DELETE("/:id", h.delete)
}

func (h *BookingHandler) list(c *gin.Context) {
	bookings, err := h.service.ListBookings(c.Request.Context(), principalFrom(c).Username)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, http.StatusOK, bookings, "")
}

func (h *BookingHandler) create(c *gin.Context) {
	var req booking.CreateBookingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(err, "body"))
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), principalFrom(c).Username, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, http.StatusCreated, created, "Booking created successfully")
}

func (h *BookingHandler) get(c *gin.Context) {
	b, err := h.service.GetBooking(c.Request.Context(), principalFrom(c).Username, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, http.StatusOK, b, "")
}

func (h *BookingHandler) update(c *gin.Context) {
	var req booking.UpdatePassengerInput
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(err, "body"))
		return
	}

	updated, err := h.service.UpdatePassenger(c.Request.Context(), principalFrom(c).Username, c.Param("id"), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, http.StatusOK, updated, "Booking updated successfully")
}

func (h *BookingHandler) delete(c *gin.Context) {
	if err := h.service.DeleteBooking(c.Request.Context(), principalFrom(c).Username, c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, http.StatusOK, nil, "Booking deleted successfully")
}
