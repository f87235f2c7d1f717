package api

import (
	"net/http"

	"github.com/Domenick1991/flightbooking/internal/service/flights"
	"github.com/gin-gonic/gin"
)

type FlightHandler struct {
	service flights.FlightUseCase
}

type searchQuery struct {
	Source        string `form:"source"`
	Destination   string `form:"destination"`
	DepartureDate string `form:"departure_date" binding:"omitempty,datetime=2006-01-02"`
	SortBy        string `form:"sort_by" binding:"omitempty,oneof=price_asc price_desc departure_asc departure_desc duration_asc"`
	Page          *int   `form:"page" binding:"omitempty,min=1,max=10000"`
	Limit         *int   `form:"limit" binding:"omitempty,min=1"`
}

func NewFlightHandler(service flights.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.search)
	router.GET("/:id", h.get)
}

func (h *FlightHandler) search(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(bindError(err, "query"))
		return
	}

	page, err := h.service.Search(c.Request.Context(), flights.SearchInput{
		Source:        q.Source,
		Destination:   q.Destination,
		DepartureDate: q.DepartureDate,
		SortBy:        q.SortBy,
		Page:          q.Page,
		Limit:         q.Limit,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, http.StatusOK, page, "")
}

func (h *FlightHandler) get(c *gin.Context) {
	flight, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	ok(c, http.StatusOK, flight, "")
}
