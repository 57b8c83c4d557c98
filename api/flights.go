package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/domain"
	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/service/flights"
	"github.com/gin-gonic/gin"
)

type FlightHandler struct {
	service flights.FlightUseCase
}

type createFlightRequest struct {
	FlightNumber  string    `json:"flight_number" binding:"required"`
	FromAirport   string    `json:"from_airport" binding:"required"`
	ToAirport     string    `json:"to_airport" binding:"required"`
	DepartureTime time.Time `json:"departure_time" binding:"required"`
	ArrivalTime   time.Time `json:"arrival_time" binding:"required"`

	EconomySeats  int `json:"economy_seats"`
	BusinessSeats int `json:"business_seats"`
	FirstSeats    int `json:"first_seats"`

	EconomyPriceCents  int64 `json:"economy_price_cents"`
	BusinessPriceCents int64 `json:"business_price_cents"`
	FirstPriceCents    int64 `json:"first_price_cents"`
}

func NewFlightHandler(service flights.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
	router.POST("/", h.create)
	router.GET("/:id", h.get)
	router.GET("/:id/availability", h.availability)
}

func (h *FlightHandler) list(c *gin.Context) {
	flights, err := h.service.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, flights)
}

func (h *FlightHandler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id", "code": codeInvalidRequest})
		return
	}
	flight, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (h *FlightHandler) create(c *gin.Context) {
	var req createFlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": codeInvalidRequest})
		return
	}

	flight, err := h.service.Create(c.Request.Context(), flights.CreateFlightInput{
		FlightNumber:       req.FlightNumber,
		FromAirport:        req.FromAirport,
		ToAirport:          req.ToAirport,
		DepartureTime:      req.DepartureTime,
		ArrivalTime:        req.ArrivalTime,
		EconomySeats:       req.EconomySeats,
		BusinessSeats:      req.BusinessSeats,
		FirstSeats:         req.FirstSeats,
		EconomyPriceCents:  req.EconomyPriceCents,
		BusinessPriceCents: req.BusinessPriceCents,
		FirstPriceCents:    req.FirstPriceCents,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, flight)
}

func (h *FlightHandler) availability(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id", "code": codeInvalidRequest})
		return
	}

	class := domain.CabinClass(c.Query("class"))
	counts, err := h.service.Availability(c.Request.Context(), id, class)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"flight_id": id,
		"class":     class,
		"free":      counts.Free,
		"held":      counts.Held,
		"confirmed": counts.Confirmed,
	})
}
