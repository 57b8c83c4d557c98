package api

import (
	"net/http"
	"time"

	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/domain"
	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/service/reservation"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service reservation.ReservationUseCase
}

type passengerRequest struct {
	ID       string `json:"id"`
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required"`
}

type requestBookingRequest struct {
	FlightID       int64              `json:"flight_id" binding:"required"`
	Class          string             `json:"class" binding:"required"`
	FareType       string             `json:"fare_type"`
	HoldType       string             `json:"hold_type"`
	Passengers     []passengerRequest `json:"passengers" binding:"required"`
	RequestedSeats []string           `json:"requested_seats"`
	Extras         domain.Extras      `json:"extras"`
	OneTimeAddons  float64            `json:"one_time_addons"`
}

type confirmBookingRequest struct {
	PaymentReference string `json:"payment_reference" binding:"required"`
}

type bookingResponse struct {
	BookingID     string           `json:"booking_id"`
	FlightID      int64            `json:"flight_id"`
	Class         string           `json:"class"`
	Status        string           `json:"status"`
	SeatIDs       []int64          `json:"seat_ids"`
	HoldExpiresAt string           `json:"hold_expires_at,omitempty"`
	Quote         domain.FareQuote `json:"quote"`
	PaymentRef    string           `json:"payment_ref,omitempty"`
}

func NewBookingHandler(service reservation.ReservationUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.request)
	router.GET("/:id", h.get)
	router.POST("/:id/confirm", h.confirm)
	router.DELETE("/:id", h.cancel)
}

func (h *BookingHandler) request(c *gin.Context) {
	var req requestBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": codeInvalidRequest})
		return
	}

	passengers := make([]domain.Passenger, 0, len(req.Passengers))
	for _, p := range req.Passengers {
		passengers = append(passengers, domain.Passenger{ID: p.ID, FullName: p.FullName, Email: p.Email})
	}

	booking, err := h.service.RequestBooking(c.Request.Context(), reservation.RequestBookingInput{
		FlightID:       req.FlightID,
		Class:          domain.CabinClass(req.Class),
		FareType:       domain.FareType(req.FareType),
		HoldType:       domain.HoldType(req.HoldType),
		Passengers:     passengers,
		RequestedSeats: req.RequestedSeats,
		Extras:         req.Extras,
		OneTimeAddons:  req.OneTimeAddons,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toBookingResponse(booking))
}

func (h *BookingHandler) get(c *gin.Context) {
	booking, err := h.service.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(booking))
}

func (h *BookingHandler) confirm(c *gin.Context) {
	var req confirmBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": codeInvalidRequest})
		return
	}

	booking, err := h.service.ConfirmBooking(c.Request.Context(), c.Param("id"), req.PaymentReference)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(booking))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	booking, err := h.service.CancelBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(booking))
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	resp := bookingResponse{
		BookingID:  b.ID,
		FlightID:   b.FlightID,
		Class:      string(b.Class),
		Status:     string(b.Status),
		SeatIDs:    b.SeatIDs,
		Quote:      b.Fare,
		PaymentRef: b.PaymentRef,
	}
	if !b.HoldExpiresAt.IsZero() {
		resp.HoldExpiresAt = b.HoldExpiresAt.Format(time.RFC3339)
	}
	return resp
}
