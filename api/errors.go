package api

import (
	"errors"
	"net/http"

	"github.com/OmarMa7fouz/airline-reservation-system-sub000/internal/domain"
	"github.com/gin-gonic/gin"
)

const (
	codeSeatUnavailable      = "seat_unavailable"
	codeInsufficientCapacity = "insufficient_capacity"
	codeInvalidTransition    = "invalid_transition"
	codeBookingExpired       = "booking_expired"
	codeNotFound             = "not_found"
	codeInvalidRequest       = "invalid_request"
)

// writeError maps domain errors to transport status deterministically:
// availability and state-machine violations are 409, a lapsed hold is
// 410, unknown references are 404.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrSeatUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": codeSeatUnavailable})
	case errors.Is(err, domain.ErrInsufficientCapacity):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": codeInsufficientCapacity})
	case errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": codeInvalidTransition})
	case errors.Is(err, domain.ErrBookingExpired):
		c.JSON(http.StatusGone, gin.H{"error": err.Error(), "code": codeBookingExpired})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": codeNotFound})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": codeInvalidRequest})
	}
}
