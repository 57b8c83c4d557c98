package domain

import "errors"

var (
	ErrSeatUnavailable      = errors.New("seat unavailable")
	ErrInsufficientCapacity = errors.New("insufficient capacity")
	ErrInvalidTransition    = errors.New("invalid transition")
	ErrBookingExpired       = errors.New("booking expired")
	ErrNotFound             = errors.New("not found")
)
