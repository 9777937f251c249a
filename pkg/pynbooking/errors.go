package pynbooking

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRange = errors.New("check-in must be before check-out")

	ErrInvalidDays = errors.New("days must be between 1 and the maximum search window")

	ErrMissingDate = errors.New("search date is required")
)

// APIError is a non-2xx answer from the ledger.
type APIError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pynbooking %s: %s (status %d)", e.Operation, e.Message, e.StatusCode)
}

// IsUnavailable reports whether err came from the ledger or the network
// rather than from invalid input.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrInvalidRange) && !errors.Is(err, ErrInvalidDays) && !errors.Is(err, ErrMissingDate)
}
