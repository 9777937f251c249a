package payments

import (
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76/webhook"
)

var (
	ErrMissingSecret = errors.New("webhook secret is not configured")

	ErrMissingSignature   = webhook.ErrNotSigned
	ErrMalformedSignature = webhook.ErrInvalidHeader
	ErrStaleSignature     = webhook.ErrTooOld
	ErrSignatureMismatch  = webhook.ErrNoValidSignature

	ErrInvalidAmount  = errors.New("amount must be positive")
	ErrMissingIntent  = errors.New("payment intent id is required")
	ErrMalformedEvent = errors.New("malformed payment event")
)

// APIError is a non-2xx answer from the payment provider.
type APIError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("payments %s: %s (status %d)", e.Operation, e.Message, e.StatusCode)
}
