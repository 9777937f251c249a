package payments

import (
	"time"

	"github.com/stripe/stripe-go/v76/webhook"
)

const (
	SignatureHeader = "Stripe-Signature"

	DefaultTolerance = 5 * time.Minute
)

// SignPayload builds a header value the way the provider does.
func SignPayload(payload []byte, secret string, at time.Time) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: at,
	}).Header
}

// VerifySignature checks header against payload. Only the signature is
// checked, the payload is decoded later by ParseEvent. A non-positive
// tolerance falls back to DefaultTolerance.
func VerifySignature(payload []byte, header, secret string, tolerance time.Duration) error {
	if secret == "" {
		return ErrMissingSecret
	}
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return webhook.ValidatePayloadWithTolerance(payload, header, secret, tolerance)
}
