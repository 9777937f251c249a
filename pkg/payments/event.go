package payments

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"
)

const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
	EventPaymentCanceled  = "payment_intent.canceled"
)

type Intent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret,omitempty"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Status       string            `json:"status"`
	Metadata     map[string]string `json:"metadata"`
}

func intentFromSDK(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
		Metadata:     pi.Metadata,
	}
}

// Event is a verified webhook notification. Only payment intent events are
// decoded in full.
type Event struct {
	ID     string
	Type   string
	Intent Intent
}

func ParseEvent(payload []byte) (*Event, error) {
	var raw stripe.Event
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if raw.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedEvent)
	}

	evt := &Event{ID: raw.ID, Type: string(raw.Type)}
	if !evt.IsIntentEvent() {
		return evt, nil
	}

	if raw.Data == nil || len(raw.Data.Raw) == 0 {
		return nil, fmt.Errorf("%w: missing data.object", ErrMalformedEvent)
	}
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(raw.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if pi.ID == "" {
		return nil, fmt.Errorf("%w: missing payment intent id", ErrMalformedEvent)
	}
	evt.Intent = *intentFromSDK(&pi)
	return evt, nil
}

func (e *Event) IsIntentEvent() bool {
	switch e.Type {
	case EventPaymentSucceeded, EventPaymentFailed, EventPaymentCanceled:
		return true
	}
	return false
}
