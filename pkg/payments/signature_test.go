package payments

import (
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v76/webhook"
)

func TestVerifySignature(t *testing.T) {
	now := time.Now()
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)
	valid := SignPayload(payload, "whsec_test", now)

	tests := []struct {
		name    string
		payload []byte
		header  string
		secret  string
		wantErr error
	}{
		{"valid", payload, valid, "whsec_test", nil},
		{"valid within tolerance", payload, SignPayload(payload, "whsec_test", now.Add(-4*time.Minute)), "whsec_test", nil},
		{"tampered body", []byte(`{"id":"evt_2"}`), valid, "whsec_test", ErrSignatureMismatch},
		{"wrong secret", payload, valid, "whsec_other", ErrSignatureMismatch},
		{"stale", payload, SignPayload(payload, "whsec_test", now.Add(-10*time.Minute)), "whsec_test", ErrStaleSignature},
		{"missing header", payload, "", "whsec_test", ErrMissingSignature},
		{"missing secret", payload, valid, "", ErrMissingSecret},
		{"malformed header", payload, "garbage", "whsec_test", ErrMalformedSignature},
		{"bad timestamp", payload, "t=abc,v1=00", "whsec_test", ErrMalformedSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifySignature(tt.payload, tt.header, tt.secret, 5*time.Minute)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestVerifySignature_AcceptsAnyV1(t *testing.T) {
	now := time.Now()
	payload := []byte(`{}`)
	sig := hex.EncodeToString(webhook.ComputeSignature(now, payload, "whsec_test"))

	header := fmt.Sprintf("t=%d,v1=deadbeef,v1=%s", now.Unix(), sig)
	assert.NoError(t, VerifySignature(payload, header, "whsec_test", 0))
}
