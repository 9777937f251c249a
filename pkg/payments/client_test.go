package payments

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"staylock/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_CreateIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		assert.Equal(t, "idem-1", r.Header.Get("Idempotency-Key"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "50050", r.PostForm.Get("amount"))
		assert.Equal(t, "ron", r.PostForm.Get("currency"))
		assert.Equal(t, "true", r.PostForm.Get("automatic_payment_methods[enabled]"))
		assert.Equal(t, "R101", r.PostForm.Get("metadata[roomKey]"))
		assert.Equal(t, "10010", r.PostForm.Get("application_fee_amount"))
		assert.Equal(t, "acct_1", r.PostForm.Get("transfer_data[destination]"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_1","client_secret":"pi_1_secret","amount":50050,"currency":"ron","status":"requires_payment_method"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test", time.Second, logger.NewNop())
	intent, err := c.CreateIntent(context.Background(), CreateIntentParams{
		Amount:         500.50,
		Currency:       "RON",
		Metadata:       map[string]string{"roomKey": "R101"},
		Split:          NewFeeSplitter(0.2).Split(50050, "acct_1"),
		IdempotencyKey: "idem-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", intent.ID)
	assert.Equal(t, "pi_1_secret", intent.ClientSecret)
}

func TestClient_CreateIntent_RejectsZeroAmount(t *testing.T) {
	c := NewClient("http://unused.invalid", "sk_test", time.Second, logger.NewNop())
	_, err := c.CreateIntent(context.Background(), CreateIntentParams{Amount: 0.001, Currency: "ron"})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestClient_CreateIntent_UpstreamError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"message":"card declined"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test", time.Second, logger.NewNop())
	_, err := c.CreateIntent(context.Background(), CreateIntentParams{Amount: 10, Currency: "ron"})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusPaymentRequired, apiErr.StatusCode)
	assert.Equal(t, "card declined", apiErr.Message)
	assert.Equal(t, 1, calls, "the SDK must not retry on its own")
}

func TestClient_CancelIntent(t *testing.T) {
	var called bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, "/v1/payment_intents/pi_9/cancel", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"pi_9","status":"canceled"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test", time.Second, logger.NewNop())
	require.NoError(t, c.CancelIntent(context.Background(), "pi_9"))
	assert.True(t, called)

	assert.ErrorIs(t, c.CancelIntent(context.Background(), ""), ErrMissingIntent)
}
