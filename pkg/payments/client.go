package payments

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"staylock/pkg/config"
	"staylock/pkg/logger"

	"github.com/cockroachdb/errors"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

type CreateIntentParams struct {
	Amount         float64
	Currency       string
	Metadata       map[string]string
	Split          *FeeSplit
	IdempotencyKey string
}

// Client creates and cancels payment intents through the provider SDK.
// Network retries are left to the booking flow, which already carries an
// idempotency key per attempt.
type Client struct {
	intents *paymentintent.Client
	log     *logger.Logger
}

func NewClient(baseURL, secretKey string, timeout time.Duration, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	log = log.Component("payments")

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(strings.TrimRight(baseURL, "/")),
		HTTPClient:        &http.Client{Timeout: timeout},
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     sdkLogger{log: log},
	})

	return &Client{
		intents: &paymentintent.Client{B: backend, Key: secretKey},
		log:     log,
	}
}

func NewClientFromConfig(cfg *config.Config) *Client {
	return NewClient(cfg.PaymentAPIURL, cfg.PaymentSecretKey, cfg.HTTPClientTimeout, cfg.Log)
}

func intentParams(ctx context.Context, params CreateIntentParams) *stripe.PaymentIntentParams {
	p := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(ToMinorUnits(params.Amount)),
		Currency: stripe.String(strings.ToLower(params.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	p.Context = ctx
	for k, v := range params.Metadata {
		p.AddMetadata(k, v)
	}
	if params.Split != nil {
		p.ApplicationFeeAmount = stripe.Int64(params.Split.ApplicationFeeAmount)
		p.TransferData = &stripe.PaymentIntentTransferDataParams{
			Destination: stripe.String(params.Split.Destination),
		}
	}
	if params.IdempotencyKey != "" {
		p.SetIdempotencyKey(params.IdempotencyKey)
	}
	return p
}

func (c *Client) CreateIntent(ctx context.Context, params CreateIntentParams) (*Intent, error) {
	if ToMinorUnits(params.Amount) <= 0 {
		return nil, ErrInvalidAmount
	}

	pi, err := c.intents.New(intentParams(ctx, params))
	if err != nil {
		return nil, apiError("create intent", err)
	}

	intent := intentFromSDK(pi)
	c.log.Info("Payment intent created",
		"payment_reference", intent.ID,
		"amount", intent.Amount,
		"currency", intent.Currency,
		"split", params.Split != nil,
	)
	return intent, nil
}

func (c *Client) CancelIntent(ctx context.Context, intentID string) error {
	if strings.TrimSpace(intentID) == "" {
		return ErrMissingIntent
	}

	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	if _, err := c.intents.Cancel(intentID, params); err != nil {
		return apiError("cancel intent", err)
	}

	c.log.Info("Payment intent canceled", "payment_reference", intentID)
	return nil
}

func apiError(operation string, err error) error {
	var sdkErr *stripe.Error
	if errors.As(err, &sdkErr) {
		return &APIError{
			Operation:  operation,
			StatusCode: sdkErr.HTTPStatusCode,
			Message:    sdkErr.Msg,
		}
	}
	return errors.Wrapf(err, "payments %s", operation)
}

// sdkLogger routes SDK diagnostics into the component logger. The SDK logs
// every request at info, which is demoted to debug.
type sdkLogger struct {
	log *logger.Logger
}

func (l sdkLogger) Debugf(format string, v ...any) { l.log.Debug(fmt.Sprintf(format, v...)) }
func (l sdkLogger) Infof(format string, v ...any)  { l.log.Debug(fmt.Sprintf(format, v...)) }
func (l sdkLogger) Warnf(format string, v ...any)  { l.log.Warn(fmt.Sprintf(format, v...)) }
func (l sdkLogger) Errorf(format string, v ...any) { l.log.Error(fmt.Sprintf(format, v...)) }
