package syncworker

import (
	"context"
	"time"

	"staylock/pkg/config"
	apperrors "staylock/pkg/errors"
	"staylock/pkg/kafka"
	"staylock/pkg/logger"
	"staylock/pkg/model"
)

const DefaultMaxAttempts = 5

type Retrier interface {
	RetrySyncAttempt(ctx context.Context, id string, attempts int) (*model.RecoveryResult, error)
}

// Handler turns reservation.sync_failed events into retries. A retry is only
// granted while the stored attempt count equals the event's, and each failed
// retry publishes the next event itself, so one chain pushes at most
// maxAttempts times however often a message is redelivered.
type Handler struct {
	retrier     Retrier
	maxAttempts int
	delay       time.Duration
	log         *logger.Logger
}

func NewHandler(retrier Retrier, maxAttempts int, delay time.Duration, log *logger.Logger) *Handler {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Handler{
		retrier:     retrier,
		maxAttempts: maxAttempts,
		delay:       delay,
		log:         log.Component("sync_worker"),
	}
}

func NewHandlerFromConfig(retrier Retrier, cfg *config.Config) *Handler {
	return NewHandler(retrier, cfg.SyncMaxAutoAttempts, cfg.SyncRetryDelay, cfg.Log)
}

func (h *Handler) Handle(ctx context.Context, msg kafka.Message) error {
	var evt model.ReservationEvent
	if err := msg.DecodeValue(&evt); err != nil {
		return err
	}
	if evt.Type == "" {
		evt.Type = msg.GetEventType()
	}

	if evt.Type != model.EventReservationSyncFailed {
		return nil
	}
	if evt.ReservationID == "" {
		return kafka.NewPermanentError("sync_failed event without reservation id", nil)
	}
	if evt.SyncAttempts >= h.maxAttempts {
		h.log.Warn("Automatic sync attempts exhausted, waiting for operator",
			"reservation_id", evt.ReservationID,
			"payment_reference", evt.PaymentReference,
			"attempts", evt.SyncAttempts,
		)
		return nil
	}

	if !h.wait(ctx) {
		return kafka.NewTransientError("interrupted before retry", ctx.Err())
	}

	result, err := h.retrier.RetrySyncAttempt(ctx, evt.ReservationID, evt.SyncAttempts)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeNotFound) || apperrors.HasCode(err, apperrors.CodeInvalidInput) {
			return kafka.NewPermanentError("reservation cannot be retried", err)
		}
		// Conflict means another retry holds the claim. Redelivery is safe:
		// once it finishes the attempt count has moved on.
		return kafka.NewTransientError("retry sync", err)
	}

	switch {
	case result.Success:
		h.log.Info("Automatic sync retry succeeded",
			"reservation_id", evt.ReservationID,
			"payment_reference", evt.PaymentReference,
		)
	case result.Reservation != nil && result.Reservation.SyncFailed:
		h.log.Info("Automatic sync retry did not succeed",
			"reservation_id", evt.ReservationID,
			"payment_reference", evt.PaymentReference,
			"attempts", result.Reservation.SyncAttempts,
			"message", result.Message,
		)
	}
	return nil
}

func (h *Handler) wait(ctx context.Context) bool {
	if h.delay <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(h.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

