package service

import (
	"context"
	"strings"
	"time"

	"staylock/internal/events"
	reserrors "staylock/internal/reservations/errors"
	"staylock/internal/reservations/repository"
	"staylock/internal/reservations/validator"
	"staylock/pkg/clock"
	apperrors "staylock/pkg/errors"
	"staylock/pkg/logger"
	"staylock/pkg/model"
	"staylock/pkg/pynbooking"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

const (
	MessageNotSyncFailed        = "reservation is not marked as sync failed"
	MessageSynced               = "reservation synced with the booking ledger"
	MessageRetryFailed          = "retry failed"
	MessageResolved             = "reservation marked as resolved"
	MessageRetryInProgress      = "a sync retry is already in progress for this reservation"
	MessageResolvedDuringRetry  = "reservation was resolved while the retry was in flight"
	MessageAttemptAlreadyPassed = "reservation has moved past this sync attempt"
)

// SyncClaimTTL bounds how long a retry claim blocks other retries. It must
// exceed the ledger client timeout.
const SyncClaimTTL = 2 * time.Minute

// LedgerSender pushes a reservation to the external booking ledger.
type LedgerSender interface {
	SendReservation(ctx context.Context, res *model.Reservation) (*pynbooking.SendResult, error)
}

type ReservationService interface {
	ListFailedReservations(ctx context.Context) ([]*model.Reservation, error)
	GetReservation(ctx context.Context, id string) (*model.Reservation, error)
	RetrySync(ctx context.Context, id string) (*model.RecoveryResult, error)

	// RetrySyncAttempt retries only while the stored attempt count still
	// equals attempts, so a redelivered or stale event never pushes twice.
	RetrySyncAttempt(ctx context.Context, id string, attempts int) (*model.RecoveryResult, error)
	MarkResolved(ctx context.Context, id string, req *model.ResolveRequest) (*model.RecoveryResult, error)

	// Sync sends res to the ledger and records the outcome. A ledger failure
	// is stored on the reservation, not returned; only storage errors are.
	Sync(ctx context.Context, res *model.Reservation, retry bool) (*model.Reservation, error)
}

type reservationService struct {
	repo      repository.ReservationRepository
	ledger    LedgerSender
	publisher events.Publisher
	validator *validator.ReservationValidator
	clock     clock.Clock
	log       *logger.Logger
}

func NewReservationService(
	repo repository.ReservationRepository,
	ledger LedgerSender,
	publisher events.Publisher,
	clk clock.Clock,
	log *logger.Logger,
) ReservationService {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &reservationService{
		repo:      repo,
		ledger:    ledger,
		publisher: publisher,
		validator: validator.NewReservationValidator(),
		clock:     clk,
		log:       log.Component("reservations"),
	}
}

func (s *reservationService) ListFailedReservations(ctx context.Context) ([]*model.Reservation, error) {
	reservations, err := s.repo.ListSyncFailed(ctx)
	if err != nil {
		s.log.Error("Failed to list sync failed reservations", "error", err)
		return nil, apperrors.Internal("Failed to list reservations", err)
	}
	if reservations == nil {
		reservations = []*model.Reservation{}
	}
	return reservations, nil
}

func (s *reservationService) GetReservation(ctx context.Context, id string) (*model.Reservation, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	res, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to get reservation")
	}
	return res, nil
}

func (s *reservationService) mapRepoError(err error, id, message string) error {
	switch {
	case errors.Is(err, reserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Reservation", id)
	case errors.Is(err, reserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid reservation ID format")
	}
	s.log.Error(message, "id", id, "error", err)
	return apperrors.Internal(message, err)
}

func (s *reservationService) Sync(ctx context.Context, res *model.Reservation, retry bool) (*model.Reservation, error) {
	updated, err := s.push(ctx, res, model.SyncOutcome{Retry: retry})
	if err != nil {
		return nil, apperrors.Internal("Failed to record sync outcome", err)
	}
	return updated, nil
}

// push sends res to the ledger and applies the outcome. Repository errors
// are returned unwrapped so callers can tell a lost claim apart.
func (s *reservationService) push(ctx context.Context, res *model.Reservation, outcome model.SyncOutcome) (*model.Reservation, error) {
	result, err := s.ledger.SendReservation(ctx, res)
	outcome.At = s.clock.Now()
	if err != nil {
		outcome.Error = err.Error()
		s.log.Warn("Booking ledger sync failed",
			"id", res.ID,
			"payment_reference", res.PaymentReference,
			"retry", outcome.Retry,
			"error", err,
		)
	} else {
		outcome.Succeeded = true
		outcome.ExternalBookingID = result.ExternalBookingID
	}

	updated, err := s.repo.ApplySyncOutcome(ctx, res.ID, outcome)
	if err != nil {
		if errors.Is(err, reserrors.ErrClaimLost) {
			s.log.Warn("Sync outcome discarded, claim released during push",
				"id", res.ID,
				"payment_reference", res.PaymentReference,
				"succeeded", outcome.Succeeded,
			)
			return nil, err
		}
		s.log.Error("Failed to record sync outcome",
			"id", res.ID,
			"payment_reference", res.PaymentReference,
			"succeeded", outcome.Succeeded,
			"error", err,
		)
		return nil, err
	}

	eventType := model.EventReservationSynced
	if !outcome.Succeeded {
		eventType = model.EventReservationSyncFailed
	} else {
		s.log.Info("Reservation synced with booking ledger",
			"id", updated.ID,
			"payment_reference", updated.PaymentReference,
			"external_booking_id", updated.ExternalBookingID,
			"attempts", updated.SyncAttempts,
		)
	}
	s.publish(ctx, eventType, updated)
	return updated, nil
}

func (s *reservationService) RetrySync(ctx context.Context, id string) (*model.RecoveryResult, error) {
	return s.retry(ctx, id, model.SyncClaim{})
}

func (s *reservationService) RetrySyncAttempt(ctx context.Context, id string, attempts int) (*model.RecoveryResult, error) {
	return s.retry(ctx, id, model.SyncClaim{Attempts: attempts, MatchAttempts: true})
}

func (s *reservationService) retry(ctx context.Context, id string, claim model.SyncClaim) (*model.RecoveryResult, error) {
	res, err := s.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	if !res.SyncFailed {
		return &model.RecoveryResult{Success: false, Message: MessageNotSyncFailed, Reservation: res}, nil
	}

	now := s.clock.Now()
	claim.Token = uuid.NewString()
	claim.At = now
	claim.StaleBefore = now.Add(-SyncClaimTTL)

	claimed, err := s.repo.ClaimSyncRetry(ctx, id, claim)
	if err != nil {
		if errors.Is(err, reserrors.ErrNotClaimable) {
			return s.unclaimable(ctx, id, claim)
		}
		return nil, s.mapRepoError(err, id, "Failed to claim reservation for retry")
	}

	updated, err := s.push(ctx, claimed, model.SyncOutcome{Retry: true, Claim: claim.Token})
	if err != nil {
		if errors.Is(err, reserrors.ErrClaimLost) {
			current, getErr := s.GetReservation(ctx, id)
			if getErr != nil {
				return nil, getErr
			}
			return &model.RecoveryResult{Success: false, Message: MessageResolvedDuringRetry, Reservation: current}, nil
		}
		return nil, apperrors.Internal("Failed to record sync outcome", err)
	}

	if updated.SyncFailed {
		return &model.RecoveryResult{
			Success:     false,
			Message:     MessageRetryFailed + ": " + updated.SyncError,
			Reservation: updated,
		}, nil
	}
	return &model.RecoveryResult{Success: true, Message: MessageSynced, Reservation: updated}, nil
}

// unclaimable explains why a claim was refused, re-reading the reservation
// since it may have changed after the first read.
func (s *reservationService) unclaimable(ctx context.Context, id string, claim model.SyncClaim) (*model.RecoveryResult, error) {
	current, err := s.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	switch {
	case !current.SyncFailed || current.ManuallyResolved:
		return &model.RecoveryResult{Success: false, Message: MessageNotSyncFailed, Reservation: current}, nil
	case claim.MatchAttempts && current.SyncAttempts != claim.Attempts:
		return &model.RecoveryResult{Success: false, Message: MessageAttemptAlreadyPassed, Reservation: current}, nil
	}
	return nil, apperrors.Conflict(MessageRetryInProgress)
}

func (s *reservationService) MarkResolved(ctx context.Context, id string, req *model.ResolveRequest) (*model.RecoveryResult, error) {
	if req == nil {
		req = &model.ResolveRequest{}
	}
	req.Notes = strings.TrimSpace(req.Notes)

	if err := s.validator.ValidateResolve(req); err != nil {
		return nil, apperrors.Validation("Resolve request validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if _, err := s.GetReservation(ctx, id); err != nil {
		return nil, err
	}

	updated, err := s.repo.MarkResolved(ctx, id, req.Notes, s.clock.Now())
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to mark reservation as resolved")
	}

	s.log.Info("Reservation marked as resolved",
		"id", updated.ID,
		"payment_reference", updated.PaymentReference,
	)
	s.publish(ctx, model.EventReservationResolved, updated)
	return &model.RecoveryResult{Success: true, Message: MessageResolved, Reservation: updated}, nil
}

func (s *reservationService) publish(ctx context.Context, eventType string, res *model.Reservation) {
	if err := s.publisher.Publish(ctx, model.NewReservationEvent(eventType, res, s.clock.Now())); err != nil {
		s.log.Warn("Failed to publish reservation event",
			"type", eventType,
			"payment_reference", res.PaymentReference,
			"error", err,
		)
	}
}
