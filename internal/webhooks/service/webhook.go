package service

import (
	"context"
	"strings"
	"time"

	"staylock/internal/events"
	reserrors "staylock/internal/reservations/errors"
	"staylock/internal/reservations/repository"
	"staylock/pkg/clock"
	apperrors "staylock/pkg/errors"
	"staylock/pkg/logger"
	"staylock/pkg/model"
	"staylock/pkg/payments"

	"github.com/cockroachdb/errors"
)

// Outcome records what a webhook delivery did. It is logged and asserted on
// in tests; the provider is always told the delivery was received.
type Outcome string

const (
	OutcomeCommitted Outcome = "committed"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeReleased  Outcome = "released"
	OutcomeIgnored   Outcome = "ignored"
)

type LockReleaser interface {
	GetLock(ctx context.Context, paymentReference string) (*model.RoomLock, error)
	DeleteLock(ctx context.Context, paymentReference string) (bool, error)
}

type ReservationSyncer interface {
	Sync(ctx context.Context, res *model.Reservation, retry bool) (*model.Reservation, error)
}

type WebhookService interface {
	HandleEvent(ctx context.Context, evt *payments.Event) (Outcome, error)
}

type webhookService struct {
	repo      repository.ReservationRepository
	locks     LockReleaser
	syncer    ReservationSyncer
	publisher events.Publisher
	clock     clock.Clock
	log       *logger.Logger
}

func NewWebhookService(
	repo repository.ReservationRepository,
	locks LockReleaser,
	syncer ReservationSyncer,
	publisher events.Publisher,
	clk clock.Clock,
	log *logger.Logger,
) WebhookService {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &webhookService{
		repo:      repo,
		locks:     locks,
		syncer:    syncer,
		publisher: publisher,
		clock:     clk,
		log:       log.Component("webhooks"),
	}
}

func (s *webhookService) HandleEvent(ctx context.Context, evt *payments.Event) (Outcome, error) {
	switch evt.Type {
	case payments.EventPaymentSucceeded:
		return s.handleSucceeded(ctx, evt.Intent)
	case payments.EventPaymentFailed, payments.EventPaymentCanceled:
		s.releaseLock(ctx, evt.Intent.ID)
		s.log.Info("Payment did not complete, room released",
			"event_id", evt.ID,
			"type", evt.Type,
			"payment_reference", evt.Intent.ID,
		)
		return OutcomeReleased, nil
	default:
		s.log.Debug("Ignoring webhook event", "event_id", evt.ID, "type", evt.Type)
		return OutcomeIgnored, nil
	}
}

func (s *webhookService) handleSucceeded(ctx context.Context, intent payments.Intent) (Outcome, error) {
	ref := intent.ID

	existing, err := s.repo.FindByPaymentReference(ctx, ref)
	switch {
	case err == nil:
		s.releaseLock(ctx, ref)
		s.log.Info("Payment already recorded", "payment_reference", ref, "reservation_id", existing.ID)
		return OutcomeDuplicate, nil
	case !errors.Is(err, reserrors.ErrNotFound):
		s.log.Error("Failed to check for existing reservation", "payment_reference", ref, "error", err)
		return "", apperrors.Internal("Failed to check for existing reservation", err)
	}

	res, ok := s.materialize(ctx, intent)
	if !ok {
		s.releaseLock(ctx, ref)
		s.log.Warn("Payment has no booking details, no reservation recorded", "payment_reference", ref)
		return OutcomeSkipped, nil
	}

	if err := s.repo.Insert(ctx, res); err != nil {
		if errors.Is(err, reserrors.ErrDuplicate) {
			s.releaseLock(ctx, ref)
			s.log.Info("Payment recorded by a concurrent delivery", "payment_reference", ref)
			return OutcomeDuplicate, nil
		}

		// The lock stays in place so the room is not offered again while the
		// paid booking is unrecorded; its TTL bounds the hold.
		s.log.Error("Failed to persist paid reservation",
			"payment_reference", ref,
			"apartment_id", res.ApartmentID,
			"error", err,
		)
		s.publish(ctx, model.EventReservationPersistFailed, res, err.Error())
		return "", apperrors.Internal("Failed to persist reservation", err)
	}

	s.log.Info("Reservation confirmed",
		"reservation_id", res.ID,
		"payment_reference", ref,
		"apartment_id", res.ApartmentID,
		"room_key", res.RoomKey,
	)
	s.publish(ctx, model.EventReservationConfirmed, res, "")

	if _, err := s.syncer.Sync(ctx, res, false); err != nil {
		s.log.Error("Failed to record booking ledger outcome",
			"reservation_id", res.ID,
			"payment_reference", ref,
			"error", err,
		)
	}

	s.releaseLock(ctx, ref)
	return OutcomeCommitted, nil
}

// materialize builds the reservation from the intent metadata, falling back
// to the lock row for contact details, dates and the listing. ok is false
// when neither source identifies the listing and the stay.
func (s *webhookService) materialize(ctx context.Context, intent payments.Intent) (*model.Reservation, bool) {
	meta := payments.ParseBookingMetadata(intent.Metadata)

	lock, err := s.locks.GetLock(ctx, intent.ID)
	if err != nil {
		if !apperrors.HasCode(err, apperrors.CodeNotFound) {
			s.log.Warn("Failed to read room lock for payment", "payment_reference", intent.ID, "error", err)
		}
		lock = nil
	}
	if lock != nil {
		meta.ApartmentID = firstNonEmpty(meta.ApartmentID, lock.ApartmentID)
		meta.RoomKey = firstNonEmpty(meta.RoomKey, lock.RoomKey)
		meta.GuestName = firstNonEmpty(meta.GuestName, lock.GuestName)
		meta.GuestEmail = firstNonEmpty(meta.GuestEmail, lock.GuestEmail)
		meta.GuestPhone = firstNonEmpty(meta.GuestPhone, lock.GuestPhone)
		if meta.CheckIn.IsZero() || meta.CheckOut.IsZero() {
			meta.CheckIn, meta.CheckOut = lock.CheckIn, lock.CheckOut
		}
	}

	if meta.ApartmentID == "" || !meta.CheckIn.Before(meta.CheckOut) {
		return nil, false
	}

	if meta.TotalPrice == 0 {
		meta.TotalPrice = payments.FromMinorUnits(intent.Amount)
	}
	if meta.Currency == "" {
		meta.Currency = strings.ToUpper(intent.Currency)
	}

	now := s.clock.Now()
	return &model.Reservation{
		ApartmentID:      meta.ApartmentID,
		HotelID:          meta.HotelID,
		RoomKey:          meta.RoomKey,
		GuestName:        meta.GuestName,
		GuestEmail:       meta.GuestEmail,
		GuestPhone:       meta.GuestPhone,
		CheckIn:          meta.CheckIn,
		CheckOut:         meta.CheckOut,
		GuestsCount:      meta.GuestsCount,
		Rooms:            meta.Rooms,
		TotalPrice:       meta.TotalPrice,
		Currency:         meta.Currency,
		PaymentReference: intent.ID,
		Status:           model.ReservationStatusConfirmed,
		SyncFailed:       false,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func (s *webhookService) releaseLock(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if _, err := s.locks.DeleteLock(ctx, ref); err != nil {
		s.log.Warn("Failed to release room lock", "payment_reference", ref, "error", err)
	}
}

func (s *webhookService) publish(ctx context.Context, eventType string, res *model.Reservation, cause string) {
	evt := model.NewReservationEvent(eventType, res, s.clock.Now())
	if cause != "" {
		evt.Error = cause
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.log.Warn("Failed to publish reservation event",
			"type", eventType,
			"payment_reference", res.PaymentReference,
			"error", err,
		)
	}
}
