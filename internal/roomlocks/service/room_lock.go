package service

import (
	"context"
	"strings"
	"time"

	lockerrors "staylock/internal/roomlocks/errors"
	"staylock/internal/roomlocks/repository"
	"staylock/pkg/clock"
	apperrors "staylock/pkg/errors"
	"staylock/pkg/logger"
	"staylock/pkg/model"

	"github.com/cockroachdb/errors"
)

const (
	DefaultLockTTL = 15 * time.Minute

	ConflictMessage = "room is currently being booked by someone else"
)

type LockService interface {
	FindActiveLock(ctx context.Context, roomKey string, checkIn, checkOut time.Time) (*model.RoomLock, error)
	HasActiveLock(ctx context.Context, roomKey string, checkIn, checkOut time.Time) (bool, error)
	GetLock(ctx context.Context, paymentReference string) (*model.RoomLock, error)
	CreateLock(ctx context.Context, params model.CreateLockParams, ttl time.Duration) (*model.RoomLock, error)
	DeleteLock(ctx context.Context, paymentReference string) (bool, error)
	DeleteLockByRoom(ctx context.Context, roomKey string, checkIn, checkOut time.Time) (int64, error)
	CleanupExpiredLocks(ctx context.Context) (int64, error)
	ListActiveLocks(ctx context.Context) ([]*model.RoomLock, error)
}

type lockService struct {
	repo  repository.RoomLockRepository
	clock clock.Clock
	log   *logger.Logger
}

func NewLockService(repo repository.RoomLockRepository, clk clock.Clock, log *logger.Logger) LockService {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &lockService{
		repo:  repo,
		clock: clk,
		log:   log.Component("room_locks"),
	}
}

func validateRange(roomKey string, checkIn, checkOut time.Time) error {
	if strings.TrimSpace(roomKey) == "" {
		return apperrors.InvalidInput(lockerrors.ErrMissingRoomKey.Error())
	}
	if !checkIn.Before(checkOut) {
		return apperrors.InvalidInput(lockerrors.ErrInvalidRange.Error())
	}
	return nil
}

func (s *lockService) FindActiveLock(ctx context.Context, roomKey string, checkIn, checkOut time.Time) (*model.RoomLock, error) {
	if err := validateRange(roomKey, checkIn, checkOut); err != nil {
		return nil, err
	}

	lock, err := s.repo.FindActive(ctx, roomKey, checkIn.UTC(), checkOut.UTC(), s.clock.Now())
	if err != nil {
		s.log.Error("Failed to look up active lock", "room_key", roomKey, "error", err)
		return nil, apperrors.Internal("Failed to check room lock", err)
	}
	return lock, nil
}

func (s *lockService) HasActiveLock(ctx context.Context, roomKey string, checkIn, checkOut time.Time) (bool, error) {
	lock, err := s.FindActiveLock(ctx, roomKey, checkIn, checkOut)
	if err != nil {
		return false, err
	}
	return lock != nil, nil
}

func (s *lockService) GetLock(ctx context.Context, paymentReference string) (*model.RoomLock, error) {
	if paymentReference == "" {
		return nil, apperrors.InvalidInput(lockerrors.ErrMissingReference.Error())
	}

	lock, err := s.repo.FindByPaymentReference(ctx, paymentReference)
	if err != nil {
		if errors.Is(err, lockerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Room lock", paymentReference)
		}
		return nil, apperrors.Internal("Failed to load room lock", err)
	}
	return lock, nil
}

// CreateLock places a lock that expires ttl from now. A ttl of zero or less
// uses DefaultLockTTL. Creating a lock for a payment reference that already
// holds one returns the existing lock unchanged.
func (s *lockService) CreateLock(ctx context.Context, params model.CreateLockParams, ttl time.Duration) (*model.RoomLock, error) {
	if params.PaymentReference == "" {
		return nil, apperrors.InvalidInput(lockerrors.ErrMissingReference.Error())
	}
	if err := validateRange(params.RoomKey, params.CheckIn, params.CheckOut); err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}

	now := s.clock.Now()
	lock := &model.RoomLock{
		RoomKey:          params.RoomKey,
		CheckIn:          params.CheckIn.UTC(),
		CheckOut:         params.CheckOut.UTC(),
		PaymentReference: params.PaymentReference,
		ExpiresAt:        now.Add(ttl),
		ApartmentID:      params.ApartmentID,
		GuestName:        params.GuestName,
		GuestEmail:       params.GuestEmail,
		GuestPhone:       params.GuestPhone,
	}

	stored, created, err := s.repo.CreateIfAvailable(ctx, lock, now)
	if err != nil {
		if errors.Is(err, lockerrors.ErrLockConflict) {
			s.log.Info("Room lock conflict",
				"room_key", params.RoomKey,
				"check_in", params.CheckIn,
				"check_out", params.CheckOut,
				"payment_reference", params.PaymentReference,
				"detail", err.Error(),
			)
			return nil, apperrors.Conflict(ConflictMessage)
		}
		s.log.Error("Failed to create room lock", "room_key", params.RoomKey, "payment_reference", params.PaymentReference, "error", err)
		return nil, apperrors.Internal("Failed to create room lock", err)
	}

	if !created {
		s.log.Info("Room lock already exists for payment reference", "payment_reference", params.PaymentReference)
		return stored, nil
	}

	s.log.Info("Room lock created",
		"room_key", stored.RoomKey,
		"check_in", stored.CheckIn,
		"check_out", stored.CheckOut,
		"payment_reference", stored.PaymentReference,
		"expires_at", stored.ExpiresAt,
	)
	return stored, nil
}

// DeleteLock is idempotent. The boolean reports whether a lock existed.
func (s *lockService) DeleteLock(ctx context.Context, paymentReference string) (bool, error) {
	if paymentReference == "" {
		return false, apperrors.InvalidInput(lockerrors.ErrMissingReference.Error())
	}

	deleted, err := s.repo.DeleteByPaymentReference(ctx, paymentReference)
	if err != nil {
		s.log.Error("Failed to delete room lock", "payment_reference", paymentReference, "error", err)
		return false, apperrors.Internal("Failed to delete room lock", err)
	}
	if deleted {
		s.log.Info("Room lock released", "payment_reference", paymentReference)
	}
	return deleted, nil
}

func (s *lockService) DeleteLockByRoom(ctx context.Context, roomKey string, checkIn, checkOut time.Time) (int64, error) {
	if err := validateRange(roomKey, checkIn, checkOut); err != nil {
		return 0, err
	}

	deleted, err := s.repo.DeleteByRoom(ctx, roomKey, checkIn.UTC(), checkOut.UTC())
	if err != nil {
		return 0, apperrors.Internal("Failed to delete room locks", err)
	}
	return deleted, nil
}

func (s *lockService) CleanupExpiredLocks(ctx context.Context) (int64, error) {
	deleted, err := s.repo.DeleteExpired(ctx, s.clock.Now())
	if err != nil {
		s.log.Error("Failed to clean up expired locks", "error", err)
		return 0, apperrors.Internal("Failed to clean up expired locks", err)
	}
	if deleted > 0 {
		s.log.Info("Expired room locks removed", "count", deleted)
	}
	return deleted, nil
}

func (s *lockService) ListActiveLocks(ctx context.Context) ([]*model.RoomLock, error) {
	locks, err := s.repo.ListActive(ctx, s.clock.Now())
	if err != nil {
		return nil, apperrors.Internal("Failed to list room locks", err)
	}
	return locks, nil
}
