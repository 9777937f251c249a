package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	reserrors "staylock/internal/reservations/errors"
	"staylock/pkg/model"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memoryReservationRepository mirrors the unique payment_reference index of
// the Mongo collection with a second map.
type memoryReservationRepository struct {
	mu    sync.Mutex
	byID  map[string]*model.Reservation
	byRef map[string]string

	// insertErr, when set, is returned by the next Insert call.
	insertErr error
}

type MemoryReservationRepository interface {
	ReservationRepository
	FailNextInsert(err error)
}

func NewMemoryReservationRepository() MemoryReservationRepository {
	return &memoryReservationRepository{
		byID:  make(map[string]*model.Reservation),
		byRef: make(map[string]string),
	}
}

func (r *memoryReservationRepository) FailNextInsert(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.insertErr = err
}

func clone(res *model.Reservation) *model.Reservation {
	cp := *res
	cp.Rooms = append([]model.ReservationRoom(nil), res.Rooms...)
	return &cp
}

func (r *memoryReservationRepository) Insert(_ context.Context, reservation *model.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.insertErr; err != nil {
		r.insertErr = nil
		return err
	}
	if _, ok := r.byRef[reservation.PaymentReference]; ok {
		return errors.Wrapf(reserrors.ErrDuplicate, "insert reservation %s", reservation.PaymentReference)
	}

	stored := clone(reservation)
	stored.ID = primitive.NewObjectID().Hex()
	r.byID[stored.ID] = stored
	r.byRef[stored.PaymentReference] = stored.ID

	reservation.ID = stored.ID
	return nil
}

func (r *memoryReservationRepository) FindByID(_ context.Context, id string) (*model.Reservation, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, errors.Wrapf(reserrors.ErrInvalidID, "%q", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.byID[id]
	if !ok {
		return nil, reserrors.ErrNotFound
	}
	return clone(res), nil
}

func (r *memoryReservationRepository) FindByPaymentReference(_ context.Context, paymentReference string) (*model.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byRef[paymentReference]
	if !ok {
		return nil, reserrors.ErrNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *memoryReservationRepository) ListSyncFailed(_ context.Context) ([]*model.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var failed []*model.Reservation
	for _, res := range r.byID {
		if res.SyncFailed {
			failed = append(failed, clone(res))
		}
	}
	sort.Slice(failed, func(i, j int) bool {
		return failedAt(failed[i]).After(failedAt(failed[j]))
	})
	return failed, nil
}

func failedAt(res *model.Reservation) time.Time {
	if res.SyncFailedAt == nil {
		return time.Time{}
	}
	return *res.SyncFailedAt
}

func claimable(res *model.Reservation, claim model.SyncClaim) bool {
	if !res.SyncFailed || res.ManuallyResolved {
		return false
	}
	if claim.MatchAttempts && res.SyncAttempts != claim.Attempts {
		return false
	}
	return res.SyncClaim == "" || (res.SyncClaimedAt != nil && res.SyncClaimedAt.Before(claim.StaleBefore))
}

func (r *memoryReservationRepository) ClaimSyncRetry(_ context.Context, id string, claim model.SyncClaim) (*model.Reservation, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, errors.Wrapf(reserrors.ErrInvalidID, "%q", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.byID[id]
	if !ok || !claimable(res, claim) {
		return nil, errors.Wrapf(reserrors.ErrNotClaimable, "claim reservation %s", id)
	}

	at := claim.At
	res.SyncClaim = claim.Token
	res.SyncClaimedAt = &at
	return clone(res), nil
}

func (r *memoryReservationRepository) ApplySyncOutcome(_ context.Context, id string, outcome model.SyncOutcome) (*model.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.byID[id]
	if outcome.Claim != "" && (!ok || res.SyncClaim != outcome.Claim || res.ManuallyResolved) {
		return nil, errors.Wrapf(reserrors.ErrClaimLost, "record sync outcome %s", id)
	}
	if !ok {
		return nil, reserrors.ErrNotFound
	}

	if outcome.Claim != "" {
		res.SyncClaim = ""
		res.SyncClaimedAt = nil
	}
	at := outcome.At
	res.UpdatedAt = at
	res.SyncAttempts++
	if outcome.Succeeded {
		res.SyncFailed = false
		res.SyncError = ""
		if outcome.ExternalBookingID != "" {
			res.ExternalBookingID = outcome.ExternalBookingID
		}
	} else {
		res.SyncFailed = true
		res.SyncError = outcome.Error
		res.SyncFailedAt = &at
	}
	if outcome.Retry {
		res.SyncRetriedAt = &at
	}
	return clone(res), nil
}

func (r *memoryReservationRepository) MarkResolved(_ context.Context, id, notes string, at time.Time) (*model.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.byID[id]
	if !ok {
		return nil, reserrors.ErrNotFound
	}

	res.SyncFailed = false
	res.SyncClaim = ""
	res.SyncClaimedAt = nil
	res.ManuallyResolved = true
	res.ResolvedAt = &at
	res.ResolvedNotes = notes
	res.UpdatedAt = at
	return clone(res), nil
}
