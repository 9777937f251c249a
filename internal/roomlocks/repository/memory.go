package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	lockerrors "staylock/internal/roomlocks/errors"
	"staylock/pkg/interval"
	"staylock/pkg/model"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// memoryRoomLockRepository keeps locks in process. A single mutex gives
// CreateIfAvailable the same check-and-insert atomicity the Mongo
// implementation gets from its guard document.
type memoryRoomLockRepository struct {
	mu    sync.Mutex
	locks map[string]*model.RoomLock
}

func NewMemoryRoomLockRepository() RoomLockRepository {
	return &memoryRoomLockRepository{
		locks: make(map[string]*model.RoomLock),
	}
}

func (r *memoryRoomLockRepository) FindActive(_ context.Context, roomKey string, checkIn, checkOut, now time.Time) (*model.RoomLock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if lock := r.findActiveLocked(roomKey, checkIn, checkOut, now); lock != nil {
		cp := *lock
		return &cp, nil
	}
	return nil, nil
}

func (r *memoryRoomLockRepository) findActiveLocked(roomKey string, checkIn, checkOut, now time.Time) *model.RoomLock {
	var found *model.RoomLock
	for _, lock := range r.locks {
		if lock.RoomKey != roomKey || !lock.ActiveAt(now) {
			continue
		}
		if !interval.Overlaps(lock.CheckIn, lock.CheckOut, checkIn, checkOut) {
			continue
		}
		if found == nil || lock.CheckIn.Before(found.CheckIn) {
			found = lock
		}
	}
	return found
}

func (r *memoryRoomLockRepository) FindByPaymentReference(_ context.Context, paymentReference string) (*model.RoomLock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.locks[paymentReference]
	if !ok {
		return nil, lockerrors.ErrNotFound
	}
	cp := *lock
	return &cp, nil
}

func (r *memoryRoomLockRepository) CreateIfAvailable(_ context.Context, lock *model.RoomLock, now time.Time) (*model.RoomLock, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.locks[lock.PaymentReference]; ok {
		cp := *existing
		return &cp, false, nil
	}

	if conflict := r.findActiveLocked(lock.RoomKey, lock.CheckIn, lock.CheckOut, now); conflict != nil {
		return nil, false, errors.Wrapf(lockerrors.ErrLockConflict, "held by %s", conflict.PaymentReference)
	}

	stored := *lock
	stored.ID = uuid.NewString()
	stored.CreatedAt = now
	r.locks[stored.PaymentReference] = &stored

	cp := stored
	return &cp, true, nil
}

func (r *memoryRoomLockRepository) DeleteByPaymentReference(_ context.Context, paymentReference string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.locks[paymentReference]; !ok {
		return false, nil
	}
	delete(r.locks, paymentReference)
	return true, nil
}

func (r *memoryRoomLockRepository) DeleteByRoom(_ context.Context, roomKey string, checkIn, checkOut time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for ref, lock := range r.locks {
		if lock.RoomKey == roomKey && lock.CheckIn.Equal(checkIn) && lock.CheckOut.Equal(checkOut) {
			delete(r.locks, ref)
			deleted++
		}
	}
	return deleted, nil
}

func (r *memoryRoomLockRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for ref, lock := range r.locks {
		if !lock.ActiveAt(now) {
			delete(r.locks, ref)
			deleted++
		}
	}
	return deleted, nil
}

func (r *memoryRoomLockRepository) ListActive(_ context.Context, now time.Time) ([]*model.RoomLock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	locks := make([]*model.RoomLock, 0, len(r.locks))
	for _, lock := range r.locks {
		if lock.ActiveAt(now) {
			cp := *lock
			locks = append(locks, &cp)
		}
	}
	sort.Slice(locks, func(i, j int) bool {
		if locks[i].RoomKey != locks[j].RoomKey {
			return locks[i].RoomKey < locks[j].RoomKey
		}
		return locks[i].CheckIn.Before(locks[j].CheckIn)
	})
	return locks, nil
}
