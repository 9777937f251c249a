package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"staylock/internal/roomlocks/repository"
	"staylock/pkg/clock"
	apperrors "staylock/pkg/errors"
	"staylock/pkg/logger"
	"staylock/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func day(d int) time.Time {
	return time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC)
}

func newTestService() (LockService, *clock.MockClock) {
	clk := clock.NewMockClock(start)
	return NewLockService(repository.NewMemoryRoomLockRepository(), clk, logger.NewNop()), clk
}

func params(ref string, in, out int) model.CreateLockParams {
	return model.CreateLockParams{
		RoomKey:          "R101",
		CheckIn:          day(in),
		CheckOut:         day(out),
		PaymentReference: ref,
		GuestEmail:       "guest@example.com",
	}
}

func TestCreateLock_DefaultTTL(t *testing.T) {
	svc, _ := newTestService()

	lock, err := svc.CreateLock(context.Background(), params("pi_1", 10, 13), 0)
	require.NoError(t, err)
	assert.Equal(t, start.Add(DefaultLockTTL), lock.ExpiresAt)
	assert.Equal(t, "guest@example.com", lock.GuestEmail)
}

func TestCreateLock_R101Scenarios(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.CreateLock(ctx, params("pi_A", 10, 13), 15*time.Minute)
	require.NoError(t, err)

	_, err = svc.CreateLock(ctx, params("pi_B", 12, 14), 15*time.Minute)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.Equal(t, ConflictMessage, apperrors.AsAppError(err).Message)

	_, err = svc.CreateLock(ctx, params("pi_C", 13, 15), 15*time.Minute)
	assert.NoError(t, err, "a stay starting on the previous check-out day must proceed")
}

func TestCreateLock_DuplicateReferenceReturnsExisting(t *testing.T) {
	ctx := context.Background()
	svc, clk := newTestService()

	first, err := svc.CreateLock(ctx, params("pi_1", 10, 13), 15*time.Minute)
	require.NoError(t, err)

	clk.Add(5 * time.Minute)
	second, err := svc.CreateLock(ctx, params("pi_1", 20, 25), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.ExpiresAt, second.ExpiresAt, "expiry must not be refreshed")
	assert.True(t, second.CheckIn.Equal(day(10)))
}

func TestCreateLock_ValidatesInput(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	tests := []struct {
		name   string
		params model.CreateLockParams
	}{
		{"missing reference", params("", 10, 13)},
		{"empty interval", params("pi_1", 10, 10)},
		{"reversed interval", params("pi_1", 13, 10)},
		{"missing room key", func() model.CreateLockParams {
			p := params("pi_1", 10, 13)
			p.RoomKey = "  "
			return p
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateLock(ctx, tt.params, 0)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput), "got %v", err)
		})
	}
}

func TestFindActiveLock_TTLVisibility(t *testing.T) {
	ctx := context.Background()
	svc, clk := newTestService()

	_, err := svc.CreateLock(ctx, params("pi_1", 10, 13), 15*time.Minute)
	require.NoError(t, err)

	clk.Add(14 * time.Minute)
	active, err := svc.HasActiveLock(ctx, "R101", day(11), day(12))
	require.NoError(t, err)
	assert.True(t, active)

	clk.Add(time.Minute)
	active, err = svc.HasActiveLock(ctx, "R101", day(11), day(12))
	require.NoError(t, err)
	assert.False(t, active, "a lock is inactive once expires_at is reached")

	_, err = svc.CreateLock(ctx, params("pi_2", 11, 12), 15*time.Minute)
	assert.NoError(t, err)
}

func TestDeleteLock_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.CreateLock(ctx, params("pi_1", 10, 13), 0)
	require.NoError(t, err)

	deleted, err := svc.DeleteLock(ctx, "pi_1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = svc.DeleteLock(ctx, "pi_1")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = svc.GetLock(ctx, "pi_1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestDeleteLockByRoom(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.CreateLock(ctx, params("pi_1", 10, 13), 0)
	require.NoError(t, err)

	deleted, err := svc.DeleteLockByRoom(ctx, "R101", day(10), day(13))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	active, err := svc.HasActiveLock(ctx, "R101", day(10), day(13))
	require.NoError(t, err)
	assert.False(t, active)
}

func TestCleanupExpiredLocks(t *testing.T) {
	ctx := context.Background()
	svc, clk := newTestService()

	_, err := svc.CreateLock(ctx, params("pi_1", 10, 13), 10*time.Minute)
	require.NoError(t, err)
	_, err = svc.CreateLock(ctx, params("pi_2", 20, 22), time.Hour)
	require.NoError(t, err)

	clk.Add(10 * time.Minute)
	deleted, err := svc.CleanupExpiredLocks(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	locks, err := svc.ListActiveLocks(ctx)
	require.NoError(t, err)
	require.Len(t, locks, 1)
	assert.Equal(t, "pi_2", locks[0].PaymentReference)
}

func TestCreateLock_ConcurrentOverlappingSingleWinner(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	const attempts = 20
	var (
		wg        sync.WaitGroup
		winners   atomic.Int32
		conflicts atomic.Int32
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.CreateLock(ctx, params(fmt.Sprintf("pi_%d", i), 10+i%3, 14), 0)
			switch {
			case err == nil:
				winners.Add(1)
			case apperrors.IsConflict(err):
				conflicts.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, winners.Load())
	assert.EqualValues(t, attempts-1, conflicts.Load())
}

// ────────────────────────────────────────────────
// Sweeper
// ────────────────────────────────────────────────

type countingLockService struct {
	LockService
	calls atomic.Int32
}

func (c *countingLockService) CleanupExpiredLocks(ctx context.Context) (int64, error) {
	c.calls.Add(1)
	return 0, nil
}

func TestSweeper_RunsUntilStopped(t *testing.T) {
	svc := &countingLockService{}
	sweeper := NewSweeper(svc, 5*time.Millisecond, logger.NewNop())

	sweeper.Start()
	require.Eventually(t, func() bool { return svc.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	sweeper.Stop()
	sweeper.Stop()

	calls := svc.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, svc.calls.Load(), "no sweeps after Stop")
}

func TestSweeper_DisabledWithZeroInterval(t *testing.T) {
	svc := &countingLockService{}
	sweeper := NewSweeper(svc, 0, logger.NewNop())

	sweeper.Start()
	sweeper.Stop()
	assert.Zero(t, svc.calls.Load())
}
