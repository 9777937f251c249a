//go:build integration

package repository

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	migrations "staylock/internal/migrations/mongo"
	lockerrors "staylock/internal/roomlocks/errors"
	"staylock/pkg/client"
	"staylock/pkg/config"
	"staylock/pkg/logger"
	"staylock/pkg/model"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Transactions need a replica set, e.g. mongodb://localhost:27017/?replicaSet=rs0.
func newIntegrationRepo(t *testing.T) RoomLockRepository {
	t.Helper()

	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mc, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, mc.Ping(ctx, nil))

	dbName := "staylock_it_" + uuid.NewString()[:8]
	db := mc.Database(dbName)
	require.NoError(t, migrations.RunMigration(ctx, db, logger.NewNop()))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = mc.Disconnect(ctx)
	})

	cfg := &config.Config{
		MongoDatabaseName: dbName,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		Client:            &client.Client{Mongo: mc},
	}
	return NewMongoRoomLockRepository(cfg)
}

func itLock(ref string, in, out int, now time.Time) *model.RoomLock {
	return &model.RoomLock{
		RoomKey:          "R101",
		CheckIn:          time.Date(2030, 6, in, 0, 0, 0, 0, time.UTC),
		CheckOut:         time.Date(2030, 6, out, 0, 0, 0, 0, time.UTC),
		PaymentReference: ref,
		ExpiresAt:        now.Add(15 * time.Minute),
	}
}

func TestMongoRoomLockRepository_OverlapAndAdjacency(t *testing.T) {
	repo := newIntegrationRepo(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	_, created, err := repo.CreateIfAvailable(ctx, itLock("pi_A", 10, 13, now), now)
	require.NoError(t, err)
	assert.True(t, created)

	_, _, err = repo.CreateIfAvailable(ctx, itLock("pi_B", 12, 14, now), now)
	assert.True(t, errors.Is(err, lockerrors.ErrLockConflict), "got %v", err)

	_, created, err = repo.CreateIfAvailable(ctx, itLock("pi_C", 13, 15, now), now)
	require.NoError(t, err)
	assert.True(t, created)

	existing, created, err := repo.CreateIfAvailable(ctx, itLock("pi_A", 20, 22, now), now)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 10, existing.CheckIn.Day())
}

func TestMongoRoomLockRepository_ConcurrentSingleWinner(t *testing.T) {
	repo := newIntegrationRepo(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	const attempts = 10
	var (
		wg      sync.WaitGroup
		winners atomic.Int32
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, created, err := repo.CreateIfAvailable(ctx, itLock(fmt.Sprintf("pi_%d", i), 10, 14, now), now)
			if err == nil && created {
				winners.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, winners.Load())
	locks, err := repo.ListActive(ctx, now)
	require.NoError(t, err)
	assert.Len(t, locks, 1)
}

func TestMongoRoomLockRepository_DeleteExpired(t *testing.T) {
	repo := newIntegrationRepo(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	_, _, err := repo.CreateIfAvailable(ctx, itLock("pi_1", 10, 12, now), now)
	require.NoError(t, err)

	deleted, err := repo.DeleteExpired(ctx, now.Add(15*time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
}
