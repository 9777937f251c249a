package repository

import (
	"context"
	"time"

	migrations "staylock/internal/migrations/mongo"
	lockerrors "staylock/internal/roomlocks/errors"
	"staylock/pkg/config"
	mongodb "staylock/pkg/db/mongo"
	"staylock/pkg/model"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName      = "Room_locks"
	GuardCollectionName = "Room_lock_guards"
)

// RoomLockRepository stores room locks. CreateIfAvailable is the only write
// allowed to place a lock, because it performs the overlap check and the
// insert as one atomic step.
type RoomLockRepository interface {
	FindActive(ctx context.Context, roomKey string, checkIn, checkOut, now time.Time) (*model.RoomLock, error)
	FindByPaymentReference(ctx context.Context, paymentReference string) (*model.RoomLock, error)
	CreateIfAvailable(ctx context.Context, lock *model.RoomLock, now time.Time) (*model.RoomLock, bool, error)
	DeleteByPaymentReference(ctx context.Context, paymentReference string) (bool, error)
	DeleteByRoom(ctx context.Context, roomKey string, checkIn, checkOut time.Time) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	ListActive(ctx context.Context, now time.Time) ([]*model.RoomLock, error)
}

type mongoRoomLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	guards     *mongo.Collection
	txManager  mongodb.TransactionManager
}

func NewMongoRoomLockRepository(cfg *config.Config) RoomLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRoomLockRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		guards:     db.Collection(GuardCollectionName),
		txManager:  mongodb.NewTransactionManager(cfg.Client.Mongo),
	}
}

func overlapFilter(roomKey string, checkIn, checkOut, now time.Time) bson.M {
	return bson.M{
		"room_key":   roomKey,
		"check_in":   bson.M{"$lt": checkOut},
		"check_out":  bson.M{"$gt": checkIn},
		"expires_at": bson.M{"$gt": now},
	}
}

// FindActive returns nil without error when no unexpired lock overlaps.
func (r *mongoRoomLockRepository) FindActive(ctx context.Context, roomKey string, checkIn, checkOut, now time.Time) (*model.RoomLock, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.FindOne().SetSort(bson.D{{Key: "check_in", Value: 1}})

	var lock model.RoomLock
	err := r.collection.FindOne(ctx, overlapFilter(roomKey, checkIn, checkOut, now), opts).Decode(&lock)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "find active lock for room %s", roomKey)
	}
	return &lock, nil
}

func (r *mongoRoomLockRepository) FindByPaymentReference(ctx context.Context, paymentReference string) (*model.RoomLock, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var lock model.RoomLock
	err := r.collection.FindOne(ctx, bson.M{"payment_reference": paymentReference}).Decode(&lock)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, lockerrors.ErrNotFound
		}
		return nil, errors.Wrap(err, "find lock by payment reference")
	}
	return &lock, nil
}

// CreateIfAvailable runs inside a transaction that first bumps the room's
// guard document. Two transactions for the same room key both write that
// document, so one of them hits a write conflict and is retried by the
// driver after the other commits, at which point it sees the new lock.
func (r *mongoRoomLockRepository) CreateIfAvailable(ctx context.Context, lock *model.RoomLock, now time.Time) (*model.RoomLock, bool, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, created, err := r.createInTx(ctx, lock, now)
	if err != nil && mongodb.IsDuplicateKeyOn(err, mongodb.IDIndex) {
		// Two first-time upserts raced on the guard; it exists now.
		result, created, err = r.createInTx(ctx, lock, now)
	}

	if err != nil {
		switch {
		case mongodb.IsDuplicateKeyOn(err, migrations.PaymentReferenceIndex):
			// Another writer committed the same payment reference first.
			existing, findErr := r.FindByPaymentReference(ctx, lock.PaymentReference)
			if findErr != nil {
				return nil, false, errors.Wrap(findErr, "load lock after duplicate insert")
			}
			return existing, false, nil
		case errors.Is(err, lockerrors.ErrLockConflict):
			return nil, false, err
		}
		return nil, false, errors.Wrap(err, "create room lock")
	}

	return result, created, nil
}

func (r *mongoRoomLockRepository) createInTx(ctx context.Context, lock *model.RoomLock, now time.Time) (*model.RoomLock, bool, error) {
	var (
		result  *model.RoomLock
		created bool
	)

	err := r.txManager.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		result, created = nil, false

		existing, err := r.FindByPaymentReference(sessCtx, lock.PaymentReference)
		if err == nil {
			result = existing
			return nil
		}
		if !errors.Is(err, lockerrors.ErrNotFound) {
			return err
		}

		if err := r.bumpGuard(sessCtx, lock.RoomKey, now); err != nil {
			return err
		}

		conflict, err := r.FindActive(sessCtx, lock.RoomKey, lock.CheckIn, lock.CheckOut, now)
		if err != nil {
			return err
		}
		if conflict != nil {
			return errors.Wrapf(lockerrors.ErrLockConflict, "held by %s", conflict.PaymentReference)
		}

		insert := *lock
		insert.ID = ""
		insert.CreatedAt = mongodb.Millis(now)
		res, err := r.collection.InsertOne(sessCtx, &insert)
		if err != nil {
			return err
		}
		if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
			insert.ID = oid.Hex()
		}
		result, created = &insert, true
		return nil
	})
	return result, created, err
}

func (r *mongoRoomLockRepository) bumpGuard(ctx context.Context, roomKey string, now time.Time) error {
	_, err := r.guards.UpdateOne(ctx,
		bson.M{"_id": roomKey},
		bson.M{
			"$inc": bson.M{"version": 1},
			"$set": bson.M{"touched_at": mongodb.Millis(now)},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return errors.Wrapf(err, "bump lock guard for room %s", roomKey)
	}
	return nil
}

func (r *mongoRoomLockRepository) DeleteByPaymentReference(ctx context.Context, paymentReference string) (bool, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, bson.M{"payment_reference": paymentReference})
	if err != nil {
		return false, errors.Wrap(err, "delete lock by payment reference")
	}
	return res.DeletedCount > 0, nil
}

func (r *mongoRoomLockRepository) DeleteByRoom(ctx context.Context, roomKey string, checkIn, checkOut time.Time) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	res, err := r.collection.DeleteMany(ctx, bson.M{
		"room_key":  roomKey,
		"check_in":  checkIn,
		"check_out": checkOut,
	})
	if err != nil {
		return 0, errors.Wrapf(err, "delete locks for room %s", roomKey)
	}
	return res.DeletedCount, nil
}

func (r *mongoRoomLockRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	res, err := r.collection.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now}})
	if err != nil {
		return 0, errors.Wrap(err, "delete expired locks")
	}
	return res.DeletedCount, nil
}

func (r *mongoRoomLockRepository) ListActive(ctx context.Context, now time.Time) ([]*model.RoomLock, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "room_key", Value: 1}, {Key: "check_in", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"expires_at": bson.M{"$gt": now}}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "list active locks")
	}
	defer cursor.Close(ctx)

	var locks []*model.RoomLock
	if err := cursor.All(ctx, &locks); err != nil {
		return nil, errors.Wrap(err, "decode active locks")
	}
	return locks, nil
}
