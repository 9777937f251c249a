package repository

import (
	"context"
	"time"

	migrations "staylock/internal/migrations/mongo"
	reserrors "staylock/internal/reservations/errors"
	"staylock/pkg/config"
	mongodb "staylock/pkg/db/mongo"
	"staylock/pkg/model"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "Reservations"

type ReservationRepository interface {
	// Insert stores a new reservation and fills in its ID. A reservation
	// already stored for the same payment reference yields ErrDuplicate.
	Insert(ctx context.Context, reservation *model.Reservation) error
	FindByID(ctx context.Context, id string) (*model.Reservation, error)
	FindByPaymentReference(ctx context.Context, paymentReference string) (*model.Reservation, error)
	ListSyncFailed(ctx context.Context) ([]*model.Reservation, error)

	// ClaimSyncRetry takes the retry claim on a failed, unresolved
	// reservation. It yields ErrNotClaimable when no such reservation
	// matches the claim conditions.
	ClaimSyncRetry(ctx context.Context, id string, claim model.SyncClaim) (*model.Reservation, error)

	// ApplySyncOutcome records a ledger push. With outcome.Claim set it
	// yields ErrClaimLost if the claim has been released.
	ApplySyncOutcome(ctx context.Context, id string, outcome model.SyncOutcome) (*model.Reservation, error)

	// MarkResolved clears the failure flag and releases any retry claim.
	MarkResolved(ctx context.Context, id, notes string, at time.Time) (*model.Reservation, error)
}

type mongoReservationRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoReservationRepository(cfg *config.Config) ReservationRepository {
	return &mongoReservationRepository{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(CollectionName),
	}
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, errors.Wrapf(reserrors.ErrInvalidID, "%q", id)
	}
	return oid, nil
}

func (r *mongoReservationRepository) Insert(ctx context.Context, reservation *model.Reservation) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	doc := *reservation
	doc.ID = ""
	res, err := r.collection.InsertOne(ctx, &doc)
	if err != nil {
		if mongodb.IsDuplicateKeyOn(err, migrations.PaymentReferenceIndex) {
			return errors.Mark(errors.Wrapf(err, "insert reservation %s", reservation.PaymentReference), reserrors.ErrDuplicate)
		}
		return errors.Wrap(err, "insert reservation")
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		reservation.ID = oid.Hex()
	}
	return nil
}

func (r *mongoReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *mongoReservationRepository) FindByPaymentReference(ctx context.Context, paymentReference string) (*model.Reservation, error) {
	return r.findOne(ctx, bson.M{"payment_reference": paymentReference})
}

func (r *mongoReservationRepository) findOne(ctx context.Context, filter bson.M) (*model.Reservation, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var reservation model.Reservation
	if err := r.collection.FindOne(ctx, filter).Decode(&reservation); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reserrors.ErrNotFound
		}
		return nil, errors.Wrap(err, "find reservation")
	}
	return &reservation, nil
}

func (r *mongoReservationRepository) ListSyncFailed(ctx context.Context) ([]*model.Reservation, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "sync_failed_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"sync_failed": true}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "list sync failed reservations")
	}
	defer cursor.Close(ctx)

	var reservations []*model.Reservation
	if err := cursor.All(ctx, &reservations); err != nil {
		return nil, errors.Wrap(err, "decode sync failed reservations")
	}
	return reservations, nil
}

func claimFilter(oid primitive.ObjectID, claim model.SyncClaim) bson.M {
	filter := bson.M{
		"_id":               oid,
		"sync_failed":       true,
		"manually_resolved": bson.M{"$ne": true},
		"$or": bson.A{
			bson.M{"sync_claim": bson.M{"$exists": false}},
			bson.M{"sync_claimed_at": bson.M{"$lt": mongodb.Millis(claim.StaleBefore)}},
		},
	}
	if claim.MatchAttempts {
		filter["sync_attempts"] = claim.Attempts
	}
	return filter
}

func (r *mongoReservationRepository) ClaimSyncRetry(ctx context.Context, id string, claim model.SyncClaim) (*model.Reservation, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	res, err := r.findOneAndUpdate(ctx, claimFilter(oid, claim), bson.M{
		"$set": bson.M{
			"sync_claim":      claim.Token,
			"sync_claimed_at": mongodb.Millis(claim.At),
		},
	})
	if errors.Is(err, reserrors.ErrNotFound) {
		return nil, errors.Wrapf(reserrors.ErrNotClaimable, "claim reservation %s", id)
	}
	return res, err
}

// syncOutcomeUpdate translates one ledger push into a single update so the
// failure flag, error and attempt counter never disagree.
func syncOutcomeUpdate(outcome model.SyncOutcome) bson.M {
	at := mongodb.Millis(outcome.At)
	set := bson.M{"updated_at": at}
	unset := bson.M{}
	if outcome.Claim != "" {
		unset["sync_claim"] = ""
		unset["sync_claimed_at"] = ""
	}

	if outcome.Succeeded {
		set["sync_failed"] = false
		if outcome.ExternalBookingID != "" {
			set["external_booking_id"] = outcome.ExternalBookingID
		}
		unset["sync_error"] = ""
	} else {
		set["sync_failed"] = true
		set["sync_error"] = outcome.Error
		set["sync_failed_at"] = at
	}
	if outcome.Retry {
		set["sync_retried_at"] = at
	}

	update := bson.M{
		"$set": set,
		"$inc": bson.M{"sync_attempts": 1},
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

func (r *mongoReservationRepository) ApplySyncOutcome(ctx context.Context, id string, outcome model.SyncOutcome) (*model.Reservation, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"_id": oid}
	if outcome.Claim != "" {
		filter["sync_claim"] = outcome.Claim
		filter["manually_resolved"] = bson.M{"$ne": true}
	}

	res, err := r.findOneAndUpdate(ctx, filter, syncOutcomeUpdate(outcome))
	if outcome.Claim != "" && errors.Is(err, reserrors.ErrNotFound) {
		return nil, errors.Wrapf(reserrors.ErrClaimLost, "record sync outcome %s", id)
	}
	return res, err
}

func (r *mongoReservationRepository) MarkResolved(ctx context.Context, id, notes string, at time.Time) (*model.Reservation, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	at = mongodb.Millis(at)
	return r.findOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{
			"sync_failed":       false,
			"manually_resolved": true,
			"resolved_at":       at,
			"resolved_notes":    notes,
			"updated_at":        at,
		},
		"$unset": bson.M{
			"sync_claim":      "",
			"sync_claimed_at": "",
		},
	})
}

func (r *mongoReservationRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*model.Reservation, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var reservation model.Reservation
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&reservation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reserrors.ErrNotFound
		}
		return nil, errors.Wrapf(err, "update reservation %v", filter["_id"])
	}
	return &reservation, nil
}
