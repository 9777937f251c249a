package repository

import (
	"context"
	"sync"

	"staylock/pkg/config"
	mongodb "staylock/pkg/db/mongo"
	"staylock/pkg/model"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const CollectionName = "Apartments"

var (
	ErrNotFound  = errors.New("apartment not found")
	ErrInvalidID = errors.New("invalid apartment id")
)

// ListingResolver resolves the listing a guest is booking. Apartments are
// owned by the listings service, so this side only reads them.
type ListingResolver interface {
	FindByID(ctx context.Context, id string) (*model.Apartment, error)
}

type mongoListingResolver struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoListingResolver(cfg *config.Config) ListingResolver {
	return &mongoListingResolver{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(CollectionName),
	}
}

func (r *mongoListingResolver) FindByID(ctx context.Context, id string) (*model.Apartment, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidID, "%q", id)
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var apartment model.Apartment
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&apartment); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "find apartment %s", id)
	}
	return &apartment, nil
}

type memoryListingResolver struct {
	mu         sync.RWMutex
	apartments map[string]*model.Apartment
}

// NewMemoryListingResolver serves a fixed set of apartments keyed by ID.
func NewMemoryListingResolver(apartments ...*model.Apartment) ListingResolver {
	r := &memoryListingResolver{apartments: make(map[string]*model.Apartment, len(apartments))}
	for _, a := range apartments {
		r.apartments[a.ID] = a
	}
	return r
}

func (r *memoryListingResolver) FindByID(_ context.Context, id string) (*model.Apartment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.apartments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}
