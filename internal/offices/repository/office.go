package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	officeserrors "deskbook/internal/offices/errors"
	"deskbook/pkg/config"
	"deskbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "offices"
)

type OfficeRepository interface {
	Insert(ctx context.Context, office *model.Office) error
	FindByID(ctx context.Context, id string) (*model.Office, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Office, error)
	FindByOwner(ctx context.Context, ownerID string) ([]*model.Office, error)
	FindIDsByOwner(ctx context.Context, ownerID string) ([]string, error)
	UpdateAvailability(ctx context.Context, id string, available bool) error
	Delete(ctx context.Context, id string) error
	IncrementBookingCount(ctx context.Context, id string) error
}

type mongoOfficeRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoOfficeRepository(cfg *config.Config) OfficeRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoOfficeRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoOfficeRepository) Insert(ctx context.Context, office *model.Office) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	office.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, office)
	if err != nil {
		return fmt.Errorf("failed to create office: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		office.ID = oid.Hex()
	}
	return nil
}

func (r *mongoOfficeRepository) FindByID(ctx context.Context, id string) (*model.Office, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", officeserrors.ErrInvalidID, id)
	}

	var office model.Office
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&office)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, officeserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find office: %w", err)
	}

	return &office, nil
}

// FindAll returns one page of the public catalog, newest-first.
func (r *mongoOfficeRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Office, error) {
	opts := options.Find().SetLimit(int64(limit)).SetSkip(offset)
	return r.find(ctx, bson.M{}, opts)
}

func (r *mongoOfficeRepository) FindByOwner(ctx context.Context, ownerID string) ([]*model.Office, error) {
	return r.find(ctx, bson.M{"owner_id": ownerID}, options.Find())
}

func (r *mongoOfficeRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Office, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts.SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find offices: %w", err)
	}
	defer cursor.Close(ctx)

	var offices []*model.Office
	if err = cursor.All(ctx, &offices); err != nil {
		return nil, fmt.Errorf("failed to decode offices: %w", err)
	}

	return offices, nil
}

func (r *mongoOfficeRepository) FindIDsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find office ids: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode office ids: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID.Hex())
	}
	return ids, nil
}

func (r *mongoOfficeRepository) UpdateAvailability(ctx context.Context, id string, available bool) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", officeserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"is_available": available}},
	)
	if err != nil {
		return fmt.Errorf("failed to update office availability: %w", err)
	}
	if result.MatchedCount == 0 {
		return officeserrors.ErrNotFound
	}

	return nil
}

func (r *mongoOfficeRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", officeserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete office: %w", err)
	}
	if result.DeletedCount == 0 {
		return officeserrors.ErrNotFound
	}

	return nil
}

// IncrementBookingCount bumps the counter atomically server-side. The counter
// only ever grows; nothing ever decrements it.
func (r *mongoOfficeRepository) IncrementBookingCount(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", officeserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$inc": bson.M{"booking_count": 1}},
	)
	if err != nil {
		return fmt.Errorf("failed to increment booking count: %w", err)
	}
	if result.MatchedCount == 0 {
		return officeserrors.ErrNotFound
	}

	return nil
}
