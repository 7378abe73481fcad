package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "deskbook/internal/bookings/errors"
	"deskbook/pkg/config"
	"deskbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	CollectionName = "bookings"

	officesCollection = "offices"
	usersCollection   = "users"
)

type BookingRepository interface {
	Insert(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindByUser(ctx context.Context, userID string) ([]*model.Booking, error)
	FindByOffices(ctx context.Context, officeIDs []string) ([]*model.Booking, error)
	UpdateStatus(ctx context.Context, id string, status string) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
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

func (r *mongoBookingRepository) Insert(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	booking.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var booking model.Booking
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

// FindByUser returns a requester's bookings newest-first fetched with the
// office row embedded.
func (r *mongoBookingRepository) FindByUser(ctx context.Context, userID string) ([]*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		matchStage(bson.M{"user_id": userID}),
		lookupStage(officesCollection, "office_id", "office"),
		firstElemStage("office"),
		sortNewestFirstStage(),
	}

	return r.aggregate(ctx, pipeline)
}

// FindByOffices returns bookings against any of the given offices,
// newest-first, with the office and requester identity embedded.
func (r *mongoBookingRepository) FindByOffices(ctx context.Context, officeIDs []string) ([]*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		matchStage(bson.M{"office_id": bson.M{"$in": officeIDs}}),
		lookupStage(officesCollection, "office_id", "office"),
		firstElemStage("office"),
		lookupStage(usersCollection, "user_id", "user"),
		firstElemStage("user"),
		sortNewestFirstStage(),
	}

	return r.aggregate(ctx, pipeline)
}

func (r *mongoBookingRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	// Unconditional overwrite: no transition table, any status may replace
	// any other.
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{
			"status":     status,
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if result.MatchedCount == 0 {
		return bookingserrors.ErrNotFound
	}

	return nil
}

func (r *mongoBookingRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]*model.Booking, error) {
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

// --- Pipeline stages ---

func matchStage(filter bson.M) bson.D {
	return bson.D{{Key: "$match", Value: filter}}
}

// lookupStage joins a foreign collection whose _id is an ObjectID against a
// local string reference field.
func lookupStage(from, localField, as string) bson.D {
	return bson.D{{Key: "$lookup", Value: bson.M{
		"from": from,
		"let":  bson.M{"refId": bson.M{"$toObjectId": "$" + localField}},
		"pipeline": mongo.Pipeline{
			bson.D{{Key: "$match", Value: bson.M{
				"$expr": bson.M{"$eq": bson.A{"$_id", "$$refId"}},
			}}},
		},
		"as": as,
	}}}
}

func firstElemStage(field string) bson.D {
	return bson.D{{Key: "$addFields", Value: bson.M{
		field: bson.M{"$arrayElemAt": bson.A{"$" + field, 0}},
	}}}
}

func sortNewestFirstStage() bson.D {
	return bson.D{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}}}}
}
