package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	accountserrors "deskbook/internal/accounts/errors"
	"deskbook/pkg/config"
	"deskbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	CredentialCollectionName = "credentials"
)

type CredentialRepository interface {
	Create(ctx context.Context, credential *model.Credential) error
	FindByEmail(ctx context.Context, email string) (*model.Credential, error)
}

type mongoCredentialRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoCredentialRepository(cfg *config.Config) CredentialRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoCredentialRepository{
		cfg:        cfg,
		collection: db.Collection(CredentialCollectionName),
	}
}

func (r *mongoCredentialRepository) Create(ctx context.Context, credential *model.Credential) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	credential.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, credential)
	if err != nil {
		// Relies on the unique index on email.
		if mongo.IsDuplicateKeyError(err) {
			return accountserrors.ErrEmailTaken
		}
		return fmt.Errorf("failed to create credential: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		credential.ID = oid.Hex()
	}
	return nil
}

func (r *mongoCredentialRepository) FindByEmail(ctx context.Context, email string) (*model.Credential, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var credential model.Credential
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&credential)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, accountserrors.ErrCredentialNotFound
		}
		return nil, fmt.Errorf("failed to find credential: %w", err)
	}

	return &credential, nil
}
