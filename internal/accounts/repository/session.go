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
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	SessionCollectionName = "sessions"
)

// SessionRepository tracks live session markers keyed by token id. A missing
// marker means the session was logged out or expired.
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	FindByTokenID(ctx context.Context, tokenID string) (*model.Session, error)
	Delete(ctx context.Context, tokenID string) error
	DeleteByAccount(ctx context.Context, accountID string) error
}

type mongoSessionRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoSessionRepository(cfg *config.Config) SessionRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSessionRepository{
		cfg:        cfg,
		collection: db.Collection(SessionCollectionName),
	}
}

func (r *mongoSessionRepository) Create(ctx context.Context, session *model.Session) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	session.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if _, err := r.collection.InsertOne(ctx, session); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *mongoSessionRepository) FindByTokenID(ctx context.Context, tokenID string) (*model.Session, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var session model.Session
	err := r.collection.FindOne(ctx, bson.M{"_id": tokenID}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, accountserrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	return &session, nil
}

func (r *mongoSessionRepository) Delete(ctx context.Context, tokenID string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	// Logging out twice is not an error; delete is idempotent.
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": tokenID}); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *mongoSessionRepository) DeleteByAccount(ctx context.Context, accountID string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.DeleteMany(ctx, bson.M{"account_id": accountID}); err != nil {
		return fmt.Errorf("failed to delete account sessions: %w", err)
	}
	return nil
}
