package mongo

import (
	"context"

	"github.com/artegra/museum-tickets/internal/domain"
	"github.com/artegra/museum-tickets/internal/observability"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type UserRepository struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewUserRepository(db *mongo.Database, logger observability.Logger) *UserRepository {
	return &UserRepository{
		coll:   db.Collection(collUsers),
		logger: logger,
	}
}

// Create inserts a user; a duplicate email surfaces as ErrDuplicateKey.
func (r *UserRepository) Create(ctx context.Context, u *domain.UserAccount) error {
	_, err := r.coll.InsertOne(ctx, u)
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		r.logger.Error("failed to insert user", err)
	}
	return mapWriteErr(err, "inserting user")
}

func (r *UserRepository) ByID(ctx context.Context, id uuid.UUID) (*domain.UserAccount, error) {
	var u domain.UserAccount
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, mapWriteErr(err, "fetching user")
	}
	return &u, nil
}

func (r *UserRepository) ByEmail(ctx context.Context, email string) (*domain.UserAccount, error) {
	var u domain.UserAccount
	err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, mapWriteErr(err, "fetching user by email")
	}
	return &u, nil
}
