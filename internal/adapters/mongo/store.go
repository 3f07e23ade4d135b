package mongo

import (
	"context"
	"time"

	"github.com/artegra/museum-tickets/internal/domain"
	"github.com/artegra/museum-tickets/internal/observability"
	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collUsers     = "users"
	collTickets   = "tickets"
	collArtworks  = "artworks"
	collPurchases = "purchases"
	collOutbox    = "outbox"
)

// EnsureIndexes creates the unique indexes the code generator relies on.
// The index on the code fields is the final authority on uniqueness.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)

	_, err := db.Collection(collUsers).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}}, Options: unique,
	})
	if err != nil {
		return errors.Wrap(err, "creating users.email index")
	}

	_, err = db.Collection(collPurchases).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "purchased_at", Value: -1}}},
	})
	if err != nil {
		return errors.Wrap(err, "creating purchases indexes")
	}

	_, err = db.Collection(collArtworks).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "scan_code", Value: 1}}, Options: unique,
	})
	if err != nil {
		return errors.Wrap(err, "creating artworks.scan_code index")
	}

	_, err = db.Collection(collOutbox).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}},
	})
	return errors.Wrap(err, "creating outbox index")
}

// mapWriteErr translates driver errors into the domain taxonomy.
func mapWriteErr(err error, op string) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return errors.Wrap(domain.ErrDuplicateKey, op)
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return errors.Wrap(domain.ErrNotFound, op)
	}
	return errors.Wrapf(domain.ErrUpstream, "%s: %v", op, err)
}

// observe records a store operation duration.
func observe(start time.Time) {
	observability.StoreOpDuration.Observe(time.Since(start).Seconds())
}
