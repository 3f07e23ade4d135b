package mongo

import (
	"context"
	"regexp"
	"time"

	"github.com/artegra/museum-tickets/internal/domain"
	"github.com/artegra/museum-tickets/internal/observability"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ArtworkRepository struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewArtworkRepository(db *mongo.Database, logger observability.Logger) *ArtworkRepository {
	return &ArtworkRepository{
		coll:   db.Collection(collArtworks),
		logger: logger,
	}
}

func (r *ArtworkRepository) Create(ctx context.Context, a *domain.ArtworkRecord) error {
	_, err := r.coll.InsertOne(ctx, a)
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		r.logger.Error("failed to insert artwork", err)
	}
	return mapWriteErr(err, "inserting artwork")
}

func (r *ArtworkRepository) ByID(ctx context.Context, id uuid.UUID) (*domain.ArtworkRecord, error) {
	var a domain.ArtworkRecord
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if err == mongo.ErrNoDocuments {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, mapWriteErr(err, "fetching artwork")
	}
	return &a, nil
}

func (r *ArtworkRepository) ByScanCode(ctx context.Context, code string) (*domain.ArtworkRecord, error) {
	var a domain.ArtworkRecord
	err := r.coll.FindOne(ctx, bson.M{"scan_code": code}).Decode(&a)
	if err == mongo.ErrNoDocuments {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, mapWriteErr(err, "fetching artwork by scan code")
	}
	return &a, nil
}

// List returns artworks matching an optional case-insensitive substring
// of the title or artist, newest first.
func (r *ArtworkRepository) List(ctx context.Context, search string, page, limit int64) ([]domain.ArtworkRecord, int64, error) {
	filter := bson.M{}
	if search != "" {
		quoted := regexp.QuoteMeta(search)
		filter["$or"] = bson.A{
			bson.M{"title": bson.M{"$regex": quoted, "$options": "i"}},
			bson.M{"artist": bson.M{"$regex": quoted, "$options": "i"}},
		}
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, mapWriteErr(err, "counting artworks")
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, mapWriteErr(err, "listing artworks")
	}
	defer cur.Close(ctx)

	var artworks []domain.ArtworkRecord
	if err := cur.All(ctx, &artworks); err != nil {
		return nil, 0, mapWriteErr(err, "decoding artworks")
	}
	return artworks, total, nil
}

func (r *ArtworkRepository) Update(ctx context.Context, a *domain.ArtworkRecord) error {
	a.UpdatedAt = time.Now().UTC()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": a.ID}, a)
	if err != nil {
		return mapWriteErr(err, "updating artwork")
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ArtworkRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapWriteErr(err, "deleting artwork")
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ArtworkRepository) IncViews(ctx context.Context, id uuid.UUID) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"view_count": 1}})
	return mapWriteErr(err, "incrementing views")
}

func (r *ArtworkRepository) IncScans(ctx context.Context, id uuid.UUID) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"scan_count": 1}})
	return mapWriteErr(err, "incrementing scans")
}
