package mongo

import (
	"context"
	"time"

	"github.com/artegra/museum-tickets/internal/domain"
	"github.com/artegra/museum-tickets/internal/observability"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TicketRepository struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewTicketRepository(db *mongo.Database, logger observability.Logger) *TicketRepository {
	return &TicketRepository{
		coll:   db.Collection(collTickets),
		logger: logger,
	}
}

func (r *TicketRepository) Create(ctx context.Context, t *domain.TicketDefinition) error {
	_, err := r.coll.InsertOne(ctx, t)
	if err != nil {
		r.logger.Error("failed to insert ticket", err)
	}
	return mapWriteErr(err, "inserting ticket")
}

func (r *TicketRepository) TicketByID(ctx context.Context, id uuid.UUID) (*domain.TicketDefinition, error) {
	var t domain.TicketDefinition
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, mapWriteErr(err, "fetching ticket")
	}
	return &t, nil
}

func (r *TicketRepository) List(ctx context.Context, onlyAvailable bool) ([]domain.TicketDefinition, error) {
	filter := bson.M{}
	if onlyAvailable {
		filter["available"] = true
	}
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, mapWriteErr(err, "listing tickets")
	}
	defer cur.Close(ctx)

	var tickets []domain.TicketDefinition
	if err := cur.All(ctx, &tickets); err != nil {
		return nil, mapWriteErr(err, "decoding tickets")
	}
	return tickets, nil
}

func (r *TicketRepository) Update(ctx context.Context, t *domain.TicketDefinition) error {
	t.UpdatedAt = time.Now().UTC()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": t.ID}, t)
	if err != nil {
		return mapWriteErr(err, "updating ticket")
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *TicketRepository) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	res, err := r.coll.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"available": available, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return mapWriteErr(err, "setting ticket availability")
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *TicketRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapWriteErr(err, "deleting ticket")
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DecrementStock performs the conditional decrement-if-sufficient as a
// single atomic update. Two concurrent reservations can never drive the
// count negative; the loser sees ErrInsufficientStock.
func (r *TicketRepository) DecrementStock(ctx context.Context, id uuid.UUID, qty int64) error {
	defer observe(time.Now())

	res, err := r.coll.UpdateOne(
		ctx,
		bson.M{
			"_id":             id,
			"stock.unlimited": false,
			"stock.count":     bson.M{"$gte": qty},
		},
		bson.M{
			"$inc": bson.M{"stock.count": -qty},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return mapWriteErr(err, "decrementing stock")
	}
	if res.MatchedCount == 0 {
		observability.StockReservationFailures.Inc()
		return domain.ErrInsufficientStock
	}
	return nil
}

// IncrementStock puts qty units back. The increment is unconditional;
// unlimited stock is left untouched.
func (r *TicketRepository) IncrementStock(ctx context.Context, id uuid.UUID, qty int64) error {
	res, err := r.coll.UpdateOne(
		ctx,
		bson.M{"_id": id, "stock.unlimited": false},
		bson.M{
			"$inc": bson.M{"stock.count": qty},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return mapWriteErr(err, "incrementing stock")
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AddSale bumps the purchase and revenue counters, independent of stock.
func (r *TicketRepository) AddSale(ctx context.Context, id uuid.UUID, qty int64, amount float64) error {
	res, err := r.coll.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"purchase_count": qty, "total_revenue": amount},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return mapWriteErr(err, "recording sale")
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
