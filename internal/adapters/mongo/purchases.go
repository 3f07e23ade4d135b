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
	"golang.org/x/sync/errgroup"
)

type PurchaseRepository struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewPurchaseRepository(db *mongo.Database, logger observability.Logger) *PurchaseRepository {
	return &PurchaseRepository{
		coll:   db.Collection(collPurchases),
		logger: logger,
	}
}

// Insert persists a purchase record. A collision on the unique code
// index surfaces as domain.ErrDuplicateKey; the workflow retries with a
// fresh code.
func (r *PurchaseRepository) Insert(ctx context.Context, p *domain.PurchaseRecord) error {
	defer observe(time.Now())

	_, err := r.coll.InsertOne(ctx, p)
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		r.logger.Error("failed to insert purchase", err)
	}
	return mapWriteErr(err, "inserting purchase")
}

func (r *PurchaseRepository) ByID(ctx context.Context, id uuid.UUID) (*domain.PurchaseRecord, error) {
	var p domain.PurchaseRecord
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, mapWriteErr(err, "fetching purchase")
	}
	return &p, nil
}

func (r *PurchaseRepository) ByCode(ctx context.Context, code string) (*domain.PurchaseRecord, error) {
	var p domain.PurchaseRecord
	err := r.coll.FindOne(ctx, bson.M{"code": code}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, mapWriteErr(err, "fetching purchase by code")
	}
	return &p, nil
}

func (r *PurchaseRepository) ListByUser(ctx context.Context, userID uuid.UUID, status domain.PurchaseStatus, page, limit int64) ([]domain.PurchaseRecord, int64, error) {
	filter := bson.M{"user_id": userID}
	if status != "" {
		filter["status"] = status
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, mapWriteErr(err, "counting purchases")
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "purchased_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, mapWriteErr(err, "listing purchases")
	}
	defer cur.Close(ctx)

	var purchases []domain.PurchaseRecord
	if err := cur.All(ctx, &purchases); err != nil {
		return nil, 0, mapWriteErr(err, "decoding purchases")
	}
	return purchases, total, nil
}

func (r *PurchaseRepository) SetStatus(ctx context.Context, id uuid.UUID, status domain.PurchaseStatus, notes string) error {
	set := bson.M{"status": status}
	if notes != "" {
		set["notes"] = notes
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return mapWriteErr(err, "updating purchase status")
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CountByTicket reports how many purchase records reference a ticket.
// Ticket hard-delete is refused while this is non-zero.
func (r *PurchaseRepository) CountByTicket(ctx context.Context, ticketID uuid.UUID) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"items.ticket_id": ticketID})
	if err != nil {
		return 0, mapWriteErr(err, "counting purchases by ticket")
	}
	return n, nil
}

// ExpireDue materializes the expired status on confirmed purchases past
// their validity window and returns the affected records. Validity
// checks never depend on this; it serves listings and stats.
func (r *PurchaseRepository) ExpireDue(ctx context.Context, now time.Time) ([]domain.PurchaseRecord, error) {
	filter := bson.M{
		"status":      domain.StatusConfirmed,
		"valid_until": bson.M{"$lt": now},
	}

	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, mapWriteErr(err, "finding due purchases")
	}
	defer cur.Close(ctx)

	var due []domain.PurchaseRecord
	if err := cur.All(ctx, &due); err != nil {
		return nil, mapWriteErr(err, "decoding due purchases")
	}
	if len(due) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(due))
	for i, p := range due {
		ids[i] = p.ID
	}
	_, err = r.coll.UpdateMany(
		ctx,
		bson.M{"_id": bson.M{"$in": ids}, "status": domain.StatusConfirmed},
		bson.M{"$set": bson.M{"status": domain.StatusExpired}},
	)
	if err != nil {
		return nil, mapWriteErr(err, "marking purchases expired")
	}
	return due, nil
}

// Stats aggregates the admin overview, fanning the group pipelines out
// concurrently.
func (r *PurchaseRepository) Stats(ctx context.Context, start, end time.Time) (*domain.PurchaseStats, error) {
	match := bson.M{}
	rangeFilter := bson.M{}
	if !start.IsZero() {
		rangeFilter["$gte"] = start
	}
	if !end.IsZero() {
		rangeFilter["$lte"] = end
	}
	if len(rangeFilter) > 0 {
		match["purchased_at"] = rangeFilter
	}

	stats := &domain.PurchaseStats{
		ByStatus:  map[string]int64{},
		ByPayment: map[string]int64{},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := r.groupCounts(gctx, match, "$status")
		if err != nil {
			return err
		}
		for _, row := range rows {
			stats.ByStatus[row.Key] = row.Count
			stats.TotalPurchases += row.Count
		}
		return nil
	})

	g.Go(func() error {
		rows, err := r.groupCounts(gctx, match, "$payment_method")
		if err != nil {
			return err
		}
		for _, row := range rows {
			stats.ByPayment[row.Key] = row.Count
		}
		return nil
	})

	g.Go(func() error {
		revenueMatch := bson.M{"status": bson.M{"$in": []domain.PurchaseStatus{domain.StatusConfirmed, domain.StatusExpired}}}
		for k, v := range match {
			revenueMatch[k] = v
		}
		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: revenueMatch}},
			{{Key: "$unwind", Value: "$items"}},
			{{Key: "$group", Value: bson.M{
				"_id":     nil,
				"revenue": bson.M{"$sum": "$items.line_total"},
				"tickets": bson.M{"$sum": "$items.quantity"},
			}}},
		}
		cur, err := r.coll.Aggregate(gctx, pipeline)
		if err != nil {
			return mapWriteErr(err, "aggregating revenue")
		}
		defer cur.Close(gctx)

		var out []struct {
			Revenue float64 `bson:"revenue"`
			Tickets int64   `bson:"tickets"`
		}
		if err := cur.All(gctx, &out); err != nil {
			return mapWriteErr(err, "decoding revenue aggregation")
		}
		if len(out) > 0 {
			stats.TotalRevenue = out[0].Revenue
			stats.TotalTickets = out[0].Tickets
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

type groupRow struct {
	Key   string `bson:"_id"`
	Count int64  `bson:"count"`
}

func (r *PurchaseRepository) groupCounts(ctx context.Context, match bson.M, field string) ([]groupRow, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": field, "count": bson.M{"$sum": 1}}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, mapWriteErr(err, "aggregating purchases")
	}
	defer cur.Close(ctx)

	var rows []groupRow
	if err := cur.All(ctx, &rows); err != nil {
		return nil, mapWriteErr(err, "decoding aggregation")
	}
	return rows, nil
}
