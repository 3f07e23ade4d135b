package mongo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/artegra/museum-tickets/internal/observability"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	outboxStatusNew       = "NEW"
	outboxStatusPublished = "PUBLISHED"
)

// EventDoc is one lifecycle event awaiting publication. The collection
// doubles as the durable log of actions taken by the purchase workflow.
type EventDoc struct {
	ID          uuid.UUID  `bson:"_id"`
	EventType   string     `bson:"event_type"`
	AggregateID uuid.UUID  `bson:"aggregate_id"`
	Payload     []byte     `bson:"payload"`
	Status      string     `bson:"status"`
	CreatedAt   time.Time  `bson:"created_at"`
	PublishedAt *time.Time `bson:"published_at,omitempty"`
}

type OutboxRepository struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewOutboxRepository(db *mongo.Database, logger observability.Logger) *OutboxRepository {
	return &OutboxRepository{
		coll:   db.Collection(collOutbox),
		logger: logger,
	}
}

// Append records an event for later publication.
func (r *OutboxRepository) Append(ctx context.Context, eventType string, aggregateID uuid.UUID, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return mapWriteErr(err, "marshalling outbox payload")
	}
	doc := EventDoc{
		ID:          uuid.New(),
		EventType:   eventType,
		AggregateID: aggregateID,
		Payload:     body,
		Status:      outboxStatusNew,
		CreatedAt:   time.Now().UTC(),
	}
	_, err = r.coll.InsertOne(ctx, doc)
	if err != nil {
		r.logger.Error("failed to append outbox event", err)
	}
	return mapWriteErr(err, "appending outbox event")
}

func (r *OutboxRepository) Unpublished(ctx context.Context, limit int64) ([]EventDoc, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(limit)
	cur, err := r.coll.Find(ctx, bson.M{"status": outboxStatusNew}, opts)
	if err != nil {
		return nil, mapWriteErr(err, "fetching unpublished events")
	}
	defer cur.Close(ctx)

	var events []EventDoc
	if err := cur.All(ctx, &events); err != nil {
		return nil, mapWriteErr(err, "decoding outbox events")
	}

	if len(events) > 0 {
		observability.OutboxLag.Set(time.Since(events[0].CreatedAt).Seconds())
	} else {
		observability.OutboxLag.Set(0)
	}
	return events, nil
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, id uuid.UUID, publishedAt time.Time) error {
	_, err := r.coll.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": outboxStatusPublished, "published_at": publishedAt}},
	)
	return mapWriteErr(err, "marking event published")
}
