package outbox

import (
	"context"
	"time"

	mongoadapter "github.com/artegra/museum-tickets/internal/adapters/mongo"
	"github.com/artegra/museum-tickets/internal/adapters/rabbit"
	"github.com/artegra/museum-tickets/internal/observability"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	pollInterval = 2 * time.Second
	batchSize    = 100
)

// Publisher drains the outbox collection to the message broker. Events
// are published in creation order and marked off one by one, so a crash
// mid-batch re-delivers rather than loses.
type Publisher struct {
	outbox *mongoadapter.OutboxRepository
	broker *rabbit.Publisher
	logger observability.Logger
}

func NewPublisher(outbox *mongoadapter.OutboxRepository, broker *rabbit.Publisher, logger observability.Logger) *Publisher {
	return &Publisher{
		outbox: outbox,
		broker: broker,
		logger: logger,
	}
}

// Run polls until the context is cancelled.
func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.drain(ctx); err != nil {
				p.logger.WithError(err).Error("outbox drain failed")
			}
		}
	}
}

func (p *Publisher) drain(ctx context.Context) error {
	events, err := p.outbox.Unpublished(ctx, batchSize)
	if err != nil {
		return err
	}

	for _, event := range events {
		msg := amqp.Publishing{
			MessageId:   event.ID.String(),
			ContentType: "application/json",
			Timestamp:   event.CreatedAt,
			Type:        event.EventType,
			Body:        event.Payload,
		}
		if err := p.broker.Publish(ctx, event.EventType, msg); err != nil {
			p.logger.WithField("event_id", event.ID).WithError(err).Error("failed to publish event")
			return err
		}
		if err := p.outbox.MarkPublished(ctx, event.ID, time.Now().UTC()); err != nil {
			p.logger.WithField("event_id", event.ID).WithError(err).Error("failed to mark event published")
			return err
		}
	}
	return nil
}
