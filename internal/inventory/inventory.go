package inventory

import (
	"context"

	"github.com/artegra/museum-tickets/internal/domain"
	"github.com/artegra/museum-tickets/internal/observability"
	"github.com/google/uuid"
)

// TicketStore is the slice of the record store the inventory needs.
type TicketStore interface {
	TicketByID(ctx context.Context, id uuid.UUID) (*domain.TicketDefinition, error)
	DecrementStock(ctx context.Context, id uuid.UUID, qty int64) error
	IncrementStock(ctx context.Context, id uuid.UUID, qty int64) error
	AddSale(ctx context.Context, id uuid.UUID, qty int64, amount float64) error
}

// Service owns stock bookkeeping for ticket definitions. Reservation is
// delegated to the store's atomic conditional decrement, so concurrent
// purchases of the same limited ticket cannot drive stock negative.
type Service struct {
	store  TicketStore
	logger observability.Logger
}

func NewService(store TicketStore, logger observability.Logger) *Service {
	return &Service{store: store, logger: logger}
}

func (s *Service) TicketByID(ctx context.Context, id uuid.UUID) (*domain.TicketDefinition, error) {
	return s.store.TicketByID(ctx, id)
}

// Available reports whether qty units of the ticket can be purchased.
// Pure predicate; Reserve re-checks atomically at the store.
func (s *Service) Available(t *domain.TicketDefinition, qty int64) bool {
	return t.AvailableFor(qty)
}

// Reserve takes qty units of stock. Unlimited stock is a no-op success.
func (s *Service) Reserve(ctx context.Context, t *domain.TicketDefinition, qty int64) error {
	if t.Stock.Unlimited {
		return nil
	}
	return s.store.DecrementStock(ctx, t.ID, qty)
}

// Release puts qty units back. Unlimited stock is a no-op.
func (s *Service) Release(ctx context.Context, t *domain.TicketDefinition, qty int64) error {
	if t.Stock.Unlimited {
		return nil
	}
	return s.store.IncrementStock(ctx, t.ID, qty)
}

// RecordSale bumps the purchase and revenue counters, independent of
// stock bookkeeping.
func (s *Service) RecordSale(ctx context.Context, id uuid.UUID, qty int64, amount float64) error {
	return s.store.AddSale(ctx, id, qty, amount)
}
