package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/artegra/museum-tickets/internal/domain"
	"github.com/artegra/museum-tickets/internal/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStore struct {
	tickets    map[uuid.UUID]*domain.TicketDefinition
	decrements int
	increments int
	sales      int
}

func (s *recordingStore) TicketByID(_ context.Context, id uuid.UUID) (*domain.TicketDefinition, error) {
	t, ok := s.tickets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

func (s *recordingStore) DecrementStock(_ context.Context, id uuid.UUID, qty int64) error {
	s.decrements++
	t := s.tickets[id]
	next, err := t.Stock.Reserve(qty)
	if err != nil {
		return err
	}
	t.Stock = next
	return nil
}

func (s *recordingStore) IncrementStock(_ context.Context, id uuid.UUID, qty int64) error {
	s.increments++
	t := s.tickets[id]
	t.Stock = t.Stock.Release(qty)
	return nil
}

func (s *recordingStore) AddSale(_ context.Context, id uuid.UUID, qty int64, amount float64) error {
	s.sales++
	t := s.tickets[id]
	t.PurchaseCount += qty
	t.TotalRevenue += amount
	return nil
}

func newTicket(t *testing.T, stock domain.Stock) *domain.TicketDefinition {
	t.Helper()
	def, err := domain.NewTicketDefinition("Guided Tour", "", domain.CategoryGuidedTour, 750, stock, 0)
	require.NoError(t, err)
	return def
}

func TestReserve_UnlimitedNeverTouchesStore(t *testing.T) {
	def := newTicket(t, domain.UnlimitedStock())
	store := &recordingStore{tickets: map[uuid.UUID]*domain.TicketDefinition{def.ID: def}}
	svc := NewService(store, observability.NewLogger())

	require.NoError(t, svc.Reserve(context.Background(), def, 100))
	require.NoError(t, svc.Release(context.Background(), def, 100))

	assert.Zero(t, store.decrements)
	assert.Zero(t, store.increments)
}

func TestReserveRelease_RoundTrip(t *testing.T) {
	stock, err := domain.BoundedStock(8)
	require.NoError(t, err)
	def := newTicket(t, stock)
	store := &recordingStore{tickets: map[uuid.UUID]*domain.TicketDefinition{def.ID: def}}
	svc := NewService(store, observability.NewLogger())

	require.NoError(t, svc.Reserve(context.Background(), def, 3))
	assert.Equal(t, int64(5), def.Stock.Count)

	require.NoError(t, svc.Release(context.Background(), def, 3))
	assert.Equal(t, int64(8), def.Stock.Count)
}

func TestReserve_Insufficient(t *testing.T) {
	stock, err := domain.BoundedStock(2)
	require.NoError(t, err)
	def := newTicket(t, stock)
	store := &recordingStore{tickets: map[uuid.UUID]*domain.TicketDefinition{def.ID: def}}
	svc := NewService(store, observability.NewLogger())

	err = svc.Reserve(context.Background(), def, 3)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
	assert.Equal(t, int64(2), def.Stock.Count)
}

func TestRecordSale_IndependentOfStock(t *testing.T) {
	stock, err := domain.BoundedStock(5)
	require.NoError(t, err)
	def := newTicket(t, stock)
	store := &recordingStore{tickets: map[uuid.UUID]*domain.TicketDefinition{def.ID: def}}
	svc := NewService(store, observability.NewLogger())

	require.NoError(t, svc.RecordSale(context.Background(), def.ID, 2, 1500))

	assert.Equal(t, int64(2), def.PurchaseCount)
	assert.Equal(t, 1500.0, def.TotalRevenue)
	assert.Equal(t, int64(5), def.Stock.Count)
	assert.Zero(t, store.decrements)
}
