package http

import (
	"context"
	"net/http"

	"github.com/artegra/museum-tickets/internal/adapters/mongo"
	redisadapter "github.com/artegra/museum-tickets/internal/adapters/redis"
	"github.com/artegra/museum-tickets/internal/auth"
	"github.com/artegra/museum-tickets/internal/idempotency"
	"github.com/artegra/museum-tickets/internal/observability"
	"github.com/artegra/museum-tickets/internal/purchase"
	"github.com/artegra/museum-tickets/internal/qr"
)

type Handlers struct {
	users     *mongo.UserRepository
	tickets   *mongo.TicketRepository
	artworks  *mongo.ArtworkRepository
	records   *mongo.PurchaseRepository
	purchases *purchase.Service
	tokens    *auth.TokenService
	encoder   *qr.Encoder
	idemp     *idempotency.Idempotency
	cache     *redisadapter.Cache
	logger    observability.Logger
	ready     func(ctx context.Context) error
}

func NewHandlers(
	users *mongo.UserRepository,
	tickets *mongo.TicketRepository,
	artworks *mongo.ArtworkRepository,
	records *mongo.PurchaseRepository,
	purchases *purchase.Service,
	tokens *auth.TokenService,
	encoder *qr.Encoder,
	idemp *idempotency.Idempotency,
	cache *redisadapter.Cache,
	logger observability.Logger,
	ready func(ctx context.Context) error,
) *Handlers {
	return &Handlers{
		users:     users,
		tickets:   tickets,
		artworks:  artworks,
		records:   records,
		purchases: purchases,
		tokens:    tokens,
		encoder:   encoder,
		idemp:     idemp,
		cache:     cache,
		logger:    logger,
		ready:     ready,
	}
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
