package http

import (
	"net/http"

	"github.com/artegra/museum-tickets/internal/auth"
	"github.com/artegra/museum-tickets/internal/observability"
	"github.com/artegra/museum-tickets/internal/rateLimit"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the HTTP surface. Public catalog and verification
// endpoints stay open; purchase management requires a bearer token and
// mutation of the catalog requires the admin role.
func NewRouter(h *Handlers, tokens *auth.TokenService, rl *rateLimit.RateLimiter, logger observability.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(TracingMiddleware)
	r.Use(MetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(RateLimitMiddleware(rl))

		// Public surface. An admin token on the catalog listings widens
		// them to include disabled tickets.
		r.Group(func(r chi.Router) {
			r.Use(OptionalAuthMiddleware(tokens))

			r.Post("/auth/register", h.Register)
			r.Post("/auth/login", h.Login)

			r.Get("/tickets", h.ListTickets)
			r.Get("/tickets/{id}", h.GetTicket)

			r.Get("/artworks", h.ListArtworks)
			r.Get("/artworks/scan/{code}", h.ScanArtwork)
			r.Get("/artworks/{id}", h.GetArtwork)

			r.Post("/purchases/validate", h.ValidatePurchase)
		})

		// Authenticated surface.
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(tokens))

			r.Get("/auth/me", h.Me)

			r.Post("/purchases", h.CreatePurchase)
			r.Get("/purchases", h.ListPurchases)
			r.Get("/purchases/{id}", h.GetPurchase)
			r.Patch("/purchases/{id}/cancel", h.CancelPurchase)
		})

		// Admin surface.
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(tokens), RequireAdmin)

			r.Post("/tickets", h.CreateTicket)
			r.Put("/tickets/{id}", h.UpdateTicket)
			r.Delete("/tickets/{id}", h.DeleteTicket)

			r.Post("/artworks", h.CreateArtwork)
			r.Put("/artworks/{id}", h.UpdateArtwork)
			r.Delete("/artworks/{id}", h.DeleteArtwork)

			r.Patch("/purchases/{id}/refund", h.RefundPurchase)
			r.Get("/purchases/stats/overview", h.PurchaseStats)
		})
	})

	return r
}
