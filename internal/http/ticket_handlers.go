package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/artegra/museum-tickets/internal/domain"
	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	ticketCatalogKey = "cache:tickets:public"
	ticketCatalogTTL = 30 * time.Second
)

type stockPayload struct {
	Unlimited bool  `json:"unlimited"`
	Count     int64 `json:"count"`
}

func (p stockPayload) toStock() (domain.Stock, error) {
	if p.Unlimited {
		return domain.UnlimitedStock(), nil
	}
	return domain.BoundedStock(p.Count)
}

type ticketRequest struct {
	Name         string                `json:"name"`
	Description  string                `json:"description"`
	Category     domain.TicketCategory `json:"category"`
	Price        float64               `json:"price"`
	Stock        stockPayload          `json:"stock"`
	ValidityDays int                   `json:"validityDays"`
}

func (h *Handlers) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var req ticketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, errors.Wrap(domain.ErrValidation, "invalid request body"))
		return
	}

	stock, err := req.Stock.toStock()
	if err != nil {
		writeErr(w, err)
		return
	}
	ticket, err := domain.NewTicketDefinition(req.Name, req.Description, req.Category, req.Price, stock, req.ValidityDays)
	if err != nil {
		writeErr(w, err)
		return
	}

	if err := h.tickets.Create(r.Context(), ticket); err != nil {
		writeErr(w, err)
		return
	}
	h.invalidateTicketCatalog(r)
	writeJSON(w, http.StatusCreated, ticket)
}

// ListTickets serves both the public catalog and the admin view. The
// public listing carries only tickets flagged available and is cached
// briefly; mutations invalidate the cache.
func (h *Handlers) ListTickets(w http.ResponseWriter, r *http.Request) {
	onlyAvailable := roleFrom(r.Context()) != domain.RoleAdmin

	if onlyAvailable && h.cache != nil {
		if cached, err := h.cache.GetJSON(r.Context(), ticketCatalogKey); err == nil && cached != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(cached)
			return
		}
	}

	tickets, err := h.tickets.List(r.Context(), onlyAvailable)
	if err != nil {
		writeErr(w, err)
		return
	}
	if tickets == nil {
		tickets = []domain.TicketDefinition{}
	}
	body := map[string]interface{}{"tickets": tickets}

	if onlyAvailable && h.cache != nil {
		if payload, err := json.Marshal(body); err == nil {
			if err := h.cache.SetJSON(r.Context(), ticketCatalogKey, payload, ticketCatalogTTL); err != nil {
				h.logger.Error("failed to cache ticket catalog", err)
			}
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *Handlers) invalidateTicketCatalog(r *http.Request) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(r.Context(), ticketCatalogKey); err != nil {
		h.logger.Error("failed to invalidate ticket catalog cache", err)
	}
}

func (h *Handlers) GetTicket(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, errors.Wrap(domain.ErrValidation, "invalid ticket id"))
		return
	}
	ticket, err := h.tickets.TicketByID(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

type ticketUpdateRequest struct {
	Name         *string                `json:"name"`
	Description  *string                `json:"description"`
	Category     *domain.TicketCategory `json:"category"`
	Price        *float64               `json:"price"`
	Stock        *stockPayload          `json:"stock"`
	Available    *bool                  `json:"available"`
	ValidityDays *int                   `json:"validityDays"`
}

// UpdateTicket applies a partial update and revalidates the result
// through the constructor before persisting.
func (h *Handlers) UpdateTicket(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, errors.Wrap(domain.ErrValidation, "invalid ticket id"))
		return
	}

	var req ticketUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, errors.Wrap(domain.ErrValidation, "invalid request body"))
		return
	}

	ticket, err := h.tickets.TicketByID(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}

	if req.Name != nil {
		ticket.Name = *req.Name
	}
	if req.Description != nil {
		ticket.Description = *req.Description
	}
	if req.Category != nil {
		ticket.Category = *req.Category
	}
	if req.Price != nil {
		ticket.Price = *req.Price
	}
	if req.Stock != nil {
		stock, err := req.Stock.toStock()
		if err != nil {
			writeErr(w, err)
			return
		}
		ticket.Stock = stock
	}
	if req.Available != nil {
		ticket.Available = *req.Available
	}
	if req.ValidityDays != nil {
		ticket.ValidityDays = *req.ValidityDays
	}

	if err := ticket.Validate(); err != nil {
		writeErr(w, err)
		return
	}

	if err := h.tickets.Update(r.Context(), ticket); err != nil {
		writeErr(w, err)
		return
	}
	h.invalidateTicketCatalog(r)
	writeJSON(w, http.StatusOK, ticket)
}

// DeleteTicket refuses to remove a ticket that any purchase references.
// Admins disable such tickets instead.
func (h *Handlers) DeleteTicket(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, errors.Wrap(domain.ErrValidation, "invalid ticket id"))
		return
	}

	referenced, err := h.records.CountByTicket(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	if referenced > 0 {
		writeErr(w, errors.Wrapf(domain.ErrConflict, "ticket is referenced by %d purchases, disable it instead", referenced))
		return
	}

	if err := h.tickets.Delete(r.Context(), id); err != nil {
		writeErr(w, err)
		return
	}
	h.invalidateTicketCatalog(r)
	w.WriteHeader(http.StatusNoContent)
}
