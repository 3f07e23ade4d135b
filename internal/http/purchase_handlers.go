package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/artegra/museum-tickets/internal/domain"
	"github.com/artegra/museum-tickets/internal/idempotency"
	"github.com/artegra/museum-tickets/internal/purchase"
	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxIdempotencyKeyLen = 128

type purchaseLinePayload struct {
	TicketID uuid.UUID `json:"ticketId"`
	Quantity int64     `json:"quantity"`
}

// purchaseRequest is the client-facing payload. Discounts are not part
// of it; the workflow applies them internally and the bill a shopper
// submits is always priced from the stored ticket definitions.
type purchaseRequest struct {
	Customer domain.CustomerSnapshot `json:"customer"`
	Items    []purchaseLinePayload   `json:"items"`
	Payment  domain.PaymentMethod    `json:"paymentMethod"`
	Notes    string                  `json:"notes"`
}

func (req purchaseRequest) createRequest(meta domain.RequestMeta) purchase.CreateRequest {
	lines := make([]purchase.Line, len(req.Items))
	for i, item := range req.Items {
		lines[i] = purchase.Line{TicketID: item.TicketID, Quantity: item.Quantity}
	}
	return purchase.CreateRequest{
		Customer: req.Customer,
		Lines:    lines,
		Payment:  req.Payment,
		Notes:    req.Notes,
		Meta:     meta,
	}
}

// CreatePurchase runs the purchase workflow. A repeated request carrying
// the same Idempotency-Key replays the recorded response instead of
// reserving stock twice.
func (h *Handlers) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	logger := loggerFrom(r.Context(), h.logger)

	idempKey := r.Header.Get("Idempotency-Key")
	if len(idempKey) > maxIdempotencyKeyLen {
		writeErr(w, errors.Wrap(domain.ErrValidation, "idempotency key too long"))
		return
	}
	if idempKey != "" {
		stored, err := h.idemp.Get(r.Context(), userIDFrom(r.Context()).String(), idempKey)
		if err != nil {
			logger.WithError(err).Error("idempotency lookup failed")
		}
		if stored != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(stored.Status)
			w.Write(stored.Result)
			return
		}
	}

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, errors.Wrap(domain.ErrValidation, "invalid request body"))
		return
	}

	record, err := h.purchases.Create(r.Context(), userIDFrom(r.Context()), req.createRequest(domain.RequestMeta{
		OriginIP:  clientIP(r),
		UserAgent: r.UserAgent(),
	}))
	if err != nil {
		writeErr(w, err)
		return
	}

	if idempKey != "" {
		var buf bytes.Buffer
		if encErr := json.NewEncoder(&buf).Encode(record); encErr == nil {
			if err := h.idemp.Set(r.Context(), userIDFrom(r.Context()).String(), idempKey, idempotency.Response{Status: http.StatusCreated, Result: buf.Bytes()}); err != nil {
				logger.WithError(err).Error("idempotency store failed")
			}
		}
	}
	writeJSON(w, http.StatusCreated, record)
}

func (h *Handlers) ListPurchases(w http.ResponseWriter, r *http.Request) {
	status := domain.PurchaseStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		writeErr(w, errors.Wrapf(domain.ErrValidation, "unknown status %q", status))
		return
	}
	page, limit := pageParams(r)

	purchases, total, err := h.purchases.List(r.Context(), userIDFrom(r.Context()), status, page, limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	if purchases == nil {
		purchases = []domain.PurchaseRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"purchases": purchases,
		"total":     total,
		"page":      page,
		"limit":     limit,
	})
}

func (h *Handlers) GetPurchase(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, errors.Wrap(domain.ErrValidation, "invalid purchase id"))
		return
	}
	admin := roleFrom(r.Context()) == domain.RoleAdmin
	record, err := h.purchases.Get(r.Context(), userIDFrom(r.Context()), admin, id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

type validateRequest struct {
	QRCode string `json:"qrCode"`
}

// ValidatePurchase is the redemption verifier. It answers with the
// present-moment validity of the code and never mutates the record.
func (h *Handlers) ValidatePurchase(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, errors.Wrap(domain.ErrValidation, "invalid request body"))
		return
	}
	if req.QRCode == "" {
		writeErr(w, errors.Wrap(domain.ErrValidation, "qrCode is required"))
		return
	}

	result, err := h.purchases.VerifyCode(r.Context(), req.QRCode)
	if err != nil {
		writeErr(w, err)
		return
	}
	if !result.Valid {
		writeJSON(w, http.StatusBadRequest, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h *Handlers) CancelPurchase(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, errors.Wrap(domain.ErrValidation, "invalid purchase id"))
		return
	}

	var req reasonRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, errors.Wrap(domain.ErrValidation, "invalid request body"))
			return
		}
	}

	admin := roleFrom(r.Context()) == domain.RoleAdmin
	record, err := h.purchases.Cancel(r.Context(), userIDFrom(r.Context()), admin, id, req.Reason)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *Handlers) RefundPurchase(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, errors.Wrap(domain.ErrValidation, "invalid purchase id"))
		return
	}

	var req reasonRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, errors.Wrap(domain.ErrValidation, "invalid request body"))
			return
		}
	}

	record, err := h.purchases.Refund(r.Context(), id, req.Reason)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *Handlers) PurchaseStats(w http.ResponseWriter, r *http.Request) {
	start, err := parseDate(r.URL.Query().Get("startDate"))
	if err != nil {
		writeErr(w, errors.Wrap(domain.ErrValidation, "startDate must be YYYY-MM-DD"))
		return
	}
	end, err := parseDate(r.URL.Query().Get("endDate"))
	if err != nil {
		writeErr(w, errors.Wrap(domain.ErrValidation, "endDate must be YYYY-MM-DD"))
		return
	}
	if !end.IsZero() {
		end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	stats, err := h.purchases.Stats(r.Context(), start, end)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}
