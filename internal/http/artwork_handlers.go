package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/artegra/museum-tickets/internal/domain"
	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// scanCodeAttempts bounds retries when a generated scan code collides.
const scanCodeAttempts = 3

type artworkRequest struct {
	Title       string                 `json:"title"`
	Artist      string                 `json:"artist"`
	Year        int                    `json:"year"`
	Description string                 `json:"description"`
	Category    domain.ArtworkCategory `json:"category"`
	Location    string                 `json:"location"`
	ImageURLs   []string               `json:"imageUrls"`
	Price       float64                `json:"price"`
}

// CreateArtwork stores a catalog entry with a freshly generated scan
// code and its QR encoding, retrying on a scan-code collision.
func (h *Handlers) CreateArtwork(w http.ResponseWriter, r *http.Request) {
	var req artworkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, errors.Wrap(domain.ErrValidation, "invalid request body"))
		return
	}

	artwork, err := domain.NewArtworkRecord(req.Title, req.Artist, req.Year, req.Description, req.Category, req.Location, req.ImageURLs, req.Price)
	if err != nil {
		writeErr(w, err)
		return
	}

	for attempt := 0; attempt < scanCodeAttempts; attempt++ {
		code, err := domain.NewCode(domain.ArtworkCodePrefix)
		if err != nil {
			writeErr(w, err)
			return
		}
		qr, err := h.encoder.Encode(code)
		if err != nil {
			writeErr(w, err)
			return
		}
		artwork.ScanCode = code
		artwork.QRCode = qr

		err = h.artworks.Create(r.Context(), artwork)
		if err == nil {
			writeJSON(w, http.StatusCreated, artwork)
			return
		}
		if !errors.Is(err, domain.ErrDuplicateKey) {
			writeErr(w, err)
			return
		}
		h.logger.WithField("scan_code", code).Warn("scan code collision, regenerating")
	}
	writeErr(w, errors.Wrapf(domain.ErrDuplicateKey, "exhausted %d scan code attempts", scanCodeAttempts))
}

func (h *Handlers) ListArtworks(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	page, limit := pageParams(r)

	artworks, total, err := h.artworks.List(r.Context(), search, page, limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	if artworks == nil {
		artworks = []domain.ArtworkRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"artworks": artworks,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

// GetArtwork returns a catalog entry and counts the view.
func (h *Handlers) GetArtwork(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, errors.Wrap(domain.ErrValidation, "invalid artwork id"))
		return
	}
	artwork, err := h.artworks.ByID(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := h.artworks.IncViews(r.Context(), id); err != nil {
		h.logger.WithField("artwork_id", id).Error("failed to count view", err)
	}
	artwork.ViewCount++
	writeJSON(w, http.StatusOK, artwork)
}

// ScanArtwork resolves an artwork by its scan code and counts the scan.
func (h *Handlers) ScanArtwork(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	artwork, err := h.artworks.ByScanCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeErr(w, domain.ErrCodeNotFound)
			return
		}
		writeErr(w, err)
		return
	}
	if err := h.artworks.IncScans(r.Context(), artwork.ID); err != nil {
		h.logger.WithField("artwork_id", artwork.ID).Error("failed to count scan", err)
	}
	artwork.ScanCount++
	writeJSON(w, http.StatusOK, artwork)
}

type artworkUpdateRequest struct {
	Title       *string                 `json:"title"`
	Artist      *string                 `json:"artist"`
	Year        *int                    `json:"year"`
	Description *string                 `json:"description"`
	Category    *domain.ArtworkCategory `json:"category"`
	Location    *string                 `json:"location"`
	ImageURLs   *[]string               `json:"imageUrls"`
	Price       *float64                `json:"price"`
	Available   *bool                   `json:"available"`
}

func (h *Handlers) UpdateArtwork(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, errors.Wrap(domain.ErrValidation, "invalid artwork id"))
		return
	}

	var req artworkUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, errors.Wrap(domain.ErrValidation, "invalid request body"))
		return
	}

	artwork, err := h.artworks.ByID(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}

	if req.Title != nil {
		artwork.Title = *req.Title
	}
	if req.Artist != nil {
		artwork.Artist = *req.Artist
	}
	if req.Year != nil {
		artwork.Year = *req.Year
	}
	if req.Description != nil {
		artwork.Description = *req.Description
	}
	if req.Category != nil {
		artwork.Category = *req.Category
	}
	if req.Location != nil {
		artwork.Location = *req.Location
	}
	if req.ImageURLs != nil {
		artwork.ImageURLs = *req.ImageURLs
	}
	if req.Price != nil {
		artwork.Price = *req.Price
	}
	if req.Available != nil {
		artwork.Available = *req.Available
	}

	if _, err := domain.NewArtworkRecord(artwork.Title, artwork.Artist, artwork.Year, artwork.Description, artwork.Category, artwork.Location, artwork.ImageURLs, artwork.Price); err != nil {
		writeErr(w, err)
		return
	}

	if err := h.artworks.Update(r.Context(), artwork); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, artwork)
}

func (h *Handlers) DeleteArtwork(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, errors.Wrap(domain.ErrValidation, "invalid artwork id"))
		return
	}
	if err := h.artworks.Delete(r.Context(), id); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pageParams(r *http.Request) (int64, int64) {
	page, _ := strconv.ParseInt(r.URL.Query().Get("page"), 10, 64)
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
