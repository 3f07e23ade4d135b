package http

import (
	"encoding/json"
	"net/http"

	"github.com/artegra/museum-tickets/internal/auth"
	"github.com/artegra/museum-tickets/internal/domain"
	"github.com/cockroachdb/errors"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

type authResponse struct {
	Token string              `json:"token"`
	User  *domain.UserAccount `json:"user"`
}

// Register creates a visitor account. Admin accounts are provisioned
// out of band.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, errors.Wrap(domain.ErrValidation, "invalid request body"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeErr(w, err)
		return
	}

	user, err := domain.NewUserAccount(req.Name, req.Email, hash, req.Phone, domain.RoleVisitor)
	if err != nil {
		writeErr(w, err)
		return
	}

	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			writeErr(w, errors.Wrap(domain.ErrDuplicateKey, "email already registered"))
			return
		}
		writeErr(w, err)
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Role)
	if err != nil {
		writeErr(w, err)
		return
	}

	h.logger.WithField("user_id", user.ID).Info("user registered")
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, errors.Wrap(domain.ErrValidation, "invalid request body"))
		return
	}

	user, err := h.users.ByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeErr(w, domain.ErrUnauthorized)
			return
		}
		writeErr(w, err)
		return
	}
	if !user.Active {
		writeErr(w, domain.ErrUnauthorized)
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		writeErr(w, domain.ErrUnauthorized)
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Role)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.ByID(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
