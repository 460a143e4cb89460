package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI, lg *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// Signup handles POST /api/auth/signup
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var dto SignupDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, internal.NewValidationError("Invalid user data", internal.ErrCodeInvalidBody))
		return
	}

	session, err := h.Service.Signup(r.Context(), dto)
	if err != nil {
		h.WriteError(w, err)
		return
	}

	w.Header().Set(TokenHeader, session.Token)
	h.WriteJSON(w, http.StatusCreated, session.User)
}

// Login handles POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, internal.ErrInvalidCredentials)
		return
	}

	session, err := h.Service.Login(r.Context(), dto)
	if err != nil {
		h.WriteError(w, err)
		return
	}

	w.Header().Set(TokenHeader, session.Token)
	h.WriteJSON(w, http.StatusOK, session.User)
}
