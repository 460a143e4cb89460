package budget

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/expense-tracker/internal"
	budgetDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/budget"
	"github.com/frahmantamala/expense-tracker/internal/transport"
)

type ServiceAPI interface {
	ListBudgets(ctx context.Context, userID int64, month string) ([]*budgetDatamodel.MonthlyBudget, error)
	CreateBudget(ctx context.Context, actorID int64, dto CreateBudgetDTO) (*budgetDatamodel.MonthlyBudget, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI, lg *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// ListBudgets handles GET /api/budgets?userId=&month=
func (h *Handler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	userID, err := h.UserIDParam(r)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	month, err := h.MonthParam(r)
	if err != nil {
		h.WriteError(w, err)
		return
	}

	budgets, err := h.Service.ListBudgets(r.Context(), userID, month)
	if err != nil {
		h.WriteError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, budgets)
}

// CreateBudget handles POST /api/budgets
func (h *Handler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	var dto CreateBudgetDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Warn("CreateBudget: invalid request body", "error", err)
		h.WriteAppError(w, internal.NewValidationError(msgInvalidBudget, internal.ErrCodeInvalidBody))
		return
	}

	actorID, _ := internal.UserIDFromContext(r.Context())
	created, err := h.Service.CreateBudget(r.Context(), actorID, dto)
	if err != nil {
		h.WriteError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, created)
}
