package expense

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/frahmantamala/expense-tracker/internal"
	expenseDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-tracker/internal/transport"
)

type ServiceAPI interface {
	ListExpenses(ctx context.Context, userID int64, month string) ([]*expenseDatamodel.Expense, error)
	CreateExpense(ctx context.Context, actorID int64, dto CreateExpenseDTO) (*expenseDatamodel.Expense, error)
	UpdateExpense(ctx context.Context, actorID, expenseID int64, dto UpdateExpenseDTO) (*expenseDatamodel.Expense, error)
	DeleteExpense(ctx context.Context, actorID, expenseID int64) error
	ExportExpenses(ctx context.Context, userID int64, month, format string) (*Report, error)
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

// ListExpenses handles GET /api/expenses?userId=&month=
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
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

	expenses, err := h.Service.ListExpenses(r.Context(), userID, month)
	if err != nil {
		h.WriteError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, expenses)
}

// CreateExpense handles POST /api/expenses
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var dto CreateExpenseDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Warn("CreateExpense: invalid request body", "error", err)
		h.WriteAppError(w, internal.NewValidationError(msgInvalidExpense, internal.ErrCodeInvalidBody))
		return
	}

	actorID, _ := internal.UserIDFromContext(r.Context())
	created, err := h.Service.CreateExpense(r.Context(), actorID, dto)
	if err != nil {
		h.WriteError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, created)
}

// UpdateExpense handles PATCH /api/expenses/{id}
func (h *Handler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	expenseID, err := h.IDParam(r, "id")
	if err != nil {
		h.WriteError(w, err)
		return
	}

	var dto UpdateExpenseDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Warn("UpdateExpense: invalid request body", "error", err, "expense_id", expenseID)
		h.WriteAppError(w, internal.NewValidationError(msgUpdateFailed, internal.ErrCodeInvalidBody))
		return
	}

	actorID, _ := internal.UserIDFromContext(r.Context())
	updated, err := h.Service.UpdateExpense(r.Context(), actorID, expenseID, dto)
	if err != nil {
		h.WriteError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, updated)
}

// DeleteExpense handles DELETE /api/expenses/{id}
func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	expenseID, err := h.IDParam(r, "id")
	if err != nil {
		h.WriteError(w, err)
		return
	}

	actorID, _ := internal.UserIDFromContext(r.Context())
	if err := h.Service.DeleteExpense(r.Context(), actorID, expenseID); err != nil {
		h.WriteError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ExportExpenses handles GET /api/expenses/export?userId=&month=&format=
func (h *Handler) ExportExpenses(w http.ResponseWriter, r *http.Request) {
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
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))

	report, err := h.Service.ExportExpenses(r.Context(), userID, month, format)
	if err != nil {
		h.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(report.Body); err != nil {
		h.Logger.Error("ExportExpenses: failed to write report", "error", err)
	}
}
