package dashboard

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/expense-tracker/internal/transport"
)

type ServiceAPI interface {
	Summarize(ctx context.Context, userID int64, month string) (*Summary, error)
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

// GetSummary handles GET /api/dashboard/summary?userId=&month=
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
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

	summary, err := h.Service.Summarize(r.Context(), userID, month)
	if err != nil {
		h.WriteError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, summary)
}
