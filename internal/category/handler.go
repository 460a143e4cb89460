package category

import (
	"net/http"

	categoryDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/category"
	"github.com/frahmantamala/expense-tracker/internal/transport"
)

type ServiceAPI interface {
	GetAllCategories() ([]*categoryDatamodel.Category, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// GetCategories handles GET /api/categories
func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Service.GetAllCategories()
	if err != nil {
		h.WriteError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, categories)
}
