package inventory

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vendinha-erp/vendinha-erp/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the inventory module.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/warehouse", h.handleWarehouse)
	r.Get("/movements", h.handleMovements)
}

func (h *Handler) handleWarehouse(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.GetWarehouse(r.Context())
	if err != nil {
		h.logger.Error("warehouse view failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": rows})
}

func (h *Handler) handleMovements(w http.ResponseWriter, r *http.Request) {
	var filter MovementFilter
	if raw := r.URL.Query().Get("product_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid filter", "product_id must be an integer")
			return
		}
		filter.ProductID = id
	}
	if raw := r.URL.Query().Get("ref_type"); raw != "" {
		filter.RefType = RefType(raw)
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid filter", "limit must be an integer")
			return
		}
		filter.Limit = limit
	}

	movements, err := h.service.ListMovements(r.Context(), filter)
	if err != nil {
		h.logger.Error("movement listing failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": movements})
}
