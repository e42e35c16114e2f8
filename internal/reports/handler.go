package reports

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vendinha-erp/vendinha-erp/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the reports module.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs reports handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/valuation", h.handleValuation)
	r.Get("/profit", h.handleProfit)
	r.Get("/best-sellers", h.handleBestSellers)
	r.Get("/daily", h.handleDaily)
	r.Get("/deposits", h.handleDeposits)
	r.Post("/invalidate", h.handleInvalidate)
}

func (h *Handler) handleValuation(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Valuation(r.Context())
	if err != nil {
		h.fail(w, "valuation", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleProfit(w http.ResponseWriter, r *http.Request) {
	from, to, ok := rangeParams(w, r)
	if !ok {
		return
	}
	report, err := h.service.Profit(r.Context(), from, to)
	if err != nil {
		h.fail(w, "profit", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleBestSellers(w http.ResponseWriter, r *http.Request) {
	from, to, ok := rangeParams(w, r)
	if !ok {
		return
	}
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid filter", "limit must be an integer")
			return
		}
		limit = parsed
	}
	report, err := h.service.BestSellers(r.Context(), from, to, limit)
	if err != nil {
		h.fail(w, "best sellers", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": report})
}

func (h *Handler) handleDaily(w http.ResponseWriter, r *http.Request) {
	day := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid filter", "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}
	report, err := h.service.Daily(r.Context(), day)
	if err != nil {
		h.fail(w, "daily summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleDeposits(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.DepositsHeld(r.Context())
	if err != nil {
		h.fail(w, "deposits", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Invalidate(r.Context()); err != nil {
		h.fail(w, "invalidate", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func rangeParams(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	query := r.URL.Query()
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	to := now.AddDate(0, 0, 1)

	if raw := query.Get("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid filter", "from must be YYYY-MM-DD")
			return from, to, false
		}
		from = parsed
	}
	if raw := query.Get("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid filter", "to must be YYYY-MM-DD")
			return from, to, false
		}
		to = parsed
	}
	return from, to, true
}

func (h *Handler) fail(w http.ResponseWriter, what string, err error) {
	h.logger.Error("report failed", "report", what, "error", err)
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
