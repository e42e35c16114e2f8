package returnables

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vendinha-erp/vendinha-erp/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the returnables module.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs returnables handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers returnable routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/outstanding", h.handleOutstanding)
	r.Get("/customers/{id}", h.handleCustomerLedgers)
	r.Post("/returns", h.handleReturn)
}

type returnPayload struct {
	CustomerID int64   `json:"customer_id" validate:"required,gt=0"`
	ProductID  int64   `json:"product_id" validate:"required,gt=0"`
	Quantity   float64 `json:"quantity" validate:"required,gt=0"`
}

func (h *Handler) handleOutstanding(w http.ResponseWriter, r *http.Request) {
	var customerID int64
	if raw := r.URL.Query().Get("customer_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid filter", "customer_id must be an integer")
			return
		}
		customerID = id
	}
	rows, err := h.service.Outstanding(r.Context(), customerID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": rows})
}

func (h *Handler) handleCustomerLedgers(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r)
	if !ok {
		return
	}
	ledgers, err := h.service.LedgersFor(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": ledgers})
}

func (h *Handler) handleReturn(w http.ResponseWriter, r *http.Request) {
	var payload returnPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}
	ledger, err := h.service.RecordReturn(r.Context(), httpx.ActorID(r), payload.CustomerID, payload.ProductID, payload.Quantity)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ledger)
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoLedger):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrExceedsPending):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrInvalidQuantity):
		httpx.Problem(w, http.StatusBadRequest, "Validation failed", err.Error())
	default:
		h.logger.Error("returnables request failed", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
