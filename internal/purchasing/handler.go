package purchasing

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vendinha-erp/vendinha-erp/internal/platform/httpx"
	"github.com/vendinha-erp/vendinha-erp/internal/shared"
)

// Handler wires HTTP endpoints for the purchasing module.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs purchasing handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers purchasing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Post("/{id}/receive", h.handleReceive)
	r.Post("/{id}/reverse", h.handleReverse)
	r.Delete("/{id}", h.handleCancelDraft)
}

type createPayload struct {
	SupplierName string        `json:"supplier_name" validate:"required"`
	OrderDate    string        `json:"order_date" validate:"required"`
	Items        []itemPayload `json:"items" validate:"required,min=1,dive"`
}

type itemPayload struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Quantity  float64 `json:"quantity" validate:"required,gt=0"`
	UnitCost  float64 `json:"unit_cost" validate:"gte=0"`
}

type reversePayload struct {
	Reversals []reversalPayload `json:"reversals" validate:"required,min=1,dive"`
}

type reversalPayload struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Quantity  float64 `json:"quantity" validate:"required,gt=0"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": orders})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload createPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}
	orderDate, err := time.Parse("2006-01-02", payload.OrderDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation failed", "order_date must be YYYY-MM-DD")
		return
	}

	input := CreateInput{SupplierName: payload.SupplierName, OrderDate: orderDate}
	for _, item := range payload.Items {
		input.Items = append(input.Items, ItemInput{ProductID: item.ProductID, Quantity: item.Quantity, UnitCost: item.UnitCost})
	}

	order, err := h.service.Create(r.Context(), httpx.ActorID(r), input)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r)
	if !ok {
		return
	}
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) handleReceive(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r)
	if !ok {
		return
	}
	order, err := h.service.Receive(r.Context(), httpx.ActorID(r), id, r.Header.Get("Idempotency-Key"))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) handleReverse(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r)
	if !ok {
		return
	}
	var payload reversePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	reversals := make([]Reversal, 0, len(payload.Reversals))
	for _, rev := range payload.Reversals {
		reversals = append(reversals, Reversal{ProductID: rev.ProductID, Quantity: rev.Quantity})
	}

	order, err := h.service.Reverse(r.Context(), httpx.ActorID(r), id, reversals)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) handleCancelDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r)
	if !ok {
		return
	}
	if err := h.service.CancelDraft(r.Context(), httpx.ActorID(r), id); err != nil {
		h.respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrExceedsReversible):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Problem(w, http.StatusConflict, "Duplicate request", err.Error())
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation failed", err.Error())
	default:
		h.logger.Error("purchasing request failed", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
