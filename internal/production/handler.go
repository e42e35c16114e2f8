package production

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

// Handler wires HTTP endpoints for the production module.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs production handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers production routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdate)
	r.Post("/{id}/complete", h.handleComplete)
	r.Delete("/{id}", h.handleDelete)
}

type createPayload struct {
	Description      string              `json:"description" validate:"required"`
	BatchDate        string              `json:"batch_date" validate:"required"`
	TotalCost        float64             `json:"total_cost" validate:"gte=0"`
	QuantityProduced float64             `json:"quantity_produced" validate:"required,gt=0"`
	Ingredients      []ingredientPayload `json:"ingredients" validate:"omitempty,dive"`
}

type ingredientPayload struct {
	Name     string  `json:"name" validate:"required"`
	Quantity float64 `json:"quantity" validate:"gte=0"`
	Cost     float64 `json:"cost" validate:"gte=0"`
}

type completePayload struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	batches, err := h.service.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": batches})
}

func (h *Handler) decodeInput(w http.ResponseWriter, r *http.Request) (CreateInput, bool) {
	var payload createPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid body", err.Error())
		return CreateInput{}, false
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation failed", err.Error())
		return CreateInput{}, false
	}
	batchDate, err := time.Parse("2006-01-02", payload.BatchDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation failed", "batch_date must be YYYY-MM-DD")
		return CreateInput{}, false
	}

	input := CreateInput{
		Description:      payload.Description,
		BatchDate:        batchDate,
		TotalCost:        payload.TotalCost,
		QuantityProduced: payload.QuantityProduced,
	}
	for _, ing := range payload.Ingredients {
		input.Ingredients = append(input.Ingredients, Ingredient{Name: ing.Name, Quantity: ing.Quantity, Cost: ing.Cost})
	}
	return input, true
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	batch, err := h.service.Create(r.Context(), httpx.ActorID(r), input)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, batch)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r)
	if !ok {
		return
	}
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	batch, err := h.service.Update(r.Context(), httpx.ActorID(r), id, input)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, batch)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r)
	if !ok {
		return
	}
	batch, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, batch)
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r)
	if !ok {
		return
	}
	var payload completePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	batch, err := h.service.Complete(r.Context(), httpx.ActorID(r), id, payload.ProductID, r.Header.Get("Idempotency-Key"))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, batch)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), httpx.ActorID(r), id); err != nil {
		h.respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrAlreadyCompleted):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Problem(w, http.StatusConflict, "Duplicate request", err.Error())
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation failed", err.Error())
	default:
		h.logger.Error("production request failed", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
