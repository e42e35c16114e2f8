package catalog

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vendinha-erp/vendinha-erp/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the catalog module.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs catalog handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
}

type productPayload struct {
	Name         string   `json:"name" validate:"required"`
	Category     string   `json:"category" validate:"required"`
	IsReturnable bool     `json:"is_returnable"`
	DepositValue *float64 `json:"deposit_value" validate:"omitempty,gte=0"`
	PriceUnit    float64  `json:"price_unit" validate:"gte=0"`
	Description  string   `json:"description"`
	Status       string   `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.List(r.Context(), r.URL.Query().Get("status"), r.URL.Query().Get("category"))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": products})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload productPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}
	product, err := h.service.Create(r.Context(), httpx.ActorID(r), CreateInput{
		Name:         payload.Name,
		Category:     payload.Category,
		IsReturnable: payload.IsReturnable,
		DepositValue: payload.DepositValue,
		PriceUnit:    payload.PriceUnit,
		Description:  payload.Description,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r)
	if !ok {
		return
	}
	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r)
	if !ok {
		return
	}
	var payload productPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}
	status := payload.Status
	if status == "" {
		status = StatusActive
	}
	product, err := h.service.Update(r.Context(), httpx.ActorID(r), id, UpdateInput{
		Name:         payload.Name,
		Category:     payload.Category,
		IsReturnable: payload.IsReturnable,
		DepositValue: payload.DepositValue,
		PriceUnit:    payload.PriceUnit,
		Description:  payload.Description,
		Status:       status,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
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
	case errors.Is(err, ErrDuplicateName):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrHasDependencies):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation failed", err.Error())
	default:
		h.logger.Error("catalog request failed", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
