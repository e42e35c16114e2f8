package customers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vendinha-erp/vendinha-erp/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the customers module.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs customers handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers customer routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
}

type customerPayload struct {
	Name         string `json:"name" validate:"required"`
	Type         string `json:"type" validate:"required,oneof=INDIVIDUAL RESELLER"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	Neighborhood string `json:"neighborhood"`
	Status       string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

func (p customerPayload) toInput() Input {
	status := p.Status
	if status == "" {
		status = StatusActive
	}
	return Input{
		Name:         p.Name,
		Type:         p.Type,
		Phone:        p.Phone,
		Address:      p.Address,
		Neighborhood: p.Neighborhood,
		Status:       status,
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": customers})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decode(w, r)
	if !ok {
		return
	}
	customer, err := h.service.Create(r.Context(), httpx.ActorID(r), payload.toInput())
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, customer)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r)
	if !ok {
		return
	}
	customer, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, customer)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r)
	if !ok {
		return
	}
	payload, ok := h.decode(w, r)
	if !ok {
		return
	}
	customer, err := h.service.Update(r.Context(), httpx.ActorID(r), id, payload.toInput())
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, customer)
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

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (customerPayload, bool) {
	var payload customerPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid body", err.Error())
		return payload, false
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation failed", err.Error())
		return payload, false
	}
	return payload, true
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrHasSales):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation failed", err.Error())
	default:
		h.logger.Error("customers request failed", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
