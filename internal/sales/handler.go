package sales

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vendinha-erp/vendinha-erp/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the sales module.
type Handler struct {
	logger        *slog.Logger
	service       *Service
	validator     *validator.Validate
	defaultFeePct float64
}

// NewHandler constructs sales handler. defaultFeePct is the percent card
// fee assumed when a card sale carries no explicit fee.
func NewHandler(logger *slog.Logger, service *Service, defaultFeePct float64) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New(), defaultFeePct: defaultFeePct}
}

// MountRoutes registers sale routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Post("/{id}/cancel", h.handleCancel)
	r.Post("/{id}/restock", h.handleRestock)
}

type createPayload struct {
	CustomerID    int64           `json:"customer_id" validate:"required,gt=0"`
	Items         []itemPayload   `json:"items" validate:"required,min=1,dive"`
	PaymentMethod string          `json:"payment_method" validate:"required,oneof=DINHEIRO PIX CARTAO FIADO"`
	DiscountPct   float64         `json:"discount_pct" validate:"gte=0,lte=100"`
	CardFee       *cardFeePayload `json:"card_fee"`
}

type itemPayload struct {
	ProductID     int64   `json:"product_id" validate:"required,gt=0"`
	Quantity      float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice     float64 `json:"unit_price" validate:"gte=0"`
	ChargeDeposit bool    `json:"charge_deposit"`
}

type cardFeePayload struct {
	Type string  `json:"type" validate:"required,oneof=PERCENT FIXED"`
	Rate float64 `json:"rate" validate:"gte=0"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseListFilter(w, r)
	if !ok {
		return
	}
	sales, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": sales})
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

	input := CreateInput{
		CustomerID:    payload.CustomerID,
		PaymentMethod: payload.PaymentMethod,
		DiscountPct:   payload.DiscountPct,
	}
	if payload.CardFee != nil {
		input.CardFee = CardFee{Type: CardFeeType(payload.CardFee.Type), Rate: payload.CardFee.Rate}
	} else if payload.PaymentMethod == PaymentCard && h.defaultFeePct > 0 {
		input.CardFee = CardFee{Type: CardFeePercent, Rate: h.defaultFeePct}
	}
	for _, item := range payload.Items {
		input.Items = append(input.Items, ItemInput{
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			ChargeDeposit: item.ChargeDeposit,
		})
	}

	sale, err := h.service.Create(r.Context(), httpx.ActorID(r), input)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sale)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r)
	if !ok {
		return
	}
	sale, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r)
	if !ok {
		return
	}
	sale, err := h.service.Cancel(r.Context(), httpx.ActorID(r), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) handleRestock(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r)
	if !ok {
		return
	}
	sale, err := h.service.Restock(r.Context(), httpx.ActorID(r), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func parseListFilter(w http.ResponseWriter, r *http.Request) (ListFilter, bool) {
	var filter ListFilter
	query := r.URL.Query()
	if raw := query.Get("customer_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid filter", "customer_id must be an integer")
			return filter, false
		}
		filter.CustomerID = id
	}
	filter.Status = query.Get("status")
	for _, bound := range []struct {
		name   string
		target *time.Time
	}{{"from", &filter.From}, {"to", &filter.To}} {
		if raw := query.Get(bound.name); raw != "" {
			t, err := time.Parse("2006-01-02", raw)
			if err != nil {
				httpx.Problem(w, http.StatusBadRequest, "Invalid filter", bound.name+" must be YYYY-MM-DD")
				return filter, false
			}
			*bound.target = t
		}
	}
	return filter, true
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrCustomerNotFound), errors.Is(err, ErrProductNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrInvalidState), errors.Is(err, ErrAlreadyRestocked):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation failed", err.Error())
	default:
		h.logger.Error("sales request failed", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
