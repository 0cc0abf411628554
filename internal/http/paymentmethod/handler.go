package paymentmethod

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/checkout/internal/catalog"
)

type Handler struct {
	svc      *catalog.Service
	validate *validator.Validate
}

func NewHandler(svc *catalog.Service) *Handler {
	return &Handler{svc: svc, validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Routes exposes the read-only surface.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
}

// AdminRoutes exposes the mutating surface; the router wraps these in the
// admin role guard.
func (h *Handler) AdminRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type createMethodRequest struct {
	ProviderID    string  `json:"providerId" validate:"required"`
	Provider      string  `json:"provider" validate:"required,oneof=PAYDISINI DUITKU"`
	Type          string  `json:"type" validate:"required,oneof=TRANSFER_BANK TRANSFER_EWALLET DIRECT_EWALLET VIRTUAL_ACCOUNT RETAIL_OUTLET CREDIT_CARD LINK_PAYMENT OTHER"`
	Name          string  `json:"name" validate:"required"`
	Desc          string  `json:"desc"`
	Fees          int64   `json:"fees" validate:"min=0"`
	FeesInPercent float64 `json:"feesInPercent" validate:"min=0,max=100"`
	MinAmount     int64   `json:"minAmount" validate:"min=0"`
	MaxAmount     int64   `json:"maxAmount" validate:"required,gtfield=MinAmount"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m, err := h.svc.CreateMethod(r.Context(), catalog.CreateMethodParams{
		ProviderID:    req.ProviderID,
		Provider:      catalog.Provider(req.Provider),
		Type:          catalog.MethodType(req.Type),
		Name:          req.Name,
		Desc:          req.Desc,
		Fees:          req.Fees,
		FeesInPercent: req.FeesInPercent,
		MinAmount:     req.MinAmount,
		MaxAmount:     req.MaxAmount,
	})
	if err != nil {
		slog.Error("create payment method failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toResponse(m)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type updateMethodRequest struct {
	ProviderID    *string  `json:"providerId,omitempty"`
	Provider      *string  `json:"provider,omitempty" validate:"omitempty,oneof=PAYDISINI DUITKU"`
	Type          *string  `json:"type,omitempty" validate:"omitempty,oneof=TRANSFER_BANK TRANSFER_EWALLET DIRECT_EWALLET VIRTUAL_ACCOUNT RETAIL_OUTLET CREDIT_CARD LINK_PAYMENT OTHER"`
	Name          *string  `json:"name,omitempty"`
	Desc          *string  `json:"desc,omitempty"`
	Fees          *int64   `json:"fees,omitempty" validate:"omitempty,min=0"`
	FeesInPercent *float64 `json:"feesInPercent,omitempty" validate:"omitempty,min=0,max=100"`
	MinAmount     *int64   `json:"minAmount,omitempty" validate:"omitempty,min=0"`
	MaxAmount     *int64   `json:"maxAmount,omitempty" validate:"omitempty,min=1"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req updateMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	params := catalog.UpdateMethodParams{
		ProviderID:    req.ProviderID,
		Name:          req.Name,
		Desc:          req.Desc,
		Fees:          req.Fees,
		FeesInPercent: req.FeesInPercent,
		MinAmount:     req.MinAmount,
		MaxAmount:     req.MaxAmount,
	}

	if req.Provider != nil {
		p := catalog.Provider(*req.Provider)
		params.Provider = &p
	}

	if req.Type != nil {
		t := catalog.MethodType(*req.Type)
		params.Type = &t
	}

	m, err := h.svc.UpdateMethod(r.Context(), id, params)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			http.Error(w, "payment method not found", http.StatusNotFound)
			return
		}

		slog.Error("update payment method failed", "id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(m)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.svc.DeleteMethod(r.Context(), id); err != nil {
		slog.Error("delete payment method failed", "id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	methods, err := h.svc.ListMethods(r.Context())
	if err != nil {
		slog.Error("list payment methods failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	resp := make([]methodResponse, len(methods))
	for i, m := range methods {
		resp[i] = toResponse(m)
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type methodResponse struct {
	ID            uuid.UUID          `json:"id"`
	ProviderID    string             `json:"providerId"`
	Provider      catalog.Provider   `json:"provider"`
	Type          catalog.MethodType `json:"type"`
	Name          string             `json:"name"`
	Desc          string             `json:"desc,omitempty"`
	Fees          int64              `json:"fees"`
	FeesInPercent float64            `json:"feesInPercent"`
	MinAmount     int64              `json:"minAmount"`
	MaxAmount     int64              `json:"maxAmount"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     *time.Time         `json:"updatedAt,omitempty"`
}

func toResponse(m *catalog.PaymentMethod) methodResponse {
	return methodResponse{
		ID:            m.ID,
		ProviderID:    m.ProviderID,
		Provider:      m.Provider,
		Type:          m.Type,
		Name:          m.Name,
		Desc:          m.Desc,
		Fees:          m.Fees,
		FeesInPercent: m.FeesInPercent,
		MinAmount:     m.MinAmount,
		MaxAmount:     m.MaxAmount,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
