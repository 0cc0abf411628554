package checkout

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/checkout/internal/checkout"
	"github.com/MrJamesThe3rd/checkout/internal/http/auth"
	"github.com/MrJamesThe3rd/checkout/internal/report"
)

type Handler struct {
	svc      *checkout.Service
	reports  *report.Service
	validate *validator.Validate
}

func NewHandler(svc *checkout.Service, reports *report.Service) *Handler {
	return &Handler{svc: svc, reports: reports, validate: validator.New(validator.WithRequiredStructEnabled())}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Delete("/{trxId}", h.cancel)
}

// AdminRoutes carries the endpoints the router only mounts for admins.
func (h *Handler) AdminRoutes(r chi.Router) {
	r.Get("/export", h.export)
}

type createTransactionRequest struct {
	PaymentMethodID string `json:"paymentMethodId" validate:"required,uuid"`
	ProductID       string `json:"productId" validate:"required,uuid"`
	ProductQty      int    `json:"productQty" validate:"required,min=1"`
	Phone           string `json:"phone" validate:"omitempty,numeric,min=8,max=15"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, envelope{Status: http.StatusUnauthorized, Message: "Missing credentials"})
		return
	}

	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, envelope{Status: http.StatusBadRequest, Message: err.Error()})
		return
	}

	if err := h.validate.Struct(req); err != nil {
		respond(w, http.StatusBadRequest, envelope{Status: http.StatusBadRequest, Message: err.Error()})
		return
	}

	trx, err := h.svc.Create(r.Context(), claims.UserID, checkout.CreateParams{
		PaymentMethodID: uuid.MustParse(req.PaymentMethodID),
		ProductID:       uuid.MustParse(req.ProductID),
		ProductQty:      req.ProductQty,
		Phone:           req.Phone,
	})
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrMethodUnavailable):
			respond(w, http.StatusServiceUnavailable, envelope{Status: http.StatusServiceUnavailable, Message: "Payment method not available"})
		case errors.Is(err, checkout.ErrProductUnavailable):
			respond(w, http.StatusServiceUnavailable, envelope{Status: http.StatusServiceUnavailable, Message: "Product not available"})
		case errors.Is(err, checkout.ErrStockEmpty):
			respond(w, http.StatusServiceUnavailable, envelope{Status: http.StatusServiceUnavailable, Message: "Product stock is empty"})
		case errors.Is(err, checkout.ErrAmountOutOfRange):
			respond(w, http.StatusBadRequest, envelope{Status: http.StatusBadRequest, Message: "Payment method not available for this amount"})
		default:
			slog.Error("create transaction failed", "user_id", claims.UserID, "error", err)
			respond(w, http.StatusInternalServerError, envelope{Status: http.StatusInternalServerError, Message: "Internal server error"})
		}

		return
	}

	respond(w, http.StatusOK, envelope{Status: http.StatusOK, Message: "Success", Data: toResponse(trx)})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, envelope{Status: http.StatusUnauthorized, Message: "Missing credentials"})
		return
	}

	filter := parseFilter(r)

	// Non-admin callers only ever see their own transactions.
	if claims.Role != auth.RoleAdmin {
		filter.UserID = &claims.UserID
	}

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)

	result, err := h.svc.List(r.Context(), filter, page, limit)
	if err != nil {
		slog.Error("list transactions failed", "user_id", claims.UserID, "error", err)
		respond(w, http.StatusInternalServerError, envelope{Status: http.StatusInternalServerError, Message: "Internal server error"})

		return
	}

	respond(w, http.StatusOK, envelope{Status: http.StatusOK, Message: "Success", Data: toListResponse(result)})
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, envelope{Status: http.StatusUnauthorized, Message: "Missing credentials"})
		return
	}

	trxID := chi.URLParam(r, "trxId")

	// Admins cancel on behalf of anyone.
	var userID *uuid.UUID
	if claims.Role != auth.RoleAdmin {
		userID = &claims.UserID
	}

	err := h.svc.Cancel(r.Context(), userID, trxID)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrNotFound):
			respond(w, http.StatusNotFound, envelope{Status: http.StatusNotFound, Message: "Transaction not found"})
		case errors.Is(err, checkout.ErrAlreadyPaid):
			respond(w, http.StatusBadRequest, envelope{Status: http.StatusBadRequest, Message: "Transaction already paid, cannot cancel transaction"})
		case errors.Is(err, checkout.ErrCancelPayment):
			respond(w, http.StatusInternalServerError, envelope{Status: http.StatusInternalServerError, Message: "Failed to cancel payment"})
		case errors.Is(err, checkout.ErrCancelTransaction):
			respond(w, http.StatusInternalServerError, envelope{Status: http.StatusInternalServerError, Message: "Failed to cancel transaction"})
		default:
			slog.Error("cancel transaction failed", "trx_id", trxID, "error", err)
			respond(w, http.StatusInternalServerError, envelope{Status: http.StatusInternalServerError, Message: "Internal server error"})
		}

		return
	}

	respond(w, http.StatusOK, envelope{Status: http.StatusOK, Message: "Success cancel transaction"})
}

// export streams a settlement CSV for reconciliation against the providers.
func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	filter := parseFilter(r)

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename(time.Now())+`"`)

	if _, err := h.reports.WriteCSV(r.Context(), w, filter); err != nil {
		// Headers are gone by now; all that is left is to log it.
		slog.Error("settlement export failed", "error", err)
	}
}

func parseFilter(r *http.Request) checkout.ListFilter {
	filter := checkout.ListFilter{}

	if s := r.URL.Query().Get("paidStatus"); s != "" {
		ps := checkout.PaidStatus(s)
		filter.PaidStatus = &ps
	}

	if s := r.URL.Query().Get("orderStatus"); s != "" {
		os := checkout.OrderStatus(s)
		filter.OrderStatus = &os
	}

	if s := r.URL.Query().Get("trxId"); s != "" {
		filter.TrxID = &s
	}

	return filter
}

func queryInt(r *http.Request, key string, fallback int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return fallback
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fallback
	}

	return n
}
