package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/derrickgolden/easyisp-engine/pkg/httputil"
	"github.com/derrickgolden/easyisp-engine/pkg/observability"
	"github.com/derrickgolden/easyisp-engine/pkg/payments"
)

// PaymentHandlers serves the payment reconciliation endpoints.
type PaymentHandlers struct {
	engine *payments.Engine
	logger *observability.Logger
}

// NewPaymentHandlers creates handlers for payment endpoints.
func NewPaymentHandlers(engine *payments.Engine, logger *observability.Logger) *PaymentHandlers {
	return &PaymentHandlers{engine: engine, logger: logger}
}

// RegisterRoutes registers payment routes on the router.
func (h *PaymentHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/payments/pending", h.ListPending).Methods("GET")
	router.HandleFunc("/payments/{id}/resolve", h.Resolve).Methods("POST")
}

// ListPending returns unmatched payments, newest first. The search term
// matches receipt code, phone number, payer name or bill reference.
func (h *PaymentHandlers) ListPending(w http.ResponseWriter, r *http.Request) {
	limit, err := httputil.ParseQueryInt(r, "limit", 50)
	if err != nil || limit < 1 || limit > 500 {
		httputil.WriteValidationError(w, "limit must be between 1 and 500")
		return
	}

	filter := payments.Filter{
		Search: httputil.ParseQueryString(r, "search", ""),
		Limit:  limit,
	}

	pending, err := h.engine.ListPending(r.Context(), filter)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if pending == nil {
		pending = []*payments.Payment{}
	}

	httputil.WriteSuccess(w, pending)
}

// ResolveRequest links a pending payment to a subscriber account.
type ResolveRequest struct {
	SubscriberID int64 `json:"subscriber_id"`
}

// Resolve credits a pending payment to the named subscriber. The receipt
// can only ever be linked once; a repeat call gets a conflict.
func (h *PaymentHandlers) Resolve(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req ResolveRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequirePositive(w, req.SubscriberID, "subscriber_id") {
		return
	}

	tx, err := h.engine.Resolve(r.Context(), paymentID, req.SubscriberID)
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrNotFound):
			httputil.WriteNotFoundError(w, "payment not found")
		case errors.Is(err, payments.ErrAlreadyResolved):
			httputil.WriteConflict(w, "payment already linked to a subscriber")
		case errors.Is(err, payments.ErrResolveInFlight):
			httputil.WriteConflict(w, "payment resolution already in progress")
		default:
			h.logger.WithError(err).
				WithField("payment_id", paymentID).
				WithField("subscriber_id", req.SubscriberID).
				Error("payment resolution failed")
			httputil.WriteInternalError(w, err)
		}
		return
	}

	httputil.WriteSuccess(w, tx)
}
