package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/draftea/order-saga/order-service/application"
	"github.com/draftea/order-saga/order-service/domain"
	"github.com/draftea/order-saga/shared/logging"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

// OrderHandlers contains order saga HTTP handlers
type OrderHandlers struct {
	startOrderSaga *application.StartOrderSaga
	getOrderSaga   *application.GetOrderSaga
}

// NewOrderHandlers creates new order handlers
func NewOrderHandlers(
	startOrderSaga *application.StartOrderSaga,
	getOrderSaga *application.GetOrderSaga,
) *OrderHandlers {
	return &OrderHandlers{
		startOrderSaga: startOrderSaga,
		getOrderSaga:   getOrderSaga,
	}
}

// StartOrder starts an order saga. With ?wait=true the response carries the
// outcome; otherwise the saga keeps running after 202 is returned.
func (h *OrderHandlers) StartOrder(w http.ResponseWriter, r *http.Request) {
	var cmd application.StartOrderSagaCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if wait := r.URL.Query().Get("wait"); wait != "" {
		parsed, err := strconv.ParseBool(wait)
		if err != nil {
			http.Error(w, "wait must be a boolean", http.StatusBadRequest)
			return
		}
		cmd.Wait = parsed
	}

	response, err := h.startOrderSaga.Execute(r.Context(), &cmd)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidOrderRequest):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, domain.ErrDuplicateSaga):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			logging.FromContext(r.Context()).Error().Err(err).Str("order_id", cmd.OrderID).Msg("failed to start order saga")
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	status := http.StatusAccepted
	if response.Outcome != nil {
		status = http.StatusOK
	}
	writeJSON(w, status, response)
}

// GetOrder returns the recorded saga of an order
func (h *OrderHandlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		http.Error(w, "Order ID is required", http.StatusBadRequest)
		return
	}

	record, err := h.getOrderSaga.Execute(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, domain.ErrSagaNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		logging.FromContext(r.Context()).Error().Err(err).Str("order_id", orderID).Msg("failed to get order saga")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// RegisterRoutes registers order routes
func (h *OrderHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Post("/", h.StartOrder)
		r.Get("/{id}", h.GetOrder)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
