package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sander-0/sanberbe59-sander/internal/orders"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, userID string, items []orders.OrderItem) (orders.PlacedOrder, error)
	ListOrders(ctx context.Context, userID string) ([]orders.Order, error)
}

type OrdersHandler struct {
	Service OrderService
	Log     *slog.Logger
}

type createOrderReq struct {
	OrderItems []orders.OrderItem `json:"orderItems"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders", h.listOrders)
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Message: "invalid json"})
		return
	}
	if len(req.OrderItems) == 0 {
		writeJSON(w, http.StatusBadRequest, response{Message: "orderItems is required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	placed, err := h.Service.PlaceOrder(ctx, UserID(r), req.OrderItems)
	if err != nil {
		h.writeError(w, r, err, "Failed to create order")
		return
	}
	writeJSON(w, http.StatusCreated, response{Message: "Order created successfully", Data: placed})
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Service.ListOrders(ctx, UserID(r))
	if err != nil {
		h.writeError(w, r, err, "Failed to retrieve orders")
		return
	}
	if len(list) == 0 {
		// bukan error keras: user valid, cuma belum pernah order
		writeJSON(w, http.StatusNotFound, response{Message: "No orders found for this user", Data: []orders.Order{}})
		return
	}
	writeJSON(w, http.StatusOK, response{Message: "Orders retrieved successfully", Data: list})
}

// writeError memetakan taxonomy error domain ke status HTTP. Selain error
// client (401/404/400), detail storage tidak dibocorkan ke response.
func (h *OrdersHandler) writeError(w http.ResponseWriter, r *http.Request, err error, generic string) {
	var notFound *orders.ProductNotFoundError
	var noStock *orders.InsufficientStockError
	var badQty *orders.InvalidQtyError

	switch {
	case errors.Is(err, orders.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, response{Message: "User not authenticated"})
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, response{Message: err.Error()})
	case errors.As(err, &noStock), errors.As(err, &badQty):
		writeJSON(w, http.StatusBadRequest, response{Message: err.Error()})
	default:
		if h.Log != nil {
			h.Log.Error(generic, "path", r.URL.Path, "err", err)
		}
		writeJSON(w, http.StatusInternalServerError, response{Message: generic})
	}
}
