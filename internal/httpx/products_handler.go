package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sander-0/sanberbe59-sander/internal/orders"
)

type ProductLister interface {
	ListProducts(ctx context.Context) ([]orders.Product, error)
}

type ProductsHandler struct {
	Repo ProductLister
	Log  *slog.Logger
}

func (h *ProductsHandler) Register(r chi.Router) {
	r.Get("/products", h.listProducts)
}

func (h *ProductsHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Repo.ListProducts(ctx)
	if err != nil {
		if h.Log != nil {
			h.Log.Error("list products", "err", err)
		}
		writeJSON(w, http.StatusInternalServerError, response{Message: "Failed to retrieve products"})
		return
	}
	if ps == nil {
		ps = []orders.Product{}
	}
	writeJSON(w, http.StatusOK, response{Message: "Products retrieved successfully", Data: ps})
}
