package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-shop-orders/internal/inventory"
	"github.com/ariefcatur/go-shop-orders/internal/orders"
)

type ProductsHandler struct {
	Catalog   *orders.Catalog
	Inventory *inventory.Service
	Logger    *zap.Logger
}

func (h *ProductsHandler) Register(r chi.Router) {
	r.Post("/products", h.createProduct)
	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.getProduct)
	r.Put("/products/{id}", h.updateProduct)
	r.Delete("/products/{id}", h.deleteProduct)
	r.Post("/products/{id}/restock", h.restock)
}

func (h *ProductsHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	form, err := parseForm(r)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	price, err := formDecimal(form, "price")
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	if price == nil {
		writeError(w, h.Logger, orders.InvalidInput("price is required"))
		return
	}
	stock, err := formInt(form, "stock")
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	p, err := h.Catalog.CreateProduct(r.Context(), orders.NewProduct{
		Name:        lo.FromPtrOr(formString(form, "name"), ""),
		Description: lo.FromPtrOr(formString(form, "description"), ""),
		Price:       *price,
		Stock:       lo.FromPtrOr(stock, 0),
	})
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductView(p))
}

func (h *ProductsHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Catalog.ListProducts(r.Context())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeList(w, toViews(ps, toProductView))
}

func (h *ProductsHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.Catalog.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductView(p))
}

func (h *ProductsHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	form, err := parseForm(r)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	// stock only moves through the ledger
	if form.Has("stock") {
		writeError(w, h.Logger, orders.InvalidInput("stock cannot be set directly, use the restock endpoint"))
		return
	}
	price, err := formDecimal(form, "price")
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	p, err := h.Catalog.UpdateProduct(r.Context(), chi.URLParam(r, "id"), orders.ProductPatch{
		Name:        formString(form, "name"),
		Description: formString(form, "description"),
		Price:       price,
	})
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductView(p))
}

func (h *ProductsHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductsHandler) restock(w http.ResponseWriter, r *http.Request) {
	form, err := parseForm(r)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	qty, err := formInt(form, "quantity")
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	if qty == nil {
		writeError(w, h.Logger, orders.InvalidInput("quantity is required"))
		return
	}

	p, err := h.Inventory.Restock(r.Context(), chi.URLParam(r, "id"), *qty)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductView(p))
}
