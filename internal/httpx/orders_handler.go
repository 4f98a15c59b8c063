package httpx

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-shop-orders/internal/orders"
)

// IdempotencyStore remembers which order an Idempotency-Key produced.
type IdempotencyStore interface {
	Claim(ctx context.Context, key string) (orderID string, claimed bool, err error)
	Complete(ctx context.Context, key, orderID string) error
	Forget(ctx context.Context, key string) error
}

type OrdersHandler struct {
	Service     *orders.Service
	Idempotency IdempotencyStore // optional
	Logger      *zap.Logger
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders", h.placeOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/orders/{id}/cancel", h.cancelOrder)
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	form, err := parseForm(r)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	userID := formString(form, "userId")
	productID := formString(form, "productId")
	if userID == nil || *userID == "" || productID == nil || *productID == "" {
		writeError(w, h.Logger, orders.InvalidInput("userId and productId are required"))
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

	ctx := r.Context()
	key := r.Header.Get("Idempotency-Key")
	claimed := false
	if key != "" && h.Idempotency != nil {
		existing, ok, err := h.Idempotency.Claim(ctx, key)
		if err != nil {
			writeError(w, h.Logger, orders.StorageFailure("idempotency check failed", err))
			return
		}
		if !ok {
			h.replay(w, r, key, existing)
			return
		}
		claimed = true
	}

	o, err := h.Service.PlaceOrder(ctx, *userID, *productID, *qty)
	if err != nil {
		if claimed {
			if ferr := h.Idempotency.Forget(context.WithoutCancel(ctx), key); ferr != nil {
				h.Logger.Warn("idempotency release failed", zap.String("key", key), zap.Error(ferr))
			}
		}
		writeError(w, h.Logger, err)
		return
	}
	if claimed {
		if cerr := h.Idempotency.Complete(context.WithoutCancel(ctx), key, o.ID); cerr != nil {
			h.Logger.Warn("idempotency record failed", zap.String("key", key), zap.String("order_id", o.ID), zap.Error(cerr))
		}
	}
	writeJSON(w, http.StatusCreated, toOrderView(o))
}

func (h *OrdersHandler) replay(w http.ResponseWriter, r *http.Request, key, orderID string) {
	if orderID == "" {
		writeError(w, h.Logger, orders.InvalidState("a request with this Idempotency-Key is still in progress"))
		return
	}
	o, err := h.Service.GetOrder(r.Context(), orderID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	h.Logger.Debug("idempotent replay", zap.String("key", key), zap.String("order_id", o.ID))
	writeJSON(w, http.StatusOK, toOrderView(o))
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.Service.ListOrders(r.Context(), orders.OrderFilter{
		UserID:    q.Get("userId"),
		ProductID: q.Get("productId"),
		Status:    orders.Status(q.Get("status")),
	})
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeList(w, toViews(list, toOrderView))
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderView(o))
}

func (h *OrdersHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Service.CancelOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderView(o))
}
