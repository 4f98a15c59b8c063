package httpx

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/ariefcatur/go-shop-orders/internal/orders"
)

type errorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Available *int   `json:"available,omitempty"`
}

type listBody[T any] struct {
	Data  []T `json:"data"`
	Count int `json:"count"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, listBody[T]{Data: items, Count: len(items)})
}

func statusFor(k orders.Kind) int {
	switch k {
	case orders.KindInvalidInput:
		return http.StatusBadRequest
	case orders.KindNotFound:
		return http.StatusNotFound
	case orders.KindInsufficientStock, orders.KindInvalidState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err without leaking wrapped causes to the client.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	e := orders.AsError(err)
	body := errorBody{Error: string(e.Kind), Message: e.Message}
	if e.Kind == orders.KindInsufficientStock {
		body.Available = &e.Available
	}
	if e.Kind == orders.KindStorageFailure && logger != nil {
		logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, statusFor(e.Kind), body)
}
