package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-shop-orders/internal/orders"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody errorBody
	}{
		{
			name:     "invalid input",
			err:      orders.InvalidInput("quantity must be a positive integer"),
			wantCode: http.StatusBadRequest,
			wantBody: errorBody{Error: "invalid_input", Message: "quantity must be a positive integer"},
		},
		{
			name:     "wrapped not found",
			err:      fmt.Errorf("get product: %w", orders.NotFound("product", "p1")),
			wantCode: http.StatusNotFound,
			wantBody: errorBody{Error: "not_found", Message: "product p1 not found"},
		},
		{
			name:     "insufficient stock with zero left",
			err:      orders.InsufficientStock("p1", 0),
			wantCode: http.StatusConflict,
			wantBody: errorBody{Error: "insufficient_stock", Message: "product p1 has only 0 items left", Available: new(int)},
		},
		{
			name:     "untyped error hides details",
			err:      errors.New("dial tcp 10.0.0.1:5432: connection refused"),
			wantCode: http.StatusInternalServerError,
			wantBody: errorBody{Error: "storage_failure", Message: "storage failure"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, zap.NewNop(), tt.err)

			assert.Equal(t, tt.wantCode, rec.Code)
			var got errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.wantBody, got)
		})
	}
}
