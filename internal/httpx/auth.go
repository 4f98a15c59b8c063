package httpx

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ariefcatur/go-shop-orders/internal/auth"
	"github.com/ariefcatur/go-shop-orders/internal/orders"
)

type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (orders.User, error)
	HashPassword(password string) (string, error)
}

// BasicAuth requires HTTP Basic credentials of an active user.
func BasicAuth(a Authenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, password, ok := r.BasicAuth()
			if !ok {
				unauthorized(w, "authentication required")
				return
			}
			if _, err := a.Authenticate(r.Context(), email, password); err != nil {
				if errors.Is(err, auth.ErrInvalidCredentials) {
					unauthorized(w, "could not validate credentials")
					return
				}
				writeError(w, logger, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Basic realm="shop"`)
	writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized", Message: msg})
}
