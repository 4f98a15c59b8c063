package httpx

import (
	_ "embed"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

//go:embed openapi.yaml
var openAPIDoc []byte

func NewRouter(logger *zap.Logger, timeout time.Duration) *chi.Mux {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(logger), middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(openAPIDoc)
	})
	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("client_ip", r.RemoteAddr))
		})
	}
}

// API bundles the resource handlers behind one authentication boundary.
type API struct {
	Users    *UsersHandler
	Products *ProductsHandler
	Orders   *OrdersHandler
	Auth     Authenticator
	Logger   *zap.Logger
}

// Register mounts the public routes and the authenticated resource routes.
func (a *API) Register(r chi.Router) {
	// registration stays open so the first account can be created
	r.Post("/users", a.Users.createUser)

	r.Group(func(r chi.Router) {
		r.Use(BasicAuth(a.Auth, a.Logger))
		a.Users.Register(r)
		a.Products.Register(r)
		a.Orders.Register(r)
	})
}
