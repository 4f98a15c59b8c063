package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-shop-orders/internal/orders"
)

type UsersHandler struct {
	Catalog *orders.Catalog
	Auth    Authenticator
	Logger  *zap.Logger
}

// Register mounts the authenticated user routes. Registration itself is
// mounted by API.Register.
func (h *UsersHandler) Register(r chi.Router) {
	r.Get("/users", h.listUsers)
	r.Get("/users/{id}", h.getUser)
	r.Put("/users/{id}", h.updateUser)
	r.Delete("/users/{id}", h.deleteUser)
}

func (h *UsersHandler) createUser(w http.ResponseWriter, r *http.Request) {
	form, err := parseForm(r)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	hash, err := h.Auth.HashPassword(lo.FromPtrOr(formString(form, "password"), ""))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	u, err := h.Catalog.CreateUser(r.Context(), orders.NewUser{
		Email:        lo.FromPtrOr(formString(form, "email"), ""),
		Username:     lo.FromPtrOr(formString(form, "username"), ""),
		Role:         orders.Role(lo.FromPtrOr(formString(form, "role"), "")),
		PasswordHash: hash,
	})
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserView(u))
}

func (h *UsersHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	us, err := h.Catalog.ListUsers(r.Context())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeList(w, toViews(us, toUserView))
}

func (h *UsersHandler) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.Catalog.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserView(u))
}

func (h *UsersHandler) updateUser(w http.ResponseWriter, r *http.Request) {
	form, err := parseForm(r)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	active, err := formBool(form, "isActive")
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	patch := orders.UserPatch{
		Email:    formString(form, "email"),
		Username: formString(form, "username"),
		IsActive: active,
	}
	if role := formString(form, "role"); role != nil {
		patch.Role = lo.ToPtr(orders.Role(*role))
	}
	if pw := formString(form, "password"); pw != nil {
		hash, err := h.Auth.HashPassword(*pw)
		if err != nil {
			writeError(w, h.Logger, err)
			return
		}
		patch.PasswordHash = &hash
	}

	u, err := h.Catalog.UpdateUser(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserView(u))
}

func (h *UsersHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
