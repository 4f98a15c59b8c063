package auth_test

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ariefcatur/go-shop-orders/internal/auth"
	"github.com/ariefcatur/go-shop-orders/internal/memstore"
	"github.com/ariefcatur/go-shop-orders/internal/orders"
)

func TestAuthenticate(t *testing.T) {
	store := memstore.New()
	a := &auth.Authenticator{Users: store, Cost: bcrypt.MinCost}
	password := gofakeit.Password(true, true, true, false, false, 12)

	hash, err := a.HashPassword(password)
	require.NoError(t, err)
	u, err := store.CreateUser(t.Context(), orders.User{
		ID:           uuid.NewString(),
		Email:        "buyer@example.com",
		Username:     "buyer",
		Role:         orders.RoleBuyer,
		IsActive:     true,
		PasswordHash: hash,
	})
	require.NoError(t, err)

	got, err := a.Authenticate(t.Context(), "buyer@example.com", password)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = a.Authenticate(t.Context(), "buyer@example.com", "wrong-password")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = a.Authenticate(t.Context(), "nobody@example.com", password)
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	u.IsActive = false
	_, err = store.UpdateUser(t.Context(), u)
	require.NoError(t, err)
	_, err = a.Authenticate(t.Context(), "buyer@example.com", password)
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestHashPassword_Length(t *testing.T) {
	a := &auth.Authenticator{Cost: bcrypt.MinCost}

	_, err := a.HashPassword("short")
	assert.Equal(t, orders.KindInvalidInput, orders.KindOf(err))

	_, err = a.HashPassword(gofakeit.LetterN(73))
	assert.Equal(t, orders.KindInvalidInput, orders.KindOf(err))
}
