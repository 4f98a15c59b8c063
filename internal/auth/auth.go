// Package auth verifies HTTP Basic credentials against stored bcrypt hashes.
package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/ariefcatur/go-shop-orders/internal/orders"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Authenticator struct {
	Users orders.UserRepository
	// Cost is the bcrypt work factor for new hashes; zero means bcrypt.DefaultCost.
	Cost int
}

func (a *Authenticator) HashPassword(password string) (string, error) {
	if len(password) < 8 || len(password) > 72 {
		return "", orders.InvalidInput("password must be between 8 and 72 characters")
	}
	cost := a.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(h), nil
}

// Authenticate returns the active user owning email and password.
func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (orders.User, error) {
	u, err := a.Users.GetUserByEmail(ctx, email)
	if err != nil {
		if orders.IsKind(err, orders.KindNotFound) {
			return orders.User{}, ErrInvalidCredentials
		}
		return orders.User{}, err
	}
	if !u.IsActive {
		return orders.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return orders.User{}, ErrInvalidCredentials
	}
	return u, nil
}
