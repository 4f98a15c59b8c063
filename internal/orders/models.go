package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

type User struct {
	ID           string
	Email        string
	Username     string
	Role         Role
	IsActive     bool
	PasswordHash string // bcrypt, never serialized
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// InStock mirrors the in_stock flag clients expect; it is derived, not stored.
func (p Product) InStock() bool { return p.Stock > 0 }

// Order is a single-product purchase. UnitPrice is the price captured when the
// order was placed and is never updated afterwards.
type Order struct {
	ID          string
	UserID      string
	ProductID   string
	Quantity    int
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
	Status      Status
	CreatedAt   time.Time
	CancelledAt *time.Time
}

// Reservation is the outcome of a successful stock decrement.
type Reservation struct {
	ProductID string
	Quantity  int
	Remaining int
}

// OrderFilter has AND semantics across the non-empty fields.
type OrderFilter struct {
	UserID    string
	ProductID string
	Status    Status
}

func (f OrderFilter) Match(o Order) bool {
	if f.UserID != "" && f.UserID != o.UserID {
		return false
	}
	if f.ProductID != "" && f.ProductID != o.ProductID {
		return false
	}
	if f.Status != "" && f.Status != o.Status {
		return false
	}
	return true
}
