package orders

import (
	"context"
	"time"
)

// Repositories return *Error values of KindNotFound for missing records and
// KindInvalidState for uniqueness or reference violations. Anything else is
// treated as a storage failure.

type UserRepository interface {
	CreateUser(ctx context.Context, u User) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, u User) (User, error)
	DeleteUser(ctx context.Context, id string) error
}

// ProductRepository never writes Product.Stock after creation; stock belongs
// to the StockLedger.
type ProductRepository interface {
	CreateProduct(ctx context.Context, p Product) (Product, error)
	GetProduct(ctx context.Context, id string) (Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	UpdateProduct(ctx context.Context, p Product) (Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type OrderRepository interface {
	InsertOrder(ctx context.Context, o Order) error
	GetOrder(ctx context.Context, id string) (Order, error)
	ListOrders(ctx context.Context, f OrderFilter) ([]Order, error)
	// MarkCancelled moves a placed order to cancelled. It fails with
	// KindInvalidState when the order is no longer placed.
	MarkCancelled(ctx context.Context, id string, at time.Time) (Order, error)
}

// StockLedger is the only mutation path for Product.Stock.
type StockLedger interface {
	// Reserve decrements stock by qty if at least qty units are available.
	Reserve(ctx context.Context, productID string, qty int) (Reservation, error)
	// Release increments stock by qty and returns the new level. Calls are
	// not deduplicated.
	Release(ctx context.Context, productID string, qty int) (int, error)
	// ReleaseOnce increments stock at most once per token and reports
	// whether this call applied the increment.
	ReleaseOnce(ctx context.Context, token, productID string, qty int) (bool, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, env Envelope) error
}

type OrderCache interface {
	Get(ctx context.Context, id string) (Order, bool, error)
	Put(ctx context.Context, o Order) error
}
