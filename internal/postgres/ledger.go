package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-shop-orders/internal/orders"
)

// Ledger keeps stock in products.stock. Every mutation is a single
// conditional statement, so no lock is held across a round trip.
type Ledger struct{ DB *pgxpool.Pool }

func (l *Ledger) Reserve(ctx context.Context, productID string, qty int) (orders.Reservation, error) {
	if err := orders.ValidateQuantity(qty); err != nil {
		return orders.Reservation{}, err
	}
	if !validID(productID) {
		return orders.Reservation{}, orders.NotFound("product", productID)
	}

	var remaining int
	err := l.DB.QueryRow(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE id=$1 AND stock >= $2
		RETURNING stock`, productID, qty).Scan(&remaining)
	if err == nil {
		return orders.Reservation{ProductID: productID, Quantity: qty, Remaining: remaining}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return orders.Reservation{}, fmt.Errorf("reserve stock: %w", err)
	}

	// Nothing matched: either the product is gone or stock is short.
	var available int
	err = l.DB.QueryRow(ctx, `SELECT stock FROM products WHERE id=$1`, productID).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return orders.Reservation{}, orders.NotFound("product", productID)
	}
	if err != nil {
		return orders.Reservation{}, fmt.Errorf("read stock: %w", err)
	}
	return orders.Reservation{}, orders.InsufficientStock(productID, available)
}

func (l *Ledger) Release(ctx context.Context, productID string, qty int) (int, error) {
	if err := orders.ValidateQuantity(qty); err != nil {
		return 0, err
	}
	if !validID(productID) {
		return 0, orders.NotFound("product", productID)
	}
	return increment(ctx, l.DB, productID, qty)
}

func (l *Ledger) ReleaseOnce(ctx context.Context, token, productID string, qty int) (bool, error) {
	if token == "" {
		return false, orders.InvalidInput("release token is required")
	}
	if err := orders.ValidateQuantity(qty); err != nil {
		return false, err
	}
	if !validID(productID) {
		return false, orders.NotFound("product", productID)
	}

	return withTx(ctx, l.DB, func(tx pgx.Tx) (bool, error) {
		ct, err := tx.Exec(ctx, `
			INSERT INTO stock_releases (token, product_id, quantity)
			VALUES ($1, $2, $3)
			ON CONFLICT (token) DO NOTHING`, token, productID, qty)
		if err != nil {
			return false, fmt.Errorf("record release: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return false, nil
		}
		if _, err := increment(ctx, tx, productID, qty); err != nil {
			return false, err
		}
		return true, nil
	})
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func increment(ctx context.Context, q querier, productID string, qty int) (int, error) {
	var stock int
	err := q.QueryRow(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE id=$1 AND stock <= $3 - $2
		RETURNING stock`, productID, qty, orders.MaxQuantity).Scan(&stock)
	if err == nil {
		return stock, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("release stock: %w", err)
	}

	// Nothing matched: either the product is gone or the increment overflows.
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id=$1)`, productID).Scan(&exists); err != nil {
		return 0, fmt.Errorf("read stock: %w", err)
	}
	if !exists {
		return 0, orders.NotFound("product", productID)
	}
	return 0, orders.StockOverflow(productID)
}
