package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-shop-orders/internal/orders"
)

type OrderRepo struct{ DB *pgxpool.Pool }

const orderColumns = `id, user_id, product_id, quantity, unit_price, total, status, created_at, cancelled_at`

func scanOrder(row pgx.Row) (orders.Order, error) {
	var (
		o      orders.Order
		status string
	)
	if err := row.Scan(&o.ID, &o.UserID, &o.ProductID, &o.Quantity, &o.UnitPrice, &o.Total,
		&status, &o.CreatedAt, &o.CancelledAt); err != nil {
		return o, err
	}
	s, err := orders.ToStatus(status)
	if err != nil {
		return o, fmt.Errorf("orders.ToStatus[%s]: %w", status, err)
	}
	o.Status = s
	return o, nil
}

func (r *OrderRepo) InsertOrder(ctx context.Context, o orders.Order) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO orders (id, user_id, product_id, quantity, unit_price, total, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		o.ID, o.UserID, o.ProductID, o.Quantity, o.UnitPrice, o.Total, string(o.Status), o.CreatedAt)
	if err != nil {
		switch pgCode(err) {
		case foreignKeyViolation:
			return orders.NotFound("user or product", o.UserID+"/"+o.ProductID)
		case uniqueViolation:
			return orders.InvalidState(fmt.Sprintf("order %s already exists", o.ID))
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *OrderRepo) GetOrder(ctx context.Context, id string) (orders.Order, error) {
	if !validID(id) {
		return orders.Order{}, orders.NotFound("order", id)
	}
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return orders.Order{}, orders.NotFound("order", id)
	}
	if err != nil {
		return orders.Order{}, fmt.Errorf("select order: %w", err)
	}
	return o, nil
}

func (r *OrderRepo) ListOrders(ctx context.Context, f orders.OrderFilter) ([]orders.Order, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if f.UserID != "" {
		if !validID(f.UserID) {
			return nil, nil
		}
		add("user_id=$%d", f.UserID)
	}
	if f.ProductID != "" {
		if !validID(f.ProductID) {
			return nil, nil
		}
		add("product_id=$%d", f.ProductID)
	}
	if f.Status != "" {
		add("status=$%d", string(f.Status))
	}

	q := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at`

	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []orders.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// MarkCancelled is a conditional update, so of two concurrent cancels only
// one sees a row come back.
func (r *OrderRepo) MarkCancelled(ctx context.Context, id string, at time.Time) (orders.Order, error) {
	if !validID(id) {
		return orders.Order{}, orders.NotFound("order", id)
	}
	o, err := scanOrder(r.DB.QueryRow(ctx, `
		UPDATE orders SET status='cancelled', cancelled_at=$2
		WHERE id=$1 AND status='placed'
		RETURNING `+orderColumns, id, at))
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return orders.Order{}, fmt.Errorf("cancel order: %w", err)
	}

	current, err := r.GetOrder(ctx, id)
	if err != nil {
		return orders.Order{}, err
	}
	return orders.Order{}, orders.InvalidState(fmt.Sprintf("order %s is already %s", id, current.Status))
}
