package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-shop-orders/internal/orders"
)

type ProductRepo struct{ DB *pgxpool.Pool }

const productColumns = `id, name, description, price, stock, created_at, updated_at`

func scanProduct(row pgx.Row) (orders.Product, error) {
	var p orders.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *ProductRepo) CreateProduct(ctx context.Context, p orders.Product) (orders.Product, error) {
	row := r.DB.QueryRow(ctx, `
		INSERT INTO products (id, name, description, price, stock)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+productColumns,
		p.ID, p.Name, p.Description, p.Price, p.Stock)
	created, err := scanProduct(row)
	if err != nil {
		return orders.Product{}, fmt.Errorf("insert product: %w", err)
	}
	return created, nil
}

func (r *ProductRepo) GetProduct(ctx context.Context, id string) (orders.Product, error) {
	if !validID(id) {
		return orders.Product{}, orders.NotFound("product", id)
	}
	p, err := scanProduct(r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return orders.Product{}, orders.NotFound("product", id)
	}
	if err != nil {
		return orders.Product{}, fmt.Errorf("select product: %w", err)
	}
	return p, nil
}

func (r *ProductRepo) ListProducts(ctx context.Context) ([]orders.Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []orders.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateProduct leaves stock alone; the Ledger owns that column.
func (r *ProductRepo) UpdateProduct(ctx context.Context, p orders.Product) (orders.Product, error) {
	if !validID(p.ID) {
		return orders.Product{}, orders.NotFound("product", p.ID)
	}
	row := r.DB.QueryRow(ctx, `
		UPDATE products SET name=$2, description=$3, price=$4, updated_at=now()
		WHERE id=$1
		RETURNING `+productColumns,
		p.ID, p.Name, p.Description, p.Price)
	updated, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return orders.Product{}, orders.NotFound("product", p.ID)
	}
	if err != nil {
		return orders.Product{}, fmt.Errorf("update product: %w", err)
	}
	return updated, nil
}

func (r *ProductRepo) DeleteProduct(ctx context.Context, id string) error {
	if !validID(id) {
		return orders.NotFound("product", id)
	}
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		if pgCode(err) == foreignKeyViolation {
			return orders.InvalidState(fmt.Sprintf("product %s has orders and cannot be deleted", id))
		}
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return orders.NotFound("product", id)
	}
	return nil
}
