package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-shop-orders/internal/orders"
)

type UserRepo struct{ DB *pgxpool.Pool }

const userColumns = `id, email, username, role, is_active, password_hash, created_at, updated_at`

func scanUser(row pgx.Row) (orders.User, error) {
	var (
		u    orders.User
		role string
	)
	err := row.Scan(&u.ID, &u.Email, &u.Username, &role, &u.IsActive, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	u.Role = orders.Role(role)
	return u, err
}

func userWriteErr(op string, err error) error {
	if pgCode(err) == uniqueViolation {
		return orders.InvalidState("a user with this email or username already exists")
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (r *UserRepo) CreateUser(ctx context.Context, u orders.User) (orders.User, error) {
	row := r.DB.QueryRow(ctx, `
		INSERT INTO users (id, email, username, role, is_active, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+userColumns,
		u.ID, u.Email, u.Username, string(u.Role), u.IsActive, u.PasswordHash)
	created, err := scanUser(row)
	if err != nil {
		return orders.User{}, userWriteErr("insert user", err)
	}
	return created, nil
}

func (r *UserRepo) GetUser(ctx context.Context, id string) (orders.User, error) {
	if !validID(id) {
		return orders.User{}, orders.NotFound("user", id)
	}
	u, err := scanUser(r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return orders.User{}, orders.NotFound("user", id)
	}
	if err != nil {
		return orders.User{}, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (orders.User, error) {
	u, err := scanUser(r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email)=lower($1)`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return orders.User{}, orders.NotFound("user", email)
	}
	if err != nil {
		return orders.User{}, fmt.Errorf("select user by email: %w", err)
	}
	return u, nil
}

func (r *UserRepo) ListUsers(ctx context.Context) ([]orders.User, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []orders.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UserRepo) UpdateUser(ctx context.Context, u orders.User) (orders.User, error) {
	if !validID(u.ID) {
		return orders.User{}, orders.NotFound("user", u.ID)
	}
	row := r.DB.QueryRow(ctx, `
		UPDATE users
		SET email=$2, username=$3, role=$4, is_active=$5, password_hash=$6, updated_at=now()
		WHERE id=$1
		RETURNING `+userColumns,
		u.ID, u.Email, u.Username, string(u.Role), u.IsActive, u.PasswordHash)
	updated, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return orders.User{}, orders.NotFound("user", u.ID)
	}
	if err != nil {
		return orders.User{}, userWriteErr("update user", err)
	}
	return updated, nil
}

func (r *UserRepo) DeleteUser(ctx context.Context, id string) error {
	if !validID(id) {
		return orders.NotFound("user", id)
	}
	ct, err := r.DB.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		if pgCode(err) == foreignKeyViolation {
			return orders.InvalidState(fmt.Sprintf("user %s has orders and cannot be deleted", id))
		}
		return fmt.Errorf("delete user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return orders.NotFound("user", id)
	}
	return nil
}
