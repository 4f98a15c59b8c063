package memstore

import (
	"context"

	"github.com/ariefcatur/go-shop-orders/internal/orders"
)

func (s *Store) Reserve(_ context.Context, productID string, qty int) (orders.Reservation, error) {
	if err := orders.ValidateQuantity(qty); err != nil {
		return orders.Reservation{}, err
	}
	c, ok := s.cell(productID)
	if !ok {
		return orders.Reservation{}, orders.NotFound("product", productID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.p.Stock < qty {
		return orders.Reservation{}, orders.InsufficientStock(productID, c.p.Stock)
	}
	c.p.Stock -= qty
	c.p.UpdatedAt = s.now()
	return orders.Reservation{ProductID: productID, Quantity: qty, Remaining: c.p.Stock}, nil
}

func (s *Store) Release(_ context.Context, productID string, qty int) (int, error) {
	if err := orders.ValidateQuantity(qty); err != nil {
		return 0, err
	}
	c, ok := s.cell(productID)
	if !ok {
		return 0, orders.NotFound("product", productID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.p.Stock > orders.MaxQuantity-qty {
		return 0, orders.StockOverflow(productID)
	}
	c.p.Stock += qty
	c.p.UpdatedAt = s.now()
	return c.p.Stock, nil
}

func (s *Store) ReleaseOnce(_ context.Context, token, productID string, qty int) (bool, error) {
	if token == "" {
		return false, orders.InvalidInput("release token is required")
	}

	// Holding the store lock across the increment keeps the token and the
	// stock change one atomic step.
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, done := s.releases[token]; done {
		return false, nil
	}
	c, ok := s.products[productID]
	if !ok {
		return false, orders.NotFound("product", productID)
	}
	if err := orders.ValidateQuantity(qty); err != nil {
		return false, err
	}

	c.mu.Lock()
	if c.p.Stock > orders.MaxQuantity-qty {
		c.mu.Unlock()
		return false, orders.StockOverflow(productID)
	}
	c.p.Stock += qty
	c.p.UpdatedAt = s.now()
	c.mu.Unlock()

	s.releases[token] = struct{}{}
	return true, nil
}
