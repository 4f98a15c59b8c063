// Package memstore keeps users, products, orders and stock in process memory.
// It backs STORAGE=memory and the service tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/ariefcatur/go-shop-orders/internal/orders"
)

// Store implements every repository port and orders.StockLedger. Each product
// carries its own mutex so reservations on different products never contend.
type Store struct {
	mu       sync.RWMutex
	users    map[string]orders.User
	products map[string]*productCell
	orders   map[string]orders.Order
	releases map[string]struct{}

	now func() time.Time
}

type productCell struct {
	mu sync.Mutex
	p  orders.Product
}

func New() *Store {
	return &Store{
		users:    make(map[string]orders.User),
		products: make(map[string]*productCell),
		orders:   make(map[string]orders.Order),
		releases: make(map[string]struct{}),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) CreateUser(_ context.Context, u orders.User) (orders.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return orders.User{}, orders.InvalidState("a user with this email already exists")
		}
		if existing.Username == u.Username {
			return orders.User{}, orders.InvalidState("a user with this username already exists")
		}
	}
	now := s.now()
	u.CreatedAt, u.UpdatedAt = now, now
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (orders.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return orders.User{}, orders.NotFound("user", id)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (orders.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := lo.Find(lo.Values(s.users), func(u orders.User) bool {
		return strings.EqualFold(u.Email, email)
	})
	if !ok {
		return orders.User{}, orders.NotFound("user", email)
	}
	return u, nil
}

func (s *Store) ListUsers(_ context.Context) ([]orders.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := lo.Values(s.users)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateUser(_ context.Context, u orders.User) (orders.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[u.ID]
	if !ok {
		return orders.User{}, orders.NotFound("user", u.ID)
	}
	for id, existing := range s.users {
		if id == u.ID {
			continue
		}
		if strings.EqualFold(existing.Email, u.Email) || existing.Username == u.Username {
			return orders.User{}, orders.InvalidState("email or username already taken")
		}
	}
	u.CreatedAt = current.CreatedAt
	u.UpdatedAt = s.now()
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return orders.NotFound("user", id)
	}
	if lo.SomeBy(lo.Values(s.orders), func(o orders.Order) bool { return o.UserID == id }) {
		return orders.InvalidState(fmt.Sprintf("user %s has orders and cannot be deleted", id))
	}
	delete(s.users, id)
	return nil
}

func (s *Store) CreateProduct(_ context.Context, p orders.Product) (orders.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	s.products[p.ID] = &productCell{p: p}
	return p, nil
}

func (s *Store) cell(id string) (*productCell, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.products[id]
	return c, ok
}

func (s *Store) GetProduct(_ context.Context, id string) (orders.Product, error) {
	c, ok := s.cell(id)
	if !ok {
		return orders.Product{}, orders.NotFound("product", id)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.p, nil
}

func (s *Store) ListProducts(_ context.Context) ([]orders.Product, error) {
	s.mu.RLock()
	cells := lo.Values(s.products)
	s.mu.RUnlock()

	out := lo.Map(cells, func(c *productCell, _ int) orders.Product {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.p
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// UpdateProduct keeps the ledger-owned stock level.
func (s *Store) UpdateProduct(_ context.Context, p orders.Product) (orders.Product, error) {
	c, ok := s.cell(p.ID)
	if !ok {
		return orders.Product{}, orders.NotFound("product", p.ID)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.p.Name = p.Name
	c.p.Description = p.Description
	c.p.Price = p.Price
	c.p.UpdatedAt = s.now()
	return c.p, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return orders.NotFound("product", id)
	}
	if lo.SomeBy(lo.Values(s.orders), func(o orders.Order) bool { return o.ProductID == id }) {
		return orders.InvalidState(fmt.Sprintf("product %s has orders and cannot be deleted", id))
	}
	delete(s.products, id)
	return nil
}

func (s *Store) InsertOrder(_ context.Context, o orders.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[o.ID]; ok {
		return orders.InvalidState(fmt.Sprintf("order %s already exists", o.ID))
	}
	if _, ok := s.users[o.UserID]; !ok {
		return orders.NotFound("user", o.UserID)
	}
	if _, ok := s.products[o.ProductID]; !ok {
		return orders.NotFound("product", o.ProductID)
	}
	s.orders[o.ID] = o
	return nil
}

func (s *Store) GetOrder(_ context.Context, id string) (orders.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return orders.Order{}, orders.NotFound("order", id)
	}
	return o, nil
}

func (s *Store) ListOrders(_ context.Context, f orders.OrderFilter) ([]orders.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := lo.Filter(lo.Values(s.orders), func(o orders.Order, _ int) bool { return f.Match(o) })
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) MarkCancelled(_ context.Context, id string, at time.Time) (orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return orders.Order{}, orders.NotFound("order", id)
	}
	if !orders.CanTransition(o.Status, orders.StatusCancelled) {
		return orders.Order{}, orders.InvalidState(fmt.Sprintf("order %s is already %s", id, o.Status))
	}
	o.Status = orders.StatusCancelled
	o.CancelledAt = lo.ToPtr(at)
	s.orders[id] = o
	return o, nil
}
