package orders_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-shop-orders/internal/memstore"
	"github.com/ariefcatur/go-shop-orders/internal/orders"
)

var errBoom = errors.New("boom")

type fixture struct {
	store  *memstore.Store
	events *recordingPublisher
	svc    *orders.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memstore.New()
	events := &recordingPublisher{}
	return &fixture{
		store:  store,
		events: events,
		svc: &orders.Service{
			Users:                store,
			Products:             store,
			Orders:               store,
			Ledger:               store,
			Events:               events,
			Logger:               zap.NewNop(),
			ServiceName:          "shop-api-test",
			CompensationAttempts: 2,
			CompensationBackoff:  time.Millisecond,
		},
	}
}

func (f *fixture) user(t *testing.T) orders.User {
	t.Helper()
	u, err := f.store.CreateUser(t.Context(), orders.User{
		ID:           uuid.NewString(),
		Email:        gofakeit.Email(),
		Username:     gofakeit.Username() + gofakeit.DigitN(4),
		Role:         orders.RoleBuyer,
		IsActive:     true,
		PasswordHash: "x",
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) product(t *testing.T, price string, stock int) orders.Product {
	t.Helper()
	p, err := f.store.CreateProduct(t.Context(), orders.Product{
		ID:    uuid.NewString(),
		Name:  gofakeit.ProductName(),
		Price: decimal.RequireFromString(price),
		Stock: stock,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) stock(t *testing.T, productID string) int {
	t.Helper()
	p, err := f.store.GetProduct(t.Context(), productID)
	require.NoError(t, err)
	return p.Stock
}

func (f *fixture) orderCount(t *testing.T) int {
	t.Helper()
	list, err := f.store.ListOrders(t.Context(), orders.OrderFilter{})
	require.NoError(t, err)
	return len(list)
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	envs   []orders.Envelope
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic, _ string, env orders.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.envs = append(p.envs, env)
	return nil
}

func (p *recordingPublisher) ofType(eventType string) []orders.Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []orders.Envelope
	for _, e := range p.envs {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

// failingInserts rejects every order write.
type failingInserts struct {
	orders.OrderRepository
	err error
}

func (f failingInserts) InsertOrder(context.Context, orders.Order) error { return f.err }

// failingMarks rejects every status write.
type failingMarks struct {
	orders.OrderRepository
}

func (failingMarks) MarkCancelled(context.Context, string, time.Time) (orders.Order, error) {
	return orders.Order{}, errBoom
}

// brokenReleases fails every idempotent release and counts the attempts.
type brokenReleases struct {
	orders.StockLedger

	mu       sync.Mutex
	attempts int
}

func (b *brokenReleases) ReleaseOnce(context.Context, string, string, int) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attempts++
	return false, errBoom
}

// flakyReleases fails the first n idempotent releases.
type flakyReleases struct {
	orders.StockLedger

	mu       sync.Mutex
	failures int
}

func (f *flakyReleases) ReleaseOnce(ctx context.Context, token, productID string, qty int) (bool, error) {
	f.mu.Lock()
	if f.failures > 0 {
		f.failures--
		f.mu.Unlock()
		return false, errBoom
	}
	f.mu.Unlock()
	return f.StockLedger.ReleaseOnce(ctx, token, productID, qty)
}

type mapCache struct {
	mu     sync.Mutex
	orders map[string]orders.Order
	hits   int
}

func newMapCache() *mapCache { return &mapCache{orders: map[string]orders.Order{}} }

func (c *mapCache) Get(_ context.Context, id string) (orders.Order, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	o, ok := c.orders[id]
	if ok {
		c.hits++
	}
	return o, ok, nil
}

func (c *mapCache) Put(_ context.Context, o orders.Order) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orders[o.ID] = o
	return nil
}

// repricingLedger changes the product price right after a reservation is
// granted.
type repricingLedger struct {
	orders.StockLedger
	store *memstore.Store
	price decimal.Decimal
}

func (r repricingLedger) Reserve(ctx context.Context, productID string, qty int) (orders.Reservation, error) {
	res, err := r.StockLedger.Reserve(ctx, productID, qty)
	if err != nil {
		return res, err
	}
	p, err := r.store.GetProduct(ctx, productID)
	if err != nil {
		return res, err
	}
	p.Price = r.price
	if _, err := r.store.UpdateProduct(ctx, p); err != nil {
		return res, err
	}
	return res, nil
}

// cancellingLedger cancels the caller's request while the reservation is in
// flight and records whether the ledger still saw a live context.
type cancellingLedger struct {
	orders.StockLedger
	cancel  context.CancelFunc
	ctxErrs *[]error
}

func (c cancellingLedger) Reserve(ctx context.Context, productID string, qty int) (orders.Reservation, error) {
	c.cancel()
	*c.ctxErrs = append(*c.ctxErrs, ctx.Err())
	return c.StockLedger.Reserve(ctx, productID, qty)
}

// deletingLedger removes the product right after a reservation is granted.
type deletingLedger struct {
	orders.StockLedger
	store *memstore.Store
}

func (d deletingLedger) Reserve(ctx context.Context, productID string, qty int) (orders.Reservation, error) {
	res, err := d.StockLedger.Reserve(ctx, productID, qty)
	if err != nil {
		return res, err
	}
	return res, d.store.DeleteProduct(ctx, productID)
}
