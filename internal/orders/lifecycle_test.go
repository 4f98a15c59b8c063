package orders_test

import (
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/ariefcatur/go-shop-orders/internal/orders"
)

func TestCancelOrder(t *testing.T) {
	f := newFixture(t)
	u := f.user(t)
	p := f.product(t, "7.25", 4)

	o, err := f.svc.PlaceOrder(t.Context(), u.ID, p.ID, 3)
	require.NoError(t, err)
	require.Equal(t, 1, f.stock(t, p.ID))

	cancelled, err := f.svc.CancelOrder(t.Context(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, o.Total.StringFixed(2), cancelled.Total.StringFixed(2))
	assert.Equal(t, 4, f.stock(t, p.ID))

	events := f.events.ofType(orders.EventOrderCancelled)
	require.Len(t, events, 1)
	payload, err := orders.DecodePayload[orders.OrderCancelledPayload](events[0])
	require.NoError(t, err)
	assert.Equal(t, o.ID, payload.OrderID)
	assert.Equal(t, 3, payload.Quantity)
}

func TestCancelOrder_UnknownOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CancelOrder(t.Context(), uuid.NewString())
	assert.Equal(t, orders.KindNotFound, orders.KindOf(err))
}

func TestCancelOrder_ConcurrentCancelsReleaseOnce(t *testing.T) {
	f := newFixture(t)
	u := f.user(t)
	p := f.product(t, "2.00", 5)

	o, err := f.svc.PlaceOrder(t.Context(), u.ID, p.ID, 2)
	require.NoError(t, err)

	var ok, rejected atomic.Int32
	var g errgroup.Group
	for range 8 {
		g.Go(func() error {
			_, err := f.svc.CancelOrder(t.Context(), o.ID)
			switch {
			case err == nil:
				ok.Add(1)
			case orders.IsKind(err, orders.KindInvalidState):
				rejected.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.EqualValues(t, 1, ok.Load())
	assert.EqualValues(t, 7, rejected.Load())
	assert.Equal(t, 5, f.stock(t, p.ID))
}

func TestCancelOrder_RetryAfterStatusWriteFailure(t *testing.T) {
	f := newFixture(t)
	u := f.user(t)
	p := f.product(t, "2.00", 5)

	o, err := f.svc.PlaceOrder(t.Context(), u.ID, p.ID, 2)
	require.NoError(t, err)

	f.svc.Orders = failingMarks{OrderRepository: f.store}
	_, err = f.svc.CancelOrder(t.Context(), o.ID)
	require.Error(t, err)
	assert.Equal(t, orders.KindStorageFailure, orders.KindOf(err))
	assert.Equal(t, 5, f.stock(t, p.ID))

	f.svc.Orders = f.store
	cancelled, err := f.svc.CancelOrder(t.Context(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCancelled, cancelled.Status)
	assert.Equal(t, 5, f.stock(t, p.ID))
}

func TestCancelOrder_ReleaseFailureLeavesOrderPlaced(t *testing.T) {
	f := newFixture(t)
	u := f.user(t)
	p := f.product(t, "2.00", 5)

	o, err := f.svc.PlaceOrder(t.Context(), u.ID, p.ID, 2)
	require.NoError(t, err)

	f.svc.Ledger = &brokenReleases{StockLedger: f.store}
	_, err = f.svc.CancelOrder(t.Context(), o.ID)
	assert.Equal(t, orders.KindStorageFailure, orders.KindOf(err))

	stored, err := f.store.GetOrder(t.Context(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPlaced, stored.Status)
	assert.Equal(t, 3, f.stock(t, p.ID))
}

func TestGetOrder_ReadsThroughCache(t *testing.T) {
	f := newFixture(t)
	cache := newMapCache()
	f.svc.Cache = cache
	u := f.user(t)
	p := f.product(t, "1.00", 2)

	o, err := f.svc.PlaceOrder(t.Context(), u.ID, p.ID, 1)
	require.NoError(t, err)

	got, err := f.svc.GetOrder(t.Context(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
	assert.Equal(t, 1, cache.hits)

	cancelled, err := f.svc.CancelOrder(t.Context(), o.ID)
	require.NoError(t, err)
	got, err = f.svc.GetOrder(t.Context(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, cancelled.Status, got.Status)
}

func TestListOrders(t *testing.T) {
	f := newFixture(t)
	alice, bob := f.user(t), f.user(t)
	p := f.product(t, "1.00", 10)
	ctx := t.Context()

	a1, err := f.svc.PlaceOrder(ctx, alice.ID, p.ID, 1)
	require.NoError(t, err)
	_, err = f.svc.PlaceOrder(ctx, alice.ID, p.ID, 1)
	require.NoError(t, err)
	_, err = f.svc.PlaceOrder(ctx, bob.ID, p.ID, 1)
	require.NoError(t, err)
	_, err = f.svc.CancelOrder(ctx, a1.ID)
	require.NoError(t, err)

	all, err := f.svc.ListOrders(ctx, orders.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := f.svc.ListOrders(ctx, orders.OrderFilter{UserID: alice.ID})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	cancelled, err := f.svc.ListOrders(ctx, orders.OrderFilter{Status: orders.StatusCancelled})
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, a1.ID, cancelled[0].ID)

	_, err = f.svc.ListOrders(ctx, orders.OrderFilter{Status: "shipped"})
	assert.Equal(t, orders.KindInvalidInput, orders.KindOf(err))
}
