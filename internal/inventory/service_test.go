package inventory_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-shop-orders/internal/inventory"
	kafkax "github.com/ariefcatur/go-shop-orders/internal/kafka"
	"github.com/ariefcatur/go-shop-orders/internal/memstore"
	"github.com/ariefcatur/go-shop-orders/internal/orders"
)

type memDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (d *memDeduper) FirstSeen(_ context.Context, service, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen == nil {
		d.seen = map[string]bool{}
	}
	k := service + "/" + id
	if d.seen[k] {
		return false, nil
	}
	d.seen[k] = true
	return true, nil
}

func (d *memDeduper) Forget(_ context.Context, service, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, service+"/"+id)
	return nil
}

type unavailableLedger struct{ orders.StockLedger }

func (unavailableLedger) ReleaseOnce(context.Context, string, string, int) (bool, error) {
	return false, errors.New("connection refused")
}

func setup(t *testing.T, stock int) (*inventory.Service, *memstore.Store, orders.Product) {
	t.Helper()
	store := memstore.New()
	p, err := store.CreateProduct(t.Context(), orders.Product{
		ID:    uuid.NewString(),
		Name:  "kettle",
		Price: decimal.RequireFromString("30.00"),
		Stock: stock,
	})
	require.NoError(t, err)
	return &inventory.Service{
		Ledger:      store,
		Products:    store,
		Dedup:       &memDeduper{},
		Logger:      zap.NewNop(),
		ServiceName: "inventory-test",
	}, store, p
}

func releaseMessage(t *testing.T, token, productID string, qty int) kafkago.Message {
	t.Helper()
	env, err := orders.NewEnvelope(orders.EventStockReleaseRequested, "shop-api", "o1", orders.StockReleaseRequestedPayload{
		Token:     token,
		OrderID:   "o1",
		ProductID: productID,
		Quantity:  qty,
		Reason:    "insert order: boom",
	})
	require.NoError(t, err)
	return kafkago.Message{Topic: orders.TopicStockReleaseRequested, Value: kafkax.MustMarshal(env)}
}

func stockOf(t *testing.T, store *memstore.Store, id string) int {
	t.Helper()
	p, err := store.GetProduct(t.Context(), id)
	require.NoError(t, err)
	return p.Stock
}

func TestRestock(t *testing.T) {
	svc, _, p := setup(t, 2)

	got, err := svc.Restock(t.Context(), p.ID, 8)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Stock)

	_, err = svc.Restock(t.Context(), p.ID, 0)
	assert.Equal(t, orders.KindInvalidInput, orders.KindOf(err))

	_, err = svc.Restock(t.Context(), uuid.NewString(), 1)
	assert.Equal(t, orders.KindNotFound, orders.KindOf(err))
}

func TestRestock_NeverOverflowsStock(t *testing.T) {
	svc, store, p := setup(t, 5)

	for _, qty := range []int{math.MaxInt, orders.MaxQuantity + 1, orders.MaxQuantity - 4} {
		_, err := svc.Restock(t.Context(), p.ID, qty)
		assert.Equal(t, orders.KindInvalidInput, orders.KindOf(err), "qty %d", qty)
		assert.Equal(t, 5, stockOf(t, store, p.ID))
	}

	got, err := svc.Restock(t.Context(), p.ID, orders.MaxQuantity-5)
	require.NoError(t, err)
	assert.Equal(t, orders.MaxQuantity, got.Stock)
}

func TestHandleReleaseRequested(t *testing.T) {
	svc, store, p := setup(t, 1)
	m := releaseMessage(t, orders.CompensationToken("o1"), p.ID, 4)

	require.NoError(t, svc.HandleReleaseRequested(t.Context(), m))
	assert.Equal(t, 5, stockOf(t, store, p.ID))

	// redelivery of the same event
	require.NoError(t, svc.HandleReleaseRequested(t.Context(), m))
	assert.Equal(t, 5, stockOf(t, store, p.ID))

	// a distinct event carrying the same token
	require.NoError(t, svc.HandleReleaseRequested(t.Context(), releaseMessage(t, orders.CompensationToken("o1"), p.ID, 4)))
	assert.Equal(t, 5, stockOf(t, store, p.ID))
}

func TestHandleReleaseRequested_Drops(t *testing.T) {
	svc, store, p := setup(t, 1)

	tests := []struct {
		name string
		msg  kafkago.Message
	}{
		{name: "malformed", msg: kafkago.Message{Value: []byte("{not json")}},
		{name: "unknown product", msg: releaseMessage(t, "compensate:x", uuid.NewString(), 1)},
		{name: "zero quantity", msg: releaseMessage(t, "compensate:y", p.ID, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, svc.HandleReleaseRequested(t.Context(), tt.msg))
			assert.Equal(t, 1, stockOf(t, store, p.ID))
		})
	}

	env, err := orders.NewEnvelope(orders.EventOrderPlaced, "shop-api", "o2", orders.OrderPlacedPayload{OrderID: "o2"})
	require.NoError(t, err)
	assert.NoError(t, svc.HandleReleaseRequested(t.Context(), kafkago.Message{Value: kafkax.MustMarshal(env)}))
}

func TestHandleReleaseRequested_RetriesAfterFailure(t *testing.T) {
	svc, store, p := setup(t, 0)
	m := releaseMessage(t, orders.CompensationToken("o3"), p.ID, 2)

	svc.Ledger = unavailableLedger{StockLedger: store}
	require.Error(t, svc.HandleReleaseRequested(t.Context(), m))
	assert.Zero(t, stockOf(t, store, p.ID))

	svc.Ledger = store
	require.NoError(t, svc.HandleReleaseRequested(t.Context(), m))
	assert.Equal(t, 2, stockOf(t, store, p.ID))
}
