package orders_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-shop-orders/internal/orders"
)

func TestValidateQuantity(t *testing.T) {
	assert.NoError(t, orders.ValidateQuantity(1))
	assert.NoError(t, orders.ValidateQuantity(orders.MaxQuantity))

	for _, qty := range []int{0, -5, orders.MaxQuantity + 1} {
		assert.Equal(t, orders.KindInvalidInput, orders.KindOf(orders.ValidateQuantity(qty)), "qty %d", qty)
	}
}

func TestValidatePrice_Limit(t *testing.T) {
	assert.NoError(t, orders.ValidatePrice(orders.MaxPrice))
	assert.NoError(t, orders.ValidatePrice(decimal.Zero))

	err := orders.ValidatePrice(orders.MaxPrice.Add(decimal.RequireFromString("0.01")))
	assert.Equal(t, orders.KindInvalidInput, orders.KindOf(err))
}

func TestOrderTotal(t *testing.T) {
	total, err := orders.OrderTotal(decimal.RequireFromString("10.00"), 3)
	require.NoError(t, err)
	assert.Equal(t, "30.00", total.StringFixed(2))

	_, err = orders.OrderTotal(orders.MaxPrice, orders.MaxQuantity)
	assert.Equal(t, orders.KindInvalidInput, orders.KindOf(err))
}
