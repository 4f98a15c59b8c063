package orders

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Stock and quantities are stored as 32-bit integers, prices as
// NUMERIC(12,2) and totals as NUMERIC(14,2).
const MaxQuantity = math.MaxInt32

var (
	MaxPrice = decimal.RequireFromString("9999999999.99")
	MaxTotal = decimal.RequireFromString("999999999999.99")
)

// ValidateQuantity accepts order and restock quantities in [1, MaxQuantity].
func ValidateQuantity(qty int) error {
	if qty <= 0 {
		return InvalidInput("quantity must be a positive integer")
	}
	if qty > MaxQuantity {
		return InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantity))
	}
	return nil
}

// StockOverflow reports an increment that would push stock past MaxQuantity.
func StockOverflow(productID string) error {
	return InvalidInput(fmt.Sprintf("stock of product %s would exceed %d", productID, MaxQuantity))
}

// OrderTotal is quantity times unit price, rejected when it cannot be stored.
func OrderTotal(price decimal.Decimal, qty int) (decimal.Decimal, error) {
	total := price.Mul(decimal.NewFromInt(int64(qty)))
	if total.GreaterThan(MaxTotal) {
		return decimal.Decimal{}, InvalidInput(fmt.Sprintf("order total %s exceeds %s", total.StringFixed(2), MaxTotal.StringFixed(2)))
	}
	return total, nil
}
