package httpx

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-shop-orders/internal/orders"
)

func parseForm(r *http.Request) (url.Values, error) {
	if err := r.ParseForm(); err != nil {
		return nil, orders.InvalidInput("malformed form body")
	}
	return r.PostForm, nil
}

// formString returns the trimmed value of key, or nil when the field was not
// submitted.
func formString(form url.Values, key string) *string {
	if !form.Has(key) {
		return nil
	}
	v := strings.TrimSpace(form.Get(key))
	return &v
}

func formInt(form url.Values, key string) (*int, error) {
	s := formString(form, key)
	if s == nil {
		return nil, nil
	}
	i, err := strconv.Atoi(*s)
	if err != nil {
		return nil, orders.InvalidInput(key + " must be an integer")
	}
	return &i, nil
}

func formBool(form url.Values, key string) (*bool, error) {
	s := formString(form, key)
	if s == nil {
		return nil, nil
	}
	b, err := strconv.ParseBool(*s)
	if err != nil {
		return nil, orders.InvalidInput(key + " must be a boolean")
	}
	return &b, nil
}

func formDecimal(form url.Values, key string) (*decimal.Decimal, error) {
	s := formString(form, key)
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, orders.InvalidInput(key + " must be a decimal number")
	}
	return &d, nil
}
