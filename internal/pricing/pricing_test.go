package pricing_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hystore/internal/models"
	"hystore/internal/pricing"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLineTotal(t *testing.T) {
	assert.True(t, dec("21.50").Equal(pricing.LineTotal(dec("10.00"), 2, dec("1.50"))))
	assert.True(t, dec("5.00").Equal(pricing.LineTotal(dec("5.00"), 1, decimal.Zero)))
}

func TestCartTotal(t *testing.T) {
	prices := map[string]decimal.Decimal{"a": dec("10.00"), "b": dec("5.00")}
	lookup := func(id string) (decimal.Decimal, error) {
		p, ok := prices[id]
		if !ok {
			return decimal.Zero, errors.New("missing " + id)
		}
		return p, nil
	}

	lines := []models.CartLine{
		{ProductID: "a", Quantity: 2, PreloadAmount: dec("1.50")},
		{ProductID: "b", Quantity: 1},
	}
	total, err := pricing.CartTotal(lines, lookup)
	require.NoError(t, err)
	assert.Equal(t, "26.50", total.StringFixed(2))

	// Avoids the binary float drift of 0.1 + 0.2.
	prices["c"] = dec("0.10")
	total, err = pricing.CartTotal([]models.CartLine{
		{ProductID: "c", Quantity: 1, PreloadAmount: dec("0.20")},
	}, lookup)
	require.NoError(t, err)
	assert.True(t, dec("0.30").Equal(total))
}

func TestCartTotal_Empty(t *testing.T) {
	total, err := pricing.CartTotal(nil, func(string) (decimal.Decimal, error) {
		t.Fatal("lookup must not be called for an empty cart")
		return decimal.Zero, nil
	})
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestCartTotal_LookupFailureAborts(t *testing.T) {
	missing := errors.New("product not found")
	calls := 0
	lookup := func(id string) (decimal.Decimal, error) {
		calls++
		if id == "gone" {
			return decimal.Zero, missing
		}
		return dec("3.00"), nil
	}

	total, err := pricing.CartTotal([]models.CartLine{
		{ProductID: "a", Quantity: 1},
		{ProductID: "gone", Quantity: 1},
		{ProductID: "b", Quantity: 1},
	}, lookup)
	assert.ErrorIs(t, err, missing)
	assert.True(t, total.IsZero())
	assert.Equal(t, 2, calls)
}

func TestOrderTotalMatchesCartTotal(t *testing.T) {
	lookup := func(string) (decimal.Decimal, error) { return dec("4.25"), nil }
	cart := []models.CartLine{
		{ProductID: "a", Quantity: 3, PreloadAmount: dec("2.00")},
		{ProductID: "b", Quantity: 1, PreloadAmount: dec("0.75")},
	}
	lines := make([]models.OrderLine, 0, len(cart))
	for _, l := range cart {
		lines = append(lines, models.OrderLineFromCart("o-1", l))
	}

	cartTotal, err := pricing.CartTotal(cart, lookup)
	require.NoError(t, err)
	orderTotal, err := pricing.OrderTotal(lines, lookup)
	require.NoError(t, err)
	assert.True(t, cartTotal.Equal(orderTotal))
}

func TestDisplayTotal(t *testing.T) {
	assert.Equal(t, "80.00", pricing.DisplayTotal(dec("100.00"), models.RoleRetailer).StringFixed(2))
	assert.Equal(t, "100.00", pricing.DisplayTotal(dec("100.00"), models.RoleCustomer).StringFixed(2))
	assert.Equal(t, "21.20", pricing.DisplayTotal(dec("26.50"), models.RoleRetailer).StringFixed(2))
	assert.Equal(t, "26.50", pricing.DisplayTotal(dec("26.50"), models.RoleAdmin).StringFixed(2))
}
