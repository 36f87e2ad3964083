// Package pricing computes cart and order amounts with fixed-point decimals.
//
// Totals always use the product price current at the time of the call; prices
// are never snapshotted when a line is added to a cart.
package pricing

import (
	"github.com/shopspring/decimal"

	"hystore/internal/models"
)

// retailerRate is the share of the total a retailer is shown at checkout.
var retailerRate = decimal.RequireFromString("0.80")

// PriceLookup returns the current unit price of a product.
type PriceLookup func(productID string) (decimal.Decimal, error)

// LineTotal returns unitPrice*quantity + preload.
func LineTotal(unitPrice decimal.Decimal, quantity int, preload decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Add(preload)
}

// CartTotal sums LineTotal over lines. The first lookup error aborts the
// computation and is returned unchanged.
func CartTotal(lines []models.CartLine, lookup PriceLookup) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, line := range lines {
		price, err := lookup(line.ProductID)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(LineTotal(price, line.Quantity, line.PreloadAmount))
	}
	return total, nil
}

// OrderTotal sums the contributions of order lines at the given prices.
// Checkout uses it to confirm the copied lines add up to the priced cart.
func OrderTotal(lines []models.OrderLine, lookup PriceLookup) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, line := range lines {
		price, err := lookup(line.ProductID)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(LineTotal(price, line.Quantity, line.PreloadAmount))
	}
	return total, nil
}

// DisplayTotal is the amount shown to a caller of the given role. Retailers
// see 80% of the total; the stored order total is never changed.
func DisplayTotal(total decimal.Decimal, role models.Role) decimal.Decimal {
	if role == models.RoleRetailer {
		return total.Mul(retailerRate).Round(2)
	}
	return total.Round(2)
}
