// Package pricing computes order money amounts and point awards. All
// arithmetic is on integer minor currency units (pence); display
// formatting is the caller's concern.
package pricing

import (
	"github.com/quickbites/order-service/internal/domain"
)

// UnitPrice is the price of a single unit of a line: base price plus the
// surcharge of every selected customization. Reward-redemption lines are
// always free.
func UnitPrice(li domain.LineItem) int64 {
	if li.IsRewardRedemption {
		return 0
	}
	price := li.UnitBasePrice
	for _, sel := range li.Customizations {
		price += sel.Surcharge
	}
	return price
}

// LineTotal is UnitPrice times quantity.
func LineTotal(li domain.LineItem) int64 {
	return UnitPrice(li) * int64(li.Quantity)
}

// OrderTotal sums line totals over all lines.
func OrderTotal(items []domain.LineItem) int64 {
	var total int64
	for _, li := range items {
		total += LineTotal(li)
	}
	return total
}

// TotalItems sums quantities over all lines.
func TotalItems(items []domain.LineItem) int {
	var n int
	for _, li := range items {
		n += li.Quantity
	}
	return n
}

// ChargeableSubtotal is the portion of the order billed to the payment
// gateway. Reward-redemption lines contribute nothing, so today this
// equals OrderTotal; it exists as its own operation because the billing
// rule, not the line prices, is what excludes reward lines.
func ChargeableSubtotal(items []domain.LineItem) int64 {
	var total int64
	for _, li := range items {
		if li.IsRewardRedemption {
			continue
		}
		total += LineTotal(li)
	}
	return total
}

// PointsForPayment converts a charged amount into loyalty points: one
// point per minor currency unit, never negative.
func PointsForPayment(amountMinorUnits int64) int64 {
	if amountMinorUnits < 0 {
		return 0
	}
	return amountMinorUnits
}
