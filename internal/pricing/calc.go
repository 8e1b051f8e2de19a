// Package pricing turns a list of order line items into the monetary summary
// persisted on an order. Arithmetic happens in integer cents so that the
// documented two-decimal results hold exactly; rounding is half away from
// zero.
package pricing

import "math"

// Item describes a line item used for price calculation. UnitPrice is the
// catalog price looked up by product id at order time, never a value taken
// from the client.
type Item struct {
	Qty       int
	UnitPrice float64
}

// Policy holds the tunable constants of the calculator.
type Policy struct {
	TaxRate         float64
	FreeShippingMin float64
	FlatShipping    float64
}

// DefaultPolicy mirrors the documented storefront behaviour: 15% tax, flat
// shipping of 10 below an items total of 100.
func DefaultPolicy() Policy {
	return Policy{TaxRate: 0.15, FreeShippingMin: 100, FlatShipping: 10}
}

// Summary aggregates the computed pricing components.
type Summary struct {
	ItemsPrice    float64 `json:"itemsPrice"`
	ShippingPrice float64 `json:"shippingPrice"`
	TaxPrice      float64 `json:"taxPrice"`
	TotalPrice    float64 `json:"totalPrice"`
}

// Compute calculates order totals for the given line items. Items with a
// non-positive quantity are skipped. An empty cart still pays flat shipping
// since zero sits below any positive free-shipping threshold.
func Compute(items []Item, policy Policy) Summary {
	var itemsCents int64
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		itemsCents += toCents(it.UnitPrice) * int64(it.Qty)
	}

	shippingCents := toCents(policy.FlatShipping)
	if itemsCents >= toCents(policy.FreeShippingMin) {
		shippingCents = 0
	}

	// Tax in basis points keeps the multiply-then-round exact: 2550 cents at
	// 1500 bps is 3825000, which rounds to 383 cents, not 382.
	taxBps := int64(math.Round(policy.TaxRate * 10000))
	taxCents := roundHalfAway(itemsCents*taxBps, 10000)

	totalCents := itemsCents + shippingCents + taxCents
	return Summary{
		ItemsPrice:    fromCents(itemsCents),
		ShippingPrice: fromCents(shippingCents),
		TaxPrice:      fromCents(taxCents),
		TotalPrice:    fromCents(totalCents),
	}
}

// Round2 rounds a decimal amount to two places, halves away from zero.
func Round2(v float64) float64 {
	return fromCents(toCents(v))
}

func toCents(v float64) int64 {
	return int64(math.Round(v * 100))
}

func fromCents(c int64) float64 {
	return float64(c) / 100
}

// roundHalfAway divides n by d rounding the result half away from zero.
func roundHalfAway(n, d int64) int64 {
	if d == 0 {
		return 0
	}
	if n >= 0 {
		return (n + d/2) / d
	}
	return -((-n + d/2) / d)
}
