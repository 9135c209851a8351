// Package pricing implements the scarcity-driven dynamic price
// calculation. It is pure: no I/O, no state.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/matheusmosca/order-fulfillment-service/internal/entities"
)

// Tier multipliers. Price rises in discrete steps as stock depletes
// relative to its initial level.
var (
	multiplierFull   = decimal.NewFromInt(1)
	multiplierLow    = decimal.RequireFromString("1.2")
	multiplierScarce = decimal.RequireFromString("1.5")
)

// CurrentPrice returns the dynamic price for a product given its base
// price and stock state, rounded to 2 decimal places.
//
// ratio = stock / max(initialStock, 1):
//
//	ratio > 0.50         -> base * 1.0
//	0.25 < ratio <= 0.50 -> base * 1.2
//	ratio <= 0.25        -> base * 1.5
func CurrentPrice(basePrice decimal.Decimal, stock, initialStock int) decimal.Decimal {
	initial := initialStock
	if initial < 1 {
		initial = 1
	}
	ratio := float64(stock) / float64(initial)

	var multiplier decimal.Decimal
	switch {
	case ratio > 0.50:
		multiplier = multiplierFull
	case ratio > 0.25:
		multiplier = multiplierLow
	default:
		multiplier = multiplierScarce
	}

	return basePrice.Mul(multiplier).Round(2)
}

// View resolves the dynamic price for a product and returns the
// read-path projection served by the price cache.
func View(p *entities.Product) entities.PricedProduct {
	return entities.PricedProduct{
		ProductID:    p.ProductID,
		Name:         p.Name,
		Description:  p.Description,
		BasePrice:    p.BasePrice,
		CurrentPrice: CurrentPrice(p.BasePrice, p.Stock, p.InitialStock),
		Stock:        p.Stock,
		InitialStock: p.InitialStock,
	}
}
