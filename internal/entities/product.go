package entities

import "github.com/shopspring/decimal"

// Product is the inventory record. Stock is mutated only by the
// fulfillment worker (debit) and the cancellation path (restock).
// InitialStock is fixed at creation and is the pricing denominator.
type Product struct {
	ProductID    string          `json:"product_id" db:"product_id"`
	Name         string          `json:"name" db:"name"`
	Description  string          `json:"description" db:"description"`
	BasePrice    decimal.Decimal `json:"base_price" db:"base_price"`
	Stock        int             `json:"stock" db:"stock"`
	InitialStock int             `json:"initial_stock" db:"initial_stock"`
}

// PricedProduct is the read-path view of a product with its dynamic
// price resolved. This is what the price cache stores and serves.
type PricedProduct struct {
	ProductID    string          `json:"product_id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	BasePrice    decimal.Decimal `json:"base_price"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Stock        int             `json:"stock"`
	InitialStock int             `json:"initial_stock"`
}
