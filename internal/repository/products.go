package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/matheusmosca/order-fulfillment-service/internal/entities"
)

const productColumns = "product_id, name, description, base_price, stock, initial_stock"

func scanProduct(row pgx.Row) (*entities.Product, error) {
	var product entities.Product
	err := row.Scan(
		&product.ProductID,
		&product.Name,
		&product.Description,
		&product.BasePrice,
		&product.Stock,
		&product.InitialStock,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}
	return &product, nil
}

// GetProduct reads a product outside any transaction.
func (p *Postgres) GetProduct(ctx context.Context, productID string) (*entities.Product, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products WHERE product_id = $1
	`, productID)
	return scanProduct(row)
}

// GetProductForUpdate reads a product with a pessimistic lock
// (FOR UPDATE). The row stays locked until Commit or Rollback.
func (p *Postgres) GetProductForUpdate(ctx context.Context, tx Tx, productID string) (*entities.Product, error) {
	row := pgTx(tx).QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE product_id = $1
		FOR UPDATE
	`, productID)
	return scanProduct(row)
}

// AdjustStock changes the stock level by delta inside tx. The stock >= 0
// check constraint backs up the worker's validation.
func (p *Postgres) AdjustStock(ctx context.Context, tx Tx, productID string, delta int) error {
	_, err := pgTx(tx).Exec(ctx, `
		UPDATE products
		SET stock = stock + $1
		WHERE product_id = $2
	`, delta, productID)
	if err != nil {
		return fmt.Errorf("failed to adjust stock: %w", err)
	}
	return nil
}

// CreateProduct inserts a new product.
func (p *Postgres) CreateProduct(ctx context.Context, product *entities.Product) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO products (product_id, name, description, base_price, stock, initial_stock)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, product.ProductID, product.Name, product.Description, product.BasePrice, product.Stock, product.InitialStock)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}
