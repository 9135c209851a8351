package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/matheusmosca/order-fulfillment-service/internal/entities"
)

const orderColumns = "order_id, customer_id, product_id, price_paid, status, created_at, updated_at"

func scanOrder(row pgx.Row) (*entities.Order, error) {
	var order entities.Order
	err := row.Scan(
		&order.OrderID,
		&order.CustomerID,
		&order.ProductID,
		&order.PricePaid,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	return &order, nil
}

// GetOrder reads an order outside any transaction.
func (p *Postgres) GetOrder(ctx context.Context, orderID string) (*entities.Order, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders WHERE order_id = $1
	`, orderID)
	return scanOrder(row)
}

// GetOrderTx reads an order inside tx without locking it.
func (p *Postgres) GetOrderTx(ctx context.Context, tx Tx, orderID string) (*entities.Order, error) {
	row := pgTx(tx).QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders WHERE order_id = $1
	`, orderID)
	return scanOrder(row)
}

// GetOrderForUpdate reads an order inside tx holding an exclusive row
// lock until the transaction ends.
func (p *Postgres) GetOrderForUpdate(ctx context.Context, tx Tx, orderID string) (*entities.Order, error) {
	row := pgTx(tx).QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders WHERE order_id = $1
		FOR UPDATE
	`, orderID)
	return scanOrder(row)
}

// CreateOrder inserts a new order row inside tx.
func (p *Postgres) CreateOrder(ctx context.Context, tx Tx, order *entities.Order) error {
	_, err := pgTx(tx).Exec(ctx, `
		INSERT INTO orders (order_id, customer_id, product_id, price_paid, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, order.OrderID, order.CustomerID, order.ProductID, order.PricePaid, order.Status, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// SetOrderStatus updates the status of an order inside tx.
func (p *Postgres) SetOrderStatus(ctx context.Context, tx Tx, orderID string, status entities.OrderStatus) error {
	_, err := pgTx(tx).Exec(ctx, `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE order_id = $2
	`, status, orderID)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return nil
}

// CompleteOrder marks an order COMPLETED with the price actually debited.
func (p *Postgres) CompleteOrder(ctx context.Context, tx Tx, orderID string, pricePaid decimal.Decimal) error {
	_, err := pgTx(tx).Exec(ctx, `
		UPDATE orders
		SET status = $1, price_paid = $2, updated_at = NOW()
		WHERE order_id = $3
	`, entities.OrderStatusCompleted, pricePaid, orderID)
	if err != nil {
		return fmt.Errorf("failed to complete order: %w", err)
	}
	return nil
}

// FailStalePending fails PENDING orders last touched before cutoff.
// Reconciliation for jobs that died between redeliveries.
func (p *Postgres) FailStalePending(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := p.pool.Exec(ctx, `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND updated_at < $3
	`, entities.OrderStatusFailed, entities.OrderStatusPending, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep stale pending orders: %w", err)
	}
	return tag.RowsAffected(), nil
}
