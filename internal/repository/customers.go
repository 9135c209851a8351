package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/matheusmosca/order-fulfillment-service/internal/entities"
)

const customerColumns = "customer_id, username, wallet_balance, created_at, updated_at"

func scanCustomer(row pgx.Row) (*entities.Customer, error) {
	var customer entities.Customer
	err := row.Scan(
		&customer.CustomerID,
		&customer.Username,
		&customer.WalletBalance,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan customer: %w", err)
	}
	return &customer, nil
}

// GetCustomer reads a customer outside any transaction.
func (p *Postgres) GetCustomer(ctx context.Context, customerID string) (*entities.Customer, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT `+customerColumns+`
		FROM customers WHERE customer_id = $1
	`, customerID)
	return scanCustomer(row)
}

// GetCustomerForUpdate reads a customer with a pessimistic lock
// (FOR UPDATE). Callers must already hold the product lock.
func (p *Postgres) GetCustomerForUpdate(ctx context.Context, tx Tx, customerID string) (*entities.Customer, error) {
	row := pgTx(tx).QueryRow(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE customer_id = $1
		FOR UPDATE
	`, customerID)
	return scanCustomer(row)
}

// DebitWallet subtracts amount from the wallet. The wallet_balance >= 0
// check constraint backs up the worker's validation.
func (p *Postgres) DebitWallet(ctx context.Context, tx Tx, customerID string, amount decimal.Decimal) error {
	_, err := pgTx(tx).Exec(ctx, `
		UPDATE customers
		SET wallet_balance = wallet_balance - $1, updated_at = NOW()
		WHERE customer_id = $2
	`, amount, customerID)
	if err != nil {
		return fmt.Errorf("failed to debit wallet: %w", err)
	}
	return nil
}

// CreditWallet adds amount back to the wallet (refund path).
func (p *Postgres) CreditWallet(ctx context.Context, tx Tx, customerID string, amount decimal.Decimal) error {
	_, err := pgTx(tx).Exec(ctx, `
		UPDATE customers
		SET wallet_balance = wallet_balance + $1, updated_at = NOW()
		WHERE customer_id = $2
	`, amount, customerID)
	if err != nil {
		return fmt.Errorf("failed to credit wallet: %w", err)
	}
	return nil
}

// CreateCustomer inserts a new customer.
func (p *Postgres) CreateCustomer(ctx context.Context, customer *entities.Customer) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO customers (customer_id, username, wallet_balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, customer.CustomerID, customer.Username, customer.WalletBalance, customer.CreatedAt, customer.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}
