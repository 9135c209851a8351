package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultWalletBalance is the opening balance for new customers.
var DefaultWalletBalance = decimal.NewFromInt(5000)

// Customer holds a wallet balance. The balance is mutated only by the
// fulfillment debit and the cancellation refund, and may never go
// negative at any committed state.
type Customer struct {
	CustomerID    string          `json:"customer_id" db:"customer_id"`
	Username      string          `json:"username" db:"username"`
	WalletBalance decimal.Decimal `json:"wallet_balance" db:"wallet_balance"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// NewCustomer creates a customer with the default wallet balance.
func NewCustomer(customerID, username string) *Customer {
	now := time.Now().UTC()
	return &Customer{
		CustomerID:    customerID,
		Username:      username,
		WalletBalance: DefaultWalletBalance,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
