// Command migrate creates the fulfillment schema. It is idempotent and
// safe to run on every deploy.
package main

import (
	"database/sql"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/matheusmosca/order-fulfillment-service/internal/config"
	"github.com/matheusmosca/order-fulfillment-service/internal/obs"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
    product_id    UUID PRIMARY KEY,
    name          VARCHAR(255) NOT NULL,
    description   TEXT NOT NULL DEFAULT '',
    base_price    DECIMAL(12,2) NOT NULL CHECK (base_price > 0),
    stock         INT NOT NULL CHECK (stock >= 0),
    initial_stock INT NOT NULL CHECK (initial_stock > 0)
);

CREATE TABLE IF NOT EXISTS customers (
    customer_id    UUID PRIMARY KEY,
    username       VARCHAR(255) NOT NULL UNIQUE,
    wallet_balance DECIMAL(12,2) NOT NULL CHECK (wallet_balance >= 0),
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS orders (
    order_id    UUID PRIMARY KEY,
    customer_id UUID NOT NULL,
    product_id  UUID NOT NULL,
    price_paid  DECIMAL(12,2),
    status      VARCHAR(20) NOT NULL CHECK (status IN ('PENDING', 'COMPLETED', 'FAILED', 'CANCELLED')),
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_orders_status_updated_at ON orders (status, updated_at);
CREATE INDEX IF NOT EXISTS idx_orders_customer_id ON orders (customer_id);
`

func main() {
	cfg := config.Load()
	log := obs.NewLogger("order-fulfillment-migrate")

	db, err := sql.Open("postgres", cfg.DatabaseDSN())
	if err != nil {
		log.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	for i := 0; i < 30; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		log.Info("waiting for database", "attempt", i+1)
		time.Sleep(time.Second)
	}
	if err != nil {
		log.Error("database never became ready", "error", err)
		os.Exit(1)
	}

	if _, err := db.Exec(schema); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("schema is up to date")
}
