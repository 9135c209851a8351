// Package cache implements the two-tier read-through price cache used
// by the read path. The fulfillment worker never consults it: the
// authoritative debit always prices against the locked row.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/matheusmosca/order-fulfillment-service/internal/entities"
	"github.com/matheusmosca/order-fulfillment-service/internal/pricing"
)

// ErrMiss is returned by a Backend when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Backend is the shared (tier-2) cache reachable by all instances.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ProductGetter is the slice of the store the cache recomputes from.
type ProductGetter interface {
	GetProduct(ctx context.Context, productID string) (*entities.Product, error)
}

// Options bound the two tiers. Staleness is bounded only by the TTLs;
// there is no invalidation on stock mutation.
type Options struct {
	LocalSize int
	LocalTTL  time.Duration
	SharedTTL time.Duration
}

// PriceCache serves priced product views, checking a bounded in-process
// tier, then the shared tier, then recomputing from the store.
type PriceCache struct {
	local     *expirable.LRU[string, entities.PricedProduct]
	shared    Backend
	sharedTTL time.Duration
	store     ProductGetter
	log       *slog.Logger
}

// New constructs a PriceCache with an explicit lifecycle: created once
// at process start and injected into readers.
func New(store ProductGetter, shared Backend, opts Options, log *slog.Logger) *PriceCache {
	size := opts.LocalSize
	if size <= 0 {
		size = 10000
	}
	return &PriceCache{
		local:     expirable.NewLRU[string, entities.PricedProduct](size, nil, opts.LocalTTL),
		shared:    shared,
		sharedTTL: opts.SharedTTL,
		store:     store,
		log:       log,
	}
}

func cacheKey(productID string) string {
	return "product:" + productID
}

// GetProduct returns the priced view for a product. On a tier hit the
// store is not touched. Cache writes are best-effort: a failed populate
// never fails the read.
func (c *PriceCache) GetProduct(ctx context.Context, productID string) (*entities.PricedProduct, error) {
	if view, ok := c.local.Get(productID); ok {
		return &view, nil
	}

	key := cacheKey(productID)
	payload, err := c.shared.Get(ctx, key)
	switch {
	case err == nil:
		var view entities.PricedProduct
		if err := json.Unmarshal(payload, &view); err != nil {
			// Corrupt entry: fall through to recomputation.
			c.log.Warn("corrupt shared cache entry", "key", key, "error", err)
		} else {
			c.local.Add(productID, view)
			return &view, nil
		}
	case errors.Is(err, ErrMiss):
	default:
		c.log.Warn("shared cache read failed", "key", key, "error", err)
	}

	product, err := c.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product for pricing: %w", err)
	}

	view := pricing.View(product)

	if payload, err := json.Marshal(view); err == nil {
		if err := c.shared.Set(ctx, key, payload, c.sharedTTL); err != nil {
			c.log.Debug("shared cache set failed", "key", key, "error", err)
		}
	}
	c.local.Add(productID, view)

	return &view, nil
}
