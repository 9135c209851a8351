package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheusmosca/order-fulfillment-service/internal/entities"
	"github.com/matheusmosca/order-fulfillment-service/internal/obs"
)

type memoryBackend struct {
	mu      sync.Mutex
	entries map[string][]byte
	expiry  map[string]time.Time
	setErr  error
	getErr  error
	sets    int
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{
		entries: make(map[string][]byte),
		expiry:  make(map[string]time.Time),
	}
}

func (b *memoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.getErr != nil {
		return nil, b.getErr
	}
	payload, ok := b.entries[key]
	if !ok || time.Now().After(b.expiry[key]) {
		return nil, ErrMiss
	}
	return payload, nil
}

func (b *memoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sets++
	if b.setErr != nil {
		return b.setErr
	}
	b.entries[key] = value
	b.expiry[key] = time.Now().Add(ttl)
	return nil
}

type stubProducts struct {
	mu      sync.Mutex
	product *entities.Product
	loads   int
}

func (s *stubProducts) GetProduct(_ context.Context, productID string) (*entities.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.product == nil || s.product.ProductID != productID {
		return nil, errors.New("not found")
	}
	copied := *s.product
	return &copied, nil
}

func testProduct(stock int) *entities.Product {
	return &entities.Product{
		ProductID:    "p-1",
		Name:         "widget",
		BasePrice:    decimal.NewFromInt(100),
		Stock:        stock,
		InitialStock: 10,
	}
}

func newTestCache(store ProductGetter, backend Backend, localTTL time.Duration) *PriceCache {
	return New(store, backend, Options{
		LocalSize: 16,
		LocalTTL:  localTTL,
		SharedTTL: time.Minute,
	}, obs.NewLogger("cache-test"))
}

func TestGetProductPopulatesBothTiers(t *testing.T) {
	store := &stubProducts{product: testProduct(6)}
	backend := newMemoryBackend()
	c := newTestCache(store, backend, time.Minute)

	view, err := c.GetProduct(context.Background(), "p-1")

	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(view.CurrentPrice))
	assert.Equal(t, 1, store.loads)
	assert.Equal(t, 1, backend.sets)

	// Second read is a tier-1 hit, nothing else is touched.
	_, err = c.GetProduct(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, 1, store.loads)
	assert.Equal(t, 1, backend.sets)
}

func TestGetProductServesSharedTierOnLocalMiss(t *testing.T) {
	store := &stubProducts{product: testProduct(6)}
	backend := newMemoryBackend()

	warm := newTestCache(store, backend, time.Minute)
	_, err := warm.GetProduct(context.Background(), "p-1")
	require.NoError(t, err)

	// Fresh instance: empty local tier, shared tier still warm.
	cold := newTestCache(store, backend, time.Minute)
	view, err := cold.GetProduct(context.Background(), "p-1")

	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(view.CurrentPrice))
	assert.Equal(t, 1, store.loads)
}

func TestGetProductCorruptSharedEntryFallsThrough(t *testing.T) {
	store := &stubProducts{product: testProduct(6)}
	backend := newMemoryBackend()
	require.NoError(t, backend.Set(context.Background(), "product:p-1", []byte("{not json"), time.Minute))

	c := newTestCache(store, backend, time.Minute)
	view, err := c.GetProduct(context.Background(), "p-1")

	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(view.CurrentPrice))
	assert.Equal(t, 1, store.loads)
}

func TestGetProductBackendFailuresDoNotFailReads(t *testing.T) {
	store := &stubProducts{product: testProduct(6)}
	backend := newMemoryBackend()
	backend.getErr = errors.New("redis down")
	backend.setErr = errors.New("redis down")

	c := newTestCache(store, backend, time.Minute)
	view, err := c.GetProduct(context.Background(), "p-1")

	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(view.CurrentPrice))
}

func TestGetProductMissingProduct(t *testing.T) {
	store := &stubProducts{}
	c := newTestCache(store, newMemoryBackend(), time.Minute)

	_, err := c.GetProduct(context.Background(), "ghost")

	assert.Error(t, err)
}

func TestCachedPriceIsStaleUntilTTLExpiry(t *testing.T) {
	store := &stubProducts{product: testProduct(6)}
	backend := newMemoryBackend()
	c := New(store, backend, Options{
		LocalSize: 16,
		LocalTTL:  50 * time.Millisecond,
		SharedTTL: 50 * time.Millisecond,
	}, obs.NewLogger("cache-test"))

	view, err := c.GetProduct(context.Background(), "p-1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(view.CurrentPrice))

	// Stock drops across a pricing tier boundary behind the cache's back.
	store.mu.Lock()
	store.product.Stock = 4
	store.mu.Unlock()

	// Within TTL the old price may still be served.
	view, err = c.GetProduct(context.Background(), "p-1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(view.CurrentPrice))

	// After expiry a fresh read reflects the new tier.
	time.Sleep(80 * time.Millisecond)
	view, err = c.GetProduct(context.Background(), "p-1")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("120").Equal(view.CurrentPrice))
}

func TestSharedTierPayloadRoundTrips(t *testing.T) {
	store := &stubProducts{product: testProduct(4)}
	backend := newMemoryBackend()
	c := newTestCache(store, backend, time.Minute)

	_, err := c.GetProduct(context.Background(), "p-1")
	require.NoError(t, err)

	payload, err := backend.Get(context.Background(), "product:p-1")
	require.NoError(t, err)

	var view entities.PricedProduct
	require.NoError(t, json.Unmarshal(payload, &view))
	assert.True(t, decimal.RequireFromString("120").Equal(view.CurrentPrice))
}
