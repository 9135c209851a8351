package fulfillment

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/matheusmosca/order-fulfillment-service/internal/entities"
	"github.com/matheusmosca/order-fulfillment-service/internal/repository"
)

// fakeStore is an in-memory Store with real per-row exclusive locks:
// *ForUpdate methods block until the row's mutex is free and the lock
// is released on Commit/Rollback, which is what makes the contention
// tests in this package meaningful.
type fakeStore struct {
	mu        sync.Mutex
	products  map[string]*entities.Product
	customers map[string]*entities.Customer
	orders    map[string]*entities.Order
	rowLocks  map[string]*sync.Mutex

	transientBeginFailures int
	getOrderTxErr          error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products:  make(map[string]*entities.Product),
		customers: make(map[string]*entities.Customer),
		orders:    make(map[string]*entities.Order),
		rowLocks:  make(map[string]*sync.Mutex),
	}
}

type fakeTx struct {
	mu   sync.Mutex
	held []*sync.Mutex
	done bool
}

func (t *fakeTx) Commit(context.Context) error   { return t.finish() }
func (t *fakeTx) Rollback(context.Context) error { return t.finish() }

// finish is idempotent: the worker defers Rollback after Commit.
func (t *fakeTx) finish() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return nil
	}
	t.done = true
	for i := len(t.held) - 1; i >= 0; i-- {
		t.held[i].Unlock()
	}
	t.held = nil
	return nil
}

func transientErr() error {
	return &pgconn.PgError{Code: "40P01", Message: "deadlock detected"}
}

func checkViolationErr() error {
	return &pgconn.PgError{Code: "23514", Message: "check constraint violated"}
}

func (s *fakeStore) Begin(context.Context) (repository.Tx, error) {
	s.mu.Lock()
	if s.transientBeginFailures > 0 {
		s.transientBeginFailures--
		s.mu.Unlock()
		return nil, transientErr()
	}
	s.mu.Unlock()
	return &fakeTx{}, nil
}

// acquireRowLock blocks until the named row lock is free, then records
// it on the transaction for release at Commit/Rollback.
func (s *fakeStore) acquireRowLock(tx repository.Tx, key string) {
	s.mu.Lock()
	lock, ok := s.rowLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.rowLocks[key] = lock
	}
	s.mu.Unlock()

	lock.Lock()

	ft := tx.(*fakeTx)
	ft.mu.Lock()
	ft.held = append(ft.held, lock)
	ft.mu.Unlock()
}

func (s *fakeStore) GetProduct(_ context.Context, productID string) (*entities.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.products[productID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *product
	return &copied, nil
}

func (s *fakeStore) GetProductForUpdate(ctx context.Context, tx repository.Tx, productID string) (*entities.Product, error) {
	s.mu.Lock()
	_, ok := s.products[productID]
	s.mu.Unlock()
	if !ok {
		// A FOR UPDATE on a missing row locks nothing.
		return nil, repository.ErrNotFound
	}

	s.acquireRowLock(tx, "product:"+productID)
	return s.GetProduct(ctx, productID)
}

func (s *fakeStore) AdjustStock(_ context.Context, _ repository.Tx, productID string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.products[productID]
	if !ok {
		return repository.ErrNotFound
	}
	if product.Stock+delta < 0 {
		return checkViolationErr()
	}
	product.Stock += delta
	return nil
}

func (s *fakeStore) CreateProduct(_ context.Context, product *entities.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *product
	s.products[product.ProductID] = &copied
	return nil
}

func (s *fakeStore) GetCustomer(_ context.Context, customerID string) (*entities.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	customer, ok := s.customers[customerID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *customer
	return &copied, nil
}

func (s *fakeStore) GetCustomerForUpdate(ctx context.Context, tx repository.Tx, customerID string) (*entities.Customer, error) {
	s.mu.Lock()
	_, ok := s.customers[customerID]
	s.mu.Unlock()
	if !ok {
		return nil, repository.ErrNotFound
	}

	s.acquireRowLock(tx, "customer:"+customerID)
	return s.GetCustomer(ctx, customerID)
}

func (s *fakeStore) DebitWallet(_ context.Context, _ repository.Tx, customerID string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	customer, ok := s.customers[customerID]
	if !ok {
		return repository.ErrNotFound
	}
	next := customer.WalletBalance.Sub(amount)
	if next.IsNegative() {
		return checkViolationErr()
	}
	customer.WalletBalance = next
	return nil
}

func (s *fakeStore) CreditWallet(_ context.Context, _ repository.Tx, customerID string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	customer, ok := s.customers[customerID]
	if !ok {
		return repository.ErrNotFound
	}
	customer.WalletBalance = customer.WalletBalance.Add(amount)
	return nil
}

func (s *fakeStore) CreateCustomer(_ context.Context, customer *entities.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *customer
	s.customers[customer.CustomerID] = &copied
	return nil
}

func (s *fakeStore) GetOrder(_ context.Context, orderID string) (*entities.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *order
	return &copied, nil
}

func (s *fakeStore) GetOrderTx(ctx context.Context, _ repository.Tx, orderID string) (*entities.Order, error) {
	s.mu.Lock()
	err := s.getOrderTxErr
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, orderID)
}

func (s *fakeStore) GetOrderForUpdate(ctx context.Context, tx repository.Tx, orderID string) (*entities.Order, error) {
	s.mu.Lock()
	_, ok := s.orders[orderID]
	s.mu.Unlock()
	if !ok {
		return nil, repository.ErrNotFound
	}

	s.acquireRowLock(tx, "order:"+orderID)
	return s.GetOrder(ctx, orderID)
}

func (s *fakeStore) CreateOrder(_ context.Context, _ repository.Tx, order *entities.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *order
	s.orders[order.OrderID] = &copied
	return nil
}

func (s *fakeStore) SetOrderStatus(_ context.Context, _ repository.Tx, orderID string, status entities.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return repository.ErrNotFound
	}
	order.Status = status
	order.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *fakeStore) CompleteOrder(_ context.Context, _ repository.Tx, orderID string, pricePaid decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return repository.ErrNotFound
	}
	order.Status = entities.OrderStatusCompleted
	order.PricePaid = decimal.NewNullDecimal(pricePaid)
	order.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *fakeStore) FailStalePending(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var swept int64
	for _, order := range s.orders {
		if order.Status == entities.OrderStatusPending && order.UpdatedAt.Before(cutoff) {
			order.Status = entities.OrderStatusFailed
			order.UpdatedAt = time.Now().UTC()
			swept++
		}
	}
	return swept, nil
}
