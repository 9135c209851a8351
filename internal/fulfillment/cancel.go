package fulfillment

import (
	"context"
	"errors"
	"fmt"

	"github.com/matheusmosca/order-fulfillment-service/internal/entities"
	"github.com/matheusmosca/order-fulfillment-service/internal/repository"
)

// Cancel refunds the wallet and restocks the product for a COMPLETED
// order, then marks it CANCELLED. Any other status is rejected and
// nothing is mutated. Returns whether the cancellation happened.
func (s *Service) Cancel(ctx context.Context, orderID string) (bool, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warn("cancel requested for unknown order", "order_id", orderID)
			return false, nil
		}
		return false, fmt.Errorf("failed to look up order: %w", err)
	}
	if order.Status != entities.OrderStatusCompleted {
		s.log.Info("cancel rejected", "order_id", orderID, "status", order.Status)
		return false, nil
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Same fixed lock order as fulfillment: product, then customer.
	if _, err := s.store.GetProductForUpdate(ctx, tx, order.ProductID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warn("cancel found no product to restock", "order_id", orderID, "product_id", order.ProductID)
			return false, nil
		}
		return false, err
	}
	if _, err := s.store.GetCustomerForUpdate(ctx, tx, order.CustomerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warn("cancel found no customer to refund", "order_id", orderID, "customer_id", order.CustomerID)
			return false, nil
		}
		return false, err
	}

	// Re-check under lock: a concurrent cancel may have won.
	locked, err := s.store.GetOrderForUpdate(ctx, tx, orderID)
	if err != nil {
		return false, err
	}
	if err := locked.Cancel(); err != nil {
		return false, nil
	}
	if !locked.PricePaid.Valid {
		return false, fmt.Errorf("completed order %s has no recorded price", orderID)
	}

	if err := s.store.AdjustStock(ctx, tx, order.ProductID, 1); err != nil {
		return false, err
	}
	if err := s.store.CreditWallet(ctx, tx, order.CustomerID, locked.PricePaid.Decimal); err != nil {
		return false, err
	}
	if err := s.store.SetOrderStatus(ctx, tx, orderID, entities.OrderStatusCancelled); err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit cancellation: %w", err)
	}

	s.log.Info("order cancelled", "order_id", orderID, "refund", locked.PricePaid.Decimal.String())
	return true, nil
}
