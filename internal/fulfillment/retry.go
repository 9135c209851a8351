package fulfillment

import (
	"context"

	"github.com/cenkalti/backoff/v5"

	"github.com/matheusmosca/order-fulfillment-service/internal/repository"
)

// ProcessWithRetry wraps Process with bounded exponential backoff for
// transient store errors. Business-rule failures come back as FAILED
// results and are never retried. When the attempt budget is exhausted
// the error is returned so the job channel can report the failure at
// the infrastructure level (no order row is forged).
func (s *Service) ProcessWithRetry(ctx context.Context, orderID, productID, customerID string) (Result, error) {
	attempt := 0
	operation := func() (Result, error) {
		attempt++
		result, err := s.Process(ctx, orderID, productID, customerID)
		if err == nil {
			return result, nil
		}
		if !repository.IsTransient(err) {
			return Result{}, backoff.Permanent(err)
		}
		s.metrics.RetriesTotal.Add(ctx, 1)
		s.log.Warn("transient store error, will retry",
			"order_id", orderID, "attempt", attempt, "error", err)
		return Result{}, err
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = s.opts.RetryInitialInterval
	expo.MaxInterval = s.opts.RetryMaxInterval

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(s.opts.MaxAttempts),
	)
}
