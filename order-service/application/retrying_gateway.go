package application

import (
	"context"
	"time"

	"github.com/draftea/order-saga/order-service/domain"
	"github.com/draftea/order-saga/shared/logging"
	"github.com/draftea/order-saga/shared/saga"
	"github.com/pkg/errors"
)

var _ Gateway = (*RetryingGateway)(nil)

// RetryingGateway runs every call of next under the retry policy. Only faults
// are retried; a result with Success false is returned as is. Each attempt
// gets its own deadline when timeout is positive.
type RetryingGateway struct {
	next    Gateway
	policy  saga.RetryPolicy
	timeout time.Duration
}

func NewRetryingGateway(next Gateway, policy saga.RetryPolicy, timeout time.Duration) *RetryingGateway {
	return &RetryingGateway{
		next:    next,
		policy:  policy,
		timeout: timeout,
	}
}

func (g *RetryingGateway) call(ctx context.Context, op string, fn func(ctx context.Context) (domain.ActivityResult, error)) (domain.ActivityResult, error) {
	attemptFn := func(ctx context.Context, attempt int) (domain.ActivityResult, error) {
		callCtx, cancel := g.withDeadline(ctx)
		defer cancel()

		res, err := fn(callCtx)
		if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return res, domain.TransientFault(op, op+" timed out after "+g.timeout.String())
		}
		return res, err
	}

	notify := func(err error, attempt int, next time.Duration) {
		logging.FromContext(ctx).Warn().
			Err(err).
			Str("activity", op).
			Int("attempt", attempt).
			Dur("retry_in", next).
			Msg("activity fault, retrying")
	}

	return saga.Retry(ctx, g.policy, attemptFn, notify)
}

func (g *RetryingGateway) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

func (g *RetryingGateway) CreateOrder(ctx context.Context, orderID, userID string, items []domain.OrderItem, totalAmount float64) (domain.ActivityResult, error) {
	return g.call(ctx, "CreateOrder", func(ctx context.Context) (domain.ActivityResult, error) {
		return g.next.CreateOrder(ctx, orderID, userID, items, totalAmount)
	})
}

func (g *RetryingGateway) ReserveInventory(ctx context.Context, orderID string, items []domain.OrderItem) (domain.ActivityResult, error) {
	return g.call(ctx, "ReserveInventory", func(ctx context.Context) (domain.ActivityResult, error) {
		return g.next.ReserveInventory(ctx, orderID, items)
	})
}

func (g *RetryingGateway) ProcessPayment(ctx context.Context, orderID, userID string, amount float64) (domain.ActivityResult, error) {
	return g.call(ctx, "ProcessPayment", func(ctx context.Context) (domain.ActivityResult, error) {
		return g.next.ProcessPayment(ctx, orderID, userID, amount)
	})
}

func (g *RetryingGateway) SendConfirmationEmail(ctx context.Context, orderID, userID string, totalAmount float64) (domain.ActivityResult, error) {
	return g.call(ctx, "SendConfirmationEmail", func(ctx context.Context) (domain.ActivityResult, error) {
		return g.next.SendConfirmationEmail(ctx, orderID, userID, totalAmount)
	})
}

func (g *RetryingGateway) CancelOrder(ctx context.Context, orderID string) (domain.ActivityResult, error) {
	return g.call(ctx, "CancelOrder", func(ctx context.Context) (domain.ActivityResult, error) {
		return g.next.CancelOrder(ctx, orderID)
	})
}

func (g *RetryingGateway) ReleaseInventory(ctx context.Context, orderID string, items []domain.OrderItem) (domain.ActivityResult, error) {
	return g.call(ctx, "ReleaseInventory", func(ctx context.Context) (domain.ActivityResult, error) {
		return g.next.ReleaseInventory(ctx, orderID, items)
	})
}

func (g *RetryingGateway) RefundPayment(ctx context.Context, orderID, paymentID string) (domain.ActivityResult, error) {
	return g.call(ctx, "RefundPayment", func(ctx context.Context) (domain.ActivityResult, error) {
		return g.next.RefundPayment(ctx, orderID, paymentID)
	})
}

func (g *RetryingGateway) SendCancellationEmail(ctx context.Context, orderID, userID, reason string) (domain.ActivityResult, error) {
	return g.call(ctx, "SendCancellationEmail", func(ctx context.Context) (domain.ActivityResult, error) {
		return g.next.SendCancellationEmail(ctx, orderID, userID, reason)
	})
}
