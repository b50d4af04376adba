package application

import (
	"context"
	"fmt"

	"github.com/draftea/order-saga/order-service/domain"
	"github.com/draftea/order-saga/shared/logging"
	"github.com/draftea/order-saga/shared/saga"
	"github.com/pkg/errors"
)

var _ Gateway = (*Activities)(nil)

// Activities is the Gateway backed by the order, inventory and payment stores
type Activities struct {
	orders     domain.OrderRepository
	inventory  domain.InventoryRepository
	payments   domain.PaymentRepository
	notifier   domain.Notifier
	classifier domain.FaultClassifier
}

func NewActivities(
	orders domain.OrderRepository,
	inventory domain.InventoryRepository,
	payments domain.PaymentRepository,
	notifier domain.Notifier,
	classifier domain.FaultClassifier,
) *Activities {
	return &Activities{
		orders:     orders,
		inventory:  inventory,
		payments:   payments,
		notifier:   notifier,
		classifier: classifier,
	}
}

// CreateOrder stores a pending order. Calling it again for a stored order is a no-op.
func (a *Activities) CreateOrder(ctx context.Context, orderID, userID string, items []domain.OrderItem, totalAmount float64) (domain.ActivityResult, error) {
	existing, err := a.orders.FindByID(ctx, orderID)
	if err != nil {
		return domain.ActivityResult{}, domain.StoreFault("CreateOrder", err)
	}
	if existing != nil {
		if existing.Status == domain.OrderStatusCancelled {
			return domain.Failed(fmt.Sprintf("Order %s was already cancelled", orderID)), nil
		}
		return domain.Succeeded("Order already created"), nil
	}

	if err := a.orders.Create(ctx, domain.NewOrder(orderID, userID, items, totalAmount)); err != nil {
		return domain.ActivityResult{}, domain.StoreFault("CreateOrder", err)
	}

	logging.FromContext(ctx).Debug().Str("order_id", orderID).Msg("order created")
	return domain.Succeeded("Order created"), nil
}

func (a *Activities) ReserveInventory(ctx context.Context, orderID string, items []domain.OrderItem) (domain.ActivityResult, error) {
	err := a.inventory.Reserve(ctx, orderID, items)

	var stockErr *domain.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		return domain.Failed(stockErr.Error()), nil
	case err != nil:
		return domain.ActivityResult{}, domain.StoreFault("ReserveInventory", err)
	}

	logging.FromContext(ctx).Debug().Str("order_id", orderID).Int("items", len(items)).Msg("inventory reserved")
	return domain.Succeeded("Inventory reserved"), nil
}

// ProcessPayment charges amount once per order. The classifier decides
// whether the gateway rejects, faults or accepts the attempt.
func (a *Activities) ProcessPayment(ctx context.Context, orderID, userID string, amount float64) (domain.ActivityResult, error) {
	existing, err := a.payments.FindByOrderID(ctx, orderID)
	if err != nil {
		return domain.ActivityResult{}, domain.StoreFault("ProcessPayment", err)
	}
	if existing != nil && existing.Status == domain.PaymentStatusCompleted {
		return domain.ActivityResult{Success: true, Message: "Payment already processed", PaymentID: existing.ID}, nil
	}

	decision := a.classifier.Classify(ctx, domain.PaymentAttempt{
		OrderID: orderID,
		UserID:  userID,
		Amount:  amount,
		Attempt: saga.AttemptFromContext(ctx),
	})
	switch decision.Class {
	case domain.ClassifiedTerminal:
		return domain.Failed(decision.Message), nil
	case domain.ClassifiedRetryable:
		return domain.ActivityResult{}, domain.TransientFault("ProcessPayment", decision.Message)
	}

	payment := domain.NewPayment(orderID, userID, amount)
	if err := a.payments.Save(ctx, payment); err != nil {
		return domain.ActivityResult{}, domain.StoreFault("ProcessPayment", err)
	}

	logging.FromContext(ctx).Debug().
		Str("order_id", orderID).
		Str("payment_id", payment.ID).
		Float64("amount", amount).
		Msg("payment processed")
	return domain.ActivityResult{Success: true, Message: "Payment processed", PaymentID: payment.ID}, nil
}

// SendConfirmationEmail marks the order confirmed and notifies the customer
func (a *Activities) SendConfirmationEmail(ctx context.Context, orderID, userID string, totalAmount float64) (domain.ActivityResult, error) {
	if res, err := a.setOrderStatus(ctx, "SendConfirmationEmail", orderID, domain.OrderStatusConfirmed); err != nil || !res.Success {
		return res, err
	}

	err := a.notifier.Notify(ctx, domain.Notification{
		Kind:        domain.NotificationOrderConfirmed,
		OrderID:     orderID,
		UserID:      userID,
		TotalAmount: totalAmount,
	})
	if err != nil {
		return domain.ActivityResult{}, domain.StoreFault("SendConfirmationEmail", err)
	}

	return domain.Succeeded("Confirmation email sent"), nil
}

func (a *Activities) CancelOrder(ctx context.Context, orderID string) (domain.ActivityResult, error) {
	res, err := a.setOrderStatus(ctx, "CancelOrder", orderID, domain.OrderStatusCancelled)
	if err != nil || !res.Success {
		return res, err
	}
	return domain.Succeeded("Order cancelled"), nil
}

// ReleaseInventory returns what the order reserved. Releasing twice succeeds.
func (a *Activities) ReleaseInventory(ctx context.Context, orderID string, items []domain.OrderItem) (domain.ActivityResult, error) {
	err := a.inventory.Release(ctx, orderID)
	switch {
	case errors.Is(err, domain.ErrReservationNotFound):
		return domain.Succeeded("Inventory already released"), nil
	case err != nil:
		return domain.ActivityResult{}, domain.StoreFault("ReleaseInventory", err)
	}

	logging.FromContext(ctx).Debug().Str("order_id", orderID).Int("items", len(items)).Msg("inventory released")
	return domain.Succeeded("Inventory released"), nil
}

func (a *Activities) RefundPayment(ctx context.Context, orderID, paymentID string) (domain.ActivityResult, error) {
	payment, err := a.payments.FindByID(ctx, paymentID)
	if err != nil {
		return domain.ActivityResult{}, domain.StoreFault("RefundPayment", err)
	}
	if payment == nil {
		return domain.Failed("Payment not found"), nil
	}
	if payment.OrderID != orderID {
		return domain.Failed(fmt.Sprintf("Payment %s does not belong to order %s", paymentID, orderID)), nil
	}
	if payment.Status == domain.PaymentStatusRefunded {
		return domain.ActivityResult{Success: true, Message: "Payment already refunded", PaymentID: paymentID}, nil
	}

	if err := a.payments.UpdateStatus(ctx, paymentID, domain.PaymentStatusRefunded); err != nil {
		return domain.ActivityResult{}, domain.StoreFault("RefundPayment", err)
	}

	return domain.ActivityResult{Success: true, Message: "Payment refunded", PaymentID: paymentID}, nil
}

func (a *Activities) SendCancellationEmail(ctx context.Context, orderID, userID, reason string) (domain.ActivityResult, error) {
	err := a.notifier.Notify(ctx, domain.Notification{
		Kind:    domain.NotificationOrderCancelled,
		OrderID: orderID,
		UserID:  userID,
		Reason:  reason,
	})
	if err != nil {
		return domain.ActivityResult{}, domain.StoreFault("SendCancellationEmail", err)
	}
	return domain.Succeeded("Cancellation email sent"), nil
}

func (a *Activities) setOrderStatus(ctx context.Context, op, orderID string, status domain.OrderStatus) (domain.ActivityResult, error) {
	err := a.orders.UpdateStatus(ctx, orderID, status)
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		return domain.Failed("Order not found"), nil
	case err != nil:
		return domain.ActivityResult{}, domain.StoreFault(op, err)
	}
	return domain.Succeeded(""), nil
}
