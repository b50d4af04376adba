package application

import (
	"context"

	"github.com/draftea/order-saga/order-service/domain"
)

// Gateway exposes one call per forward step and per compensation. A returned
// error is a fault; a result with Success false is a business failure.
// Implementations make retried calls idempotent.
type Gateway interface {
	CreateOrder(ctx context.Context, orderID, userID string, items []domain.OrderItem, totalAmount float64) (domain.ActivityResult, error)
	ReserveInventory(ctx context.Context, orderID string, items []domain.OrderItem) (domain.ActivityResult, error)
	ProcessPayment(ctx context.Context, orderID, userID string, amount float64) (domain.ActivityResult, error)
	SendConfirmationEmail(ctx context.Context, orderID, userID string, totalAmount float64) (domain.ActivityResult, error)

	CancelOrder(ctx context.Context, orderID string) (domain.ActivityResult, error)
	ReleaseInventory(ctx context.Context, orderID string, items []domain.OrderItem) (domain.ActivityResult, error)
	RefundPayment(ctx context.Context, orderID, paymentID string) (domain.ActivityResult, error)
	SendCancellationEmail(ctx context.Context, orderID, userID, reason string) (domain.ActivityResult, error)
}
