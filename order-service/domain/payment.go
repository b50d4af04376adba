package domain

import (
	"context"

	"github.com/draftea/order-saga/shared/models"
	"github.com/pkg/errors"
)

var ErrPaymentNotFound = errors.New("payment not found")

// PaymentStatus represents the status of a payment
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Payment is the record kept by the payment ledger
type Payment struct {
	ID         string
	OrderID    string
	UserID     string
	Amount     float64
	Status     PaymentStatus
	Timestamps models.Timestamps
}

func NewPayment(orderID, userID string, amount float64) *Payment {
	return &Payment{
		ID:         models.GenerateUUID().String(),
		OrderID:    orderID,
		UserID:     userID,
		Amount:     amount,
		Status:     PaymentStatusCompleted,
		Timestamps: models.NewTimestamps(),
	}
}

// PaymentRepository is the payment store port. Finders return nil, nil when
// nothing matches.
type PaymentRepository interface {
	Save(ctx context.Context, payment *Payment) error
	FindByID(ctx context.Context, id string) (*Payment, error)
	FindByOrderID(ctx context.Context, orderID string) (*Payment, error)
	// UpdateStatus returns ErrPaymentNotFound when the payment does not exist
	UpdateStatus(ctx context.Context, id string, status PaymentStatus) error
}
