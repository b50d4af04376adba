package domain

import (
	"context"
	"fmt"

	"github.com/draftea/order-saga/shared/models"
	"github.com/pkg/errors"
)

var (
	ErrInvalidOrderRequest = errors.New("invalid order request")
	ErrOrderNotFound       = errors.New("order not found")
)

// OrderItem is one line of an order
type OrderItem struct {
	ItemID   string  `json:"item_id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// OrderRequest is the immutable saga input. TotalAmount is trusted as given and
// is not checked against the items.
type OrderRequest struct {
	OrderID     string      `json:"order_id"`
	UserID      string      `json:"user_id"`
	Items       []OrderItem `json:"items"`
	TotalAmount float64     `json:"total_amount"`
}

// Validate checks the field constraints of the request
func (r OrderRequest) Validate() error {
	if r.OrderID == "" {
		return errors.Wrap(ErrInvalidOrderRequest, "order id is required")
	}
	if r.TotalAmount < 0 {
		return errors.Wrap(ErrInvalidOrderRequest, "total amount must not be negative")
	}
	for i, item := range r.Items {
		if item.ItemID == "" {
			return errors.Wrap(ErrInvalidOrderRequest, fmt.Sprintf("item %d: item id is required", i))
		}
		if item.Quantity <= 0 {
			return errors.Wrap(ErrInvalidOrderRequest, fmt.Sprintf("item %d: quantity must be positive", i))
		}
		if item.Price < 0 {
			return errors.Wrap(ErrInvalidOrderRequest, fmt.Sprintf("item %d: price must not be negative", i))
		}
	}
	return nil
}

// OrderStatus represents the status of a stored order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is the record kept by the order store
type Order struct {
	ID          string
	UserID      string
	Items       []OrderItem
	TotalAmount float64
	Status      OrderStatus
	Timestamps  models.Timestamps
	Version     models.Version
}

func NewOrder(id, userID string, items []OrderItem, totalAmount float64) *Order {
	return &Order{
		ID:          id,
		UserID:      userID,
		Items:       append([]OrderItem(nil), items...),
		TotalAmount: totalAmount,
		Status:      OrderStatusPending,
		Timestamps:  models.NewTimestamps(),
		Version:     models.NewVersion(),
	}
}

// OrderRepository is the order store port
type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	// FindByID returns nil, nil when the order does not exist
	FindByID(ctx context.Context, id string) (*Order, error)
	// UpdateStatus returns ErrOrderNotFound when the order does not exist
	UpdateStatus(ctx context.Context, id string, status OrderStatus) error
}
