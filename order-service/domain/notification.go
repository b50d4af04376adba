package domain

import "context"

type NotificationKind string

const (
	NotificationOrderConfirmed NotificationKind = "order_confirmed"
	NotificationOrderCancelled NotificationKind = "order_cancelled"
)

// Notification is a customer facing message about an order
type Notification struct {
	Kind        NotificationKind `json:"kind"`
	OrderID     string           `json:"order_id"`
	UserID      string           `json:"user_id"`
	TotalAmount float64          `json:"total_amount,omitempty"`
	Reason      string           `json:"reason,omitempty"`
}

// Notifier delivers notifications
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}
