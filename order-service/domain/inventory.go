package domain

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrReservationNotFound = errors.New("reservation not found")
)

// InsufficientStockError names the first item that could not be reserved
type InsufficientStockError struct {
	ItemID    string
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	name := e.Name
	if name == "" {
		name = e.ItemID
	}
	return fmt.Sprintf("Insufficient stock for %s: requested %d, available %d", name, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// InventoryRepository is the inventory store port. Implementations apply a
// reservation all-or-nothing and serialize updates per item.
type InventoryRepository interface {
	// Reserve takes the requested quantities for orderID. A second call for the
	// same order is a no-op. Returns *InsufficientStockError when any item is short.
	Reserve(ctx context.Context, orderID string, items []OrderItem) error
	// Release gives back what was reserved for orderID. Returns
	// ErrReservationNotFound when nothing is reserved.
	Release(ctx context.Context, orderID string) error
	// Available returns the current available quantity of itemID
	Available(ctx context.Context, itemID string) (int, error)
}

// Quantities sums the requested quantity per item id
func Quantities(items []OrderItem) map[string]int {
	out := make(map[string]int, len(items))
	for _, item := range items {
		out[item.ItemID] += item.Quantity
	}
	return out
}
