package infrastructure

import (
	"context"
	"sync"

	"github.com/draftea/order-saga/order-service/domain"
)

var (
	_ domain.OrderRepository     = (*MemoryOrderRepository)(nil)
	_ domain.InventoryRepository = (*MemoryInventoryRepository)(nil)
	_ domain.PaymentRepository   = (*MemoryPaymentRepository)(nil)
	_ domain.SagaStore           = (*MemorySagaStore)(nil)
	_ domain.SagaRegistry        = (*MemorySagaRegistry)(nil)
)

// MemoryOrderRepository keeps orders in memory
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[string]*domain.Order)}
}

func (r *MemoryOrderRepository) Create(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *order
	clone.Items = append([]domain.OrderItem(nil), order.Items...)
	r.orders[order.ID] = &clone
	return nil
}

func (r *MemoryOrderRepository) FindByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	clone := *order
	clone.Items = append([]domain.OrderItem(nil), order.Items...)
	return &clone, nil
}

func (r *MemoryOrderRepository) UpdateStatus(_ context.Context, id string, status domain.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	order.Status = status
	order.Timestamps = order.Timestamps.Update()
	order.Version = order.Version.Update()
	return nil
}

// MemoryInventoryRepository keeps stock per item and the reservations per order.
// A single mutex serializes every reservation and release.
type MemoryInventoryRepository struct {
	mu           sync.Mutex
	available    map[string]int
	reservations map[string]map[string]int
}

// NewMemoryInventoryRepository starts with the given available quantity per item id
func NewMemoryInventoryRepository(seed map[string]int) *MemoryInventoryRepository {
	available := make(map[string]int, len(seed))
	for itemID, qty := range seed {
		available[itemID] = qty
	}
	return &MemoryInventoryRepository{
		available:    available,
		reservations: make(map[string]map[string]int),
	}
}

func (r *MemoryInventoryRepository) Reserve(_ context.Context, orderID string, items []domain.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.reservations[orderID]; ok {
		return nil
	}

	wanted := domain.Quantities(items)
	for _, itemID := range itemIDs(items) {
		if have := r.available[itemID]; have < wanted[itemID] {
			return &domain.InsufficientStockError{
				ItemID:    itemID,
				Name:      itemName(items, itemID),
				Requested: wanted[itemID],
				Available: have,
			}
		}
	}

	for itemID, qty := range wanted {
		r.available[itemID] -= qty
	}
	r.reservations[orderID] = wanted
	return nil
}

func (r *MemoryInventoryRepository) Release(_ context.Context, orderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reserved, ok := r.reservations[orderID]
	if !ok {
		return domain.ErrReservationNotFound
	}
	for itemID, qty := range reserved {
		r.available[itemID] += qty
	}
	delete(r.reservations, orderID)
	return nil
}

func (r *MemoryInventoryRepository) Available(_ context.Context, itemID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.available[itemID], nil
}

// MemoryPaymentRepository keeps payments in memory
type MemoryPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment
	byOrder  map[string]string
}

func NewMemoryPaymentRepository() *MemoryPaymentRepository {
	return &MemoryPaymentRepository{
		payments: make(map[string]*domain.Payment),
		byOrder:  make(map[string]string),
	}
}

func (r *MemoryPaymentRepository) Save(_ context.Context, payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *payment
	r.payments[payment.ID] = &clone
	r.byOrder[payment.OrderID] = payment.ID
	return nil
}

func (r *MemoryPaymentRepository) FindByID(_ context.Context, id string) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	payment, ok := r.payments[id]
	if !ok {
		return nil, nil
	}
	clone := *payment
	return &clone, nil
}

func (r *MemoryPaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	r.mu.RLock()
	id, ok := r.byOrder[orderID]
	r.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	return r.FindByID(ctx, id)
}

func (r *MemoryPaymentRepository) UpdateStatus(_ context.Context, id string, status domain.PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	payment, ok := r.payments[id]
	if !ok {
		return domain.ErrPaymentNotFound
	}
	payment.Status = status
	payment.Timestamps = payment.Timestamps.Update()
	return nil
}

// MemorySagaStore keeps the latest saga record per order
type MemorySagaStore struct {
	mu      sync.RWMutex
	records map[string]*domain.SagaRecord
}

func NewMemorySagaStore() *MemorySagaStore {
	return &MemorySagaStore{records: make(map[string]*domain.SagaRecord)}
}

func (s *MemorySagaStore) Save(_ context.Context, record *domain.SagaRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.OrderID] = record.Clone()
	return nil
}

func (s *MemorySagaStore) FindByOrderID(_ context.Context, orderID string) (*domain.SagaRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[orderID]
	if !ok {
		return nil, domain.ErrSagaNotFound
	}
	return record.Clone(), nil
}

// MemorySagaRegistry claims order ids within one process
type MemorySagaRegistry struct {
	claimed sync.Map
}

func NewMemorySagaRegistry() *MemorySagaRegistry {
	return &MemorySagaRegistry{}
}

func (r *MemorySagaRegistry) Claim(_ context.Context, orderID string) (bool, error) {
	_, loaded := r.claimed.LoadOrStore(orderID, struct{}{})
	return !loaded, nil
}

// itemIDs returns the distinct item ids in request order
func itemIDs(items []domain.OrderItem) []string {
	seen := make(map[string]bool, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item.ItemID] {
			seen[item.ItemID] = true
			ids = append(ids, item.ItemID)
		}
	}
	return ids
}

func itemName(items []domain.OrderItem, itemID string) string {
	for _, item := range items {
		if item.ItemID == itemID {
			return item.Name
		}
	}
	return ""
}
