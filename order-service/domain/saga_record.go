package domain

import (
	"context"

	"github.com/draftea/order-saga/shared/models"
	"github.com/draftea/order-saga/shared/saga"
	"github.com/pkg/errors"
)

var (
	ErrDuplicateSaga = errors.New("saga already started for order")
	ErrSagaNotFound  = errors.New("saga not found")
)

// StepRecord is one executed forward step
type StepRecord struct {
	Name    string `json:"name"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// CompensationRecord is one executed compensation
type CompensationRecord struct {
	Kind    CompensationKind `json:"kind"`
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
}

// SagaRecord is the observable trace of one saga execution
type SagaRecord struct {
	OrderID       string               `json:"order_id"`
	Status        saga.SagaStatus      `json:"status"`
	Steps         []StepRecord         `json:"steps"`
	Compensations []CompensationRecord `json:"compensations,omitempty"`
	// CompensationErrors are recorded and never surfaced in the outcome
	CompensationErrors []string          `json:"compensation_errors,omitempty"`
	Outcome            *SagaOutcome      `json:"outcome,omitempty"`
	Timestamps         models.Timestamps `json:"timestamps"`
}

func NewSagaRecord(orderID string) *SagaRecord {
	return &SagaRecord{
		OrderID:    orderID,
		Status:     saga.SagaStatusRunning,
		Steps:      []StepRecord{},
		Timestamps: models.NewTimestamps(),
	}
}

// Clone returns a deep copy
func (r *SagaRecord) Clone() *SagaRecord {
	c := *r
	c.Steps = append([]StepRecord{}, r.Steps...)
	c.Compensations = append([]CompensationRecord(nil), r.Compensations...)
	c.CompensationErrors = append([]string(nil), r.CompensationErrors...)
	if r.Outcome != nil {
		outcome := *r.Outcome
		c.Outcome = &outcome
	}
	return &c
}

// SagaStore keeps the latest record per order
type SagaStore interface {
	Save(ctx context.Context, record *SagaRecord) error
	// FindByOrderID returns ErrSagaNotFound when nothing was recorded
	FindByOrderID(ctx context.Context, orderID string) (*SagaRecord, error)
}

// SagaRegistry guarantees a single saga per order id
type SagaRegistry interface {
	// Claim returns false when orderID was already claimed
	Claim(ctx context.Context, orderID string) (bool, error)
}
