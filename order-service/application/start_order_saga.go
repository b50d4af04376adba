package application

import (
	"context"

	"github.com/draftea/order-saga/order-service/domain"
	"github.com/draftea/order-saga/shared/saga"
	"github.com/pkg/errors"
)

// StartOrderSagaCommand represents the command to start an order saga
type StartOrderSagaCommand struct {
	OrderID     string             `json:"order_id"`
	UserID      string             `json:"user_id"`
	Items       []domain.OrderItem `json:"items"`
	TotalAmount float64            `json:"total_amount"`
	// Wait makes Execute block until the saga outcome is known
	Wait bool `json:"-"`
}

// StartOrderSagaResponse represents the response after starting a saga
type StartOrderSagaResponse struct {
	OrderID string              `json:"order_id"`
	Status  saga.SagaStatus     `json:"status"`
	Outcome *domain.SagaOutcome `json:"outcome,omitempty"`
}

// SagaStarter starts sagas in the background
type SagaStarter interface {
	StartSaga(ctx context.Context, req domain.OrderRequest) *SagaHandle
}

// StartOrderSaga use case, shared by the HTTP and queue entry points
type StartOrderSaga struct {
	starter  SagaStarter
	registry domain.SagaRegistry
}

func NewStartOrderSaga(starter SagaStarter, registry domain.SagaRegistry) *StartOrderSaga {
	return &StartOrderSaga{
		starter:  starter,
		registry: registry,
	}
}

// Execute validates the request, claims the order id and starts the saga.
// A second start for the same order id fails with domain.ErrDuplicateSaga.
func (uc *StartOrderSaga) Execute(ctx context.Context, cmd *StartOrderSagaCommand) (*StartOrderSagaResponse, error) {
	req := domain.OrderRequest{
		OrderID:     cmd.OrderID,
		UserID:      cmd.UserID,
		Items:       cmd.Items,
		TotalAmount: cmd.TotalAmount,
	}
	if err := req.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid command")
	}

	claimed, err := uc.registry.Claim(ctx, req.OrderID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to claim order")
	}
	if !claimed {
		return nil, errors.Wrapf(domain.ErrDuplicateSaga, "order %s", req.OrderID)
	}

	handle := uc.starter.StartSaga(ctx, req)
	if !cmd.Wait {
		return &StartOrderSagaResponse{OrderID: req.OrderID, Status: saga.SagaStatusRunning}, nil
	}

	outcome, err := handle.Await(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to await saga")
	}

	status := saga.SagaStatusSucceeded
	if !outcome.Success {
		status = saga.SagaStatusCompensated
	}
	return &StartOrderSagaResponse{OrderID: req.OrderID, Status: status, Outcome: &outcome}, nil
}
