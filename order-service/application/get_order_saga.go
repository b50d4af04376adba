package application

import (
	"context"

	"github.com/draftea/order-saga/order-service/domain"
	"github.com/pkg/errors"
)

// GetOrderSaga returns the recorded trace of a saga
type GetOrderSaga struct {
	store domain.SagaStore
}

func NewGetOrderSaga(store domain.SagaStore) *GetOrderSaga {
	return &GetOrderSaga{store: store}
}

func (uc *GetOrderSaga) Execute(ctx context.Context, orderID string) (*domain.SagaRecord, error) {
	if orderID == "" {
		return nil, errors.New("order ID is required")
	}

	record, err := uc.store.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get saga")
	}
	return record, nil
}
