package application

import (
	"context"
	"testing"

	"github.com/draftea/order-saga/order-service/domain"
	"github.com/draftea/order-saga/order-service/mocks"
	"github.com/draftea/order-saga/shared/saga"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestGetOrderSaga_Execute(t *testing.T) {
	record := domain.NewSagaRecord("o1")
	record.Status = saga.SagaStatusSucceeded

	tests := []struct {
		name           string
		orderID        string
		setupMocks     func(*mocks.MockSagaStore)
		expectedError  string
		expectedResult *domain.SagaRecord
	}{
		{
			name:    "found",
			orderID: "o1",
			setupMocks: func(store *mocks.MockSagaStore) {
				store.EXPECT().FindByOrderID(mock.Anything, "o1").Return(record, nil).Once()
			},
			expectedResult: record,
		},
		{
			name:    "not found",
			orderID: "o404",
			setupMocks: func(store *mocks.MockSagaStore) {
				store.EXPECT().FindByOrderID(mock.Anything, "o404").Return(nil, domain.ErrSagaNotFound).Once()
			},
			expectedError: "failed to get saga: saga not found",
		},
		{
			name:    "store error",
			orderID: "o1",
			setupMocks: func(store *mocks.MockSagaStore) {
				store.EXPECT().FindByOrderID(mock.Anything, "o1").Return(nil, errors.New("timeout")).Once()
			},
			expectedError: "failed to get saga: timeout",
		},
		{
			name:    "empty order ID",
			orderID: "",
			setupMocks: func(store *mocks.MockSagaStore) {
				// No expectations - should fail before calling mocks
			},
			expectedError: "order ID is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewMockSagaStore(t)
			tt.setupMocks(store)

			result, err := NewGetOrderSaga(store).Execute(context.Background(), tt.orderID)

			if tt.expectedError != "" {
				assert.EqualError(t, err, tt.expectedError)
				assert.Nil(t, result)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedResult, result)
		})
	}
}
