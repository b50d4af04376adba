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
	"github.com/stretchr/testify/require"
)

func validCommand(orderID string, total float64, wait bool) *StartOrderSagaCommand {
	return &StartOrderSagaCommand{
		OrderID:     orderID,
		UserID:      "user-1",
		Items:       []domain.OrderItem{{ItemID: "laptop", Name: "Laptop", Quantity: 1, Price: total}},
		TotalAmount: total,
		Wait:        wait,
	}
}

func TestStartOrderSaga_Execute(t *testing.T) {
	tests := []struct {
		name             string
		command          *StartOrderSagaCommand
		script           func(g *scriptedGateway)
		setupMocks       func(*mocks.MockSagaRegistry)
		expectedError    error
		expectedErrorMsg string
		expectedResult   *StartOrderSagaResponse
		expectedCalls    []string
	}{
		{
			name:    "waits for a successful saga",
			command: validCommand("o1", 400, true),
			setupMocks: func(registry *mocks.MockSagaRegistry) {
				registry.EXPECT().Claim(mock.Anything, "o1").Return(true, nil).Once()
			},
			expectedResult: &StartOrderSagaResponse{
				OrderID: "o1",
				Status:  saga.SagaStatusSucceeded,
				Outcome: &domain.SagaOutcome{Success: true, OrderID: "o1", Message: domain.MsgOrderProcessed, PaymentID: "pay-1"},
			},
			expectedCalls: forwardSteps,
		},
		{
			name:    "waits for a compensated saga",
			command: validCommand("o2", 2700, true),
			script: func(g *scriptedGateway) {
				g.on("ProcessPayment", response{res: domain.Failed("Amount exceeds limit of 1000")})
			},
			setupMocks: func(registry *mocks.MockSagaRegistry) {
				registry.EXPECT().Claim(mock.Anything, "o2").Return(true, nil).Once()
			},
			expectedResult: &StartOrderSagaResponse{
				OrderID: "o2",
				Status:  saga.SagaStatusCompensated,
				Outcome: &domain.SagaOutcome{
					OrderID: "o2",
					Message: domain.MsgOrderCancelled,
					Error:   "Payment failed: Amount exceeds limit of 1000",
				},
			},
			expectedCalls: []string{
				"CreateOrder", "ReserveInventory", "ProcessPayment",
				"ReleaseInventory", "CancelOrder", "SendCancellationEmail",
			},
		},
		{
			name:    "duplicate order id",
			command: validCommand("o1", 400, true),
			setupMocks: func(registry *mocks.MockSagaRegistry) {
				registry.EXPECT().Claim(mock.Anything, "o1").Return(false, nil).Once()
			},
			expectedError:    domain.ErrDuplicateSaga,
			expectedErrorMsg: "order o1: saga already started for order",
		},
		{
			name:    "invalid request never claims",
			command: &StartOrderSagaCommand{UserID: "user-1", TotalAmount: 10},
			setupMocks: func(registry *mocks.MockSagaRegistry) {
				// No expectations - should fail validation
			},
			expectedError: domain.ErrInvalidOrderRequest,
		},
		{
			name:    "registry unavailable",
			command: validCommand("o1", 400, false),
			setupMocks: func(registry *mocks.MockSagaRegistry) {
				registry.EXPECT().Claim(mock.Anything, "o1").Return(false, errors.New("redis down")).Once()
			},
			expectedErrorMsg: "failed to claim order: redis down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scripted := newScriptedGateway()
			if tt.script != nil {
				tt.script(scripted)
			}
			registry := mocks.NewMockSagaRegistry(t)
			tt.setupMocks(registry)

			useCase := NewStartOrderSaga(NewCoordinator(scripted), registry)
			result, err := useCase.Execute(context.Background(), tt.command)

			if tt.expectedError != nil || tt.expectedErrorMsg != "" {
				require.Error(t, err)
				assert.Nil(t, result)
				if tt.expectedError != nil {
					assert.ErrorIs(t, err, tt.expectedError)
				}
				if tt.expectedErrorMsg != "" {
					assert.EqualError(t, err, tt.expectedErrorMsg)
				}
				assert.Empty(t, scripted.Calls())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedResult, result)
			assert.Equal(t, tt.expectedCalls, scripted.Calls())
		})
	}
}

func TestStartOrderSaga_ExecuteWithoutWaiting(t *testing.T) {
	registry := mocks.NewMockSagaRegistry(t)
	registry.EXPECT().Claim(mock.Anything, "o1").Return(true, nil).Once()

	coordinator := NewCoordinator(newScriptedGateway())
	useCase := NewStartOrderSaga(coordinator, registry)

	ctx, cancel := context.WithCancel(context.Background())
	result, err := useCase.Execute(ctx, validCommand("o1", 400, false))
	cancel()

	require.NoError(t, err)
	assert.Equal(t, &StartOrderSagaResponse{OrderID: "o1", Status: saga.SagaStatusRunning}, result)
	require.NoError(t, coordinator.Wait(context.Background()))
}
