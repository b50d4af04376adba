package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/draftea/order-saga/order-service/application"
	"github.com/draftea/order-saga/order-service/domain"
	"github.com/draftea/order-saga/order-service/infrastructure"
	"github.com/draftea/order-saga/order-service/mocks"
	"github.com/draftea/order-saga/shared/events"
	sharedinfra "github.com/draftea/order-saga/shared/infrastructure"
	"github.com/draftea/order-saga/shared/models"
	"github.com/draftea/order-saga/shared/saga"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testService struct {
	router      chi.Router
	coordinator *application.Coordinator
	store       *infrastructure.MemorySagaStore
	start       *application.StartOrderSaga
}

func newTestService(registry domain.SagaRegistry) *testService {
	store := infrastructure.NewMemorySagaStore()
	activities := application.NewActivities(
		infrastructure.NewMemoryOrderRepository(),
		infrastructure.NewMemoryInventoryRepository(map[string]int{"laptop": 10}),
		infrastructure.NewMemoryPaymentRepository(),
		infrastructure.NewEventNotifier(sharedinfra.NewMemoryEventPublisher()),
		domain.NewLimitClassifier(domain.DefaultPaymentLimit),
	)
	coordinator := application.NewCoordinator(
		application.NewRetryingGateway(activities, saga.DefaultRetryPolicy(time.Millisecond), time.Second),
		application.WithSagaStore(store),
	)
	start := application.NewStartOrderSaga(coordinator, registry)

	router := chi.NewRouter()
	NewOrderHandlers(start, application.NewGetOrderSaga(store)).RegisterRoutes(router)

	return &testService{router: router, coordinator: coordinator, store: store, start: start}
}

func orderBody(orderID string, total float64) string {
	body, _ := json.Marshal(application.StartOrderSagaCommand{
		OrderID:     orderID,
		UserID:      "u1",
		Items:       []domain.OrderItem{{ItemID: "laptop", Name: "Laptop", Quantity: 1, Price: total}},
		TotalAmount: total,
	})
	return string(body)
}

func TestOrderHandlers_StartOrder(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		body           string
		registry       func(*mocks.MockSagaRegistry)
		expectedStatus int
		checkBody      func(t *testing.T, body []byte)
	}{
		{
			name:   "waits for a successful saga",
			target: "/api/v1/orders?wait=true",
			body:   orderBody("o1", 400),
			registry: func(r *mocks.MockSagaRegistry) {
				r.EXPECT().Claim(mock.Anything, "o1").Return(true, nil).Once()
			},
			expectedStatus: http.StatusOK,
			checkBody: func(t *testing.T, body []byte) {
				var resp application.StartOrderSagaResponse
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, saga.SagaStatusSucceeded, resp.Status)
				require.NotNil(t, resp.Outcome)
				assert.True(t, resp.Outcome.Success)
				assert.Equal(t, domain.MsgOrderProcessed, resp.Outcome.Message)
				assert.NotEmpty(t, resp.Outcome.PaymentID)
			},
		},
		{
			name:   "waits for a compensated saga",
			target: "/api/v1/orders?wait=true",
			body:   orderBody("o2", 2700),
			registry: func(r *mocks.MockSagaRegistry) {
				r.EXPECT().Claim(mock.Anything, "o2").Return(true, nil).Once()
			},
			expectedStatus: http.StatusOK,
			checkBody: func(t *testing.T, body []byte) {
				var resp application.StartOrderSagaResponse
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, saga.SagaStatusCompensated, resp.Status)
				require.NotNil(t, resp.Outcome)
				assert.False(t, resp.Outcome.Success)
				assert.Equal(t, "Payment failed: Amount exceeds limit of 1000", resp.Outcome.Error)
			},
		},
		{
			name:   "accepted without waiting",
			target: "/api/v1/orders",
			body:   orderBody("o3", 400),
			registry: func(r *mocks.MockSagaRegistry) {
				r.EXPECT().Claim(mock.Anything, "o3").Return(true, nil).Once()
			},
			expectedStatus: http.StatusAccepted,
			checkBody: func(t *testing.T, body []byte) {
				var resp application.StartOrderSagaResponse
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, "o3", resp.OrderID)
				assert.Equal(t, saga.SagaStatusRunning, resp.Status)
				assert.Nil(t, resp.Outcome)
			},
		},
		{
			name:   "duplicate order",
			target: "/api/v1/orders",
			body:   orderBody("o1", 400),
			registry: func(r *mocks.MockSagaRegistry) {
				r.EXPECT().Claim(mock.Anything, "o1").Return(false, nil).Once()
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "invalid order",
			target:         "/api/v1/orders",
			body:           `{"user_id":"u1","items":[],"total_amount":10}`,
			registry:       func(r *mocks.MockSagaRegistry) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed body",
			target:         "/api/v1/orders",
			body:           `{"order_id":`,
			registry:       func(r *mocks.MockSagaRegistry) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed wait flag",
			target:         "/api/v1/orders?wait=soon",
			body:           orderBody("o1", 400),
			registry:       func(r *mocks.MockSagaRegistry) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "registry failure",
			target: "/api/v1/orders",
			body:   orderBody("o1", 400),
			registry: func(r *mocks.MockSagaRegistry) {
				r.EXPECT().Claim(mock.Anything, "o1").Return(false, errors.New("redis down")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := mocks.NewMockSagaRegistry(t)
			tt.registry(registry)
			svc := newTestService(registry)

			req := httptest.NewRequest(http.MethodPost, tt.target, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			svc.router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code, rec.Body.String())
			if tt.checkBody != nil {
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
				tt.checkBody(t, rec.Body.Bytes())
			}
			require.NoError(t, svc.coordinator.Wait(context.Background()))
		})
	}
}

func TestOrderHandlers_GetOrder(t *testing.T) {
	svc := newTestService(infrastructure.NewMemorySagaRegistry())

	start := httptest.NewRequest(http.MethodPost, "/api/v1/orders?wait=true", strings.NewReader(orderBody("o1", 400)))
	svc.router.ServeHTTP(httptest.NewRecorder(), start)

	t.Run("recorded saga", func(t *testing.T) {
		rec := httptest.NewRecorder()
		svc.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders/o1", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var record domain.SagaRecord
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
		assert.Equal(t, "o1", record.OrderID)
		assert.Equal(t, saga.SagaStatusSucceeded, record.Status)
		assert.Len(t, record.Steps, 4)
		require.NotNil(t, record.Outcome)
		assert.True(t, record.Outcome.Success)
	})

	t.Run("unknown order", func(t *testing.T) {
		rec := httptest.NewRecorder()
		svc.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders/o404", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestOrderEventHandlers_Handle(t *testing.T) {
	tests := []struct {
		name        string
		event       func() *events.Event
		registry    func(*mocks.MockSagaRegistry)
		expectedErr string
		started     string
	}{
		{
			name: "order requested starts a saga",
			event: func() *events.Event {
				return events.NewEvent(models.ID("o1"), events.OrderRequestedEvent,
					json.RawMessage(orderBody("o1", 400)))
			},
			registry: func(r *mocks.MockSagaRegistry) {
				r.EXPECT().Claim(mock.Anything, "o1").Return(true, nil).Once()
			},
			started: "o1",
		},
		{
			name: "order id falls back to the aggregate id",
			event: func() *events.Event {
				return events.NewEvent(models.ID("o9"), events.OrderRequestedEvent,
					json.RawMessage(`{"user_id":"u1","items":[{"item_id":"laptop","name":"Laptop","quantity":1,"price":10}],"total_amount":10}`))
			},
			registry: func(r *mocks.MockSagaRegistry) {
				r.EXPECT().Claim(mock.Anything, "o9").Return(true, nil).Once()
			},
			started: "o9",
		},
		{
			name: "redelivery of an accepted order is acknowledged",
			event: func() *events.Event {
				return events.NewEvent(models.ID("o1"), events.OrderRequestedEvent, json.RawMessage(orderBody("o1", 400)))
			},
			registry: func(r *mocks.MockSagaRegistry) {
				r.EXPECT().Claim(mock.Anything, "o1").Return(false, nil).Once()
			},
		},
		{
			name: "invalid order is acknowledged",
			event: func() *events.Event {
				return events.NewEvent(models.ID(""), events.OrderRequestedEvent, json.RawMessage(`{"user_id":"u1"}`))
			},
			registry: func(r *mocks.MockSagaRegistry) {},
		},
		{
			name: "unreadable payload is acknowledged",
			event: func() *events.Event {
				return events.NewEvent(models.ID("o1"), events.OrderRequestedEvent, json.RawMessage(`[1,2`))
			},
			registry: func(r *mocks.MockSagaRegistry) {},
		},
		{
			name: "registry failure is retried",
			event: func() *events.Event {
				return events.NewEvent(models.ID("o1"), events.OrderRequestedEvent, json.RawMessage(orderBody("o1", 400)))
			},
			registry: func(r *mocks.MockSagaRegistry) {
				r.EXPECT().Claim(mock.Anything, "o1").Return(false, errors.New("redis down")).Once()
			},
			expectedErr: "failed to start saga for order o1: failed to claim order: redis down",
		},
		{
			name: "other topics are ignored",
			event: func() *events.Event {
				return events.NewEvent(models.ID("o1"), events.SagaCompletedEvent, json.RawMessage(`{}`))
			},
			registry: func(r *mocks.MockSagaRegistry) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := mocks.NewMockSagaRegistry(t)
			tt.registry(registry)
			svc := newTestService(registry)
			handler := NewOrderEventHandlers(svc.start)

			err := handler.Handle(context.Background(), tt.event())
			require.NoError(t, svc.coordinator.Wait(context.Background()))

			if tt.expectedErr != "" {
				assert.EqualError(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)

			if tt.started != "" {
				record, err := svc.store.FindByOrderID(context.Background(), tt.started)
				require.NoError(t, err)
				assert.True(t, record.Status.IsTerminal())
			}
		})
	}
}

func TestOrderEventHandlers_HandlerID(t *testing.T) {
	assert.Equal(t, "order-service-event-handler", NewOrderEventHandlers(nil).HandlerID())
}

func TestMetricsHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewMetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
