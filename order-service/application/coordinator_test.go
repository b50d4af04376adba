package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/draftea/order-saga/order-service/domain"
	"github.com/draftea/order-saga/order-service/infrastructure"
	"github.com/draftea/order-saga/shared/events"
	sharedinfra "github.com/draftea/order-saga/shared/infrastructure"
	"github.com/draftea/order-saga/shared/saga"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type response struct {
	res domain.ActivityResult
	err error
}

// scriptedGateway answers each call from a per-method script. The last
// scripted response repeats; unscripted methods succeed.
type scriptedGateway struct {
	mu      sync.Mutex
	calls   []string
	scripts map[string][]response
}

func newScriptedGateway() *scriptedGateway {
	return &scriptedGateway{scripts: make(map[string][]response)}
}

func (g *scriptedGateway) on(method string, responses ...response) *scriptedGateway {
	g.scripts[method] = responses
	return g
}

func (g *scriptedGateway) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

func (g *scriptedGateway) respond(method string) (domain.ActivityResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, method)

	script := g.scripts[method]
	if len(script) == 0 {
		res := domain.Succeeded(method + " ok")
		if method == StepProcessPayment {
			res.PaymentID = "pay-1"
		}
		return res, nil
	}
	next := script[0]
	if len(script) > 1 {
		g.scripts[method] = script[1:]
	}
	return next.res, next.err
}

func (g *scriptedGateway) CreateOrder(context.Context, string, string, []domain.OrderItem, float64) (domain.ActivityResult, error) {
	return g.respond("CreateOrder")
}

func (g *scriptedGateway) ReserveInventory(context.Context, string, []domain.OrderItem) (domain.ActivityResult, error) {
	return g.respond("ReserveInventory")
}

func (g *scriptedGateway) ProcessPayment(context.Context, string, string, float64) (domain.ActivityResult, error) {
	return g.respond("ProcessPayment")
}

func (g *scriptedGateway) SendConfirmationEmail(context.Context, string, string, float64) (domain.ActivityResult, error) {
	return g.respond("SendConfirmationEmail")
}

func (g *scriptedGateway) CancelOrder(context.Context, string) (domain.ActivityResult, error) {
	return g.respond("CancelOrder")
}

func (g *scriptedGateway) ReleaseInventory(context.Context, string, []domain.OrderItem) (domain.ActivityResult, error) {
	return g.respond("ReleaseInventory")
}

func (g *scriptedGateway) RefundPayment(context.Context, string, string) (domain.ActivityResult, error) {
	return g.respond("RefundPayment")
}

func (g *scriptedGateway) SendCancellationEmail(context.Context, string, string, string) (domain.ActivityResult, error) {
	return g.respond("SendCancellationEmail")
}

func testRequest(orderID string, total float64) domain.OrderRequest {
	return domain.OrderRequest{
		OrderID: orderID,
		UserID:  "user-1",
		Items: []domain.OrderItem{
			{ItemID: "laptop", Name: "Laptop", Quantity: 1, Price: total},
		},
		TotalAmount: total,
	}
}

func fastRetry() saga.RetryPolicy {
	return saga.DefaultRetryPolicy(time.Millisecond)
}

var forwardSteps = []string{"CreateOrder", "ReserveInventory", "ProcessPayment", "SendConfirmationEmail"}

func TestCoordinator_Run(t *testing.T) {
	tests := []struct {
		name              string
		setup             func(g *scriptedGateway)
		retry             bool
		wantOutcome       domain.SagaOutcome
		wantCalls         []string
		wantCompErrors    []string
		wantCompensations []domain.CompensationKind
	}{
		{
			name:        "all steps succeed",
			setup:       func(g *scriptedGateway) {},
			wantOutcome: domain.SucceededOutcome("o1", "pay-1"),
			wantCalls:   forwardSteps,
		},
		{
			name: "payment over the ceiling unwinds inventory then order",
			setup: func(g *scriptedGateway) {
				g.on("ProcessPayment", response{res: domain.Failed("Amount exceeds limit of 1000")})
			},
			wantOutcome: domain.CompensatedOutcome("o1", "", "Payment failed: Amount exceeds limit of 1000"),
			wantCalls: []string{
				"CreateOrder", "ReserveInventory", "ProcessPayment",
				"ReleaseInventory", "CancelOrder", "SendCancellationEmail",
			},
			wantCompensations: []domain.CompensationKind{domain.KindReleaseInventory, domain.KindCancelOrder},
		},
		{
			name: "insufficient stock only cancels the order",
			setup: func(g *scriptedGateway) {
				g.on("ReserveInventory", response{res: domain.Failed("Insufficient stock for Laptop: requested 5, available 1")})
			},
			wantOutcome:       domain.CompensatedOutcome("o1", "", "Inventory reservation failed: Insufficient stock for Laptop: requested 5, available 1"),
			wantCalls:         []string{"CreateOrder", "ReserveInventory", "CancelOrder", "SendCancellationEmail"},
			wantCompensations: []domain.CompensationKind{domain.KindCancelOrder},
		},
		{
			name: "two transient faults then success is invisible",
			setup: func(g *scriptedGateway) {
				fault := domain.TransientFault("ProcessPayment", domain.MsgGatewayUnavailable)
				g.on("ProcessPayment",
					response{err: fault},
					response{err: fault},
					response{res: domain.ActivityResult{Success: true, PaymentID: "pay-3"}},
				)
			},
			retry:       true,
			wantOutcome: domain.SucceededOutcome("o1", "pay-3"),
			wantCalls: []string{
				"CreateOrder", "ReserveInventory",
				"ProcessPayment", "ProcessPayment", "ProcessPayment",
				"SendConfirmationEmail",
			},
		},
		{
			name: "exhausted faults abort with the fault message",
			setup: func(g *scriptedGateway) {
				g.on("ProcessPayment", response{err: domain.TransientFault("ProcessPayment", domain.MsgGatewayTimeout)})
			},
			retry:       true,
			wantOutcome: domain.CompensatedOutcome("o1", "", domain.MsgGatewayTimeout),
			wantCalls: []string{
				"CreateOrder", "ReserveInventory",
				"ProcessPayment", "ProcessPayment", "ProcessPayment",
				"ReleaseInventory", "CancelOrder", "SendCancellationEmail",
			},
			wantCompensations: []domain.CompensationKind{domain.KindReleaseInventory, domain.KindCancelOrder},
		},
		{
			name: "payment without an id leaves nothing to refund",
			setup: func(g *scriptedGateway) {
				g.on("ProcessPayment", response{res: domain.ActivityResult{Success: true}})
				g.on("SendConfirmationEmail", response{res: domain.Failed("mailbox unavailable")})
			},
			wantOutcome: domain.CompensatedOutcome("o1", "", "Confirmation email failed: mailbox unavailable"),
			wantCalls: []string{
				"CreateOrder", "ReserveInventory", "ProcessPayment", "SendConfirmationEmail",
				"ReleaseInventory", "CancelOrder", "SendCancellationEmail",
			},
			wantCompensations: []domain.CompensationKind{domain.KindReleaseInventory, domain.KindCancelOrder},
		},
		{
			name: "failing refund does not stop the unwind",
			setup: func(g *scriptedGateway) {
				g.on("SendConfirmationEmail", response{res: domain.Failed("mailbox unavailable")})
				g.on("RefundPayment", response{res: domain.Failed("Payment not found")})
			},
			wantOutcome: domain.CompensatedOutcome("o1", "pay-1", "Confirmation email failed: mailbox unavailable"),
			wantCalls: []string{
				"CreateOrder", "ReserveInventory", "ProcessPayment", "SendConfirmationEmail",
				"RefundPayment", "ReleaseInventory", "CancelOrder", "SendCancellationEmail",
			},
			wantCompErrors:    []string{"RefundPayment: Payment not found"},
			wantCompensations: []domain.CompensationKind{domain.KindRefundPayment, domain.KindReleaseInventory, domain.KindCancelOrder},
		},
		{
			name: "faulting compensation is recorded and skipped",
			setup: func(g *scriptedGateway) {
				g.on("ProcessPayment", response{res: domain.Failed("card declined")})
				g.on("ReleaseInventory", response{err: errors.New("inventory service down")})
				g.on("SendCancellationEmail", response{err: errors.New("smtp down")})
			},
			wantOutcome: domain.CompensatedOutcome("o1", "", "Payment failed: card declined"),
			wantCalls: []string{
				"CreateOrder", "ReserveInventory", "ProcessPayment",
				"ReleaseInventory", "CancelOrder", "SendCancellationEmail",
			},
			wantCompErrors: []string{
				"ReleaseInventory: inventory service down",
				"SendCancellationEmail: smtp down",
			},
			wantCompensations: []domain.CompensationKind{domain.KindReleaseInventory, domain.KindCancelOrder},
		},
		{
			name: "first step failure has nothing to compensate",
			setup: func(g *scriptedGateway) {
				g.on("CreateOrder", response{err: domain.PermanentFault("CreateOrder", errors.New("orders table missing"))})
			},
			retry:       true,
			wantOutcome: domain.CompensatedOutcome("o1", "", "orders table missing"),
			wantCalls:   []string{"CreateOrder", "SendCancellationEmail"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scripted := newScriptedGateway()
			tt.setup(scripted)

			var gateway Gateway = scripted
			if tt.retry {
				gateway = NewRetryingGateway(scripted, fastRetry(), time.Second)
			}
			store := infrastructure.NewMemorySagaStore()
			coordinator := NewCoordinator(gateway, WithSagaStore(store))

			outcome := coordinator.Run(context.Background(), testRequest("o1", 400))

			assert.Equal(t, tt.wantOutcome, outcome)
			assert.Equal(t, tt.wantCalls, scripted.Calls())

			record, err := store.FindByOrderID(context.Background(), "o1")
			require.NoError(t, err)
			assert.Equal(t, tt.wantCompErrors, record.CompensationErrors)
			assert.Equal(t, &outcome, record.Outcome)

			kinds := make([]domain.CompensationKind, 0, len(record.Compensations))
			for _, c := range record.Compensations {
				kinds = append(kinds, c.Kind)
			}
			if tt.wantCompensations == nil {
				assert.Empty(t, kinds)
			} else {
				assert.Equal(t, tt.wantCompensations, kinds)
			}

			if outcome.Success {
				assert.Equal(t, saga.SagaStatusSucceeded, record.Status)
				assert.Empty(t, outcome.Error)
				assert.Empty(t, record.Compensations)
			} else {
				assert.Equal(t, saga.SagaStatusCompensated, record.Status)
				assert.NotEmpty(t, outcome.Error)
			}
		})
	}
}

// cancellingGateway cancels the caller during payment and records the
// context state seen by each compensation
type cancellingGateway struct {
	*scriptedGateway
	cancel        context.CancelFunc
	compensateErr []error
}

func (g *cancellingGateway) ProcessPayment(ctx context.Context, orderID, userID string, amount float64) (domain.ActivityResult, error) {
	g.cancel()
	return domain.Failed("card declined"), nil
}

func (g *cancellingGateway) ReleaseInventory(ctx context.Context, orderID string, items []domain.OrderItem) (domain.ActivityResult, error) {
	g.compensateErr = append(g.compensateErr, ctx.Err())
	return g.scriptedGateway.ReleaseInventory(ctx, orderID, items)
}

func (g *cancellingGateway) CancelOrder(ctx context.Context, orderID string) (domain.ActivityResult, error) {
	g.compensateErr = append(g.compensateErr, ctx.Err())
	return g.scriptedGateway.CancelOrder(ctx, orderID)
}

func TestCoordinator_CompensationSurvivesCancelledCaller(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	gateway := &cancellingGateway{scriptedGateway: newScriptedGateway(), cancel: cancel}

	outcome := NewCoordinator(gateway, WithPacer(saga.FixedPause(time.Millisecond))).Run(ctx, testRequest("o1", 10))

	assert.False(t, outcome.Success)
	assert.Equal(t, "Payment failed: card declined", outcome.Error)
	assert.Equal(t, []string{"CreateOrder", "ReserveInventory", "ReleaseInventory", "CancelOrder", "SendCancellationEmail"}, gateway.Calls())
	assert.Equal(t, []error{nil, nil}, gateway.compensateErr)
}

func TestCoordinator_PacerRunsBetweenSteps(t *testing.T) {
	scripted := newScriptedGateway().on("ProcessPayment", response{res: domain.Failed("card declined")})

	var pauses []string
	pacer := func(context.Context) error {
		calls := scripted.Calls()
		pauses = append(pauses, calls[len(calls)-1])
		return nil
	}
	NewCoordinator(scripted, WithPacer(pacer)).Run(context.Background(), testRequest("o1", 10))

	// before ReserveInventory, ProcessPayment, ReleaseInventory and CancelOrder
	assert.Equal(t, []string{"CreateOrder", "ReserveInventory", "ProcessPayment", "ReleaseInventory"}, pauses)
}

func TestCoordinator_PublishesLifecycleEvents(t *testing.T) {
	publisher := sharedinfra.NewMemoryEventPublisher()
	coordinator := NewCoordinator(newScriptedGateway(), WithPublisher(publisher))

	coordinator.Run(context.Background(), testRequest("o1", 10))

	published := publisher.EventsMatching("saga.*")
	require.Len(t, published, 2)
	assert.Equal(t, events.Topic(events.SagaStartedEvent), published[0].Topic)
	assert.Equal(t, events.Topic(events.SagaCompletedEvent), published[1].Topic)

	var outcome domain.SagaOutcome
	require.NoError(t, published[1].UnmarshalPayload(&outcome))
	assert.True(t, outcome.Success)
}

func TestCoordinator_StartSaga(t *testing.T) {
	store := infrastructure.NewMemorySagaStore()
	release := make(chan struct{})
	gateway := &blockingGateway{scriptedGateway: newScriptedGateway(), release: release}
	coordinator := NewCoordinator(gateway, WithSagaStore(store))

	handle := coordinator.StartSaga(context.Background(), testRequest("o1", 10))
	assert.Equal(t, "o1", handle.OrderID())

	record, err := store.FindByOrderID(context.Background(), "o1")
	require.NoError(t, err, "record exists as soon as the saga is started")
	assert.Equal(t, saga.SagaStatusRunning, record.Status)

	shortCtx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = handle.Await(shortCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	outcome, err := handle.Await(context.Background())
	require.NoError(t, err)
	assert.True(t, outcome.Success)

	waitCtx, waitCancel := context.WithTimeout(context.Background(), time.Second)
	defer waitCancel()
	assert.NoError(t, coordinator.Wait(waitCtx))
}

type blockingGateway struct {
	*scriptedGateway
	release chan struct{}
}

func (g *blockingGateway) CreateOrder(ctx context.Context, orderID, userID string, items []domain.OrderItem, total float64) (domain.ActivityResult, error) {
	<-g.release
	return g.scriptedGateway.CreateOrder(ctx, orderID, userID, items, total)
}

func TestCoordinator_IndependentSagasRunConcurrently(t *testing.T) {
	orders := infrastructure.NewMemoryOrderRepository()
	inventory := infrastructure.NewMemoryInventoryRepository(map[string]int{"laptop": 5})
	payments := infrastructure.NewMemoryPaymentRepository()
	activities := NewActivities(orders, inventory, payments,
		infrastructure.NewEventNotifier(sharedinfra.NewMemoryEventPublisher()),
		domain.NewLimitClassifier(domain.DefaultPaymentLimit))
	coordinator := NewCoordinator(NewRetryingGateway(activities, fastRetry(), time.Second))

	handles := make([]*SagaHandle, 20)
	for i := range handles {
		handles[i] = coordinator.StartSaga(context.Background(), testRequest("order-"+string(rune('a'+i)), 100))
	}

	succeeded := 0
	for _, h := range handles {
		outcome, err := h.Await(context.Background())
		require.NoError(t, err)
		if outcome.Success {
			succeeded++
			continue
		}
		assert.Contains(t, outcome.Error, "Inventory reservation failed")
	}

	available, _ := inventory.Available(context.Background(), "laptop")
	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 0, available)
}
