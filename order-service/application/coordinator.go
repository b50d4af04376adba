package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/draftea/order-saga/order-service/domain"
	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/logging"
	"github.com/draftea/order-saga/shared/models"
	"github.com/draftea/order-saga/shared/saga"
	"github.com/draftea/order-saga/shared/telemetry"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Coordinator runs order sagas. A saga runs its steps one at a time and,
// after a failure, unwinds the completed ones most recent first. Independent
// sagas share nothing but the stores behind the gateway.
type Coordinator struct {
	gateway   Gateway
	steps     []Step
	pacer     saga.Pacer
	store     domain.SagaStore
	publisher events.Publisher
	wg        sync.WaitGroup
}

type CoordinatorOption func(*Coordinator)

// WithPacer pauses between consecutive steps and compensations
func WithPacer(pacer saga.Pacer) CoordinatorOption {
	return func(c *Coordinator) {
		if pacer != nil {
			c.pacer = pacer
		}
	}
}

// WithSagaStore records the progress of every saga
func WithSagaStore(store domain.SagaStore) CoordinatorOption {
	return func(c *Coordinator) {
		c.store = store
	}
}

// WithPublisher emits saga lifecycle events
func WithPublisher(publisher events.Publisher) CoordinatorOption {
	return func(c *Coordinator) {
		c.publisher = publisher
	}
}

func NewCoordinator(gateway Gateway, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		gateway: gateway,
		steps:   OrderSagaSteps(),
		pacer:   saga.NoPause,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SagaHandle tracks a saga started in the background
type SagaHandle struct {
	orderID string
	done    chan struct{}
	outcome domain.SagaOutcome
}

func (h *SagaHandle) OrderID() string {
	return h.orderID
}

// Done is closed once the saga reached a terminal state
func (h *SagaHandle) Done() <-chan struct{} {
	return h.done
}

// Await blocks until the saga ends or ctx is done. The saga keeps running
// when ctx ends first.
func (h *SagaHandle) Await(ctx context.Context) (domain.SagaOutcome, error) {
	select {
	case <-h.done:
		return h.outcome, nil
	case <-ctx.Done():
		return domain.SagaOutcome{}, ctx.Err()
	}
}

// StartSaga records the saga and runs it in the background. The saga is
// detached from ctx cancellation but keeps its values.
func (c *Coordinator) StartSaga(ctx context.Context, req domain.OrderRequest) *SagaHandle {
	ctx = context.WithoutCancel(ctx)
	exec := newExecution(req)
	c.checkpoint(ctx, exec)

	handle := &SagaHandle{orderID: req.OrderID, done: make(chan struct{})}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(handle.done)
		handle.outcome = c.run(ctx, exec)
	}()
	return handle
}

// Wait blocks until every saga started with StartSaga has ended or ctx is done
func (c *Coordinator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "sagas still running")
	}
}

// Run executes a saga to completion in the calling goroutine. It always
// returns an outcome; compensation failures are recorded, never returned.
func (c *Coordinator) Run(ctx context.Context, req domain.OrderRequest) domain.SagaOutcome {
	exec := newExecution(req)
	c.checkpoint(ctx, exec)
	return c.run(ctx, exec)
}

// execution is the private state of one saga
type execution struct {
	req       domain.OrderRequest
	state     saga.State
	ledger    *saga.Ledger[domain.CompensationEntry]
	record    *domain.SagaRecord
	paymentID string
}

func newExecution(req domain.OrderRequest) *execution {
	return &execution{
		req:    req,
		state:  saga.Running(0),
		ledger: saga.NewLedger[domain.CompensationEntry](),
		record: domain.NewSagaRecord(req.OrderID),
	}
}

func (e *execution) moveTo(ctx context.Context, next saga.State) {
	if e.state != next && !e.state.CanTransition(next) {
		logging.FromContext(ctx).Error().
			Str("from", e.state.String()).
			Str("to", next.String()).
			Msg("unexpected saga transition")
	}
	e.state = next
	e.record.Status = next.Status
	e.record.Timestamps = e.record.Timestamps.Update()
}

func (c *Coordinator) run(ctx context.Context, exec *execution) domain.SagaOutcome {
	start := time.Now()
	req := exec.req

	ctx, span := telemetry.StartSpan(ctx, "order_saga")
	span.SetAttributes(attribute.String("order_id", req.OrderID))
	defer span.End()

	logger := logging.FromContext(ctx).With().Str("order_id", req.OrderID).Logger()
	ctx = logging.WithContext(ctx, logger)

	logger.Info().Float64("total_amount", req.TotalAmount).Int("items", len(req.Items)).Msg("saga started")
	c.emit(ctx, events.SagaStartedEvent, req.OrderID, req)

	failure, failed := c.runForward(ctx, exec)

	var outcome domain.SagaOutcome
	if !failed {
		exec.moveTo(ctx, saga.Succeeded())
		outcome = domain.SucceededOutcome(req.OrderID, exec.paymentID)
	} else {
		span.SetStatus(codes.Error, failure)
		c.runCompensation(ctx, exec, failure)
		exec.moveTo(ctx, saga.Compensated())
		outcome = domain.CompensatedOutcome(req.OrderID, exec.paymentID, failure)
	}

	exec.record.Outcome = &outcome
	c.checkpoint(ctx, exec)

	topic := events.SagaCompletedEvent
	if !outcome.Success {
		topic = events.SagaCompensatedEvent
	}
	c.emit(ctx, topic, req.OrderID, outcome)

	result := exec.state.Status.String()
	telemetry.RecordCounter(ctx, "saga_outcomes_total", "Sagas by terminal state", 1, attribute.String("result", result))
	telemetry.RecordHistogram(ctx, "saga_duration_seconds", "Saga duration", time.Since(start).Seconds(), attribute.String("result", result))

	level := zerolog.InfoLevel
	if !outcome.Success {
		level = zerolog.WarnLevel
	}
	logger.WithLevel(level).
		Str("status", result).
		Str("error", outcome.Error).
		Int("compensation_errors", len(exec.record.CompensationErrors)).
		Dur("duration", time.Since(start)).
		Msg("saga finished")

	return outcome
}

// runForward runs the steps in order and stops at the first failure
func (c *Coordinator) runForward(ctx context.Context, exec *execution) (string, bool) {
	for i, step := range c.steps {
		exec.moveTo(ctx, saga.Running(i))
		if i > 0 {
			c.pause(ctx)
		}

		res, err := c.runStep(ctx, step, exec.req)
		if err != nil || !res.Success {
			failure := step.FailureMessage(res, err)
			exec.record.Steps = append(exec.record.Steps, domain.StepRecord{Name: step.Name, Success: false, Message: failure})
			c.checkpoint(ctx, exec)
			logging.FromContext(ctx).Warn().
				Str("step", step.Name).
				Int("pending_compensations", exec.ledger.Len()).
				Msg("saga aborted, compensating")
			return failure, true
		}

		exec.record.Steps = append(exec.record.Steps, domain.StepRecord{Name: step.Name, Success: true, Message: res.Message})
		if res.PaymentID != "" {
			exec.paymentID = res.PaymentID
		}
		if entry, ok := step.Compensate(exec.req, res); ok {
			exec.ledger.Append(entry)
		}
		c.checkpoint(ctx, exec)
	}
	return "", false
}

func (c *Coordinator) runStep(ctx context.Context, step Step, req domain.OrderRequest) (domain.ActivityResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "saga.step."+step.Name)
	defer span.End()

	res, err := step.Run(ctx, c.gateway, req)

	status, level := "succeeded", zerolog.InfoLevel
	switch {
	case err != nil:
		status, level = "faulted", zerolog.WarnLevel
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case !res.Success:
		status, level = "failed", zerolog.WarnLevel
		span.SetStatus(codes.Error, res.Message)
	}
	logging.FromContext(ctx).WithLevel(level).
		Err(err).
		Str("step", step.Name).
		Str("status", status).
		Str("reason", res.Message).
		Msg("saga step finished")
	telemetry.RecordCounter(ctx, "saga_steps_total", "Saga forward steps by result", 1,
		attribute.String("step", step.Name), attribute.String("status", status))

	return res, err
}

// runCompensation unwinds the ledger. It is detached from ctx cancellation so
// that a cancelled caller cannot leave a half-compensated saga.
func (c *Coordinator) runCompensation(ctx context.Context, exec *execution, failure string) {
	ctx = context.WithoutCancel(ctx)

	entries := exec.ledger.DrainReverse()
	exec.moveTo(ctx, saga.Compensating(len(entries)))
	c.checkpoint(ctx, exec)

	for i, entry := range entries {
		c.pause(ctx)

		res, err := c.compensate(ctx, entry)
		record := domain.CompensationRecord{Kind: entry.Kind(), Success: err == nil && res.Success, Message: res.Message}
		if !record.Success {
			msg := res.Message
			if err != nil {
				msg = err.Error()
			}
			record.Message = msg
			exec.record.CompensationErrors = append(exec.record.CompensationErrors, fmt.Sprintf("%s: %s", entry.Kind(), msg))
		}
		exec.record.Compensations = append(exec.record.Compensations, record)

		exec.moveTo(ctx, saga.Compensating(len(entries)-i-1))
		c.checkpoint(ctx, exec)
	}

	res, err := c.gateway.SendCancellationEmail(ctx, exec.req.OrderID, exec.req.UserID, failure)
	if err != nil || !res.Success {
		msg := res.Message
		if err != nil {
			msg = err.Error()
		}
		exec.record.CompensationErrors = append(exec.record.CompensationErrors, "SendCancellationEmail: "+msg)
		logging.FromContext(ctx).Warn().Str("reason", msg).Msg("cancellation email not sent")
	}
}

func (c *Coordinator) compensate(ctx context.Context, entry domain.CompensationEntry) (domain.ActivityResult, error) {
	kind := string(entry.Kind())
	ctx, span := telemetry.StartSpan(ctx, "saga.compensate."+kind)
	defer span.End()

	var (
		res domain.ActivityResult
		err error
	)
	switch e := entry.(type) {
	case domain.CancelOrder:
		res, err = c.gateway.CancelOrder(ctx, e.OrderID)
	case domain.ReleaseInventory:
		res, err = c.gateway.ReleaseInventory(ctx, e.OrderID, e.Items)
	case domain.RefundPayment:
		res, err = c.gateway.RefundPayment(ctx, e.OrderID, e.PaymentID)
	default:
		err = errors.Errorf("unknown compensation %T", entry)
	}

	status := "succeeded"
	if err != nil || !res.Success {
		status = "failed"
		span.SetStatus(codes.Error, "compensation failed")
		logging.FromContext(ctx).Warn().Err(err).
			Str("compensation", kind).
			Str("reason", res.Message).
			Msg("compensation failed, continuing")
	} else {
		logging.FromContext(ctx).Info().Str("compensation", kind).Msg("compensation applied")
	}
	telemetry.RecordCounter(ctx, "saga_compensations_total", "Saga compensations by result", 1,
		attribute.String("kind", kind), attribute.String("status", status))

	return res, err
}

func (c *Coordinator) pause(ctx context.Context) {
	if err := c.pacer(ctx); err != nil {
		logging.FromContext(ctx).Debug().Err(err).Msg("pause interrupted")
	}
}

// checkpoint saves a copy of the record. Store failures only affect observability.
func (c *Coordinator) checkpoint(ctx context.Context, exec *execution) {
	if c.store == nil {
		return
	}
	if err := c.store.Save(ctx, exec.record.Clone()); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Msg("failed to record saga progress")
	}
}

func (c *Coordinator) emit(ctx context.Context, topic, orderID string, data any) {
	if c.publisher == nil {
		return
	}
	event := events.NewEvent(models.ID(orderID), topic, data)
	if err := c.publisher.Publish(ctx, event); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Str("topic", topic).Msg("failed to publish saga event")
	}
}
