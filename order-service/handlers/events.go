package handlers

import (
	"context"

	"github.com/draftea/order-saga/order-service/application"
	"github.com/draftea/order-saga/order-service/domain"
	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/logging"
	"github.com/pkg/errors"
)

var _ events.EventHandler = (*OrderEventHandlers)(nil)

// OrderEventHandlers starts sagas from order.requested events
type OrderEventHandlers struct {
	startOrderSaga *application.StartOrderSaga
}

func NewOrderEventHandlers(startOrderSaga *application.StartOrderSaga) *OrderEventHandlers {
	return &OrderEventHandlers{startOrderSaga: startOrderSaga}
}

// HandlerID returns the unique identifier for this event handler
func (h *OrderEventHandlers) HandlerID() string {
	return "order-service-event-handler"
}

// Handle implements the events.EventHandler interface. Returning an error
// leaves the message on the queue for another delivery.
func (h *OrderEventHandlers) Handle(ctx context.Context, event *events.Event) error {
	switch event.Topic {
	case events.OrderRequestedEvent:
		return h.HandleOrderRequested(ctx, event)
	default:
		// Unknown event type, ignore
		return nil
	}
}

// HandleOrderRequested starts the saga without waiting for its outcome.
// Redeliveries of an accepted order and malformed orders are acknowledged.
func (h *OrderEventHandlers) HandleOrderRequested(ctx context.Context, event *events.Event) error {
	logger := logging.FromContext(ctx).With().
		Str("event_id", event.ID.String()).
		Str("topic", event.Topic.String()).
		Logger()

	var cmd application.StartOrderSagaCommand
	if err := event.UnmarshalPayload(&cmd); err != nil {
		logger.Error().Err(err).Msg("dropping unreadable order request")
		return nil
	}
	if cmd.OrderID == "" {
		cmd.OrderID = event.AggregateID.String()
	}
	cmd.Wait = false

	response, err := h.startOrderSaga.Execute(ctx, &cmd)
	switch {
	case errors.Is(err, domain.ErrDuplicateSaga):
		logger.Info().Str("order_id", cmd.OrderID).Msg("order already accepted")
		return nil
	case errors.Is(err, domain.ErrInvalidOrderRequest):
		logger.Warn().Err(err).Str("order_id", cmd.OrderID).Msg("dropping invalid order request")
		return nil
	case err != nil:
		return errors.Wrapf(err, "failed to start saga for order %s", cmd.OrderID)
	}

	logger.Info().Str("order_id", response.OrderID).Msg("order saga started")
	return nil
}
