package infrastructure

import (
	"context"

	"github.com/draftea/order-saga/order-service/domain"
	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/models"
	"github.com/pkg/errors"
)

var _ domain.Notifier = (*EventNotifier)(nil)

// EventNotifier hands notifications to the mailer service as events
type EventNotifier struct {
	publisher events.Publisher
}

func NewEventNotifier(publisher events.Publisher) *EventNotifier {
	return &EventNotifier{publisher: publisher}
}

func (n *EventNotifier) Notify(ctx context.Context, notification domain.Notification) error {
	var topic string
	switch notification.Kind {
	case domain.NotificationOrderConfirmed:
		topic = events.OrderConfirmedNotificationEvent
	case domain.NotificationOrderCancelled:
		topic = events.OrderCancelledNotificationEvent
	default:
		return errors.Errorf("unknown notification kind %q", notification.Kind)
	}

	event := events.NewEvent(models.ID(notification.OrderID), topic, notification).
		WithMetadata("user_id", notification.UserID)
	if err := n.publisher.Publish(ctx, event); err != nil {
		return errors.Wrap(err, "failed to publish notification")
	}
	return nil
}
