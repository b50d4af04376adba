package infrastructure

import (
	"encoding/json"
	"time"

	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/models"
	"github.com/pkg/errors"
)

// wireMessage is the JSON body exchanged over SNS and SQS
type wireMessage struct {
	ID            string          `json:"id"`
	AggregateID   string          `json:"aggregate_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Metadata      events.Metadata `json:"metadata,omitempty"`
	Topic         string          `json:"topic"`
	Payload       json.RawMessage `json:"payload"`
	Timestamp     time.Time       `json:"timestamp"`
}

// snsEnvelope is what SQS delivers for a subscription without raw delivery
type snsEnvelope struct {
	Type      string `json:"Type"`
	MessageID string `json:"MessageId"`
	Message   string `json:"Message"`
}

func encodeEvent(event *events.Event) ([]byte, error) {
	payload, err := event.MarshalPayload()
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal payload")
	}

	msg := wireMessage{
		ID:            event.ID.String(),
		AggregateID:   event.AggregateID.String(),
		CorrelationID: event.CorrelationID.String(),
		Metadata:      transportFree(event.Metadata),
		Topic:         event.Topic.String(),
		Payload:       payload,
		Timestamp:     event.Timestamp,
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal message")
	}
	return body, nil
}

// decodeEvent accepts both a wire message and one wrapped in an SNS envelope
func decodeEvent(body []byte) (*events.Event, error) {
	var envelope snsEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Type == "Notification" && envelope.Message != "" {
		body = []byte(envelope.Message)
	}

	var msg wireMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal message")
	}
	if len(msg.Payload) == 0 {
		return nil, errors.New("message has no payload")
	}

	event := &events.Event{
		ID:            models.ID(msg.ID),
		AggregateID:   models.ID(msg.AggregateID),
		CorrelationID: models.ID(msg.CorrelationID),
		Topic:         events.Topic(msg.Topic),
		Data:          msg.Payload,
		Metadata:      msg.Metadata,
		Timestamp:     msg.Timestamp,
	}
	if event.ID.IsEmpty() {
		event.ID = models.GenerateUUID()
	}
	if event.Metadata == nil {
		event.Metadata = make(events.Metadata)
	}
	return event, nil
}

func transportFree(metadata events.Metadata) events.Metadata {
	if len(metadata) == 0 {
		return nil
	}
	out := metadata.Clone()
	delete(out, SQSMessageIDKey)
	delete(out, SQSReceiptHandleKey)
	return out
}
