package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/draftea/order-saga/shared/models"
)

var (
	ErrInvalidTopic    = errors.New("invalid topic")
	ErrInvalidReceiver = errors.New("receiver should be a non-nil pointer")
)

// Topic is a dot separated event name, e.g. "saga.completed"
type Topic string

func NewTopic(topic string) (Topic, error) {
	if strings.TrimSpace(topic) == "" {
		return "", ErrInvalidTopic
	}
	return Topic(topic), nil
}

// Matches reports whether t matches pattern. A "*" segment matches exactly one
// segment and a trailing "#" matches any remainder.
func (t Topic) Matches(pattern Topic) bool {
	patternParts := strings.Split(pattern.String(), ".")
	topicParts := strings.Split(t.String(), ".")

	for i, part := range patternParts {
		if part == "#" && i == len(patternParts)-1 {
			return true
		}
		if i >= len(topicParts) {
			return false
		}
		if part != "*" && part != topicParts[i] {
			return false
		}
	}
	return len(patternParts) == len(topicParts)
}

func (t Topic) String() string {
	return string(t)
}

// Metadata carries transport attributes alongside an event
type Metadata map[string]string

func (m Metadata) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func (m Metadata) Clone() Metadata {
	clone := make(Metadata, len(m))
	for k, v := range m {
		clone[k] = v
	}
	return clone
}

// Event is the envelope published on the bus
type Event struct {
	ID            models.ID `json:"id"`
	AggregateID   models.ID `json:"aggregate_id"`
	Topic         Topic     `json:"topic"`
	Data          any       `json:"data"`
	Metadata      Metadata  `json:"metadata"`
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID models.ID `json:"correlation_id,omitempty"`
}

// NewEvent creates an event for aggregateID. The topic is trusted to be one of
// the constants below.
func NewEvent(aggregateID models.ID, topic string, data any) *Event {
	return &Event{
		ID:          models.GenerateUUID(),
		AggregateID: aggregateID,
		Topic:       Topic(topic),
		Data:        data,
		Metadata:    make(Metadata),
		Timestamp:   time.Now().UTC(),
	}
}

func (e *Event) WithCorrelationID(correlationID models.ID) *Event {
	e.CorrelationID = correlationID
	return e
}

func (e *Event) WithMetadata(key, value string) *Event {
	if e.Metadata == nil {
		e.Metadata = make(Metadata)
	}
	e.Metadata[key] = value
	return e
}

// MarshalPayload returns the JSON encoding of Data. Raw payloads are passed through.
func (e *Event) MarshalPayload() (json.RawMessage, error) {
	switch data := e.Data.(type) {
	case json.RawMessage:
		return data, nil
	case []byte:
		return data, nil
	default:
		return json.Marshal(e.Data)
	}
}

// UnmarshalPayload decodes Data into v
func (e *Event) UnmarshalPayload(v any) error {
	if v == nil {
		return ErrInvalidReceiver
	}
	raw, err := e.MarshalPayload()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// Publisher publishes events
type Publisher interface {
	Publish(ctx context.Context, events ...*Event) error
}

// EventHandler handles delivered events
type EventHandler interface {
	HandlerID() string
	Handle(ctx context.Context, event *Event) error
}

// HandlerFunc adapts a function to EventHandler
type HandlerFunc struct {
	ID string
	Fn func(ctx context.Context, event *Event) error
}

func (h HandlerFunc) HandlerID() string {
	return h.ID
}

func (h HandlerFunc) Handle(ctx context.Context, event *Event) error {
	return h.Fn(ctx, event)
}

// Event topics
const (
	// Inbound requests
	OrderRequestedEvent = "order.requested"

	// Saga lifecycle
	SagaStartedEvent     = "saga.started"
	SagaCompletedEvent   = "saga.completed"
	SagaCompensatedEvent = "saga.compensated"

	// Customer notifications
	OrderConfirmedNotificationEvent = "notification.order.confirmed"
	OrderCancelledNotificationEvent = "notification.order.cancelled"
)
