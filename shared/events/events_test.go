package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopic_Matches(t *testing.T) {
	tests := []struct {
		topic   Topic
		pattern Topic
		want    bool
	}{
		{topic: "saga.completed", pattern: "saga.completed", want: true},
		{topic: "saga.completed", pattern: "saga.*", want: true},
		{topic: "saga.completed", pattern: "saga.#", want: true},
		{topic: "notification.order.cancelled", pattern: "notification.#", want: true},
		{topic: "notification.order.cancelled", pattern: "notification.*", want: false},
		{topic: "notification.order.cancelled", pattern: "*.order.*", want: true},
		{topic: "saga.completed", pattern: "order.*", want: false},
		{topic: "saga", pattern: "saga.*", want: false},
	}

	for _, tt := range tests {
		t.Run(string(tt.topic)+"~"+string(tt.pattern), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.topic.Matches(tt.pattern))
		})
	}
}

func TestNewTopic_RejectsBlank(t *testing.T) {
	_, err := NewTopic("  ")
	assert.ErrorIs(t, err, ErrInvalidTopic)
}

func TestEvent_UnmarshalPayload(t *testing.T) {
	type payload struct {
		OrderID string  `json:"order_id"`
		Amount  float64 `json:"amount"`
	}

	t.Run("from struct", func(t *testing.T) {
		evt := NewEvent("o1", SagaStartedEvent, payload{OrderID: "o1", Amount: 12.5})

		var got payload
		require.NoError(t, evt.UnmarshalPayload(&got))
		assert.Equal(t, payload{OrderID: "o1", Amount: 12.5}, got)
	})

	t.Run("from raw message", func(t *testing.T) {
		evt := NewEvent("o2", OrderRequestedEvent, json.RawMessage(`{"order_id":"o2","amount":3}`))

		var got payload
		require.NoError(t, evt.UnmarshalPayload(&got))
		assert.Equal(t, "o2", got.OrderID)
		assert.Equal(t, 3.0, got.Amount)
	})

	t.Run("nil receiver", func(t *testing.T) {
		evt := NewEvent("o3", OrderRequestedEvent, nil)
		assert.ErrorIs(t, evt.UnmarshalPayload(nil), ErrInvalidReceiver)
	})
}
