package infrastructure

import (
	"context"
	"sync"

	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/logging"
	"github.com/pkg/errors"
)

var (
	_ events.Publisher = (*MemoryEventPublisher)(nil)
	_ events.Publisher = MultiPublisher(nil)
)

// MemoryEventPublisher keeps published events in memory. Used for local runs
// and tests.
type MemoryEventPublisher struct {
	mu     sync.RWMutex
	events []*events.Event
}

func NewMemoryEventPublisher() *MemoryEventPublisher {
	return &MemoryEventPublisher{}
}

func (p *MemoryEventPublisher) Publish(ctx context.Context, evts ...*events.Event) error {
	p.mu.Lock()
	p.events = append(p.events, evts...)
	p.mu.Unlock()

	for _, event := range evts {
		logging.FromContext(ctx).Debug().
			Str("topic", event.Topic.String()).
			Str("aggregate_id", event.AggregateID.String()).
			Msg("event published")
	}
	return nil
}

// Events returns the published events, oldest first
func (p *MemoryEventPublisher) Events() []*events.Event {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]*events.Event, len(p.events))
	copy(out, p.events)
	return out
}

// EventsMatching returns the published events whose topic matches pattern
func (p *MemoryEventPublisher) EventsMatching(pattern events.Topic) []*events.Event {
	var out []*events.Event
	for _, event := range p.Events() {
		if event.Topic.Matches(pattern) {
			out = append(out, event)
		}
	}
	return out
}

// MultiPublisher publishes to every publisher in order and stops at the first error
type MultiPublisher []events.Publisher

func (m MultiPublisher) Publish(ctx context.Context, evts ...*events.Event) error {
	for i, publisher := range m {
		if err := publisher.Publish(ctx, evts...); err != nil {
			return errors.Wrapf(err, "publisher %d", i)
		}
	}
	return nil
}
