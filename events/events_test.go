package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingSubscriber struct {
	mu               sync.Mutex
	events           []*Event
	globalProperties map[string]interface{}
}

func (s *capturingSubscriber) ConsumeEvent(ctx context.Context, event *Event, globalProperties map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	s.globalProperties = globalProperties
}

func (s *capturingSubscriber) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestPublishSync(t *testing.T) {
	publisher := NewEventPublisher()
	subscriber := &capturingSubscriber{}
	publisher.RegisterSubscriber(subscriber)

	publisher.SetGlobalProperty("version", "v1")
	publisher.PublishSync(&Event{Event: "test_event", Properties: "payload"})

	require.Equal(t, 1, subscriber.count())
	assert.Equal(t, "test_event", subscriber.events[0].Event)
	assert.Equal(t, "payload", subscriber.events[0].Properties)
	assert.Equal(t, "v1", subscriber.globalProperties["version"])
}

func TestPublishIsAsynchronous(t *testing.T) {
	publisher := NewEventPublisher()
	subscriber := &capturingSubscriber{}
	publisher.RegisterSubscriber(subscriber)

	publisher.Publish(&Event{Event: "test_event"})

	require.Eventually(t, func() bool {
		return subscriber.count() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestRemoveSubscriber(t *testing.T) {
	publisher := NewEventPublisher()
	first := &capturingSubscriber{}
	second := &capturingSubscriber{}
	publisher.RegisterSubscriber(first)
	publisher.RegisterSubscriber(second)

	publisher.RemoveSubscriber(first)
	publisher.PublishSync(&Event{Event: "test_event"})

	assert.Equal(t, 0, first.count())
	assert.Equal(t, 1, second.count())
}
