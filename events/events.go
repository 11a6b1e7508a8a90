package events

import (
	"context"
	"slices"
	"sync"

	"github.com/blossom-os/softwarehub/logger"
)

type Event struct {
	Event      string      `json:"event"`
	Properties interface{} `json:"properties,omitempty"`
}

type EventSubscriber interface {
	ConsumeEvent(ctx context.Context, event *Event, globalProperties map[string]interface{})
}

type EventPublisher interface {
	RegisterSubscriber(eventListener EventSubscriber)
	RemoveSubscriber(eventListener EventSubscriber)
	Publish(event *Event)
	PublishSync(event *Event)
	SetGlobalProperty(key string, value interface{})
}

type eventPublisher struct {
	listeners        []EventSubscriber
	subscriberMtx    sync.Mutex
	globalProperties map[string]interface{}
}

func NewEventPublisher() *eventPublisher {
	eventPublisher := &eventPublisher{
		listeners:        []EventSubscriber{},
		globalProperties: map[string]interface{}{},
	}
	return eventPublisher
}

func (ep *eventPublisher) RegisterSubscriber(listener EventSubscriber) {
	ep.subscriberMtx.Lock()
	defer ep.subscriberMtx.Unlock()
	ep.listeners = append(ep.listeners, listener)
}

func (ep *eventPublisher) RemoveSubscriber(listenerToRemove EventSubscriber) {
	ep.subscriberMtx.Lock()
	defer ep.subscriberMtx.Unlock()

	for i, listener := range ep.listeners {
		if listener == listenerToRemove {
			ep.listeners = slices.Delete(ep.listeners, i, i+1)
			break
		}
	}
}

// Publish fans the event out to all subscribers without waiting for them.
// Delivery is advisory, subscribers must tolerate missed events.
func (ep *eventPublisher) Publish(event *Event) {
	ep.subscriberMtx.Lock()
	defer ep.subscriberMtx.Unlock()
	logger.Logger.Debug().Interface("event", event).Msg("Publishing event")
	for _, listener := range ep.listeners {
		go listener.ConsumeEvent(context.Background(), event, ep.globalProperties)
	}
}

func (ep *eventPublisher) PublishSync(event *Event) {
	ep.subscriberMtx.Lock()
	defer ep.subscriberMtx.Unlock()
	logger.Logger.Debug().Interface("event", event).Msg("Publishing event synchronously")
	wg := sync.WaitGroup{}
	for _, listener := range ep.listeners {
		wg.Add(1)
		go func(listener EventSubscriber) {
			defer wg.Done()
			listener.ConsumeEvent(context.Background(), event, ep.globalProperties)
		}(listener)
	}
	wg.Wait()
}

func (ep *eventPublisher) SetGlobalProperty(key string, value interface{}) {
	ep.globalProperties[key] = value
}
