// Package event_bus carries row change-events from the domain services to the
// sync sessions that broadcast them to subscribed clients.
package event_bus

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Bus is a concurrency-safe synchronous dispatcher of TableChanged events.
// Handlers run sequentially during Publish, so events published from a single
// mutation path reach every handler in mutation order.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[uint64]func(TableChanged)
	nextID      uint64
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[uint64]func(TableChanged))}
}

// Subscribe registers a handler for all change-events. It returns an
// unsubscribe function that removes the handler when called.
func (b *Bus) Subscribe(h func(TableChanged)) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subscribers[id] = h
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subscribers, id)
		b.mu.Unlock()
	}
}

// Publish delivers the event to all handlers synchronously. Panics in handlers
// are recovered and logged so one broken subscriber cannot break the mutation
// path.
func (b *Bus) Publish(e TableChanged) {
	b.mu.RLock()
	handlers := make([]func(TableChanged), 0, len(b.subscribers))
	for _, h := range b.subscribers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Errorf("event_bus: handler panic for %s %s: %v", e.Op, e.Table, r)
				}
			}()
			h(e)
		}()
	}
}

// SubscriberCount reports how many handlers are currently registered.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
