/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package events

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/suparena/ddbwrapper/storagemodels"
)

// Handler receives an event payload. The payload is a storagemodels.RetryEvent
// or a storagemodels.ConsumedCapacityEvent depending on the kind.
type Handler func(payload any)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is a synchronous publish/subscribe registry owned by one wrapper.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[storagemodels.EventKind][]subscription
	logger zerolog.Logger
}

// NewBus creates an empty Bus. Panicking handlers are reported to logger.
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		subs:   make(map[storagemodels.EventKind][]subscription),
		logger: logger,
	}
}

// On registers handler for kind and returns a function that removes it.
func (b *Bus) On(kind storagemodels.EventKind, handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[kind] = append(b.subs[kind], subscription{id: id, handler: handler})

	var once sync.Once
	return func() {
		once.Do(func() { b.off(kind, id) })
	}
}

// OnRetry registers a typed handler for retry events.
func (b *Bus) OnRetry(handler func(storagemodels.RetryEvent)) (unsubscribe func()) {
	return b.On(storagemodels.EventRetry, func(payload any) {
		if e, ok := payload.(storagemodels.RetryEvent); ok {
			handler(e)
		}
	})
}

// OnConsumedCapacity registers a typed handler for consumed capacity events.
func (b *Bus) OnConsumedCapacity(handler func(storagemodels.ConsumedCapacityEvent)) (unsubscribe func()) {
	return b.On(storagemodels.EventConsumedCapacity, func(payload any) {
		if e, ok := payload.(storagemodels.ConsumedCapacityEvent); ok {
			handler(e)
		}
	})
}

func (b *Bus) off(kind storagemodels.EventKind, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[kind]
	for i, s := range subs {
		if s.id == id {
			// copy so that an in-flight Emit keeps its snapshot intact
			next := make([]subscription, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			b.subs[kind] = next
			return
		}
	}
}

// Len returns the number of handlers registered for kind.
func (b *Bus) Len(kind storagemodels.EventKind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[kind])
}

// Emit delivers payload to every handler of kind in registration order.
func (b *Bus) Emit(kind storagemodels.EventKind, payload any) {
	b.mu.RLock()
	subs := b.subs[kind]
	b.mu.RUnlock()

	for _, s := range subs {
		b.dispatch(kind, s.handler, payload)
	}
}

func (b *Bus) dispatch(kind storagemodels.EventKind, handler Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn().
				Str("event", string(kind)).
				Interface("panic", r).
				Msg("event handler panicked")
		}
	}()
	handler(payload)
}
