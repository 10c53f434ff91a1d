package events

import (
	"sync"

	"go.uber.org/zap"
)

// Handler receives a single diagram event
type Handler func(event DomainEvent)

// Disposer unsubscribes a handler. Calling it more than once is safe.
type Disposer func()

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is a synchronous, typed publish/subscribe registry. Handlers for an
// event kind run in subscription order, on the publishing goroutine, before
// Publish returns; this is what makes mutation+notification atomic with
// respect to observers. A panicking handler is recovered and logged so the
// remaining handlers still run.
type Bus struct {
	mu        sync.RWMutex
	nextID    uint64
	byKind    map[EventKind][]subscription
	universal []subscription
	logger    *zap.Logger
}

// NewBus creates an event bus
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		byKind: make(map[EventKind][]subscription),
		logger: logger,
	}
}

// Subscribe registers a handler for one event kind and returns its disposer
func (b *Bus) Subscribe(kind EventKind, handler Handler) Disposer {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.byKind[kind] = append(b.byKind[kind], subscription{id: id, handler: handler})

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.byKind[kind] = remove(b.byKind[kind], id)
		})
	}
}

// SubscribeAll registers a handler for every event kind
func (b *Bus) SubscribeAll(handler Handler) Disposer {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.universal = append(b.universal, subscription{id: id, handler: handler})

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.universal = remove(b.universal, id)
		})
	}
}

// Publish dispatches an event to kind-scoped subscribers, then universal ones
func (b *Bus) Publish(event DomainEvent) {
	b.mu.RLock()
	scoped := append([]subscription(nil), b.byKind[event.GetKind()]...)
	universal := append([]subscription(nil), b.universal...)
	b.mu.RUnlock()

	for _, sub := range scoped {
		b.deliver(sub, event)
	}
	for _, sub := range universal {
		b.deliver(sub, event)
	}
}

func (b *Bus) deliver(sub subscription, event DomainEvent) {
	defer func() {
		if rec := recover(); rec != nil {
			b.logger.Error("event handler panicked",
				zap.String("kind", string(event.GetKind())),
				zap.Any("panic", rec),
			)
		}
	}()
	sub.handler(event)
}

func remove(subs []subscription, id uint64) []subscription {
	for i, sub := range subs {
		if sub.id == id {
			return append(subs[:i:i], subs[i+1:]...)
		}
	}
	return subs
}
