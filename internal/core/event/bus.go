package event

import (
	"reflect"
	"sync"
)

// Bus delivers events synchronously to handlers subscribed by event type.
// Handlers run on the publishing goroutine in subscription order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[reflect.Type][]any
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[reflect.Type][]any)}
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], fn)
}

// Publish hands event to every handler subscribed to T. A nil bus drops it.
func Publish[T any](b *Bus, event T) {
	if b == nil {
		return
	}
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.mu.RLock()
	handlers := append([]any(nil), b.handlers[t]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		// Subscribe and Publish share the type key.
		h.(func(T))(event)
	}
}
