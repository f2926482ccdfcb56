// Package notify implements the data-changed fan-out that keeps score
// displays current. It replaces the ambient module-level listener set of
// earlier revisions with an explicit broadcaster instance that can be
// constructed per test.
package notify

import "sync"

// Listener is invoked after captures or bonus events change.
type Listener func()

// Broadcaster fans out change notifications to subscribers.
// The zero value is not usable; construct with New.
type Broadcaster struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]Listener
}

// New creates an empty broadcaster.
func New() *Broadcaster {
	return &Broadcaster{listeners: make(map[int]Listener)}
}

// Subscribe registers a listener and returns its unsubscribe function.
// Unsubscribing twice is harmless.
func (b *Broadcaster) Subscribe(fn Listener) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.listeners[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.listeners, id)
	}
}

// Notify invokes every subscribed listener synchronously. A panicking
// listener never takes the others down with it.
func (b *Broadcaster) Notify() {
	b.mu.Lock()
	fns := make([]Listener, 0, len(b.listeners))
	for _, fn := range b.listeners {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		callSafely(fn)
	}
}

// Len returns the number of subscribed listeners.
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}

func callSafely(fn Listener) {
	defer func() {
		_ = recover()
	}()
	fn()
}
