// Package observe is a small typed observer registry used by the core
// components to publish state snapshots.
package observe

import "sync"

type Listeners[T any] struct {
	mu     sync.RWMutex
	nextID int
	fns    map[int]func(T)

	// deliver serializes Publish; delivered is the highest seq sent
	deliver   sync.Mutex
	delivered uint64
}

// Add registers fn and returns a function that removes it. The remove
// function is safe to call more than once.
func (l *Listeners[T]) Add(fn func(T)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = map[int]func(T){}
	}
	id := l.nextID
	l.nextID++
	l.fns[id] = fn

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.fns, id)
	}
}

// Notify calls every listener synchronously, outside the registry lock, so
// a listener may add or remove listeners.
func (l *Listeners[T]) Notify(v T) {
	l.mu.RLock()
	fns := make([]func(T), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.RUnlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Publish notifies v, tagged with the seq it was committed under, unless a
// later seq has already been delivered. Publishes are serialized, so
// listeners never see an older snapshot after a newer one. Listeners must
// not publish to the same registry.
func (l *Listeners[T]) Publish(seq uint64, v T) {
	l.deliver.Lock()
	defer l.deliver.Unlock()
	if seq <= l.delivered {
		return
	}
	l.delivered = seq
	l.Notify(v)
}

func (l *Listeners[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.fns)
}
