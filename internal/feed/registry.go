package feed

import (
	"errors"
	"sync"

	"github.com/Vixs101/Framez/internal/observe"
)

// Registry hands out one Synchronizer per scope, creating it on first use.
// Watch observes every synchronizer the registry has created or will create.
type Registry struct {
	remote Remote
	opts   []Option

	mu    sync.Mutex
	feeds map[Scope]*Synchronizer

	listeners observe.Listeners[State]
}

func NewRegistry(r Remote, opts ...Option) *Registry {
	return &Registry{
		remote: r,
		opts:   opts,
		feeds:  map[Scope]*Synchronizer{},
	}
}

func (r *Registry) Get(scope Scope) *Synchronizer {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.feeds[scope]; ok {
		return s
	}
	s := New(r.remote, scope, r.opts...)
	s.Watch(r.listeners.Notify)
	r.feeds[scope] = s
	return s
}

func (r *Registry) Global() *Synchronizer { return r.Get(Global()) }

func (r *Registry) Watch(fn func(State)) func() {
	return r.listeners.Add(fn)
}

// Close releases every open subscription.
func (r *Registry) Close() error {
	r.mu.Lock()
	feeds := make([]*Synchronizer, 0, len(r.feeds))
	for _, s := range r.feeds {
		feeds = append(feeds, s)
	}
	r.mu.Unlock()

	var errs []error
	for _, s := range feeds {
		if err := s.Unsubscribe(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
