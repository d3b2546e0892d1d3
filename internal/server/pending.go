package server

import (
	"sync"
	"time"

	"github.com/Vixs101/Framez/internal/upload"
)

const (
	maxPendingUploads = 64
	pendingTTL        = time.Hour
)

type pendingEntry struct {
	pending *upload.Pending
	added   time.Time
}

// pendingUploads keeps failed uploads so they can be retried by id. Entries
// expire after pendingTTL and the oldest is evicted past maxPendingUploads.
type pendingUploads struct {
	mu    sync.Mutex
	items map[string]pendingEntry
	max   int
	ttl   time.Duration
	now   func() time.Time
}

func newPendingUploads() *pendingUploads {
	return &pendingUploads{
		items: map[string]pendingEntry{},
		max:   maxPendingUploads,
		ttl:   pendingTTL,
		now:   time.Now,
	}
}

func (p *pendingUploads) put(pending *upload.Pending) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	for id, e := range p.items {
		if now.Sub(e.added) >= p.ttl {
			delete(p.items, id)
		}
	}
	if _, ok := p.items[pending.ID]; !ok {
		for len(p.items) >= p.max {
			p.evictOldestLocked()
		}
	}
	p.items[pending.ID] = pendingEntry{pending: pending, added: now}
}

func (p *pendingUploads) evictOldestLocked() {
	var oldest string
	var at time.Time
	for id, e := range p.items {
		if oldest == "" || e.added.Before(at) {
			oldest, at = id, e.added
		}
	}
	delete(p.items, oldest)
}

func (p *pendingUploads) get(id string) (*upload.Pending, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.items[id]
	if !ok {
		return nil, false
	}
	if p.now().Sub(e.added) >= p.ttl {
		delete(p.items, id)
		return nil, false
	}
	return e.pending, true
}

func (p *pendingUploads) remove(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.items, id)
}

func (p *pendingUploads) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}
