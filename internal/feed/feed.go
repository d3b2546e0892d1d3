// Package feed keeps an ordered, deduplicated post collection for one
// scope consistent across bulk reloads and live insert notifications.
//
// Every insert notification triggers a full reload instead of applying the
// event payload, so the collection only ever comes from an authoritative
// query result.
package feed

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/Vixs101/Framez/internal/apperr"
	"github.com/Vixs101/Framez/internal/observe"
	"github.com/Vixs101/Framez/internal/post"
	"github.com/Vixs101/Framez/internal/remote"
)

// Scope selects the global feed or one author's posts.
type Scope struct {
	AuthorID string
}

func Global() Scope { return Scope{} }

func ByAuthor(authorID string) Scope { return Scope{AuthorID: authorID} }

func (s Scope) String() string {
	if s.AuthorID == "" {
		return "feed"
	}
	return "feed:" + s.AuthorID
}

// State is a snapshot. Err is the failure of the latest load, if any; Posts
// is then the last successful result.
type State struct {
	Scope  Scope
	Posts  []post.Post
	Loaded bool
	Err    error
}

type Remote interface {
	QueryPosts(ctx context.Context, q remote.PostQuery) ([]remote.PostRow, error)
	remote.Changes
}

type Synchronizer struct {
	remote        Remote
	scope         Scope
	reloadTimeout time.Duration

	mu      sync.Mutex
	issued  uint64
	version uint64
	posts  []post.Post
	loaded bool
	err    error

	// subMu serializes Subscribe and Unsubscribe
	subMu sync.Mutex
	sub   remote.Subscription

	listeners observe.Listeners[State]
}

type Option func(*Synchronizer)

// WithReloadTimeout bounds reloads triggered by insert notifications.
func WithReloadTimeout(d time.Duration) Option {
	return func(s *Synchronizer) {
		if d > 0 {
			s.reloadTimeout = d
		}
	}
}

func New(r Remote, scope Scope, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		remote:        r,
		scope:         scope,
		reloadTimeout: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Synchronizer) Scope() Scope { return s.scope }

func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Synchronizer) Posts() []post.Post {
	return s.State().Posts
}

type Stats struct {
	Posts  int  `json:"posts"`
	Loaded bool `json:"loaded"`
}

func (s *Synchronizer) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Posts: len(s.posts), Loaded: s.loaded}
}

func (s *Synchronizer) Watch(fn func(State)) func() {
	return s.listeners.Add(fn)
}

// Load replaces the collection with a fresh query result. When loads
// overlap only the one issued last may apply; an earlier call that
// finishes later returns nil and changes nothing. A failed load keeps the
// previous collection and returns a FetchError.
func (s *Synchronizer) Load(ctx context.Context) error {
	s.mu.Lock()
	s.issued++
	token := s.issued
	s.mu.Unlock()

	rows, err := s.remote.QueryPosts(ctx, remote.PostQuery{AuthorID: s.scope.AuthorID, Order: remote.NewestFirst})
	if err != nil {
		fetchErr := &apperr.FetchError{Op: "load " + s.scope.String(), Err: err}
		s.mu.Lock()
		latest := token == s.issued
		if latest {
			s.err = fetchErr
		}
		seq, snap := s.commitLocked()
		s.mu.Unlock()
		if latest {
			s.listeners.Publish(seq, snap)
		}
		return fetchErr
	}

	posts := post.Normalize(post.FromRows(rows))

	s.mu.Lock()
	if token != s.issued {
		s.mu.Unlock()
		return nil
	}
	s.posts = posts
	s.loaded = true
	s.err = nil
	seq, snap := s.commitLocked()
	s.mu.Unlock()

	s.listeners.Publish(seq, snap)
	return nil
}

// Subscribe opens the live insert subscription. It is a no-op while one is
// already open. A failure is returned and not retried here.
func (s *Synchronizer) Subscribe(ctx context.Context) error {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if s.sub != nil {
		return nil
	}

	sub, err := s.remote.SubscribeTableInserts(ctx, remote.PostsTable, s.onInsert)
	if err != nil {
		return &apperr.FetchError{Op: "subscribe " + s.scope.String(), Err: err}
	}
	s.sub = sub
	return nil
}

func (s *Synchronizer) Unsubscribe() error {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if s.sub == nil {
		return nil
	}
	err := s.sub.Close()
	s.sub = nil
	return err
}

func (s *Synchronizer) Subscribed() bool {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return s.sub != nil
}

func (s *Synchronizer) onInsert(ev remote.InsertEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), s.reloadTimeout)
	defer cancel()
	if err := s.Load(ctx); err != nil {
		log.Printf("%s reload after insert %s: %v", s.scope, ev.ID, err)
	}
}

func (s *Synchronizer) commitLocked() (uint64, State) {
	s.version++
	return s.version, s.stateLocked()
}

func (s *Synchronizer) stateLocked() State {
	posts := make([]post.Post, len(s.posts))
	copy(posts, s.posts)
	return State{Scope: s.scope, Posts: posts, Loaded: s.loaded, Err: s.err}
}
