package feed

import (
	"context"
	"errors"
	"sync"

	"github.com/Vixs101/Framez/internal/remote"
)

var errRemote = errors.New("connection reset")

type fakeSub struct {
	closed int
	parent *fakeRemote
}

func (s *fakeSub) Close() error {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	s.closed++
	s.parent.handler = nil
	return nil
}

type fakeRemote struct {
	mu         sync.Mutex
	rows       []remote.PostRow
	queries    []remote.PostQuery
	queryFn    func(call int, q remote.PostQuery) ([]remote.PostRow, error)
	subErr     error
	subscribes int
	handler    func(remote.InsertEvent)
	subs       []*fakeSub
}

func (f *fakeRemote) QueryPosts(ctx context.Context, q remote.PostQuery) ([]remote.PostRow, error) {
	f.mu.Lock()
	call := len(f.queries)
	f.queries = append(f.queries, q)
	fn := f.queryFn
	rows := append([]remote.PostRow(nil), f.rows...)
	f.mu.Unlock()
	if fn != nil {
		return fn(call, q)
	}
	return rows, nil
}

func (f *fakeRemote) SubscribeTableInserts(ctx context.Context, table string, onEvent func(remote.InsertEvent)) (remote.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribes++
	if f.subErr != nil {
		return nil, f.subErr
	}
	f.handler = onEvent
	sub := &fakeSub{parent: f}
	f.subs = append(f.subs, sub)
	return sub, nil
}

func (f *fakeRemote) setRows(rows ...remote.PostRow) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = rows
}

func (f *fakeRemote) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

// emit delivers an insert event synchronously, as the change stream would.
func (f *fakeRemote) emit(id string) bool {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	if h == nil {
		return false
	}
	h(remote.InsertEvent{Table: remote.PostsTable, ID: id})
	return true
}
