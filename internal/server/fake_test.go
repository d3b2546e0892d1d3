package server

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Vixs101/Framez/internal/apperr"
	"github.com/Vixs101/Framez/internal/config"
	"github.com/Vixs101/Framez/internal/feed"
	"github.com/Vixs101/Framez/internal/prefs"
	"github.com/Vixs101/Framez/internal/remote"
	"github.com/Vixs101/Framez/internal/session"
	"github.com/Vixs101/Framez/internal/upload"
)

var errRemote = errors.New("connection reset")

type object struct {
	data        []byte
	contentType string
}

type fakeBackend struct {
	mu        sync.Mutex
	posts     []remote.PostRow
	objects   map[string]object
	queryErr  error
	insertErr error
	handlers  []func(remote.InsertEvent)
}

type fakeSub struct{}

func (fakeSub) Close() error { return nil }

func newFakeBackend() *fakeBackend {
	return &fakeBackend{objects: map[string]object{}}
}

func (f *fakeBackend) Authenticate(ctx context.Context, email, password string) (remote.AuthSession, error) {
	if password != "secret1" {
		return remote.AuthSession{}, &apperr.AuthError{Message: "Invalid login credentials"}
	}
	return remote.AuthSession{UserID: "u1", AccessToken: "tok", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeBackend) Register(ctx context.Context, email, password, fullName string) (remote.AuthSession, error) {
	return remote.AuthSession{UserID: "u2"}, nil
}

func (f *fakeBackend) RevokeSession(ctx context.Context, token string) error { return nil }

func (f *fakeBackend) VerifySession(ctx context.Context, token string) (string, error) {
	return "u1", nil
}

func (f *fakeBackend) FetchProfile(ctx context.Context, userID string) (remote.ProfileRow, error) {
	return remote.ProfileRow{ID: userID, FullName: "User One", Email: "user@example.com"}, nil
}

func (f *fakeBackend) QueryPosts(ctx context.Context, q remote.PostQuery) ([]remote.PostRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	var out []remote.PostRow
	for _, p := range f.posts {
		if q.AuthorID == "" || p.UserID == q.AuthorID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeBackend) InsertPost(ctx context.Context, p remote.NewPost) (remote.PostRow, error) {
	f.mu.Lock()
	if f.insertErr != nil {
		f.mu.Unlock()
		return remote.PostRow{}, f.insertErr
	}
	for _, row := range f.posts {
		if p.ID != "" && row.ID == p.ID {
			f.mu.Unlock()
			return row, nil
		}
	}
	id := p.ID
	if id == "" {
		id = fmt.Sprintf("p%d", len(f.posts)+1)
	}
	row := remote.PostRow{
		ID:        id,
		UserID:    p.UserID,
		Caption:   p.Caption,
		ImageURL:  p.ImageURL,
		CreatedAt: time.Now(),
	}
	f.posts = append(f.posts, row)
	handlers := slices.Clone(f.handlers)
	f.mu.Unlock()

	for _, h := range handlers {
		h(remote.InsertEvent{Table: remote.PostsTable, ID: row.ID})
	}
	return row, nil
}

func (f *fakeBackend) UploadObject(ctx context.Context, key string, data []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects["post-images/"+key] = object{data: data, contentType: contentType}
	return nil
}

func (f *fakeBackend) PublicURL(key string) string {
	return "http://localhost/storage/public/post-images/" + key
}

func (f *fakeBackend) SubscribeTableInserts(ctx context.Context, table string, onEvent func(remote.InsertEvent)) (remote.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = append(f.handlers, onEvent)
	return fakeSub{}, nil
}

func (f *fakeBackend) OpenObject(ctx context.Context, bucket, key string) ([]byte, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, "", &apperr.NotFoundError{Resource: "object", ID: bucket + "/" + key}
	}
	return obj.data, obj.contentType, nil
}

func (f *fakeBackend) setInsertErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertErr = err
}

func (f *fakeBackend) setQueryErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryErr = err
}

func (f *fakeBackend) objectCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

func newTestServer(backend *fakeBackend) *Server {
	return NewServer(config.Config{ServerPort: ":0", ReloadTimeout: time.Second}, Core{
		Sessions: session.NewManager(backend),
		Feeds:    feed.NewRegistry(backend),
		Uploads:  upload.New(backend),
		Prefs:    prefs.NewMemoryStore(),
		Objects:  backend,
	})
}
