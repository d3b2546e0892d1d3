package session

import (
	"context"
	"sync"
	"time"

	"github.com/Vixs101/Framez/internal/remote"
)

// fakeRemote counts calls; each hook is optional.
type fakeRemote struct {
	mu    sync.Mutex
	calls int

	authenticate func(ctx context.Context, email, password string) (remote.AuthSession, error)
	register     func(ctx context.Context, email, password, fullName string) (remote.AuthSession, error)
	revoke       func(ctx context.Context, token string) error
	verify       func(ctx context.Context, token string) (string, error)
	profile      func(ctx context.Context, userID string) (remote.ProfileRow, error)
}

func (f *fakeRemote) count() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeRemote) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeRemote) Authenticate(ctx context.Context, email, password string) (remote.AuthSession, error) {
	f.count()
	if f.authenticate != nil {
		return f.authenticate(ctx, email, password)
	}
	return remote.AuthSession{UserID: "user-1", AccessToken: "token-1", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeRemote) Register(ctx context.Context, email, password, fullName string) (remote.AuthSession, error) {
	f.count()
	if f.register != nil {
		return f.register(ctx, email, password, fullName)
	}
	return remote.AuthSession{UserID: "user-1"}, nil
}

func (f *fakeRemote) RevokeSession(ctx context.Context, token string) error {
	f.count()
	if f.revoke != nil {
		return f.revoke(ctx, token)
	}
	return nil
}

func (f *fakeRemote) VerifySession(ctx context.Context, token string) (string, error) {
	f.count()
	if f.verify != nil {
		return f.verify(ctx, token)
	}
	return "user-1", nil
}

func (f *fakeRemote) FetchProfile(ctx context.Context, userID string) (remote.ProfileRow, error) {
	f.count()
	if f.profile != nil {
		return f.profile(ctx, userID)
	}
	return remote.ProfileRow{ID: userID, FullName: "User One", Email: "a@b.com"}, nil
}
