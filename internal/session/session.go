// Package session owns the authentication state machine and the signed-in
// user's profile. It is the single answer to "who is signed in".
package session

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/Vixs101/Framez/internal/apperr"
	"github.com/Vixs101/Framez/internal/observe"
	"github.com/Vixs101/Framez/internal/prefs"
	"github.com/Vixs101/Framez/internal/remote"
)

type Status string

const (
	StatusSignedOut      Status = "signed_out"
	StatusAuthenticating Status = "authenticating"
	StatusSignedIn       Status = "signed_in"
	StatusSigningOut     Status = "signing_out"
	StatusError          Status = "error"
)

type Profile struct {
	FullName  string    `json:"full_name"`
	AvatarURL string    `json:"avatar_url"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is a snapshot. UserID is set iff Status is StatusSignedIn.
type Session struct {
	Status    Status
	UserID    string
	Profile   *Profile
	LastError error
}

var (
	ErrAlreadySignedIn = &apperr.BusyError{Op: "sign in", State: string(StatusSignedIn)}
	ErrNotSignedIn     = apperr.Validation("session", "not signed in")
)

// Remote is the part of remote.Client the manager needs.
type Remote interface {
	remote.Auth
	FetchProfile(ctx context.Context, userID string) (remote.ProfileRow, error)
}

type Manager struct {
	remote         Remote
	store          prefs.Store
	profileTimeout time.Duration

	mu    sync.Mutex
	state Session
	token string
	// epoch changes on every sign-in and sign-out so a late profile result
	// for an older session is dropped
	epoch uint64
	// version orders published snapshots
	version uint64
	// storeMu orders writes of the persisted record against sign-out
	storeMu sync.Mutex

	listeners observe.Listeners[Session]
	fetches   sync.WaitGroup
}

type Option func(*Manager)

// WithStore persists the signed-in session so Resume can restore it.
func WithStore(s prefs.Store) Option {
	return func(m *Manager) { m.store = s }
}

func WithProfileTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.profileTimeout = d
		}
	}
}

func NewManager(r Remote, opts ...Option) *Manager {
	m := &Manager{
		remote:         r,
		profileTimeout: 10 * time.Second,
		state:          Session{Status: StatusSignedOut},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Current never blocks on the network.
func (m *Manager) Current() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Watch registers fn for every state change and returns its cancel func.
func (m *Manager) Watch(fn func(Session)) func() {
	return m.listeners.Add(fn)
}

// Wait blocks until background profile fetches have finished.
func (m *Manager) Wait() {
	m.fetches.Wait()
}

func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	email = NormalizeEmail(email)
	if err := validateSignIn(email, password); err != nil {
		return err
	}
	if err := m.begin("sign in"); err != nil {
		return err
	}

	auth, err := m.remote.Authenticate(ctx, email, password)
	if err != nil {
		err = signInFailure(err)
		m.update(func(s *Session) {
			s.Status = StatusError
			s.LastError = err
		})
		return err
	}

	epoch := m.signedIn(auth.UserID, auth.AccessToken)
	m.persist(ctx, epoch, record{UserID: auth.UserID, AccessToken: auth.AccessToken, ExpiresAt: auth.ExpiresAt})
	return nil
}

// SignUp creates the account but leaves the manager signed out; the caller
// signs in next.
func (m *Manager) SignUp(ctx context.Context, email, password, confirmPassword, fullName string) error {
	email = NormalizeEmail(email)
	fullName = strings.TrimSpace(fullName)
	if err := validateSignUp(email, password, confirmPassword, fullName); err != nil {
		return err
	}
	if err := m.begin("sign up"); err != nil {
		return err
	}

	_, err := m.remote.Register(ctx, email, password, fullName)
	if err != nil {
		err = &apperr.SignupError{Err: err}
	}
	m.update(func(s *Session) {
		s.Status = StatusSignedOut
		s.LastError = err
	})
	return err
}

// SignOut keeps the local session when the remote revocation fails, since
// the server may still honor it.
func (m *Manager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	switch m.state.Status {
	case StatusSignedOut, StatusError:
		changed := m.state.Status != StatusSignedOut || m.state.LastError != nil
		m.state = Session{Status: StatusSignedOut}
		seq, snap := m.commitLocked()
		m.mu.Unlock()
		if changed {
			m.listeners.Publish(seq, snap)
		}
		return nil
	case StatusAuthenticating, StatusSigningOut:
		err := &apperr.BusyError{Op: "sign out", State: string(m.state.Status)}
		m.mu.Unlock()
		return err
	}
	m.state.Status = StatusSigningOut
	m.state.LastError = nil
	token := m.token
	seq, snap := m.commitLocked()
	m.mu.Unlock()
	m.listeners.Publish(seq, snap)

	if err := m.remote.RevokeSession(ctx, token); err != nil {
		var authErr *apperr.AuthError
		if !errors.As(err, &authErr) {
			err = &apperr.AuthError{Message: "Sign out failed, please try again", Err: err}
		}
		m.update(func(s *Session) {
			s.Status = StatusSignedIn
			s.LastError = err
		})
		return err
	}

	m.mu.Lock()
	m.epoch++
	m.token = ""
	m.state = Session{Status: StatusSignedOut}
	seq, snap = m.commitLocked()
	m.mu.Unlock()

	m.forget(ctx)
	m.listeners.Publish(seq, snap)
	return nil
}

// RefreshProfile fetches the profile of the signed-in user. A missing
// profile row is reported as NotFoundError and leaves Profile nil.
func (m *Manager) RefreshProfile(ctx context.Context) error {
	m.mu.Lock()
	if m.state.Status != StatusSignedIn {
		m.mu.Unlock()
		return ErrNotSignedIn
	}
	epoch, userID := m.epoch, m.state.UserID
	m.mu.Unlock()

	return m.loadProfile(ctx, epoch, userID)
}

func (m *Manager) loadProfile(ctx context.Context, epoch uint64, userID string) error {
	row, err := m.remote.FetchProfile(ctx, userID)
	if err != nil {
		var notFound *apperr.NotFoundError
		if errors.As(err, &notFound) {
			return err
		}
		return &apperr.FetchError{Op: "fetch profile", Err: err}
	}

	m.mu.Lock()
	if m.epoch != epoch || m.state.Status != StatusSignedIn {
		m.mu.Unlock()
		return nil
	}
	m.state.Profile = &Profile{
		FullName:  row.FullName,
		AvatarURL: row.AvatarURL,
		Email:     row.Email,
		CreatedAt: row.CreatedAt,
	}
	seq, snap := m.commitLocked()
	m.mu.Unlock()

	m.listeners.Publish(seq, snap)
	return nil
}

// begin enters StatusAuthenticating or rejects the command.
func (m *Manager) begin(op string) error {
	m.mu.Lock()
	switch m.state.Status {
	case StatusAuthenticating, StatusSigningOut:
		err := &apperr.BusyError{Op: op, State: string(m.state.Status)}
		m.mu.Unlock()
		return err
	case StatusSignedIn:
		m.mu.Unlock()
		return ErrAlreadySignedIn
	}
	m.state = Session{Status: StatusAuthenticating}
	seq, snap := m.commitLocked()
	m.mu.Unlock()

	m.listeners.Publish(seq, snap)
	return nil
}

func (m *Manager) signedIn(userID, token string) uint64 {
	m.mu.Lock()
	m.epoch++
	epoch := m.epoch
	m.token = token
	m.state = Session{Status: StatusSignedIn, UserID: userID}
	seq, snap := m.commitLocked()
	m.mu.Unlock()

	m.listeners.Publish(seq, snap)

	m.fetches.Add(1)
	go func() {
		defer m.fetches.Done()
		ctx, cancel := context.WithTimeout(context.Background(), m.profileTimeout)
		defer cancel()
		if err := m.loadProfile(ctx, epoch, userID); err != nil {
			log.Printf("profile fetch for %s: %v", userID, err)
		}
	}()
	return epoch
}

func (m *Manager) update(fn func(*Session)) {
	m.mu.Lock()
	fn(&m.state)
	seq, snap := m.commitLocked()
	m.mu.Unlock()
	m.listeners.Publish(seq, snap)
}

// commitLocked stamps the current state for Publish.
func (m *Manager) commitLocked() (uint64, Session) {
	m.version++
	return m.version, m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Session {
	s := m.state
	if s.Profile != nil {
		p := *s.Profile
		s.Profile = &p
	}
	return s
}

func signInFailure(err error) error {
	var authErr *apperr.AuthError
	if errors.As(err, &authErr) {
		return &apperr.CredentialError{Err: err}
	}
	return &apperr.AuthError{Message: "Unable to reach the sign in service", Err: err}
}
