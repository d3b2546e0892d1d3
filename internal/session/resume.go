package session

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/Vixs101/Framez/internal/apperr"
)

const sessionKey = "session"

type record struct {
	UserID      string    `json:"user_id"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Resume restores a persisted session after a restart. A record the
// backend no longer honors is deleted; a transport failure keeps it for the
// next attempt. Either way the manager stays signed out on failure.
func (m *Manager) Resume(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	raw, ok, err := m.store.Get(ctx, sessionKey)
	if err != nil || !ok {
		return err
	}

	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil || rec.AccessToken == "" {
		m.forget(ctx)
		return nil
	}
	if !rec.ExpiresAt.IsZero() && time.Now().After(rec.ExpiresAt) {
		m.forget(ctx)
		return nil
	}

	if err := m.begin("resume"); err != nil {
		return err
	}

	userID, err := m.remote.VerifySession(ctx, rec.AccessToken)
	if err != nil {
		var authErr *apperr.AuthError
		if errors.As(err, &authErr) {
			m.forget(ctx)
		}
		m.update(func(s *Session) { s.Status = StatusSignedOut })
		return err
	}

	epoch := m.signedIn(userID, rec.AccessToken)
	if userID != rec.UserID {
		rec.UserID = userID
		m.persist(ctx, epoch, rec)
	}
	return nil
}

// persist writes rec only while the session signed in at epoch is still
// current, so a sign-out that already forgot the record wins.
func (m *Manager) persist(ctx context.Context, epoch uint64, rec record) {
	if m.store == nil {
		return
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return
	}

	m.storeMu.Lock()
	defer m.storeMu.Unlock()
	m.mu.Lock()
	current := m.epoch == epoch && m.state.Status == StatusSignedIn
	m.mu.Unlock()
	if !current {
		return
	}
	if err := m.store.Set(ctx, sessionKey, string(raw)); err != nil {
		log.Printf("persist session: %v", err)
	}
}

func (m *Manager) forget(ctx context.Context) {
	if m.store == nil {
		return
	}
	m.storeMu.Lock()
	defer m.storeMu.Unlock()
	if err := m.store.Delete(ctx, sessionKey); err != nil {
		log.Printf("forget session: %v", err)
	}
}
