// Package session holds the authenticated identity and bearer credential for
// one run of the client. The session is created on login, destroyed on logout
// and injected into the gateway; nothing reads credentials from ambient state.
package session

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taskdeck/internal/models"
	"taskdeck/internal/store"
)

// Settings keys for the persisted credential and user.
const (
	keyToken = "token"
	keyUser  = "user"
)

// ErrNoCredential is returned by Token when the session is not active.
var ErrNoCredential = errors.New("session: no credential")

// ErrExpired is returned by Token when the credential's exp claim has passed.
var ErrExpired = errors.New("session: credential expired")

// Session is the current authenticated context. It is safe for concurrent
// reads because gateway calls run off the UI loop.
type Session struct {
	st *store.Store

	mu     sync.RWMutex
	token  string
	user   models.User
	active bool
}

// Resume restores a persisted session from the store, if one exists.
func Resume(st *store.Store) (*Session, error) {
	s := &Session{st: st}

	token, err := st.GetSetting(keyToken)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return s, nil
	}
	raw, err := st.GetSetting(keyUser)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		// Stale or corrupt state; start unauthenticated rather than fail.
		st.DeleteSetting(keyToken)
		st.DeleteSetting(keyUser)
		return s, nil
	}

	s.token = token
	s.user = user
	s.active = true
	return s, nil
}

// Begin activates the session with a fresh credential and persists it.
func (s *Session) Begin(token string, user models.User) error {
	s.mu.Lock()
	s.token = token
	s.user = user
	s.active = true
	s.mu.Unlock()

	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := s.st.SetSetting(keyToken, token); err != nil {
		return err
	}
	return s.st.SetSetting(keyUser, string(raw))
}

// End deactivates the session and removes the persisted credential.
func (s *Session) End() error {
	s.mu.Lock()
	s.token = ""
	s.user = models.User{}
	s.active = false
	s.mu.Unlock()

	if err := s.st.DeleteSetting(keyToken); err != nil {
		return err
	}
	return s.st.DeleteSetting(keyUser)
}

// Active reports whether a credential is held, without checking expiry.
func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// User returns the authenticated user.
func (s *Session) User() models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Token returns the bearer credential, or ErrNoCredential / ErrExpired.
// Expiry is read from the token's exp claim without signature verification;
// only the backend can verify the signature, the client just avoids sending
// requests it knows will be rejected.
func (s *Session) Token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.active || s.token == "" {
		return "", ErrNoCredential
	}
	if expired(s.token, time.Now()) {
		return "", ErrExpired
	}
	return s.token, nil
}

func expired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		// Opaque tokens carry no readable expiry; let the backend decide.
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}
