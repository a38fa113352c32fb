// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ManuGH/greeter/internal/csrf"
)

// Manager binds store entries to browser cookies.
type Manager struct {
	store      Store
	secret     []byte
	cookieName string
	ttl        time.Duration
}

// NewManager creates a manager. Cookie values are signed with secret.
func NewManager(store Store, secret, cookieName string, ttl time.Duration) *Manager {
	if cookieName == "" {
		cookieName = "session"
	}
	return &Manager{
		store:      store,
		secret:     []byte(secret),
		cookieName: cookieName,
		ttl:        ttl,
	}
}

// Store returns the backing store.
func (m *Manager) Store() Store { return m.store }

// NewID returns a fresh random session ID.
func NewID() string { return uuid.NewString() }

// Session is one visitor's state for the duration of a request.
type Session struct {
	ID    string
	Data  Data
	IsNew bool

	m         *Manager
	w         http.ResponseWriter
	secure    bool
	cookieSet bool
}

// Get resolves the session for r. A new session is started, and its cookie
// set on w, when the cookie is missing, tampered with or refers to a session
// the store no longer has. Store failures are returned as errors.
func (m *Manager) Get(w http.ResponseWriter, r *http.Request) (*Session, error) {
	if c, err := r.Cookie(m.cookieName); err == nil {
		if id, ok := m.verify(c.Value); ok {
			data, err := m.store.Load(r.Context(), id)
			switch {
			case err == nil:
				return &Session{ID: id, Data: data, m: m, w: w, secure: r.TLS != nil}, nil
			case !errors.Is(err, ErrNotFound):
				return nil, fmt.Errorf("load session: %w", err)
			}
		}
	}

	s := &Session{ID: NewID(), IsNew: true, m: m, w: w, secure: r.TLS != nil}
	s.setCookie()
	return s, nil
}

// Save persists the session and refreshes its TTL. The cookie is re-issued
// so its Max-Age follows the store expiry; call Save before writing the body.
func (s *Session) Save(ctx context.Context) error {
	if err := s.m.store.Save(ctx, s.ID, s.Data, s.m.ttl); err != nil {
		return err
	}
	if !s.cookieSet {
		s.setCookie()
	}
	return nil
}

func (s *Session) setCookie() {
	if s.w == nil {
		return
	}
	http.SetCookie(s.w, s.m.cookie(s.ID, s.secure))
	s.cookieSet = true
}

// CSRFToken returns the raw CSRF token, creating one when the session has none.
func (s *Session) CSRFToken() ([]byte, bool, error) {
	if len(s.Data.CSRF) > 0 {
		return s.Data.CSRF, false, nil
	}
	raw, err := csrf.NewRaw()
	if err != nil {
		return nil, false, err
	}
	s.Data.CSRF = raw
	return raw, true, nil
}

// AddFlash queues a one-shot message for the next page view.
func (s *Session) AddFlash(msg string) {
	s.Data.Flash = append(s.Data.Flash, msg)
}

// PopFlashes returns and clears queued messages.
func (s *Session) PopFlashes() []string {
	out := s.Data.Flash
	s.Data.Flash = nil
	return out
}

func (m *Manager) cookie(id string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    id + "." + m.sign(id),
		Path:     "/",
		MaxAge:   int(m.ttl / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (m *Manager) sign(id string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte("session:"))
	mac.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (m *Manager) verify(value string) (string, bool) {
	id, sig, ok := strings.Cut(value, ".")
	if !ok || id == "" {
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(m.sign(id))) {
		return "", false
	}
	return id, true
}
