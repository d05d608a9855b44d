// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
)

// ErrNoSession is returned when an operation needs a token and none is set.
var ErrNoSession = errors.New("not logged in")

// =============================================================================
// END REASONS
// =============================================================================

// Reason explains why a session ended.
type Reason string

const (
	ReasonLogout       Reason = "logout"
	ReasonUnauthorized Reason = "unauthorized"
	ReasonExpired      Reason = "expired"
	ReasonExternal     Reason = "external"
)

// Message returns the user-facing text for the reason.
func (r Reason) Message() string {
	switch r {
	case ReasonLogout:
		return "Logged out"
	case ReasonUnauthorized:
		return "Your session is no longer valid. Please log in again."
	case ReasonExpired:
		return "Your session expired. Please log in again."
	case ReasonExternal:
		return "Logged out from another terminal"
	default:
		return string(r)
	}
}

// =============================================================================
// CLAIMS
// =============================================================================

// Claims is the subset of token claims the client displays. The token is
// decoded without verifying its signature; the backend remains the only
// authority on whether it is valid.
type Claims struct {
	Subject   string
	Email     string
	Role      string
	Tenant    string
	ExpiresAt time.Time
}

// parseClaims decodes a bearer token. Opaque tokens yield zero claims.
func parseClaims(token string) Claims {
	var claims Claims
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		log.WithError(err).Debug("bearer token is not a JWT; claims unavailable")
		return claims
	}
	claims.Subject, _ = mc.GetSubject()
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	claims.Email = stringClaim(mc, "email")
	claims.Role = stringClaim(mc, "role")
	claims.Tenant = stringClaim(mc, "tenantName", "tenant")
	return claims
}

func stringClaim(mc jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		if v, ok := mc[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// =============================================================================
// SESSION
// =============================================================================

// Session is the authenticated session shared by the API client and the UI.
// It is safe for concurrent use; backend calls read the token off the UI loop.
type Session struct {
	mu     sync.Mutex
	store  *Store
	token  string
	claims Claims
	now    func() time.Time

	onEnd []func(Reason)
}

// New creates an empty session persisted through store. A nil store keeps
// the session in memory only.
func New(store *Store) *Session {
	return &Session{
		store: store,
		now:   time.Now,
	}
}

// Restore loads a previously saved token. A missing token is not an error.
func (s *Session) Restore() error {
	if s.store == nil {
		return nil
	}
	token, err := s.store.Load()
	if err != nil {
		return err
	}
	if token == "" {
		return nil
	}
	s.mu.Lock()
	s.token = token
	s.claims = parseClaims(token)
	s.mu.Unlock()
	return nil
}

// Begin starts the session with a freshly issued token and persists it.
func (s *Session) Begin(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("empty token")
	}
	s.mu.Lock()
	s.token = token
	s.claims = parseClaims(token)
	store := s.store
	s.mu.Unlock()

	log.WithField("subject", s.Claims().Subject).Info("session started")
	if store != nil {
		return store.Save(token)
	}
	return nil
}

// adopt sets the token without persisting it. Used when the token file was
// rewritten by another process.
func (s *Session) adopt(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.claims = parseClaims(token)
}

// End clears the token, removes it from storage and notifies listeners.
// Ending an already ended session is a no-op.
func (s *Session) End(reason Reason) {
	s.mu.Lock()
	if s.token == "" {
		s.mu.Unlock()
		return
	}
	s.token = ""
	s.claims = Claims{}
	store := s.store
	listeners := append([]func(Reason){}, s.onEnd...)
	s.mu.Unlock()

	if store != nil && reason != ReasonExternal {
		if err := store.Clear(); err != nil {
			log.WithError(err).Warn("failed to remove stored token")
		}
	}
	log.WithField("reason", reason).Info("session ended")
	for _, fn := range listeners {
		fn(reason)
	}
}

// OnEnd registers fn to be called after the session ends.
func (s *Session) OnEnd(fn func(Reason)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEnd = append(s.onEnd, fn)
}

// Token returns the bearer token, or ErrNoSession.
func (s *Session) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return "", ErrNoSession
	}
	return s.token, nil
}

// Active reports whether a token is set.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != ""
}

// Claims returns the decoded claims of the current token.
func (s *Session) Claims() Claims {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.claims
}

// Expired reports whether the token carries an expiry that has passed.
func (s *Session) Expired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.claims.ExpiresAt.IsZero() && !s.now().Before(s.claims.ExpiresAt)
}
