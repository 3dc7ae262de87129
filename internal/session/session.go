// Package session holds the signed-in user's state between requests: the
// remote user record, the bearer tokens and pending notifications.
package session

import (
	"strconv"
	"sync"
	"time"

	"crmdash/internal/access"
	"crmdash/internal/crmapi"
	"crmdash/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Notification kinds.
const (
	KindSuccess = "success"
	KindError   = "error"
	KindInfo    = "info"
)

// Notification is a transient message shown once on the next page render.
type Notification struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Session is one browser's sign-in. Tokens change only on login, logout and
// refresh; all access goes through the mutex because concurrent requests of
// the same browser share the value.
type Session struct {
	mu sync.Mutex

	ID        string         `json:"id"`
	User      models.User    `json:"user"`
	Access    string         `json:"access"`
	Refresh   string         `json:"refresh"`
	Flash     []Notification `json:"flash,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt time.Time      `json:"expires_at"`

	dirty bool
}

// New builds a session from a login answer. The lifetime follows the refresh
// token's exp claim; fallbackTTL is used when the token carries none.
func New(auth *models.AuthResponse, fallbackTTL time.Duration, now time.Time) *Session {
	expires := now.Add(fallbackTTL)
	if exp, ok := TokenExpiry(auth.Refresh); ok && exp.After(now) {
		expires = exp
	}
	return &Session{
		ID:        uuid.NewString(),
		User:      auth.User,
		Access:    auth.Access,
		Refresh:   auth.Refresh,
		CreatedAt: now,
		ExpiresAt: expires,
		dirty:     true,
	}
}

// TokenExpiry reads the exp claim without verifying the signature; the
// dashboard never holds the signing key and only uses it for bookkeeping.
func TokenExpiry(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Tokens implements crmapi.TokenHolder.
func (s *Session) Tokens() crmapi.Tokens {
	s.mu.Lock()
	defer s.mu.Unlock()
	return crmapi.Tokens{Access: s.Access, Refresh: s.Refresh}
}

// SetTokens implements crmapi.TokenHolder.
func (s *Session) SetTokens(t crmapi.Tokens) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Access = t.Access
	if t.Refresh != "" {
		s.Refresh = t.Refresh
		if exp, ok := TokenExpiry(t.Refresh); ok {
			s.ExpiresAt = exp
		}
	}
	s.dirty = true
}

// CacheScope implements crmapi.Scoped.
func (s *Session) CacheScope() string {
	return "user:" + strconv.FormatInt(s.User.ID, 10)
}

func (s *Session) Role() access.Role {
	return access.RoleFor(s.User)
}

func (s *Session) Can(action access.Action) bool {
	return access.Can(s.Role(), action)
}

func (s *Session) Allows(perm access.Permission) bool {
	return access.Allows(s.Role(), perm)
}

func (s *Session) IsAdmin() bool       { return s.Role() == access.RoleAdmin }
func (s *Session) IsStaffViewer() bool { return s.Role() == access.RoleStaffViewer }

// AddFlash queues a notification for the next render.
func (s *Session) AddFlash(kind, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Flash = append(s.Flash, Notification{Kind: kind, Message: message})
	s.dirty = true
}

// PopFlash returns and clears the queued notifications.
func (s *Session) PopFlash() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Flash) == 0 {
		return nil
	}
	out := s.Flash
	s.Flash = nil
	s.dirty = true
	return out
}

// Dirty reports whether the session changed since it was loaded or saved.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

func (s *Session) MarkClean() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = false
}

func (s *Session) Expired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// TTL is the time left until expiry, never negative.
func (s *Session) TTL(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d := s.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Snapshot returns a copy safe to serialize while other goroutines keep
// using s.
func (s *Session) Snapshot() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &Session{
		ID:        s.ID,
		User:      s.User,
		Access:    s.Access,
		Refresh:   s.Refresh,
		Flash:     append([]Notification(nil), s.Flash...),
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}
}
