// Package session binds server-side sessions to HTTP requests through a cookie.
package session

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dropDatabas3/fedlogin/internal/domain/repository"
	"github.com/dropDatabas3/fedlogin/internal/observability/logger"
	tokens "github.com/dropDatabas3/fedlogin/internal/security/token"
	"github.com/dropDatabas3/fedlogin/internal/social"
)

const (
	DefaultCookieName = "fl_session"
	DefaultTTL        = 24 * time.Hour

	idBytes = 32
)

// Manager crea scopes de sesión por request.
type Manager struct {
	store  repository.SessionStore
	cookie CookieConfig
	now    func() time.Time
}

// NewManager crea un Manager. Nombre y TTL vacíos toman los defaults.
func NewManager(store repository.SessionStore, cookie CookieConfig) *Manager {
	if cookie.Name == "" {
		cookie.Name = DefaultCookieName
	}
	if cookie.TTL <= 0 {
		cookie.TTL = DefaultTTL
	}
	return &Manager{store: store, cookie: cookie, now: time.Now}
}

// Store expone el store subyacente (health checks).
func (m *Manager) Store() repository.SessionStore { return m.store }

// Current devuelve la sesión referenciada por la cookie del request.
// ErrNotFound si no hay cookie o la sesión expiró.
func (m *Manager) Current(ctx context.Context, r *http.Request) (*repository.Session, error) {
	ck, err := r.Cookie(m.cookie.Name)
	if err != nil || ck.Value == "" {
		return nil, repository.ErrNotFound
	}
	return m.store.Get(ctx, ck.Value)
}

// Bind devuelve el scope de sesión del request. Las cookies se escriben en w.
func (m *Manager) Bind(w http.ResponseWriter, r *http.Request) *Scope {
	s := &Scope{m: m, w: w}
	if ck, err := r.Cookie(m.cookie.Name); err == nil {
		s.current = ck.Value
	}
	return s
}

// Scope implementa social.SessionScope para un request.
type Scope struct {
	m       *Manager
	w       http.ResponseWriter
	mu      sync.Mutex
	current string
}

var _ social.SessionScope = (*Scope)(nil)

// InvalidateCurrent borra la sesión del request (si hay) y limpia la cookie.
func (s *Scope) InvalidateCurrent(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == "" {
		return nil
	}
	if err := s.m.store.Delete(ctx, s.current); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	s.current = ""
	http.SetCookie(s.w, BuildDeletionCookie(s.m.cookie))
	return nil
}

// Create emite una sesión nueva para accountID y setea la cookie.
func (s *Scope) Create(ctx context.Context, accountID string) (*repository.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := tokens.GenerateOpaqueToken(idBytes)
	if err != nil {
		return nil, fmt.Errorf("session: generate id: %w", err)
	}
	now := s.m.now().UTC()
	sess := &repository.Session{
		ID:        id,
		AccountID: accountID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.m.cookie.TTL),
	}
	if err := s.m.store.Save(ctx, sess, s.m.cookie.TTL); err != nil {
		return nil, fmt.Errorf("session: save: %w", err)
	}
	s.current = id
	http.SetCookie(s.w, BuildSessionCookie(s.m.cookie, id))

	logger.From(ctx).Debug("session created",
		logger.Layer("service"),
		logger.Component("session"),
		logger.AccountID(accountID),
	)
	return sess, nil
}
