package repository

import (
	"context"
	"time"
)

// Session es el estado de sesión guardado del lado servidor. El cliente solo ve el ID.
type Session struct {
	ID        string    `json:"-"`
	AccountID string    `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionStore persiste sesiones con TTL.
type SessionStore interface {
	Save(ctx context.Context, s *Session, ttl time.Duration) error

	// Get retorna ErrNotFound si no existe o expiró.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete es idempotente.
	Delete(ctx context.Context, id string) error

	Ping(ctx context.Context) error
}
