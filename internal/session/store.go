package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dropDatabas3/fedlogin/internal/cache"
	"github.com/dropDatabas3/fedlogin/internal/domain/repository"
	tokens "github.com/dropDatabas3/fedlogin/internal/security/token"
)

// CacheStore guarda sesiones en un cache.Client bajo "sid:" + sha256(id).
type CacheStore struct {
	c cache.Client
}

// NewCacheStore crea un SessionStore sobre c (memory o redis).
func NewCacheStore(c cache.Client) *CacheStore {
	return &CacheStore{c: c}
}

var _ repository.SessionStore = (*CacheStore)(nil)

func key(id string) string {
	return "sid:" + tokens.SHA256Base64URL(id)
}

func (s *CacheStore) Save(ctx context.Context, sess *repository.Session, ttl time.Duration) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	return s.c.Set(ctx, key(sess.ID), b, ttl)
}

func (s *CacheStore) Get(ctx context.Context, id string) (*repository.Session, error) {
	b, err := s.c.Get(ctx, key(id))
	if cache.IsNotFound(err) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var sess repository.Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, fmt.Errorf("session: decode: %w", err)
	}
	sess.ID = id
	return &sess, nil
}

func (s *CacheStore) Delete(ctx context.Context, id string) error {
	return s.c.Delete(ctx, key(id))
}

func (s *CacheStore) Ping(ctx context.Context) error {
	return s.c.Ping(ctx)
}
