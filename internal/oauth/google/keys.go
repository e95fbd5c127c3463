package google

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/fedlogin/internal/observability/logger"
)

// DefaultJWKSURL is Google's published signing key set.
const DefaultJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

// ErrKeyNotFound: el kid del token no está en el JWKS vigente.
var ErrKeyNotFound = errors.New("google: signing key not found")

// KeySource resolves the RSA public key for a token kid.
type KeySource interface {
	Key(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

type jwk struct {
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

// JWKSKeys caches Google's JWKS. Concurrent refreshes collapse into one HTTP call.
type JWKSKeys struct {
	url  string
	http *http.Client
	ttl  time.Duration
	now  func() time.Time

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
	etag      string

	group singleflight.Group
}

// NewJWKSKeys crea la fuente de claves. url vacío usa DefaultJWKSURL; ttl <= 0 usa 1h.
func NewJWKSKeys(url string, client *http.Client, ttl time.Duration) *JWKSKeys {
	if strings.TrimSpace(url) == "" {
		url = DefaultJWKSURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &JWKSKeys{url: url, http: client, ttl: ttl, now: time.Now, keys: map[string]*rsa.PublicKey{}}
}

// Key returns the cached key for kid. It never fetches: the set is loaded by Refresh and kept
// current by Run. A stale set keeps serving its keys until the next successful refresh.
func (k *JWKSKeys) Key(_ context.Context, kid string) (*rsa.PublicKey, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if key, ok := k.keys[kid]; ok {
		return key, nil
	}
	return nil, fmt.Errorf("%w: kid=%s", ErrKeyNotFound, kid)
}

// Stale reports whether the set was never loaded or is older than ttl.
func (k *JWKSKeys) Stale() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.fetchedAt.IsZero() || k.now().Sub(k.fetchedAt) >= k.ttl
}

// Refresh downloads the key set, honouring ETag.
func (k *JWKSKeys) Refresh(ctx context.Context) error {
	_, err, _ := k.group.Do("jwks", func() (any, error) {
		return nil, k.fetch(ctx)
	})
	return err
}

// Run refresca el JWKS cada interval hasta que ctx se cancele.
// La carga inicial es de quien llama (ver app.Container.Start).
func (k *JWKSKeys) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = k.ttl / 2
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		if err := k.Refresh(ctx); err != nil && ctx.Err() == nil {
			logger.From(ctx).Warn("jwks refresh failed", logger.Component("oauth.google"),
				logger.Bool("stale", k.Stale()), logger.Err(err))
		}
	}
}

func (k *JWKSKeys) fetch(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.url, nil)
	if err != nil {
		return err
	}
	k.mu.RLock()
	if k.etag != "" {
		req.Header.Set("If-None-Match", k.etag)
	}
	k.mu.RUnlock()

	resp, err := k.http.Do(req)
	if err != nil {
		return fmt.Errorf("jwks fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		k.mu.Lock()
		k.fetchedAt = k.now()
		k.mu.Unlock()
		return nil
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("jwks http %d", resp.StatusCode)
	}

	var set jwks
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("jwks decode: %w", err)
	}
	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, j := range set.Keys {
		if !strings.EqualFold(j.Kty, "RSA") || j.Kid == "" {
			continue
		}
		pub, err := rsaFromJWK(j)
		if err != nil {
			return fmt.Errorf("jwks key %s: %w", j.Kid, err)
		}
		keys[j.Kid] = pub
	}

	k.mu.Lock()
	k.keys = keys
	k.fetchedAt = k.now()
	k.etag = resp.Header.Get("ETag")
	k.mu.Unlock()
	return nil
}

func rsaFromJWK(j jwk) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(j.N)
	if err != nil {
		return nil, err
	}
	eb, err := base64.RawURLEncoding.DecodeString(j.E)
	if err != nil {
		return nil, err
	}
	e := 65537
	if len(eb) > 0 {
		e = 0
		for _, b := range eb {
			e = e<<8 | int(b)
		}
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: e}, nil
}
