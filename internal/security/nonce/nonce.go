// Package nonce emite y verifica tokens anti-replay atados a una acción
// (ej. "fb_signup_login"). Son JWT HS256 de vida corta.
package nonce

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

const (
	// ActionFacebookLogin es la acción que protege el endpoint de Facebook.
	ActionFacebookLogin = "fb_signup_login"

	DefaultTTL   = 12 * time.Hour
	minSecretLen = 16
	hkdfInfo     = "fedlogin:nonce:v1"
)

// ErrNonceInvalid cubre firma, expiración y acción incorrectas.
var ErrNonceInvalid = errors.New("nonce: invalid")

type claims struct {
	Action string `json:"act"`
	jwtv5.RegisteredClaims
}

// Issuer emite y verifica nonces.
type Issuer struct {
	key    []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwtv5.Parser
}

// NewIssuer deriva la clave HMAC del secreto con HKDF-SHA256.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if len(strings.TrimSpace(secret)) < minSecretLen {
		return nil, fmt.Errorf("nonce: secret must be at least %d bytes", minSecretLen)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("nonce: derive key: %w", err)
	}
	iss := &Issuer{key: key, ttl: ttl, now: time.Now}
	iss.parser = jwtv5.NewParser(
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithTimeFunc(func() time.Time { return iss.now() }),
	)
	return iss, nil
}

// Issue emite un nonce para action.
func (i *Issuer) Issue(action string) (string, error) {
	now := i.now()
	return jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims{
		Action: action,
		RegisteredClaims: jwtv5.RegisteredClaims{
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(i.ttl)),
		},
	}).SignedString(i.key)
}

// Verify retorna ErrNonceInvalid si token no es un nonce vigente para action.
func (i *Issuer) Verify(token, action string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrNonceInvalid
	}
	var c claims
	if _, err := i.parser.ParseWithClaims(token, &c, func(*jwtv5.Token) (any, error) { return i.key, nil }); err != nil {
		return fmt.Errorf("%w: %v", ErrNonceInvalid, err)
	}
	if c.Action != action {
		return fmt.Errorf("%w: action mismatch", ErrNonceInvalid)
	}
	return nil
}
