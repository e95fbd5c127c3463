// Package google validates Google Identity Services ID tokens posted by the sign-in button.
package google

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/fedlogin/internal/observability/logger"
	"github.com/dropDatabas3/fedlogin/internal/security/csrf"
	"github.com/dropDatabas3/fedlogin/internal/social/identity"
	"github.com/dropDatabas3/fedlogin/internal/validation"
)

var trustedIssuers = map[string]struct{}{
	"accounts.google.com":         {},
	"https://accounts.google.com": {},
}

// idClaims are the ID token claims read by the validator.
type idClaims struct {
	Email         string `json:"email"`
	EmailVerified any    `json:"email_verified"` // bool; algunos clientes lo mandan como "true"
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
	jwtv5.RegisteredClaims
}

// Options configures a Validator.
type Options struct {
	Config identity.ConfigProvider

	// Keys enables RS256 signature verification. Nil leaves the token unverified
	// and validation purely claims based.
	Keys KeySource

	// Now defaults to time.Now.
	Now func() time.Time
}

// Validator implements the Google branch of credential validation.
type Validator struct {
	cfg    identity.ConfigProvider
	keys   KeySource
	now    func() time.Time
	parser *jwtv5.Parser
}

// NewValidator creates a Google token validator.
func NewValidator(o Options) *Validator {
	now := o.Now
	if now == nil {
		now = time.Now
	}
	return &Validator{
		cfg:  o.Config,
		keys: o.Keys,
		now:  now,
		// Claims se validan a mano para mapear cada falla a su error.
		parser: jwtv5.NewParser(jwtv5.WithValidMethods([]string{"RS256"}), jwtv5.WithoutClaimsValidation()),
	}
}

// Validate runs, in order: CSRF pair, decode, issuer, audience, expiry, identity claims.
func (v *Validator) Validate(ctx context.Context, cred identity.Credential) (*identity.External, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("oauth.google"))

	if !csrf.Match(cred.CSRF) {
		return nil, identity.ErrCSRFMismatch
	}

	claims, err := v.decode(ctx, strings.TrimSpace(cred.Token))
	if err != nil {
		log.Debug("id token rejected", logger.Err(err))
		return nil, fmt.Errorf("%w: %v", identity.ErrMalformedToken, err)
	}

	if _, ok := trustedIssuers[claims.Issuer]; !ok {
		return nil, fmt.Errorf("%w: %q", identity.ErrInvalidIssuer, claims.Issuer)
	}

	clientID := ""
	if v.cfg != nil {
		clientID = strings.TrimSpace(v.cfg.ProviderConfig(identity.Google).ClientID)
	}
	if clientID == "" || len(claims.Audience) == 0 || claims.Audience[0] != clientID {
		return nil, identity.ErrAudienceMismatch
	}

	if claims.ExpiresAt == nil || !claims.ExpiresAt.Time.After(v.now()) {
		return nil, identity.ErrExpired
	}

	sub := strings.TrimSpace(claims.Subject)
	email := strings.TrimSpace(claims.Email)
	picture := strings.TrimSpace(claims.Picture)
	switch {
	case sub == "":
		return nil, fmt.Errorf("%w: missing sub", identity.ErrMalformedToken)
	case !validation.IsEmail(email):
		return nil, fmt.Errorf("%w: invalid email claim", identity.ErrMalformedToken)
	case picture != "" && !validation.IsURL(picture):
		return nil, fmt.Errorf("%w: invalid picture claim", identity.ErrMalformedToken)
	}

	return &identity.External{
		Provider:      identity.Google,
		ExternalID:    sub,
		Email:         email,
		FirstName:     strings.TrimSpace(claims.GivenName),
		LastName:      strings.TrimSpace(claims.FamilyName),
		AvatarURL:     picture,
		EmailVerified: truthy(claims.EmailVerified),
	}, nil
}

func (v *Validator) decode(ctx context.Context, raw string) (*idClaims, error) {
	if raw == "" {
		return nil, errors.New("empty token")
	}
	claims := &idClaims{}
	if v.keys == nil {
		if _, _, err := v.parser.ParseUnverified(raw, claims); err != nil {
			return nil, err
		}
		return claims, nil
	}
	_, err := v.parser.ParseWithClaims(raw, claims, func(t *jwtv5.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing kid")
		}
		return v.keys.Key(ctx, kid)
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(b, "true")
	}
	return false
}
