package nonce

import (
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef-test-secret"

func TestIssueVerify(t *testing.T) {
	iss, err := NewIssuer(secret, time.Hour)
	require.NoError(t, err)

	tok, err := iss.Issue(ActionFacebookLogin)
	require.NoError(t, err)
	assert.NoError(t, iss.Verify(tok, ActionFacebookLogin))

	assert.ErrorIs(t, iss.Verify(tok, "other_action"), ErrNonceInvalid)
	assert.ErrorIs(t, iss.Verify("", ActionFacebookLogin), ErrNonceInvalid)
	assert.ErrorIs(t, iss.Verify("garbage", ActionFacebookLogin), ErrNonceInvalid)
}

func TestVerify_Expired(t *testing.T) {
	iss, err := NewIssuer(secret, time.Minute)
	require.NoError(t, err)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	iss.now = func() time.Time { return base }

	tok, err := iss.Issue(ActionFacebookLogin)
	require.NoError(t, err)

	iss.now = func() time.Time { return base.Add(2 * time.Minute) }
	assert.ErrorIs(t, iss.Verify(tok, ActionFacebookLogin), ErrNonceInvalid)
}

func TestVerify_OtherSecret(t *testing.T) {
	a, err := NewIssuer(secret, time.Hour)
	require.NoError(t, err)
	b, err := NewIssuer(secret+"-rotated", time.Hour)
	require.NoError(t, err)

	tok, err := a.Issue(ActionFacebookLogin)
	require.NoError(t, err)
	assert.ErrorIs(t, b.Verify(tok, ActionFacebookLogin), ErrNonceInvalid)
}

func TestVerify_RejectsRawSecretSignature(t *testing.T) {
	iss, err := NewIssuer(secret, time.Hour)
	require.NoError(t, err)

	// firmado con el secreto sin derivar
	forged, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.MapClaims{
		"act": ActionFacebookLogin,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	assert.ErrorIs(t, iss.Verify(forged, ActionFacebookLogin), ErrNonceInvalid)
}

func TestNewIssuer_ShortSecret(t *testing.T) {
	_, err := NewIssuer("short", time.Hour)
	assert.Error(t, err)
}
