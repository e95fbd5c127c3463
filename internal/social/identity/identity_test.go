package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCredentialPresent(t *testing.T) {
	assert.False(t, Credential{Provider: Google}.Present())
	assert.True(t, Credential{Provider: Google, Token: "a.b.c"}.Present())
	assert.False(t, Credential{Provider: Facebook, Payload: json.RawMessage("null")}.Present())
	assert.True(t, Credential{Provider: Facebook, Payload: json.RawMessage(`{"id":"1"}`)}.Present())
	assert.False(t, Credential{Provider: "github", Token: "x"}.Present())
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err    error
		reason Reason
		msg    string
	}{
		{ErrCSRFMismatch, ReasonCSRFMismatch, MsgCSRF},
		{fmt.Errorf("%w: bad segment", ErrMalformedToken), ReasonMalformedToken, MsgTokenRejected},
		{ErrInvalidIssuer, ReasonInvalidIssuer, MsgTokenRejected},
		{ErrAudienceMismatch, ReasonAudienceMismatch, MsgTokenRejected},
		{ErrExpired, ReasonExpired, MsgTokenRejected},
		{&FieldValidationError{Messages: []string{"Email is missing", "Picture is missing"}}, ReasonFieldValidation, "Email is missing,Picture is missing"},
		{fmt.Errorf("%w: duplicate login", ErrCreationConflict), ReasonCreationConflict, MsgAccountExists},
		{fmt.Errorf("%w: dial tcp", ErrDirectoryUnavailable), ReasonDirectoryUnavailable, MsgTryAgain},
		{ErrProviderDisabled, ReasonProviderDisabled, MsgProviderOff},
		{errors.New("boom"), ReasonInternal, MsgTryAgain},
	}
	for _, tc := range cases {
		reason, msg := Classify(tc.err)
		assert.Equal(t, tc.reason, reason, tc.err.Error())
		assert.Equal(t, tc.msg, msg, tc.err.Error())
		assert.NotEmpty(t, msg)
	}
}
