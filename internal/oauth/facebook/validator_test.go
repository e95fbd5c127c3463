package facebook

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/fedlogin/internal/social/identity"
)

func validate(t *testing.T, payload string) (*identity.External, error) {
	t.Helper()
	return NewValidator().Validate(context.Background(), identity.Credential{
		Provider: identity.Facebook,
		Payload:  json.RawMessage(payload),
	})
}

func violations(t *testing.T, err error) []string {
	t.Helper()
	var fv *identity.FieldValidationError
	require.True(t, errors.As(err, &fv), "expected FieldValidationError, got %v", err)
	return fv.Messages
}

func TestValidate_OK(t *testing.T) {
	ext, err := validate(t, `{
		"id": "10220000000000001",
		"first_name": "Ada",
		"last_name": "Lovelace",
		"email": "ada@example.com",
		"picture": {"data": {"url": "https://platform-lookaside.fbsbx.com/p.jpg"}}
	}`)
	require.NoError(t, err)
	assert.Equal(t, &identity.External{
		Provider:      identity.Facebook,
		ExternalID:    "10220000000000001",
		Email:         "ada@example.com",
		FirstName:     "Ada",
		LastName:      "Lovelace",
		AvatarURL:     "https://platform-lookaside.fbsbx.com/p.jpg",
		EmailVerified: true,
	}, ext)
}

func TestValidate_BadEmailOnly(t *testing.T) {
	_, err := validate(t, `{"id":"123","first_name":"A","last_name":"B","email":"bad-email","picture":{"data":{"url":"http://x/y.png"}}}`)
	assert.Equal(t, []string{MsgEmailInvalid}, violations(t, err))
	assert.Equal(t, "Invalid email format", err.Error())
}

func TestValidate_AccumulatesViolations(t *testing.T) {
	_, err := validate(t, `{"first_name":"A","last_name":"B","picture":{"data":{"url":"http://x/y.png"}}}`)
	msgs := violations(t, err)
	assert.Equal(t, []string{MsgIDMissing, MsgEmailMissing}, msgs)
	assert.Equal(t, "Unique Account Number missing,Email is missing", err.Error())
}

func TestValidate_TypeViolations(t *testing.T) {
	_, err := validate(t, `{"id":true,"first_name":7,"last_name":["x"],"email":42,"picture":{"data":{"url":false}}}`)
	assert.Equal(t, []string{
		MsgIDNotString,
		MsgFirstNameType,
		MsgLastNameType,
		MsgEmailInvalid,
		MsgPictureInvalid,
	}, violations(t, err))
}

func TestValidate_NumericIDAccepted(t *testing.T) {
	ext, err := validate(t, `{"id":1234567890123,"first_name":"A","last_name":"B","email":"a@b.co","picture":{"data":{"url":"http://x/y.png"}}}`)
	require.NoError(t, err)
	assert.Equal(t, "1234567890123", ext.ExternalID)
}

func TestValidate_BlankAndNullAreMissing(t *testing.T) {
	_, err := validate(t, `{"id":"  ","first_name":null,"last_name":"","email":"","picture":{"data":{"url":""}}}`)
	assert.Equal(t, []string{
		MsgIDMissing,
		MsgFirstNameMissing,
		MsgLastNameMissing,
		MsgEmailMissing,
		MsgPictureMissing,
	}, violations(t, err))
}

func TestValidate_PictureShapes(t *testing.T) {
	_, err := validate(t, `{"id":"1","first_name":"A","last_name":"B","email":"a@b.co","picture":"http://x/y.png"}`)
	assert.Equal(t, []string{MsgPictureMissing}, violations(t, err))

	_, err = validate(t, `{"id":"1","first_name":"A","last_name":"B","email":"a@b.co","picture":{"data":{"url":"not a url"}}}`)
	assert.Equal(t, []string{MsgPictureInvalid}, violations(t, err))
}

func TestValidate_NonObjectPayload(t *testing.T) {
	_, err := validate(t, `"just a string"`)
	assert.Len(t, violations(t, err), 5)
}
