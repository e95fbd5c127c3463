// Package facebook validates the profile payload produced by the Facebook JS SDK
// and forwarded verbatim by the client.
//
// The payload is not signed; the SDK handshake authenticated it on the client side.
// Validation is a fixed schema evaluated exhaustively: every violation is reported.
package facebook

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/dropDatabas3/fedlogin/internal/observability/logger"
	"github.com/dropDatabas3/fedlogin/internal/social/identity"
	"github.com/dropDatabas3/fedlogin/internal/validation"
)

// Violation messages, in the order fields are checked.
const (
	MsgIDMissing        = "Unique Account Number missing"
	MsgIDNotString      = "Unique Account number should be a string"
	MsgFirstNameMissing = "First name is missing"
	MsgFirstNameType    = "First name should be a string"
	MsgLastNameMissing  = "Last name is missing"
	MsgLastNameType     = "Last name should be a string"
	MsgEmailMissing     = "Email is missing"
	MsgEmailInvalid     = "Invalid email format"
	MsgPictureMissing   = "Picture is missing"
	MsgPictureInvalid   = "Picture should be a URL"
)

// Validator implements the Facebook branch of credential validation.
type Validator struct{}

// NewValidator creates a Facebook payload validator.
func NewValidator() *Validator { return &Validator{} }

// Validate checks cred.Payload and maps it into an external identity.
func (v *Validator) Validate(ctx context.Context, cred identity.Credential) (*identity.External, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("oauth.facebook"))

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(cred.Payload, &doc); err != nil {
		// A non-object body is treated as a payload where every field is absent.
		doc = map[string]json.RawMessage{}
	}

	var (
		msgs []string
		out  = &identity.External{Provider: identity.Facebook, EmailVerified: true}
	)

	switch id, kind := numericOrString(doc["id"]); kind {
	case fieldMissing:
		msgs = append(msgs, MsgIDMissing)
	case fieldWrongType:
		msgs = append(msgs, MsgIDNotString)
	default:
		out.ExternalID = id
	}

	switch s, kind := stringField(doc["first_name"]); kind {
	case fieldMissing:
		msgs = append(msgs, MsgFirstNameMissing)
	case fieldWrongType:
		msgs = append(msgs, MsgFirstNameType)
	default:
		out.FirstName = s
	}

	switch s, kind := stringField(doc["last_name"]); kind {
	case fieldMissing:
		msgs = append(msgs, MsgLastNameMissing)
	case fieldWrongType:
		msgs = append(msgs, MsgLastNameType)
	default:
		out.LastName = s
	}

	switch s, kind := stringField(doc["email"]); {
	case kind == fieldMissing:
		msgs = append(msgs, MsgEmailMissing)
	case kind == fieldWrongType || !validation.IsEmail(s):
		msgs = append(msgs, MsgEmailInvalid)
	default:
		out.Email = s
	}

	switch s, kind := stringField(pictureURL(doc["picture"])); {
	case kind == fieldMissing:
		msgs = append(msgs, MsgPictureMissing)
	case kind == fieldWrongType || !validation.IsURL(s):
		msgs = append(msgs, MsgPictureInvalid)
	default:
		out.AvatarURL = s
	}

	if len(msgs) > 0 {
		log.Debug("facebook payload rejected", logger.Int("violations", len(msgs)))
		return nil, &identity.FieldValidationError{Messages: msgs}
	}
	return out, nil
}

type fieldKind int

const (
	fieldOK fieldKind = iota
	fieldMissing
	fieldWrongType
)

// stringField classifies a raw JSON value: absent, null and blank strings are missing.
func stringField(raw json.RawMessage) (string, fieldKind) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", fieldMissing
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fieldWrongType
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fieldMissing
	}
	return s, fieldOK
}

// numericOrString accepts the id either as a JSON string or as a JSON number.
func numericOrString(raw json.RawMessage) (string, fieldKind) {
	s, kind := stringField(raw)
	if kind != fieldWrongType {
		return s, kind
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return "", fieldWrongType
	}
	return n.String(), fieldOK
}

// pictureURL digs picture.data.url; any shape mismatch on the way yields an absent value.
func pictureURL(raw json.RawMessage) json.RawMessage {
	var pic struct {
		Data struct {
			URL json.RawMessage `json:"url"`
		} `json:"data"`
	}
	if len(bytes.TrimSpace(raw)) == 0 || json.Unmarshal(raw, &pic) != nil {
		return nil
	}
	return pic.Data.URL
}
