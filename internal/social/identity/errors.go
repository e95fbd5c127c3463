package identity

import (
	"errors"
	"strings"
)

// Login failure taxonomy. All of them are terminal for the attempt.
var (
	ErrCSRFMismatch         = errors.New("csrf mismatch")
	ErrMalformedToken       = errors.New("malformed token")
	ErrInvalidIssuer        = errors.New("invalid issuer")
	ErrAudienceMismatch     = errors.New("audience mismatch")
	ErrExpired              = errors.New("token expired")
	ErrCreationConflict     = errors.New("account creation conflict")
	ErrDirectoryUnavailable = errors.New("directory unavailable")
	ErrSessionUnavailable   = errors.New("session store unavailable")
	ErrProviderDisabled     = errors.New("provider disabled")
	ErrCredentialMissing    = errors.New("credential missing")
	ErrEmailInUse           = errors.New("email already bound to a local account")
)

// FieldValidationError carries every violation found in a profile payload, in field order.
type FieldValidationError struct {
	Messages []string
}

func (e *FieldValidationError) Error() string {
	return strings.Join(e.Messages, ",")
}

// Reason is the stable code of a failed login, used in logs and metric labels.
type Reason string

const (
	ReasonCSRFMismatch         Reason = "csrf_mismatch"
	ReasonMalformedToken       Reason = "malformed_token"
	ReasonInvalidIssuer        Reason = "invalid_issuer"
	ReasonAudienceMismatch     Reason = "audience_mismatch"
	ReasonExpired              Reason = "expired"
	ReasonFieldValidation      Reason = "field_validation"
	ReasonCreationConflict     Reason = "creation_conflict"
	ReasonDirectoryUnavailable Reason = "directory_unavailable"
	ReasonSessionUnavailable   Reason = "session_unavailable"
	ReasonProviderDisabled     Reason = "provider_disabled"
	ReasonCredentialMissing    Reason = "credential_missing"
	ReasonEmailInUse           Reason = "email_in_use"
	ReasonInternal             Reason = "internal"
)

// User-facing messages.
const (
	MsgCSRF            = "Unable to pass the csrf check"
	MsgTokenRejected   = "Unable to verify the token"
	MsgAccountExists   = "An account with this email already exists"
	MsgTryAgain        = "Something went wrong, please try again later"
	MsgProviderOff     = "This login method is not available"
	MsgMissingCredData = "Missing login credential"
)

// Classify maps an error from any login stage to its reason and a non-empty user message.
func Classify(err error) (Reason, string) {
	var fv *FieldValidationError
	switch {
	case err == nil:
		return ReasonInternal, MsgTryAgain
	case errors.As(err, &fv):
		if len(fv.Messages) == 0 {
			return ReasonFieldValidation, MsgTryAgain
		}
		return ReasonFieldValidation, fv.Error()
	case errors.Is(err, ErrCSRFMismatch):
		return ReasonCSRFMismatch, MsgCSRF
	case errors.Is(err, ErrMalformedToken):
		return ReasonMalformedToken, MsgTokenRejected
	case errors.Is(err, ErrInvalidIssuer):
		return ReasonInvalidIssuer, MsgTokenRejected
	case errors.Is(err, ErrAudienceMismatch):
		return ReasonAudienceMismatch, MsgTokenRejected
	case errors.Is(err, ErrExpired):
		return ReasonExpired, MsgTokenRejected
	case errors.Is(err, ErrCreationConflict):
		return ReasonCreationConflict, MsgAccountExists
	case errors.Is(err, ErrEmailInUse):
		return ReasonEmailInUse, MsgAccountExists
	case errors.Is(err, ErrProviderDisabled):
		return ReasonProviderDisabled, MsgProviderOff
	case errors.Is(err, ErrCredentialMissing):
		return ReasonCredentialMissing, MsgMissingCredData
	case errors.Is(err, ErrSessionUnavailable):
		return ReasonSessionUnavailable, MsgTryAgain
	case errors.Is(err, ErrDirectoryUnavailable):
		return ReasonDirectoryUnavailable, MsgTryAgain
	default:
		return ReasonInternal, MsgTryAgain
	}
}
