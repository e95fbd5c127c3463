// Package validation wraps go-playground/validator for the single-value checks
// used when validating external profiles.
package validation

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// validator.Validate is safe for concurrent use and caches struct metadata.
var validate = validator.New()

// IsEmail reports whether s is a syntactically valid email address.
func IsEmail(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && validate.Var(s, "email") == nil
}

// IsURL reports whether s is an absolute URL.
func IsURL(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && validate.Var(s, "url") == nil
}

// IsHTTPURL is IsURL restricted to http and https.
func IsHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && validate.Var(s, "http_url") == nil
}
