// Package csrf implements the double-submit cookie check used by Google Identity Services:
// the library writes a random g_csrf_token cookie and posts the same value as a form field.
package csrf

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/dropDatabas3/fedlogin/internal/social/identity"
)

// GoogleName is both the cookie and the form field name used by Google Identity Services.
const GoogleName = "g_csrf_token"

// Match reports whether both halves are present and equal, in constant time.
func Match(p identity.CSRFPair) bool {
	c := strings.TrimSpace(p.Cookie)
	f := strings.TrimSpace(p.Field)
	if c == "" || f == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c), []byte(f)) == 1
}

// PairFromRequest extrae cookie y campo de formulario con el mismo nombre.
// El form ya debe estar parseado (r.ParseForm).
func PairFromRequest(r *http.Request, name string) identity.CSRFPair {
	var p identity.CSRFPair
	if ck, err := r.Cookie(name); err == nil {
		p.Cookie = ck.Value
	}
	p.Field = r.PostFormValue(name)
	return p
}
