// Package helpers agrupa utilidades HTTP compartidas por controllers y middlewares.
package helpers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	httperrors "github.com/dropDatabas3/fedlogin/internal/http/errors"
)

// MaxBodyBytes limita el body de los endpoints de login.
const MaxBodyBytes = 1 << 20

// IsJSON indica si el request declara Content-Type JSON.
func IsJSON(r *http.Request) bool {
	return strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json")
}

// DecodeJSON decodifica el body JSON de forma tolerante (campos desconocidos se ignoran).
// Los errores son *httperrors.AppError; cada controller decide cómo responderlos.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if !IsJSON(r) {
		return httperrors.ErrUnsupportedMediaType.WithDetail("expected application/json")
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil && err != io.EOF {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return httperrors.ErrBodyTooLarge.WithCause(err)
		}
		return httperrors.ErrInvalidJSON.WithCause(err)
	}
	return nil
}

// WriteJSON escribe v con status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
