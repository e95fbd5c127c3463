package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError_AppError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrInvalidParameter.WithDetail("action"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INVALID_PARAMETER", body["code"])
	assert.Equal(t, "action", body["detail"])
}

func TestWriteError_GenericIsInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, stderrors.New("db exploded"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db exploded")
}

func TestWithDetail_DoesNotMutateBase(t *testing.T) {
	_ = ErrInvalidJSON.WithDetail("x")
	assert.Empty(t, ErrInvalidJSON.Detail)

	cause := stderrors.New("cause")
	wrapped := ErrServiceUnavailable.WithCause(cause)
	assert.ErrorIs(t, wrapped, cause)
	assert.Nil(t, ErrServiceUnavailable.Err)
}
