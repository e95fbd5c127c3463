// Package errors define AppError y su serialización para la capa HTTP.
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/dropDatabas3/fedlogin/internal/observability/logger"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// WriteError escribe err como JSON. Los 5xx se loguean con la causa.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	if appErr.HTTPStatus >= 500 {
		logger.L().Error("http error",
			logger.String("code", appErr.Code),
			logger.Status(appErr.HTTPStatus),
			logger.Err(appErr.Err),
		)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
	})
}
