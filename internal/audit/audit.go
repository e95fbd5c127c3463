// Package audit emite eventos de auditoría sobre el logger estructurado.
// Cada evento sale con component=audit para poder filtrarlo en el sink.
package audit

import (
	"context"

	"github.com/dropDatabas3/fedlogin/internal/observability/logger"
)

// Eventos emitidos por el broker de login y el logout.
const (
	EventAccountProvisioned = "account.provisioned"
	EventAccountLinked      = "account.linked"
	EventSessionEstablished = "session.established"
	EventSessionRevoked     = "session.revoked"
)

// Log writes one audit event using the request logger stored in ctx.
func Log(ctx context.Context, event string, fields ...logger.Field) {
	fs := make([]logger.Field, 0, len(fields)+2)
	fs = append(fs, logger.Component("audit"), logger.String("event", event))
	fs = append(fs, fields...)
	logger.From(ctx).Info("audit", fs...)
}
