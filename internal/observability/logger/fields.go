package logger

import (
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/fedlogin/internal/util"
)

// Field es un alias para no importar zap en cada paquete.
type Field = zap.Field

// ─── HTTP ───

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }
func ClientIP(v string) zap.Field  { return zap.String("client_ip", v) }
func Bytes(v int) zap.Field        { return zap.Int("bytes", v) }

// DurationMs registra la duración en milisegundos.
func DurationMs(d time.Duration) zap.Field { return zap.Int64("duration_ms", d.Milliseconds()) }

// ─── Login ───

func Provider(v string) zap.Field  { return zap.String("provider", v) }
func AccountID(v string) zap.Field { return zap.String("account_id", v) }
func Reason(v string) zap.Field    { return zap.String("reason", v) }
func Decision(v string) zap.Field  { return zap.String("decision", v) }
func State(v string) zap.Field     { return zap.String("state", v) }

// EmailMasked nunca expone el email completo.
func EmailMasked(email string) zap.Field { return zap.String("email_masked", util.MaskEmail(email)) }

// ─── Sistema ───

// Layer: controller, service, repository.
func Layer(v string) zap.Field     { return zap.String("layer", v) }
func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }
func Err(err error) zap.Field      { return zap.Error(err) }

func String(key, v string) zap.Field  { return zap.String(key, v) }
func Int(key string, v int) zap.Field { return zap.Int(key, v) }
func Bool(key string, v bool) zap.Field {
	return zap.Bool(key, v)
}
func Any(key string, v any) zap.Field { return zap.Any(key, v) }
