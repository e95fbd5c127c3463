package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFrom_UsesContextLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := ToContext(context.Background(), zap.New(core).With(RequestID("rid-1")))

	From(ctx).Info("hello", Provider("google"))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["request_id"] != "rid-1" || fields["provider"] != "google" {
		t.Fatalf("unexpected fields: %v", fields)
	}
}

func TestFrom_FallsBackToGlobal(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	prev := L()
	Set(zap.New(core))
	t.Cleanup(func() { Set(prev) })

	From(context.Background()).Info("global")
	if logs.Len() != 1 {
		t.Fatalf("expected global logger to receive entry")
	}
}

func TestEmailMasked(t *testing.T) {
	f := EmailMasked("john.doe@example.com")
	if f.Key != "email_masked" || f.String != "j…@e….com" {
		t.Fatalf("unexpected field: %+v", f)
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel("DEBUG") != zapcore.DebugLevel || parseLevel("warning") != zapcore.WarnLevel || parseLevel("nope") != zapcore.InfoLevel {
		t.Fatal("parseLevel mismatch")
	}
}
