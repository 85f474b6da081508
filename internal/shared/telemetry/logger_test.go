package telemetry

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLevelsAndFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	restore := SetLogger(zap.New(core))
	defer restore()

	Info("session.created", map[string]any{"session_id": "s-1", "template": "modern"})
	Warn("session.evicted", nil)
	Error("render.failed", map[string]any{"err": errors.New("boom")})

	entries := observed.All()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Level != zapcore.InfoLevel || entries[0].Message != "session.created" {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	ctx := entries[0].ContextMap()
	if ctx["session_id"] != "s-1" || ctx["template"] != "modern" {
		t.Fatalf("unexpected fields: %v", ctx)
	}
	if entries[1].Level != zapcore.WarnLevel {
		t.Fatalf("expected warn, got %v", entries[1].Level)
	}
	if got := entries[2].ContextMap()["err"]; got != "boom" {
		t.Fatalf("expected err field boom, got %v", got)
	}
}

func TestSetLoggerRestores(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	restore := SetLogger(zap.New(core))
	restore()

	Info("after.restore", nil)
	if observed.Len() != 0 {
		t.Fatalf("expected restored logger to be used, got %d entries on observer", observed.Len())
	}
}
