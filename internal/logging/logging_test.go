package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"":        zapcore.InfoLevel,
		"DEBUG":   zapcore.DebugLevel,
		" warn ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("trace"); err == nil {
		t.Error("expected error for trace")
	}
}

func TestNewDebugOverride(t *testing.T) {
	log, err := New("error", true)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = log.Sync() }()
	if !log.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug flag should enable debug level")
	}
	quiet, err := New("error", false)
	if err != nil {
		t.Fatal(err)
	}
	if quiet.Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn should be disabled at error level")
	}
}
