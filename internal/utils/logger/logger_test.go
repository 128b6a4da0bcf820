package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestLoggerNeverNil(t *testing.T) {
	prev := global
	global = nil
	t.Cleanup(func() {
		global = prev
	})

	if Logger() == nil {
		t.Fatal("Logger returned nil before Init")
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"info", zapcore.InfoLevel},
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"ERROR", zapcore.ErrorLevel},
		{"  Debug ", zapcore.DebugLevel},
	}
	for _, c := range cases {
		got, err := parseLevel(c.in)
		if err != nil {
			t.Errorf("parseLevel(%q) failed: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("parseLevel(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseLevelRejectsUnknown(t *testing.T) {
	if _, err := parseLevel("chatty"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestSetLevel(t *testing.T) {
	if err := SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel failed: %v", err)
	}
	t.Cleanup(func() {
		_ = SetLevel("info")
	})
	if got := atom.Level(); got != zapcore.DebugLevel {
		t.Errorf("expected debug level after SetLevel, got %v", got)
	}
}
