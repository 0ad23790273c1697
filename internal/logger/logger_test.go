package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestNewProvidesJSONLogger(t *testing.T) {
	l := New("info")
	if l == nil {
		t.Fatal("expected logger, got nil")
	}

	if !l.Enabled(context.Background(), slog.LevelInfo) {
		t.Errorf("expected info level to be enabled")
	}
	if l.Enabled(context.Background(), slog.LevelDebug) {
		t.Errorf("did not expect debug level to be enabled")
	}

	if _, ok := l.Handler().(*slog.JSONHandler); !ok {
		t.Fatalf("expected JSON handler, got %T", l.Handler())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		" warn ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("expected %q to parse as %v, got %v", in, want, got)
		}
	}
}

func TestLoggerTagsService(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "debug")
	l.Debug("order claimed", slog.String("order", "A1"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["service"] != serviceName {
		t.Fatalf("expected service %q, got %v", serviceName, entry["service"])
	}
	if entry["order"] != "A1" {
		t.Fatalf("expected order attribute, got %v", entry["order"])
	}
	if entry["level"] != "DEBUG" {
		t.Fatalf("expected debug level, got %v", entry["level"])
	}
}
