package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"", InfoLevel, false},
		{"warning", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"loud", InfoLevel, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDefaultLoggerRoutesByLevel(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := NewDefaultLoggerWithWriters(&stdout, &stderr)

	logger.Debug("hidden")
	logger.Info("hello", Fields{"b": 2, "a": 1})
	logger.Error(errors.New("boom"), "failed")

	if strings.Contains(stdout.String(), "hidden") {
		t.Errorf("debug message written at info level: %q", stdout.String())
	}
	if got := stdout.String(); !strings.Contains(got, "[INFO] hello a=1 b=2") {
		t.Errorf("stdout = %q, want sorted fields", got)
	}
	if got := stderr.String(); !strings.Contains(got, "[ERROR] failed: boom") {
		t.Errorf("stderr = %q", got)
	}
}

func TestWithContextMergesFields(t *testing.T) {
	var stdout bytes.Buffer
	logger := NewDefaultLoggerWithWriters(&stdout, &stdout)

	ctx := ContextWithFields(context.Background(), Fields{"request_id": "r1"})
	ctx = ContextWithFields(ctx, Fields{"route": "/analyze"})

	logger.WithFields(Fields{"component": "server"}).WithContext(ctx).Info("handled")

	got := stdout.String()
	for _, want := range []string{"component=server", "request_id=r1", "route=/analyze"} {
		if !strings.Contains(got, want) {
			t.Errorf("log line %q missing %q", got, want)
		}
	}
}

func TestSetGlobalLoggerNil(t *testing.T) {
	prev := GetGlobalLogger()
	defer SetGlobalLogger(prev)

	SetGlobalLogger(nil)
	if _, ok := GetGlobalLogger().(*NoOpLogger); !ok {
		t.Fatalf("SetGlobalLogger(nil) should install a NoOpLogger, got %T", GetGlobalLogger())
	}
	Info("discarded")
}
