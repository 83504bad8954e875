package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func captureLogger(buf *bytes.Buffer, component string) *Logger {
	return New(Config{
		Level:     slog.LevelDebug,
		Component: component,
		Handler:   slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})
}

func TestComponentAttachedOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := captureLogger(&buf, "app")

	logger.WithComponent("sync-processor").Info("batch done", "count", 3)

	line := buf.String()
	if got := strings.Count(line, "component="); got != 1 {
		t.Errorf("component attribute appears %d times, want 1: %s", got, line)
	}
	if !strings.Contains(line, "component=sync-processor") {
		t.Errorf("missing scoped component: %s", line)
	}
	if !strings.Contains(line, "count=3") {
		t.Errorf("missing record attributes: %s", line)
	}
}

func TestWithComponentScopesWithoutMutating(t *testing.T) {
	var buf bytes.Buffer
	logger := captureLogger(&buf, "app")

	scoped := logger.WithComponent("http")
	if scoped.Component() != "http" {
		t.Errorf("scoped Component() = %q, want http", scoped.Component())
	}
	if logger.Component() != "app" {
		t.Errorf("parent Component() = %q, want app", logger.Component())
	}

	logger.Warn("still the parent")
	if !strings.Contains(buf.String(), "component=app") {
		t.Errorf("parent record: %s", buf.String())
	}
}

func TestWithKeepsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := captureLogger(&buf, "worker").With("request_id", "req_1")

	logger.Error("boom")

	line := buf.String()
	if !strings.Contains(line, "component=worker") {
		t.Errorf("missing component: %s", line)
	}
	if !strings.Contains(line, "request_id=req_1") {
		t.Errorf("missing carried attribute: %s", line)
	}
	if got := strings.Count(line, "component="); got != 1 {
		t.Errorf("component attribute appears %d times, want 1: %s", got, line)
	}
}
