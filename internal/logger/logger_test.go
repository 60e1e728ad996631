package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/garyellow/course-advisor-go/internal/ctxutil"
)

func TestNew(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		level string
		want  slog.Level
	}{
		{"Valid debug level", "debug", slog.LevelDebug},
		{"Valid info level", "info", slog.LevelInfo},
		{"Valid warn level", "warn", slog.LevelWarn},
		{"Warning alias", "warning", slog.LevelWarn},
		{"Upper case", "ERROR", slog.LevelError},
		{"Invalid level defaults to info", "invalid", slog.LevelInfo},
		{"Empty level defaults to info", "", slog.LevelInfo},
		{"Surrounding spaces", " debug ", slog.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			log := New(tt.level)
			if log == nil {
				t.Fatal("New() returned nil")
			}
			if got := log.GetLevel(); got != tt.want {
				t.Errorf("New(%q) level = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log %q: %v", buf.String(), err)
	}
	return entry
}

func TestLogger_JSONFormat(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.Warn("test message")

	entry := decode(t, &buf)
	for _, field := range []string{"timestamp", "level", "message"} {
		if _, ok := entry[field]; !ok {
			t.Errorf("JSON log missing required field %q", field)
		}
	}
	if entry["message"] != "test message" {
		t.Errorf("message = %v, want %q", entry["message"], "test message")
	}
	if entry["level"] != "warning" {
		t.Errorf("level = %v, want %q", entry["level"], "warning")
	}
}

func TestLogger_WithModule(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.WithModule("advisor").Info("test message")

	if module := decode(t, &buf)["module"]; module != "advisor" {
		t.Errorf("WithModule() module = %v, want %q", module, "advisor")
	}
}

func TestLogger_WithError(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.WithError(errors.New("generation failed")).Error("operation failed")

	if got := decode(t, &buf)["error"]; got != "generation failed" {
		t.Errorf("WithError() error = %v, want %q", got, "generation failed")
	}
}

func TestLogger_WithFields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := NewWithWriter("debug", &buf)

	log.WithFields(map[string]any{"chunks": 12, "source": "rebuilt"}).Debug("index ready")

	entry := decode(t, &buf)
	if entry["chunks"] != float64(12) {
		t.Errorf("chunks = %v, want 12", entry["chunks"])
	}
	if entry["source"] != "rebuilt" {
		t.Errorf("source = %v, want rebuilt", entry["source"])
	}
}

func TestLogger_ContextValues(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	ctx := ctxutil.WithUserID(context.Background(), "user_001")
	ctx = ctxutil.WithRequestID(ctx, "req-9")
	log.InfoContext(ctx, "turn handled")

	entry := decode(t, &buf)
	if entry["user_id"] != "user_001" {
		t.Errorf("user_id = %v, want user_001", entry["user_id"])
	}
	if entry["request_id"] != "req-9" {
		t.Errorf("request_id = %v, want req-9", entry["request_id"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := NewWithWriter("error", &buf)

	log.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info record should be filtered at error level, got %q", buf.String())
	}
}

func TestLogger_ShutdownWithoutRemote(t *testing.T) {
	t.Parallel()
	log := NewWithWriter("info", &bytes.Buffer{})
	if err := log.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v, want nil", err)
	}

	var nilLogger *Logger
	if err := nilLogger.Shutdown(context.Background()); err != nil {
		t.Errorf("nil Shutdown() error = %v, want nil", err)
	}
}
