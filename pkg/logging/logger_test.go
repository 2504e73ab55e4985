package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrefixWriter(t *testing.T) {
	var out bytes.Buffer
	pw := NewPrefixWriter(">> ", &out)

	// Partial writes buffer until a newline arrives.
	if _, err := pw.Write([]byte("first ")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("incomplete line flushed early: %q", out.String())
	}
	if _, err := pw.Write([]byte("line\nsecond line\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	want := ">> first line\n>> second line\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestNewLoggerWritesPrefix(t *testing.T) {
	t.Setenv("MODEMPACK_JSON_LOG", "")

	var out bytes.Buffer
	logger := NewLogger("arch", "debug", &out)
	logger.Info("archive accepted", "kind", "Application")

	if !strings.Contains(out.String(), "📡 ") {
		t.Errorf("log line missing prefix: %q", out.String())
	}
	if !strings.Contains(out.String(), "archive accepted") {
		t.Errorf("log line missing message: %q", out.String())
	}
}

func TestNewLoggerJSONFormat(t *testing.T) {
	t.Setenv("MODEMPACK_JSON_LOG", "1")

	var out bytes.Buffer
	logger := NewLogger("arch", "debug", &out)
	logger.Info("archive accepted")

	line := out.String()
	if !strings.HasPrefix(line, "{") {
		t.Errorf("JSON mode output = %q, want a JSON object", line)
	}
	if strings.Contains(line, "📡") {
		t.Error("JSON mode output carries the text-mode prefix")
	}
}

func TestDefaultLoggerHonorsEnv(t *testing.T) {
	t.Setenv("MODEMPACK_JSON_LOG", "")
	t.Setenv("MODEMPACK_LOG_LEVEL", "debug")

	logger := Default("arch")
	if logger.Name() != "arch" {
		t.Errorf("logger name = %q, want arch", logger.Name())
	}
	if !logger.IsDebug() {
		t.Error("MODEMPACK_LOG_LEVEL=debug not honored by the default logger")
	}
}

func TestGetLogLevel(t *testing.T) {
	t.Setenv("MODEMPACK_LOG_LEVEL", "")
	if got := GetLogLevel(); got != "warn" {
		t.Errorf("default level = %q, want warn", got)
	}

	t.Setenv("MODEMPACK_LOG_LEVEL", "debug")
	if got := GetLogLevel(); got != "debug" {
		t.Errorf("level = %q, want debug", got)
	}
}
