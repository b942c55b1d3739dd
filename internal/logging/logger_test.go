package logging_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/SanyCska/serials-bot/internal/logging"
)

func newBufferLogger(t *testing.T, format string, buf *bytes.Buffer) *slog.Logger {
	t.Helper()
	logger, err := logging.NewWithWriter(logging.Options{Level: "debug", Format: format}, buf)
	if err != nil {
		t.Fatalf("NewWithWriter returned error: %v", err)
	}
	return logger
}

func TestConsoleHandlerIncludesComponentPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(t, "console", &buf)
	component := logging.NewComponentLogger(logger, "reconciler")
	component.Info("cycle complete", logging.Int("series_checked", 3))

	out := buf.String()
	if !strings.Contains(out, "INFO reconciler: cycle complete") {
		t.Fatalf("unexpected console output: %q", out)
	}
	if !strings.Contains(out, "series_checked=3") {
		t.Fatalf("missing attribute in output: %q", out)
	}
}

func TestJSONHandlerLowercasesLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(t, "json", &buf)
	logger.Warn("provider unavailable")

	out := buf.String()
	if !strings.Contains(out, `"level":"warn"`) {
		t.Fatalf("unexpected json output: %q", out)
	}
	if !strings.Contains(out, `"msg":"provider unavailable"`) {
		t.Fatalf("missing message in output: %q", out)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("should not panic", logging.Error(nil))
}
