package logging

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type captureWriter struct {
	lines []string
}

func (w *captureWriter) Write(p []byte) (int, error) {
	w.lines = append(w.lines, string(p))
	return len(p), nil
}

func TestConsoleHandlerFormatsLine(t *testing.T) {
	out := &captureWriter{}
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(out, lvl))

	logger = WithComponent(logger, "workflow")
	logger.Info("converted session",
		slog.String(FieldSubject, "ER0009"),
		slog.String(FieldSession, "ses-day2"),
	)

	if len(out.lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(out.lines))
	}
	line := out.lines[0]
	for _, want := range []string{"INFO", "workflow: converted session", "subject=ER0009", "session=ses-day2"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
}

func TestConsoleHandlerLevelFilter(t *testing.T) {
	out := &captureWriter{}
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelWarn)
	handler := newConsoleHandler(out, lvl)

	if handler.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("info should be filtered at warn level")
	}
	if !handler.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("error should pass at warn level")
	}
}

func TestConsoleHandlerGroups(t *testing.T) {
	out := &captureWriter{}
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(out, lvl)).WithGroup("convert")

	logger.Warn("tool exited", slog.Int("code", 3))
	if len(out.lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(out.lines))
	}
	if !strings.Contains(out.lines[0], "convert.code=3") {
		t.Errorf("expected grouped key, got %q", out.lines[0])
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
		" Debug ": slog.LevelDebug,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFormatValue(t *testing.T) {
	if got := formatValue(slog.StringValue("plain")); got != "plain" {
		t.Errorf("plain string should not be quoted, got %q", got)
	}
	if got := formatValue(slog.StringValue("two words")); got != `"two words"` {
		t.Errorf("spaced string should be quoted, got %q", got)
	}
	if got := formatValue(slog.DurationValue(2 * time.Second)); got != "2s" {
		t.Errorf("duration format: %q", got)
	}
}
