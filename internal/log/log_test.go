package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q): got %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetCapturesOutput(t *testing.T) {
	prev := L()
	defer Set(prev)

	var buf bytes.Buffer
	Set(New(&buf, "info", false))

	Debug("hidden")
	Info("entry accepted", "modality", "voice")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line written at info level: %q", out)
	}
	if !strings.Contains(out, "modality=voice") {
		t.Errorf("missing attribute in %q", out)
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "debug", true)
	l.Debug("sample dropped", "confidence", 0.4)
	if !strings.Contains(buf.String(), `"confidence":0.4`) {
		t.Errorf("expected JSON attribute, got %q", buf.String())
	}
}
