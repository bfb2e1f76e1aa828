package logging

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New("production", "info", &buf)

	l.Info().Str("path", "/health").Msg("request")
	l.Debug().Msg("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("Expected JSON output, got %q", lines[0])
	}
	if entry["message"] != "request" || entry["path"] != "/health" {
		t.Errorf("Unexpected entry %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Error("Expected a timestamp")
	}
}

func TestNewDevelopmentIsConsole(t *testing.T) {
	var buf bytes.Buffer
	l := New("development", "debug", &buf)
	l.Debug().Msg("navigated")

	out := buf.String()
	if !strings.Contains(out, "navigated") {
		t.Errorf("Expected message in output, got %q", out)
	}
	if strings.HasPrefix(out, "{") {
		t.Errorf("Expected console format, got JSON %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":  zerolog.DebugLevel,
		" WARN ": zerolog.WarnLevel,
		"error":  zerolog.ErrorLevel,
		"":       zerolog.InfoLevel,
		"loud":   zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q): expected %v, got %v", in, want, got)
		}
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wizard.log")
	w, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	if _, err := w.Write([]byte("x\n")); err != nil {
		t.Errorf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	d, err := OpenFile("-")
	if err != nil {
		t.Fatalf("OpenFile(-) failed: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
