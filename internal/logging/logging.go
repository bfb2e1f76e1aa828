// Package logging builds the zerolog logger shared by the server, the wizard
// and the reviewer.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// New returns a timestamped logger. Development environments get the
// human-readable console writer, everything else writes JSON lines.
func New(env, level string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}
	if env == "development" {
		w = zerolog.ConsoleWriter{Out: w, NoColor: !isTerminal(w)}
	}
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

// DefaultFile is where the TUIs log, since they own the terminal.
func DefaultFile() string {
	return filepath.Join(os.TempDir(), "oeukintake.log")
}

// OpenFile opens path for appending. "-" and "" disable logging.
func OpenFile(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{io.Discard}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
