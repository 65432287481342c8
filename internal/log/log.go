// Package log builds the structured loggers used across jsync.
//
// Terminal output goes through a tint handler; JSON output is available for
// running the watcher under a supervisor.
package log

import (
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// Format selects the handler used for log output.
type Format string

const (
	// FormatText renders colored, human-readable lines.
	FormatText Format = "text"
	// FormatJSON renders one JSON object per line.
	FormatJSON Format = "json"
)

// Config controls logger construction.
type Config struct {
	// Verbosity is the -v count: 0 warn, 1 info, 2 or more debug.
	Verbosity int
	// Format is the output format (default text).
	Format Format
	// Output is where logs are written (default stderr).
	Output io.Writer
}

// LevelFromVerbosity converts a -v count into a slog level.
func LevelFromVerbosity(v int) slog.Level {
	switch {
	case v <= 0:
		return slog.LevelWarn
	case v == 1:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// ParseFormat maps a user-supplied format name to a Format, defaulting to text.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), string(FormatJSON)) {
		return FormatJSON
	}
	return FormatText
}

// New creates a logger for the given configuration.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	lvl := LevelFromVerbosity(cfg.Verbosity)

	if cfg.Format == FormatJSON {
		return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lvl}))
	}

	return slog.New(tint.NewHandler(out, &tint.Options{
		Level:      lvl,
		NoColor:    runtime.GOOS == "windows" || !isTerminal(out),
		AddSource:  lvl <= slog.LevelDebug,
		TimeFormat: "15:04:05.000",
	}))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}
