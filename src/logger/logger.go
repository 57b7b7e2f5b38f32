// Package logger provides structured logging for azdo-mcp.
//
// Log lines go to a rolling file and to stderr. Stdout is never written to:
// the MCP stdio transport owns it.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the name of the rolling log file inside the log directory.
const FileName = "azdo-mcp.log"

// Logger wraps slog.Logger with component helpers.
type Logger struct {
	*slog.Logger
}

// Options configures New.
type Options struct {
	// Dir is the directory for the rolling log file. Empty disables the file sink.
	Dir string
	// Level is one of debug, info, warn, error. Unknown values mean debug.
	Level string
	// Console receives a copy of every line. Defaults to os.Stderr.
	Console io.Writer
}

// New creates a Logger writing to a rolling file and the console.
// The returned function closes the file sink.
func New(opts Options) (*Logger, func() error, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	closer := func() error { return nil }
	w := console

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, closer, err
		}
		file := &lumberjack.Logger{
			Filename:  filepath.Join(opts.Dir, FileName),
			MaxSize:   10, // megabytes
			MaxAge:    7,  // days
			LocalTime: true,
		}
		closer = file.Close
		w = io.MultiWriter(file, console)
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(opts.Level)})
	return &Logger{Logger: slog.New(handler)}, closer, nil
}

// NewConsole creates a Logger that writes to stderr only.
// Used by the one-shot CLI subcommands.
func NewConsole(level string) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: ParseLevel(level)})
	return &Logger{Logger: slog.New(handler)}
}

// Discard creates a Logger that drops everything.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// WithComponent returns a new Logger with the component field.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.Logger.With("component", component)}
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}
