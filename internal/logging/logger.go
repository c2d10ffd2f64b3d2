package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// LogFileName is the daemon log written inside paths.log_dir.
const LogFileName = "cutout.log"

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// Console receives human or JSON output depending on Format. Nil means stdout.
	Console io.Writer
	// FilePath, when set, receives JSON lines regardless of Format.
	FilePath    string
	Development bool
}

// New builds a logger writing to the console in the requested format and,
// when FilePath is set, JSON lines to that file.
func New(opts Options) (*slog.Logger, error) {
	level := new(slog.LevelVar)
	level.Set(parseLevel(opts.Level))
	addSource := opts.Development || level.Level() <= slog.LevelDebug

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	var consoleHandler slog.Handler
	switch format := strings.ToLower(strings.TrimSpace(opts.Format)); format {
	case "", "console":
		consoleHandler = newConsoleHandler(console, level, addSource)
	case "json":
		consoleHandler = newJSONHandler(console, level, addSource)
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	path := strings.TrimSpace(opts.FilePath)
	if path == "" {
		return slog.New(consoleHandler), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return slog.New(tee(consoleHandler, newJSONHandler(file, level, addSource))), nil
}

func parseLevel(level string) slog.Level {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "warning":
		return slog.LevelWarn
	case "":
		return slog.LevelInfo
	default:
		if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
			return slog.LevelInfo
		}
		return lvl
	}
}
