// SPDX-License-Identifier: MPL-2.0

// Package logging builds the run logger: a styled console logger and an
// optional plain per-run log file, both charmbracelet/log loggers behind one
// *slog.Logger.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/unnest/unnest/internal/clock"
)

// FileTimestampFormat is the timestamp embedded in log file names.
const FileTimestampFormat = "20060102_150405"

type (
	// Options configure New.
	Options struct {
		// Console receives styled output. Nil means os.Stderr.
		Console io.Writer
		// Level is one of debug, info, warn, error. Empty means info.
		Level string
		// Verbose forces debug level.
		Verbose bool
		// FileDir, when set, receives unnest_<timestamp>.log.
		FileDir string
		// Fs holds the log file. Nil means the OS filesystem.
		Fs    afero.Fs
		Clock clock.Clock
	}

	// Logger is the run logger. Close flushes and closes the log file.
	Logger struct {
		*slog.Logger
		file afero.File
		path string
	}
)

// FileName returns the log file name for a run started at t.
func FileName(t time.Time) string {
	return "unnest_" + t.Format(FileTimestampFormat) + ".log"
}

// ParseLevel maps a config level name to a charm log level.
func ParseLevel(name string, verbose bool) (log.Level, error) {
	if verbose {
		return log.DebugLevel, nil
	}
	if name == "" {
		return log.InfoLevel, nil
	}
	lvl, err := log.ParseLevel(name)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("log level %q: %w", name, err)
	}
	return lvl, nil
}

// New builds the run logger. When the log file cannot be created the error
// is returned and nothing is left open.
func New(opts Options) (*Logger, error) {
	level, err := ParseLevel(opts.Level, opts.Verbose)
	if err != nil {
		return nil, err
	}
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	consoleLogger := log.NewWithOptions(console, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})
	handlers := []slog.Handler{consoleLogger}

	l := &Logger{}
	if opts.FileDir != "" {
		l.path = filepath.Join(opts.FileDir, FileName(clock.OrReal(opts.Clock).Now()))
		f, err := fs.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("creating log file %s: %w", l.path, err)
		}
		l.file = f
		handlers = append(handlers, log.NewWithOptions(f, log.Options{
			Level:           level,
			ReportTimestamp: true,
			TimeFormat:      time.DateTime,
			Formatter:       log.TextFormatter,
		}))
	}

	l.Logger = slog.New(newFanout(handlers...))
	return l, nil
}

// Path is the log file path, or "" when no file is written.
func (l *Logger) Path() string {
	return l.path
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	if err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	return nil
}
