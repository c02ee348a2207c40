// Package logging builds the process logger from the log configuration.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	slogmulti "github.com/samber/slog-multi"

	"github.com/vango-dev/tide/internal/config"
)

// Logger is a slog.Logger whose level can change at runtime and which owns
// the log file it writes to.
type Logger struct {
	*slog.Logger

	level *slog.LevelVar
	file  *os.File
}

// New logs to w (stderr when nil) in cfg.Format, and additionally as JSON
// to cfg.File when set. Every handler shares one level.
func New(cfg config.LogConfig, w io.Writer) (*Logger, error) {
	if w == nil {
		w = os.Stderr
	}

	level := new(slog.LevelVar)
	if cfg.Level != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("logging: %w", err)
		}
		level.Set(l)
	}
	opts := &slog.HandlerOptions{Level: level}

	var handlers []slog.Handler
	switch cfg.Format {
	case "", "text":
		handlers = append(handlers, slog.NewTextHandler(w, opts))
	case "json":
		handlers = append(handlers, slog.NewJSONHandler(w, opts))
	default:
		return nil, fmt.Errorf("logging: unknown format %q", cfg.Format)
	}

	l := &Logger{level: level}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("logging: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("logging: %w", err)
		}
		l.file = f
		handlers = append(handlers, slog.NewJSONHandler(f, opts))
	}

	l.Logger = slog.New(slogmulti.Fanout(handlers...))
	return l, nil
}

// SetLevel changes the level of every handler.
func (l *Logger) SetLevel(level slog.Level) {
	l.level.Set(level)
}

// Level returns the current level.
func (l *Logger) Level() slog.Level {
	return l.level.Level()
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	if errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}
