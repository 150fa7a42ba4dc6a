package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Output formats.
const (
	JSON = "json"
	TEXT = "text"
)

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Logger is a slog.Logger with a few conveniences the services share.
type Logger struct {
	*slog.Logger
}

type Config struct {
	Level     string // debug, info, warn or error; anything else means info
	Format    string // JSON (default) or TEXT
	Output    io.Writer
	AddSource bool
	Service   string
}

func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level), AddSource: cfg.AddSource}

	var handler slog.Handler = slog.NewJSONHandler(out, opts)
	if strings.EqualFold(cfg.Format, TEXT) {
		handler = slog.NewTextHandler(out, opts)
	}

	log := slog.New(handler)
	if cfg.Service != "" {
		log = log.With(slog.String("service", cfg.Service))
	}
	return &Logger{Logger: log}
}

// ParseLevel maps a level name to its slog level, defaulting to info.
func ParseLevel(name string) slog.Level {
	if level, ok := levels[strings.ToLower(strings.TrimSpace(name))]; ok {
		return level
	}
	return slog.LevelInfo
}

// Discard drops everything. Tests only.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))}
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Fatal logs at error level and exits with status 1.
func (l *Logger) Fatal(msg string, args ...any) {
	l.Error(msg, args...)
	os.Exit(1)
}
