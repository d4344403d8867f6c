package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Service string
	Level   string
	// File, when set, receives a rotated copy of every record.
	File string
	// Console defaults to stdout; stdio servers pass stderr.
	Console io.Writer
}

func NewJSONLogger(service, level string) *slog.Logger {
	return New(Options{Service: service, Level: level})
}

func New(opts Options) *slog.Logger {
	handler := slog.NewJSONHandler(output(opts), &slog.HandlerOptions{
		Level: parseLevel(opts.Level),
	})
	return slog.New(handler).With("service", opts.Service)
}

func output(opts Options) io.Writer {
	console := opts.Console
	if console == nil {
		console = os.Stdout
	}
	file := strings.TrimSpace(opts.File)
	if file == "" {
		return console
	}
	return io.MultiWriter(console, &lumberjack.Logger{
		Filename:   file,
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     14,
		Compress:   true,
	})
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
