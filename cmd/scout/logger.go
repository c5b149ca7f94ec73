package main

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/use-agent/scout/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// initLogger installs the default slog logger. Logs go to stderr, and also
// to a rotating file when cfg.File is set. The returned func closes that
// file.
func initLogger(cfg config.LogConfig) func() {
	if cfg.File == "" {
		slog.SetDefault(slog.New(newHandler(os.Stderr, cfg)))
		return func() {}
	}

	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
	slog.SetDefault(slog.New(newHandler(io.MultiWriter(os.Stderr, file), cfg)))
	return func() { file.Close() }
}

func newHandler(out io.Writer, cfg config.LogConfig) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.NewTextHandler(out, opts)
	}
	return slog.NewJSONHandler(out, opts)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
