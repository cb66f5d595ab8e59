package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

const logFileName = "fitquest.log"

var (
	defaultLogger *slog.Logger
)

type requestIDKey struct{}

// Options controls where and how the global logger writes.
type Options struct {
	Level      string
	JSON       bool
	Dir        string // file output is enabled when set
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Init initializes the global logger with console output only.
func Init(level string, json bool) {
	Setup(Options{Level: level, JSON: json})
}

// Setup initializes the global logger. With Dir set, output is also written
// to a rotating file.
func Setup(o Options) {
	var w io.Writer = os.Stdout
	var file *lumberjack.Logger

	if dir := strings.TrimSpace(o.Dir); dir != "" {
		if err := os.MkdirAll(dir, 0755); err == nil {
			file = &lumberjack.Logger{
				Filename:   filepath.Join(dir, logFileName),
				MaxSize:    positive(o.MaxSizeMB, 50),
				MaxBackups: positive(o.MaxBackups, 5),
				MaxAge:     positive(o.MaxAgeDays, 14),
				Compress:   true,
			}
			w = io.MultiWriter(os.Stdout, file)
		}
	}

	defaultLogger = slog.New(newHandler(w, parseLevel(o.Level), o.JSON, file != nil))
	slog.SetDefault(defaultLogger)

	if file != nil {
		defaultLogger.Info("file logging enabled", "path", file.Filename)
	}
}

func newHandler(w io.Writer, level slog.Level, json, noColor bool) slog.Handler {
	if json {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
		AddSource:  true,
		NoColor:    noColor,
	})
}

func positive(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Get returns the default logger
func Get() *slog.Logger {
	if defaultLogger == nil {
		Init("info", false)
	}
	return defaultLogger
}

// ContextWithRequestID stores a request id for WithContext.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// WithContext returns a logger carrying the request id found in ctx, if any.
func WithContext(ctx context.Context) *slog.Logger {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return Get().With("request_id", id)
	}
	return Get()
}

// Info logs at info level
func Info(msg string, args ...any) {
	Get().Info(msg, args...)
}

// Debug logs at debug level
func Debug(msg string, args ...any) {
	Get().Debug(msg, args...)
}

// Warn logs at warn level
func Warn(msg string, args ...any) {
	Get().Warn(msg, args...)
}

// Error logs at error level
func Error(msg string, args ...any) {
	Get().Error(msg, args...)
}

// Fatal logs at error level and exits
func Fatal(msg string, args ...any) {
	Get().Error(msg, args...)
	os.Exit(1)
}

// With returns a logger with the given attributes
func With(args ...any) *slog.Logger {
	return Get().With(args...)
}
