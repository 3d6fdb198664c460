package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	initOnce sync.Once
	logger   *slog.Logger
	exitFunc = os.Exit
)

// L returns the shared application logger, initializing it on first use.
func L() *slog.Logger {
	initOnce.Do(func() {
		logger = slog.New(newHandler())
	})
	return logger
}

func newHandler() slog.Handler {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(os.Getenv("FUNNELSCOPE_LOG_LEVEL")),
		AddSource: strings.EqualFold(os.Getenv("FUNNELSCOPE_LOG_SOURCE"), "true"),
	}

	if jsonFormat() {
		return slog.NewJSONHandler(os.Stdout, opts)
	}
	// Text handler writes to stderr so command output on stdout stays clean.
	return slog.NewTextHandler(os.Stderr, opts)
}

func jsonFormat() bool {
	switch strings.ToLower(os.Getenv("FUNNELSCOPE_LOG_FORMAT")) {
	case "json", "structured":
		return true
	default:
		return false
	}
}

func parseLevel(value string) slog.Level {
	switch strings.ToLower(value) {
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

func zapLevel(level slog.Level) zapcore.Level {
	switch {
	case level <= slog.LevelDebug:
		return zapcore.DebugLevel
	case level >= slog.LevelError:
		return zapcore.ErrorLevel
	case level >= slog.LevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

// Zap builds the request logger used by the HTTP middleware. It honours the
// same level and format variables as L.
func Zap() *zap.Logger {
	level := zapLevel(parseLevel(os.Getenv("FUNNELSCOPE_LOG_LEVEL")))

	var cfg zap.Config
	if jsonFormat() {
		cfg = zap.NewProductionConfig()
		cfg.OutputPaths = []string{"stdout"}
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"stderr"}
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	z, err := cfg.Build()
	if err != nil {
		L().Warn("falling back to no-op request logger", "error", err)
		return zap.NewNop()
	}
	return z
}

// With returns a child logger with additional attributes.
func With(args ...any) *slog.Logger {
	return L().With(args...)
}

// Fatal logs the message at error level and exits with status 1.
func Fatal(msg string, args ...any) {
	L().Error(msg, args...)
	exitFunc(1)
}
