// Package logging initializes the process-wide structured logger.
// Level and format are controlled by LOG_LEVEL and LOG_FORMAT (json|console).
package logging

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger *zap.SugaredLogger
	once   sync.Once
)

// Init builds the global logger from environment variables. Safe to call
// more than once; only the first call takes effect.
func Init() {
	once.Do(func() {
		cfg := zap.NewProductionConfig()
		if strings.EqualFold(os.Getenv("LOG_FORMAT"), "console") {
			cfg = zap.NewDevelopmentConfig()
		}
		cfg.Level = zap.NewAtomicLevelAt(parseLevel(os.Getenv("LOG_LEVEL")))
		base, err := cfg.Build()
		if err != nil {
			base = zap.NewNop()
		}
		logger = base.Sugar()
	})
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARN":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// L returns the global sugared logger, initializing with defaults if the
// caller skipped Init (tests do).
func L() *zap.SugaredLogger {
	if logger == nil {
		Init()
	}
	return logger
}

// Sync flushes buffered log entries. Called on shutdown.
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
