package config

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLevel converts a case-insensitive level name to a zap level.
// An empty string means info.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q (valid: debug, info, warn, error)", s)
	}
}

// NewLogger builds the process logger from the log settings.
func NewLogger(lc LogConfig) (*zap.Logger, error) {
	level, err := ParseLevel(lc.Level)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if strings.EqualFold(lc.Format, "console") {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
