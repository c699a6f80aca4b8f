package config

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var globalLogger *zap.Logger

// InitLogger собирает zap-логгер нужного уровня; неизвестный уровень — info.
func InitLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()

	var lvl zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = zap.DebugLevel
	case "warn", "warning":
		lvl = zap.WarnLevel
	case "error":
		lvl = zap.ErrorLevel
	default:
		lvl = zap.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	globalLogger = logger
	return logger, nil
}

// Cleanup flushes buffered log entries.
func Cleanup() {
	if globalLogger != nil {
		_ = globalLogger.Sync()
	}
}
