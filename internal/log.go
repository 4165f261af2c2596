package internal

import (
	"sync"

	"go.uber.org/zap"
)

var (
	// Global logger instance
	globalLogger *zap.Logger
	loggerMutex  sync.RWMutex
)

// InitLogger initializes the global logger with the given configuration
func InitLogger(config *Config) error {
	logger, err := NewLogger(config)
	if err != nil {
		return err
	}

	loggerMutex.Lock()
	globalLogger = logger
	loggerMutex.Unlock()

	return nil
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	loggerMutex.RLock()
	defer loggerMutex.RUnlock()

	if globalLogger == nil {
		// Fall back to a no-op logger so library code can log before
		// InitLogger runs (tests, early startup errors).
		return zap.NewNop()
	}

	return globalLogger
}

// SyncLogger flushes any buffered log entries.
func SyncLogger() {
	loggerMutex.RLock()
	defer loggerMutex.RUnlock()

	if globalLogger != nil {
		_ = globalLogger.Sync()
	}
}

// Convenience functions for global logging

// LogError logs an error message using the global logger
func LogError(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// LogWarn logs a warning message using the global logger
func LogWarn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// LogInfo logs an info message using the global logger
func LogInfo(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// LogDebug logs a debug message using the global logger
func LogDebug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}
