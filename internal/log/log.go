package log

import "sync/atomic"

// defaultLogger backs the package level functions.  Nothing is logged while it is unset.
var defaultLogger atomic.Pointer[Logger]

// SetDefaultLogger sets the logger used by the package level functions.  Passing nil turns them into no-ops.
func SetDefaultLogger(logger *Logger) {
	defaultLogger.Store(logger)
}

// DefaultLogger returns the current default logger, nil when none is set
func DefaultLogger() *Logger {
	return defaultLogger.Load()
}

// Debug logs at debug level using the default logger
func Debug(msg string, args ...any) {
	if logger := DefaultLogger(); logger != nil {
		logger.Debug(msg, args...)
	}
}

// Info logs at info level using the default logger
func Info(msg string, args ...any) {
	if logger := DefaultLogger(); logger != nil {
		logger.Info(msg, args...)
	}
}

// Warn logs at warn level using the default logger
func Warn(msg string, args ...any) {
	if logger := DefaultLogger(); logger != nil {
		logger.Warn(msg, args...)
	}
}

// Error logs at error level using the default logger
func Error(msg string, args ...any) {
	if logger := DefaultLogger(); logger != nil {
		logger.Error(msg, args...)
	}
}

// Trace logs through the default logger's trace level.  See (*Logger).Trace.
func Trace(msg string, args ...any) {
	if logger := DefaultLogger(); logger != nil {
		logger.Trace(msg, args...)
	}
}
