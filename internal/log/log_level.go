// Package log provides structured logging for Mindnoscape on top of zap.
package log

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// LogLevel represents the type and severity of a log message
type LogLevel int

const (
	LevelCommand LogLevel = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
)

// String returns the string representation of the LogLevel
func (l LogLevel) String() string {
	switch l {
	case LevelCommand:
		return "COMMAND"
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config value ("debug", "info", ...) to a LogLevel. Unknown values
// fall back to LevelInfo.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// toZapLevel converts our custom LogLevel to a zap level
func (l LogLevel) toZapLevel() zapcore.Level {
	switch l {
	case LevelCommand:
		return zapcore.InfoLevel
	case LevelError:
		return zapcore.ErrorLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelInfo:
		return zapcore.InfoLevel
	case LevelDebug:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}
