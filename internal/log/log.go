// Package log provides structured logging for Mindnoscape on top of zap.
package log

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"mindnoscape/workbook/internal/model"
)

// Fields carries structured key/value pairs for a log entry.
type Fields map[string]interface{}

type sessionKey struct{}

// WithSession returns a context whose log entries carry the given session id.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// Logger writes JSON log entries to the configured log file.
type Logger struct {
	zl    *zap.Logger
	level zap.AtomicLevel
	file  *os.File
}

// NewLogger creates a Logger writing to cfg.LogFolder/cfg.LogFile at the given level.
func NewLogger(cfg *model.Config, level LogLevel) (*Logger, error) {
	// Create log directory if it doesn't exist
	if err := os.MkdirAll(cfg.LogFolder, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logFilePath := filepath.Join(cfg.LogFolder, cfg.LogFile)
	file, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	atomic := zap.NewAtomicLevelAt(level.toZapLevel())
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(file), atomic)

	return &Logger{
		zl:    zap.New(core),
		level: atomic,
		file:  file,
	}, nil
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	return &Logger{zl: zap.NewNop(), level: zap.NewAtomicLevel()}
}

// NewWithCore wraps an existing zap core. Tests use it with zaptest/observer.
func NewWithCore(core zapcore.Core) *Logger {
	return &Logger{zl: zap.New(core), level: zap.NewAtomicLevelAt(zapcore.DebugLevel)}
}

// SetLevel changes the minimum level at runtime.
func (l *Logger) SetLevel(level LogLevel) {
	l.level.SetLevel(level.toZapLevel())
}

// Debug logs a debug message.
func (l *Logger) Debug(ctx context.Context, msg string, fields Fields) {
	l.log(ctx, zapcore.DebugLevel, msg, fields)
}

// Info logs an informational message.
func (l *Logger) Info(ctx context.Context, msg string, fields Fields) {
	l.log(ctx, zapcore.InfoLevel, msg, fields)
}

// Warn logs a warning.
func (l *Logger) Warn(ctx context.Context, msg string, fields Fields) {
	l.log(ctx, zapcore.WarnLevel, msg, fields)
}

// Error logs an error.
func (l *Logger) Error(ctx context.Context, msg string, fields Fields) {
	l.log(ctx, zapcore.ErrorLevel, msg, fields)
}

// Command records a user command as an info entry tagged with the COMMAND kind.
func (l *Logger) Command(ctx context.Context, command string) {
	l.log(ctx, zapcore.InfoLevel, "command", Fields{"command": command, "kind": LevelCommand.String()})
}

func (l *Logger) log(ctx context.Context, level zapcore.Level, msg string, fields Fields) {
	if l == nil || l.zl == nil {
		return
	}
	ce := l.zl.Check(level, msg)
	if ce == nil {
		return
	}
	ce.Write(toZapFields(ctx, fields)...)
}

func toZapFields(ctx context.Context, fields Fields) []zap.Field {
	zf := make([]zap.Field, 0, len(fields)+1)
	if ctx != nil {
		if id, ok := ctx.Value(sessionKey{}).(string); ok && id != "" {
			zf = append(zf, zap.String("session", id))
		}
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := fields[k]
		if err, ok := v.(error); ok {
			zf = append(zf, zap.NamedError(k, err))
			continue
		}
		zf = append(zf, zap.Any(k, v))
	}
	return zf
}

// Close flushes buffered entries and closes the log file.
func (l *Logger) Close() error {
	if l == nil || l.zl == nil {
		return nil
	}
	_ = l.zl.Sync()
	if l.file == nil {
		return nil
	}
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}
