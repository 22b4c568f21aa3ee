// Package log is a small structured-logging facade over zap, giving the
// refresh engine a single place to emit debug/info/warn lines without
// binding every call site to a concrete logger implementation.
package log

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field is a single structured logging attribute.
type Field = zapcore.Field

// String builds a string Field.
func String(key, value string) Field {
	return zap.String(key, value)
}

// Int builds an int Field.
func Int(key string, value int) Field {
	return zap.Int(key, value)
}

// Bool builds a bool Field.
func Bool(key string, value bool) Field {
	return zap.Bool(key, value)
}

// Duration builds a time.Duration Field.
func Duration(key string, value time.Duration) Field {
	return zap.Duration(key, value)
}

// Any builds a Field from an arbitrary value via reflection.
func Any(key string, value any) Field {
	return zap.Any(key, value)
}

// Cause builds a Field carrying an error under the conventional "error" key.
func Cause(err error) Field {
	return zap.NamedError("error", err)
}

// Logger is the narrow interface this package's package-level functions
// delegate to, letting callers substitute a test double via SetDefault.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Field)
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
}

// zapLogger adapts *zap.Logger to Logger, running every registered Hook
// over the context before each line so callers get correlation fields
// (e.g. a cache name) without threading them through every call site.
type zapLogger struct {
	base *zap.Logger

	mu    sync.RWMutex
	hooks []Hook
}

func newZapLogger(base *zap.Logger) *zapLogger {
	return &zapLogger{base: base}
}

func (l *zapLogger) hookFields(ctx context.Context, msg string) []Field {
	l.mu.RLock()
	hooks := l.hooks
	l.mu.RUnlock()

	var extra []Field

	for _, h := range hooks {
		extra = append(extra, h.Apply(ctx, msg)...)
	}

	return extra
}

func (l *zapLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.base.Debug(msg, append(fields, l.hookFields(ctx, msg)...)...)
}

func (l *zapLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.base.Info(msg, append(fields, l.hookFields(ctx, msg)...)...)
}

func (l *zapLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.base.Warn(msg, append(fields, l.hookFields(ctx, msg)...)...)
}

func (l *zapLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.base.Error(msg, append(fields, l.hookFields(ctx, msg)...)...)
}

// AddHook registers a Hook on the default logger, if it is a *zapLogger.
// This is a no-op against a caller-substituted Logger that doesn't expose
// hooks.
func AddHook(h Hook) {
	if zl, ok := defaultLogger.Load().(*zapLogger); ok {
		zl.mu.Lock()
		zl.hooks = append(zl.hooks, h)
		zl.mu.Unlock()
	}
}

var defaultLogger atomic.Value

func init() {
	base, err := zap.NewProduction()
	if err != nil {
		base = zap.NewNop()
	}

	defaultLogger.Store(newZapLogger(base))
}

// Default returns the process-wide Logger.
func Default() Logger {
	return defaultLogger.Load().(Logger) //nolint:forcetypeassert // invariant: only SetDefault stores into this.
}

// SetDefault replaces the process-wide Logger, e.g. with a *zap.Logger
// configured for development, or a test double.
func SetDefault(l Logger) {
	defaultLogger.Store(l)
}

// NewZap wraps an existing *zap.Logger as a Logger, preserving hook support.
func NewZap(base *zap.Logger) Logger {
	return newZapLogger(base)
}

func Debug(ctx context.Context, msg string, fields ...Field) { Default().Debug(ctx, msg, fields...) }
func Info(ctx context.Context, msg string, fields ...Field)  { Default().Info(ctx, msg, fields...) }
func Warn(ctx context.Context, msg string, fields ...Field)  { Default().Warn(ctx, msg, fields...) }
func Error(ctx context.Context, msg string, fields ...Field) { Default().Error(ctx, msg, fields...) }
