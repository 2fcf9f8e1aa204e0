package logger

import (
	"context"
	"time"
)

type Field struct {
	Key   string
	Value any
}

func String(k, v string) Field                 { return Field{Key: k, Value: v} }
func Int(k string, v int) Field                { return Field{Key: k, Value: v} }
func Int64(k string, v int64) Field            { return Field{Key: k, Value: v} }
func Duration(k string, v time.Duration) Field { return Field{Key: k, Value: v} }
func Any(k string, v any) Field                { return Field{Key: k, Value: v} }
func WithError(err error) Field                { return Field{Key: "error", Value: err} }

// Logger is the logging contract the rest of the application depends on.
// The zap implementation is the production one; tests may swap in a fake
// to assert on emitted entries.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Field)
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
	With(fields ...Field) Logger
}

// Nop discards everything. Handy default for library consumers and tests.
func Nop() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...Field) {}
func (nopLogger) Info(context.Context, string, ...Field)  {}
func (nopLogger) Warn(context.Context, string, ...Field)  {}
func (nopLogger) Error(context.Context, string, ...Field) {}
func (nopLogger) With(...Field) Logger                    { return nopLogger{} }
