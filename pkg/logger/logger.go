package logger

import (
	"context"

	"go.uber.org/zap"
)

type fieldsKeyType struct{}

// FieldsKey 上下文日志字段的 key
var FieldsKey = fieldsKeyType{}

// ContextWithFields 将日志字段附加到上下文, 后续带 Context 的日志调用会自动携带
func ContextWithFields(ctx context.Context, fields ...Field) context.Context {
	if existing, ok := ctx.Value(FieldsKey).([]Field); ok {
		merged := make([]Field, 0, len(existing)+len(fields))
		merged = append(merged, existing...)
		merged = append(merged, fields...)
		return context.WithValue(ctx, FieldsKey, merged)
	}
	return context.WithValue(ctx, FieldsKey, fields)
}

func fieldsFromContext(ctx context.Context) []Field {
	if ctx == nil {
		return nil
	}
	if fields, ok := ctx.Value(FieldsKey).([]Field); ok {
		return fields
	}
	return nil
}

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	DebugContext(ctx context.Context, msg string, fields ...Field)
	InfoContext(ctx context.Context, msg string, fields ...Field)
	WarnContext(ctx context.Context, msg string, fields ...Field)
	ErrorContext(ctx context.Context, msg string, fields ...Field)
}

type ZapLogger struct {
	l *zap.Logger
}

var _ Logger = (*ZapLogger)(nil)

func NewZapLogger(l *zap.Logger) *ZapLogger {
	return &ZapLogger{l: l}
}

func (z *ZapLogger) Debug(msg string, fields ...Field) {
	z.l.Debug(msg, fields...)
}

func (z *ZapLogger) Info(msg string, fields ...Field) {
	z.l.Info(msg, fields...)
}

func (z *ZapLogger) Warn(msg string, fields ...Field) {
	z.l.Warn(msg, fields...)
}

func (z *ZapLogger) Error(msg string, fields ...Field) {
	z.l.Error(msg, fields...)
}

func (z *ZapLogger) DebugContext(ctx context.Context, msg string, fields ...Field) {
	z.l.Debug(msg, append(fieldsFromContext(ctx), fields...)...)
}

func (z *ZapLogger) InfoContext(ctx context.Context, msg string, fields ...Field) {
	z.l.Info(msg, append(fieldsFromContext(ctx), fields...)...)
}

func (z *ZapLogger) WarnContext(ctx context.Context, msg string, fields ...Field) {
	z.l.Warn(msg, append(fieldsFromContext(ctx), fields...)...)
}

func (z *ZapLogger) ErrorContext(ctx context.Context, msg string, fields ...Field) {
	z.l.Error(msg, append(fieldsFromContext(ctx), fields...)...)
}
