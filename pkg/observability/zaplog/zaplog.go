// Package zaplog adapts a *zap.Logger to observability.Logger.
package zaplog

import (
	"context"
	"io"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/JailtonJunior94/boardroom-go/pkg/observability"
)

type Logger struct {
	zl *zap.Logger
}

func New(zl *zap.Logger) *Logger {
	if zl == nil {
		zl = zap.NewNop()
	}
	return &Logger{zl: zl}
}

// NewJSON writes production-encoded JSON entries to w.
func NewJSON(w io.Writer, level observability.LogLevel) *Logger {
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), zap.NewAtomicLevelAt(toZapLevel(level)))
	return New(zap.New(core))
}

// NewConsole writes human-readable entries to w.
func NewConsole(w io.Writer, level observability.LogLevel) *Logger {
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), zap.NewAtomicLevelAt(toZapLevel(level)))
	return New(zap.New(core))
}

func (l *Logger) Zap() *zap.Logger {
	return l.zl
}

func (l *Logger) Sync() error {
	return l.zl.Sync()
}

func (l *Logger) Debug(ctx context.Context, msg string, fields ...observability.Field) {
	l.log(ctx, zapcore.DebugLevel, msg, fields)
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...observability.Field) {
	l.log(ctx, zapcore.InfoLevel, msg, fields)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields ...observability.Field) {
	l.log(ctx, zapcore.WarnLevel, msg, fields)
}

func (l *Logger) Error(ctx context.Context, msg string, fields ...observability.Field) {
	l.log(ctx, zapcore.ErrorLevel, msg, fields)
}

func (l *Logger) With(fields ...observability.Field) observability.Logger {
	return &Logger{zl: l.zl.With(toZapFields(observability.Redact(fields))...)}
}

func (l *Logger) log(ctx context.Context, level zapcore.Level, msg string, fields []observability.Field) {
	ce := l.zl.Check(level, msg)
	if ce == nil {
		return
	}

	zf := toZapFields(observability.Redact(fields))
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		zf = append(zf,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	ce.Write(zf...)
}

func toZapFields(fields []observability.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields)+2)
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			out = append(out, zap.String(f.Key, v))
		case int:
			out = append(out, zap.Int(f.Key, v))
		case int64:
			out = append(out, zap.Int64(f.Key, v))
		case float64:
			out = append(out, zap.Float64(f.Key, v))
		case bool:
			out = append(out, zap.Bool(f.Key, v))
		case error:
			out = append(out, zap.NamedError(f.Key, v))
		default:
			out = append(out, zap.Any(f.Key, v))
		}
	}
	return out
}

func toZapLevel(level observability.LogLevel) zapcore.Level {
	switch level {
	case observability.LogLevelDebug:
		return zapcore.DebugLevel
	case observability.LogLevelWarn:
		return zapcore.WarnLevel
	case observability.LogLevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
