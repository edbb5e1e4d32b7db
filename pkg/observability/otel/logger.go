package otel

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/trace"

	"github.com/JailtonJunior94/boardroom-go/pkg/observability"
)

// otelLogger writes every entry twice: to a slog handler for the console and
// to the OTLP log pipeline. Sensitive fields are redacted before either sink.
type otelLogger struct {
	otelLog     otellog.Logger
	slogLogger  *slog.Logger
	serviceName string
	fields      []observability.Field
}

func newOtelLogger(
	level observability.LogLevel,
	format observability.LogFormat,
	serviceName string,
	otelLog otellog.Logger,
	output io.Writer,
) *otelLogger {
	return &otelLogger{
		otelLog:     otelLog,
		slogLogger:  createSlogLogger(level, format, output),
		serviceName: serviceName,
	}
}

func createSlogLogger(level observability.LogLevel, format observability.LogFormat, output io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: convertLogLevel(level)}
	if format == observability.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(output, opts))
	}
	return slog.New(slog.NewTextHandler(output, opts))
}

func convertLogLevel(level observability.LogLevel) slog.Level {
	switch level {
	case observability.LogLevelDebug:
		return slog.LevelDebug
	case observability.LogLevelWarn:
		return slog.LevelWarn
	case observability.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *otelLogger) Debug(ctx context.Context, msg string, fields ...observability.Field) {
	l.log(ctx, slog.LevelDebug, msg, fields)
}

func (l *otelLogger) Info(ctx context.Context, msg string, fields ...observability.Field) {
	l.log(ctx, slog.LevelInfo, msg, fields)
}

func (l *otelLogger) Warn(ctx context.Context, msg string, fields ...observability.Field) {
	l.log(ctx, slog.LevelWarn, msg, fields)
}

func (l *otelLogger) Error(ctx context.Context, msg string, fields ...observability.Field) {
	l.log(ctx, slog.LevelError, msg, fields)
}

func (l *otelLogger) With(fields ...observability.Field) observability.Logger {
	merged := make([]observability.Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &otelLogger{
		otelLog:     l.otelLog,
		slogLogger:  l.slogLogger,
		serviceName: l.serviceName,
		fields:      merged,
	}
}

func (l *otelLogger) log(ctx context.Context, level slog.Level, msg string, fields []observability.Field) {
	if !l.slogLogger.Enabled(ctx, level) {
		return
	}

	all := make([]observability.Field, 0, len(l.fields)+len(fields)+3)
	all = append(all, l.fields...)
	all = append(all, fields...)

	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		all = append(all,
			observability.String("trace_id", sc.TraceID().String()),
			observability.String("span_id", sc.SpanID().String()),
		)
	}
	all = append(all, observability.String("service", l.serviceName))
	all = observability.Redact(all)

	attrs := make([]slog.Attr, len(all))
	for i, field := range all {
		attrs[i] = convertFieldToSlogAttr(field)
	}
	l.slogLogger.LogAttrs(ctx, level, msg, attrs...)

	if l.otelLog != nil {
		l.emitOTLPLog(ctx, level, msg, all)
	}
}

func (l *otelLogger) emitOTLPLog(ctx context.Context, level slog.Level, msg string, fields []observability.Field) {
	record := otellog.Record{}
	record.SetTimestamp(time.Now())
	record.SetBody(otellog.StringValue(msg))
	record.SetSeverity(convertSlogLevelToOTel(level))
	record.SetSeverityText(level.String())
	for _, field := range fields {
		record.AddAttributes(convertFieldToOTelAttr(field))
	}
	l.otelLog.Emit(ctx, record)
}

func convertSlogLevelToOTel(level slog.Level) otellog.Severity {
	switch level {
	case slog.LevelDebug:
		return otellog.SeverityDebug
	case slog.LevelWarn:
		return otellog.SeverityWarn
	case slog.LevelError:
		return otellog.SeverityError
	default:
		return otellog.SeverityInfo
	}
}

func convertFieldToOTelAttr(field observability.Field) otellog.KeyValue {
	switch v := field.Value.(type) {
	case string:
		return otellog.String(field.Key, v)
	case int:
		return otellog.Int(field.Key, v)
	case int64:
		return otellog.Int64(field.Key, v)
	case float64:
		return otellog.Float64(field.Key, v)
	case bool:
		return otellog.Bool(field.Key, v)
	case error:
		return otellog.String(field.Key, v.Error())
	default:
		return otellog.String(field.Key, fmt.Sprint(v))
	}
}

func convertFieldToSlogAttr(field observability.Field) slog.Attr {
	switch v := field.Value.(type) {
	case string:
		return slog.String(field.Key, v)
	case int:
		return slog.Int(field.Key, v)
	case int64:
		return slog.Int64(field.Key, v)
	case float64:
		return slog.Float64(field.Key, v)
	case bool:
		return slog.Bool(field.Key, v)
	case error:
		return slog.String(field.Key, v.Error())
	default:
		return slog.Any(field.Key, v)
	}
}
