package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/demonshower/BFTBrain/internal/domain"
	"github.com/demonshower/BFTBrain/internal/infrastructure/logger/formatters"
)

// StructuredLogger wraps logrus to implement domain.Logger interface.
type StructuredLogger struct {
	logger *logrus.Logger
	fields logrus.Fields
}

// NewStructuredLogger creates a structured logger writing to stdout.
func NewStructuredLogger(level, format string) domain.Logger {
	return NewStructuredLoggerWithOutput(level, format, os.Stdout)
}

// NewStructuredLoggerWithOutput creates a structured logger writing to out.
func NewStructuredLoggerWithOutput(level, format string, out io.Writer) domain.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(parseLevel(level))
	logger.SetFormatter(newFormatter(domain.LogFormat(format)))

	return &StructuredLogger{
		logger: logger,
		fields: make(logrus.Fields),
	}
}

func parseLevel(level string) logrus.Level {
	switch domain.LogLevel(level) {
	case domain.LogLevelDebug:
		return logrus.DebugLevel
	case domain.LogLevelWarn:
		return logrus.WarnLevel
	case domain.LogLevelError:
		return logrus.ErrorLevel
	case domain.LogLevelInfo:
		return logrus.InfoLevel
	default:
		return logrus.InfoLevel
	}
}

func newFormatter(format domain.LogFormat) logrus.Formatter {
	switch format {
	case domain.LogFormatLogFmt:
		return formatters.NewLogFmtFormatter()
	case domain.LogFormatPretty:
		return formatters.NewPrettyFormatter()
	case domain.LogFormatConsole:
		return formatters.NewConsoleFormatter()
	case domain.LogFormatText:
		return &logrus.TextFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
			FullTimestamp:   true,
		}
	case domain.LogFormatJSON:
		fallthrough
	default:
		return &logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		}
	}
}

func (l *StructuredLogger) Debug(msg string, fields ...domain.Field) {
	l.logWithFields(logrus.DebugLevel, msg, fields...)
}

func (l *StructuredLogger) Info(msg string, fields ...domain.Field) {
	l.logWithFields(logrus.InfoLevel, msg, fields...)
}

func (l *StructuredLogger) Warn(msg string, fields ...domain.Field) {
	l.logWithFields(logrus.WarnLevel, msg, fields...)
}

func (l *StructuredLogger) Error(msg string, fields ...domain.Field) {
	l.logWithFields(logrus.ErrorLevel, msg, fields...)
}

func (l *StructuredLogger) With(fields ...domain.Field) domain.Logger {
	merged := make(logrus.Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for _, field := range fields {
		merged[field.Key] = field.Value
	}

	return &StructuredLogger{
		logger: l.logger,
		fields: merged,
	}
}

func (l *StructuredLogger) logWithFields(level logrus.Level, msg string, fields ...domain.Field) {
	if !l.logger.IsLevelEnabled(level) {
		return
	}

	entry := l.logger.WithFields(l.fields)
	for _, field := range fields {
		entry = entry.WithField(field.Key, field.Value)
	}

	entry.Log(level, msg)
}

// Field helpers for common patterns.
func String(key, value string) domain.Field {
	return domain.Field{Key: key, Value: value}
}

func Int(key string, value int) domain.Field {
	return domain.Field{Key: key, Value: value}
}

func Float(key string, value float64) domain.Field {
	return domain.Field{Key: key, Value: value}
}

func Duration(key string, value any) domain.Field {
	return domain.Field{Key: key, Value: value}
}

func Error(err error) domain.Field {
	if err == nil {
		return domain.Field{Key: "error", Value: nil}
	}

	return domain.Field{Key: "error", Value: err.Error()}
}

func Component(name string) domain.Field {
	return domain.Field{Key: domain.LogFieldComponent, Value: name}
}

func NodeID(id string) domain.Field {
	return domain.Field{Key: "node_id", Value: id}
}

func Protocol(name string) domain.Field {
	return domain.Field{Key: "protocol", Value: name}
}

func Epoch(epoch uint64) domain.Field {
	return domain.Field{Key: "epoch", Value: epoch}
}

func RequestID(id string) domain.Field {
	return domain.Field{Key: "request_id", Value: id}
}
