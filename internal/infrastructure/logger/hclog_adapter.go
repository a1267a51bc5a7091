package logger

import (
	"io"
	"log" //nolint:depguard // hclog.Logger exposes *log.Logger
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/demonshower/BFTBrain/internal/domain"
)

// HCLogAdapter exposes a domain.Logger as an hclog.Logger so the raft
// backend of the experience store logs through the same pipeline.
type HCLogAdapter struct {
	logger domain.Logger
	level  hclog.Level
	name   string
}

// NewHCLogAdapter wraps logger at Info level under the given name.
func NewHCLogAdapter(logger domain.Logger, name string) hclog.Logger {
	return &HCLogAdapter{
		logger: logger.With(Component(name)),
		level:  hclog.Info,
		name:   name,
	}
}

// Log maps hclog levels onto the domain logger.
func (h *HCLogAdapter) Log(level hclog.Level, msg string, args ...any) {
	if level == hclog.Off || level < h.level {
		return
	}

	fields := argsToFields(args)
	switch level {
	case hclog.Trace, hclog.Debug:
		h.logger.Debug(msg, fields...)
	case hclog.Warn:
		h.logger.Warn(msg, fields...)
	case hclog.Error:
		h.logger.Error(msg, fields...)
	default:
		h.logger.Info(msg, fields...)
	}
}

func (h *HCLogAdapter) Trace(msg string, args ...any) { h.Log(hclog.Trace, msg, args...) }
func (h *HCLogAdapter) Debug(msg string, args ...any) { h.Log(hclog.Debug, msg, args...) }
func (h *HCLogAdapter) Info(msg string, args ...any)  { h.Log(hclog.Info, msg, args...) }
func (h *HCLogAdapter) Warn(msg string, args ...any)  { h.Log(hclog.Warn, msg, args...) }
func (h *HCLogAdapter) Error(msg string, args ...any) { h.Log(hclog.Error, msg, args...) }

func (h *HCLogAdapter) IsTrace() bool { return h.level <= hclog.Trace }
func (h *HCLogAdapter) IsDebug() bool { return h.level <= hclog.Debug }
func (h *HCLogAdapter) IsInfo() bool  { return h.level <= hclog.Info }
func (h *HCLogAdapter) IsWarn() bool  { return h.level <= hclog.Warn }
func (h *HCLogAdapter) IsError() bool { return h.level <= hclog.Error }

func (h *HCLogAdapter) ImpliedArgs() []any { return nil }

func (h *HCLogAdapter) With(args ...any) hclog.Logger {
	return &HCLogAdapter{
		logger: h.logger.With(argsToFields(args)...),
		level:  h.level,
		name:   h.name,
	}
}

func (h *HCLogAdapter) Name() string { return h.name }

// Named appends name to the current name, dot separated.
func (h *HCLogAdapter) Named(name string) hclog.Logger {
	if name == "" {
		return h
	}
	full := name
	if h.name != "" {
		full = h.name + "." + name
	}
	return &HCLogAdapter{
		logger: h.logger.With(String("subsystem", full)),
		level:  h.level,
		name:   full,
	}
}

func (h *HCLogAdapter) ResetNamed(name string) hclog.Logger {
	return &HCLogAdapter{
		logger: h.logger.With(Component(name)),
		level:  h.level,
		name:   name,
	}
}

func (h *HCLogAdapter) SetLevel(level hclog.Level) { h.level = level }
func (h *HCLogAdapter) GetLevel() hclog.Level      { return h.level }

func (h *HCLogAdapter) StandardLogger(_ *hclog.StandardLoggerOptions) *log.Logger {
	return log.New(&logWriter{logger: h.logger}, "", 0)
}

func (h *HCLogAdapter) StandardWriter(_ *hclog.StandardLoggerOptions) io.Writer {
	return &logWriter{logger: h.logger}
}

// argsToFields turns hclog key/value pairs into fields, dropping
// non-string keys and a trailing odd value.
func argsToFields(args []any) []domain.Field {
	fields := make([]domain.Field, 0, len(args)/domain.DefaultFieldsPerKeyValue)
	for i := 0; i+1 < len(args); i += domain.DefaultFieldsPerKeyValue {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, domain.Field{Key: key, Value: args[i+1]})
	}
	return fields
}

// logWriter routes lines written by a standard library logger, which
// hashicorp libraries prefix with "[LEVEL] subsystem: ".
type logWriter struct {
	logger domain.Logger
}

func (w *logWriter) Write(p []byte) (int, error) {
	level, subsystem, msg := parseStdLine(string(p))

	logger := w.logger
	if subsystem != "" {
		logger = logger.With(String("subsystem", subsystem))
	}

	switch level {
	case "TRACE", "DEBUG":
		logger.Debug(msg)
	case "WARN":
		logger.Warn(msg)
	case "ERROR", "ERR":
		logger.Error(msg)
	default:
		logger.Info(msg)
	}

	return len(p), nil
}

var stdLevelPrefixes = []string{"[TRACE]", "[DEBUG]", "[INFO]", "[WARN]", "[ERROR]", "[ERR]"}

func parseStdLine(line string) (string, string, string) {
	msg := strings.TrimSpace(line)
	level := "INFO"

	for _, prefix := range stdLevelPrefixes {
		if rest, ok := strings.CutPrefix(msg, prefix); ok {
			level = strings.Trim(prefix, "[]")
			msg = strings.TrimSpace(rest)
			break
		}
	}

	var subsystem string
	if idx := strings.Index(msg, ": "); idx > 0 {
		candidate := msg[:idx]
		if !strings.Contains(candidate, " ") && len(candidate) < domain.DefaultComponentNameMaxLength {
			subsystem = candidate
			msg = strings.TrimSpace(msg[idx+domain.DefaultColonSeparatorOffset:])
		}
	}

	return level, subsystem, msg
}
