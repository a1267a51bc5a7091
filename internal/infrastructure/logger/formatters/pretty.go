package formatters

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// ANSI color codes.
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorGray   = "\033[90m"
	ColorBold   = "\033[1m"
	ColorCyan   = "\033[36m"
)

const prettyMessageWidth = 35

// PrettyFormatter formats logs in a human-readable format with colors.
type PrettyFormatter struct {
	TimestampFormat string
	UseColors       bool
}

// NewPrettyFormatter creates a new Pretty formatter.
func NewPrettyFormatter() *PrettyFormatter {
	return &PrettyFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		UseColors:       supportsColor(),
	}
}

// Format renders timestamp, padded level, message and fields.
func (f *PrettyFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer

	b.WriteString(f.colorize(ColorGray, entry.Time.Format(f.TimestampFormat)))
	b.WriteByte(' ')
	b.WriteString(f.formatLevel(entry.Level))
	b.WriteByte(' ')
	b.WriteString(f.colorize(ColorBold, fmt.Sprintf("%-*s", prettyMessageWidth, entry.Message)))

	for _, key := range orderedKeys(entry.Data) {
		b.WriteByte(' ')
		b.WriteString(f.colorize(ColorCyan, key))
		b.WriteByte('=')
		b.WriteString(f.formatValue(entry.Data[key]))
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

func (f *PrettyFormatter) formatLevel(level logrus.Level) string {
	text := fmt.Sprintf("%-5s", strings.ToUpper(level.String()))

	switch level {
	case logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel:
		return f.colorize(ColorRed, text)
	case logrus.WarnLevel:
		return f.colorize(ColorYellow, text)
	case logrus.InfoLevel:
		return f.colorize(ColorBlue, text)
	case logrus.DebugLevel, logrus.TraceLevel:
		return f.colorize(ColorGray, text)
	default:
		return text
	}
}

func (f *PrettyFormatter) formatValue(value any) string {
	if value == nil {
		return f.colorize(ColorGray, "<nil>")
	}
	s := stringify(value)
	if strings.Contains(s, " ") {
		return `"` + s + `"`
	}
	return s
}

func (f *PrettyFormatter) colorize(color, text string) string {
	if !f.UseColors {
		return text
	}
	return color + text + ColorReset
}

// supportsColor reports whether stdout is a color-capable terminal.
func supportsColor() bool {
	if info, err := os.Stdout.Stat(); err != nil || info.Mode()&os.ModeCharDevice == 0 {
		return false
	}

	term := os.Getenv("TERM")
	if term == "dumb" {
		return false
	}
	return os.Getenv("COLORTERM") != "" ||
		strings.Contains(term, "color") ||
		strings.Contains(term, "256") ||
		term == "xterm" ||
		term == "screen"
}
