package formatters

import (
	"bytes"
	"strings"

	"github.com/sirupsen/logrus"
)

// consoleKeys are the only fields the console formatter prints.
var consoleKeys = []string{"component", "node_id", "protocol", "epoch", "status", "error"}

// ConsoleFormatter formats logs in a minimal console format.
type ConsoleFormatter struct{}

// NewConsoleFormatter creates a new Console formatter.
func NewConsoleFormatter() *ConsoleFormatter {
	return &ConsoleFormatter{}
}

// Format renders "[LEVEL] message - key: value, ...".
func (f *ConsoleFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer

	b.WriteByte('[')
	b.WriteString(strings.ToUpper(entry.Level.String()))
	b.WriteString("] ")
	b.WriteString(entry.Message)

	var parts []string
	for _, key := range consoleKeys {
		value, ok := entry.Data[key]
		if !ok || value == nil {
			continue
		}
		if s := stringify(value); s != "" {
			parts = append(parts, key+": "+s)
		}
	}
	if len(parts) > 0 {
		b.WriteString(" - ")
		b.WriteString(strings.Join(parts, ", "))
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}
