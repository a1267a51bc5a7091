package formatters

import (
	"bytes"
	"slices"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// LogFmtFormatter formats logs in logfmt format (key=value pairs).
type LogFmtFormatter struct {
	TimestampFormat string
}

// NewLogFmtFormatter creates a new LogFmt formatter.
func NewLogFmtFormatter() *LogFmtFormatter {
	return &LogFmtFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z",
	}
}

// Format renders level, time and msg followed by data fields in key order.
func (f *LogFmtFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer

	f.appendKeyValue(&b, "level", entry.Level.String())
	f.appendKeyValue(&b, "time", entry.Time.UTC().Format(f.TimestampFormat))
	f.appendKeyValue(&b, "msg", entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		f.appendKeyValue(&b, key, entry.Data[key])
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

func (f *LogFmtFormatter) appendKeyValue(b *bytes.Buffer, key string, value any) {
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(quoteIfNeeded(stringify(value)))
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " =\"\t\r\n") {
		return strconv.Quote(s)
	}
	return s
}
