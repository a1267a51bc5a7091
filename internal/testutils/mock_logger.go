package testutils

import (
	"sync"

	"github.com/demonshower/BFTBrain/internal/domain"
)

// LogEntry is a single call recorded by MockLogger.
type LogEntry struct {
	Level   string
	Message string
	Fields  map[string]any
}

// MockLogger implements domain.Logger and records every entry.
type MockLogger struct {
	mu      *sync.Mutex
	entries *[]LogEntry
	fields  []domain.Field
}

// NewMockLogger creates a recording logger.
func NewMockLogger() *MockLogger {
	return &MockLogger{
		mu:      &sync.Mutex{},
		entries: &[]LogEntry{},
	}
}

func (m *MockLogger) Debug(msg string, fields ...domain.Field) { m.record("debug", msg, fields) }
func (m *MockLogger) Info(msg string, fields ...domain.Field)  { m.record("info", msg, fields) }
func (m *MockLogger) Warn(msg string, fields ...domain.Field)  { m.record("warn", msg, fields) }
func (m *MockLogger) Error(msg string, fields ...domain.Field) { m.record("error", msg, fields) }

// With returns a child that shares the parent's entry log.
func (m *MockLogger) With(fields ...domain.Field) domain.Logger {
	merged := make([]domain.Field, 0, len(m.fields)+len(fields))
	merged = append(merged, m.fields...)
	merged = append(merged, fields...)
	return &MockLogger{mu: m.mu, entries: m.entries, fields: merged}
}

// Entries returns a copy of the recorded entries.
func (m *MockLogger) Entries() []LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]LogEntry, len(*m.entries))
	copy(out, *m.entries)
	return out
}

// EntriesAt returns the recorded entries of one level.
func (m *MockLogger) EntriesAt(level string) []LogEntry {
	var out []LogEntry
	for _, entry := range m.Entries() {
		if entry.Level == level {
			out = append(out, entry)
		}
	}
	return out
}

func (m *MockLogger) record(level, msg string, fields []domain.Field) {
	data := make(map[string]any, len(m.fields)+len(fields))
	for _, f := range m.fields {
		data[f.Key] = f.Value
	}
	for _, f := range fields {
		data[f.Key] = f.Value
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	*m.entries = append(*m.entries, LogEntry{Level: level, Message: msg, Fields: data})
}
