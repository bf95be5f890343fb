package logger

import "sync"

// TestEntry captures one logged message for assertions.
type TestEntry struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

type testSink struct {
	mu      sync.Mutex
	entries []TestEntry
}

// TestLogger is a Logger implementation that records entries in memory.
// Derived loggers (WithField etc.) share the parent's entry sink.
type TestLogger struct {
	sink   *testSink
	fields map[string]interface{}
}

// NewTestLogger creates a logger that records instead of writing output.
func NewTestLogger() *TestLogger {
	return &TestLogger{sink: &testSink{}, fields: make(map[string]interface{})}
}

func (t *TestLogger) record(level, msg string, fields map[string]interface{}) {
	merged := make(map[string]interface{}, len(t.fields)+len(fields))
	for k, v := range t.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	t.sink.mu.Lock()
	t.sink.entries = append(t.sink.entries, TestEntry{Level: level, Message: msg, Fields: merged})
	t.sink.mu.Unlock()
}

func (t *TestLogger) Debug(msg string) { t.record("debug", msg, nil) }
func (t *TestLogger) Info(msg string)  { t.record("info", msg, nil) }
func (t *TestLogger) Warn(msg string)  { t.record("warn", msg, nil) }
func (t *TestLogger) Error(msg string) { t.record("error", msg, nil) }
func (t *TestLogger) Fatal(msg string) { t.record("fatal", msg, nil) }

func (t *TestLogger) WithField(key string, value interface{}) Logger {
	return t.WithFields(map[string]interface{}{key: value})
}

func (t *TestLogger) WithFields(fields map[string]interface{}) Logger {
	child := &TestLogger{sink: t.sink, fields: make(map[string]interface{}, len(t.fields)+len(fields))}
	for k, v := range t.fields {
		child.fields[k] = v
	}
	for k, v := range fields {
		child.fields[k] = v
	}
	return child
}

func (t *TestLogger) WithError(err error) Logger {
	if err == nil {
		return t
	}
	return t.WithField("error", err.Error())
}

func (t *TestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	t.record("debug", msg, fields)
}

func (t *TestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	t.record("info", msg, fields)
}

func (t *TestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	t.record("warn", msg, fields)
}

func (t *TestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	t.record("error", msg, fields)
}

// Entries returns a copy of everything recorded so far.
func (t *TestLogger) Entries() []TestEntry {
	t.sink.mu.Lock()
	defer t.sink.mu.Unlock()
	out := make([]TestEntry, len(t.sink.entries))
	copy(out, t.sink.entries)
	return out
}

// HasMessage reports whether any recorded entry contains msg.
func (t *TestLogger) HasMessage(msg string) bool {
	t.sink.mu.Lock()
	defer t.sink.mu.Unlock()
	for _, e := range t.sink.entries {
		if e.Message == msg {
			return true
		}
	}
	return false
}
