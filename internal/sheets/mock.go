package sheets

import (
	"context"
	"sync"
)

// MockWriter records WriteTable calls for testing.
type MockWriter struct {
	WriteFunc      func(ctx context.Context, title string, headers []string, rows [][]string) (string, error)
	WriteCalls     []WriteCall
	WriteCallCount int
	mu             sync.Mutex
}

// WriteCall represents a single call to WriteTable.
type WriteCall struct {
	Error   error
	Title   string
	Headers []string
	Rows    [][]string
}

// NewMockWriter creates a new mock writer.
func NewMockWriter() *MockWriter {
	return &MockWriter{
		WriteCalls: make([]WriteCall, 0),
	}
}

// WriteTable records the call and returns "mock-spreadsheet" unless
// WriteFunc says otherwise.
func (m *MockWriter) WriteTable(ctx context.Context, title string, headers []string, rows [][]string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCallCount++

	id, err := "mock-spreadsheet", error(nil)
	if m.WriteFunc != nil {
		id, err = m.WriteFunc(ctx, title, headers, rows)
	}

	m.WriteCalls = append(m.WriteCalls, WriteCall{
		Title:   title,
		Headers: headers,
		Rows:    rows,
		Error:   err,
	})

	return id, err
}

// GetWriteCalls returns a copy of all write calls.
func (m *MockWriter) GetWriteCalls() []WriteCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]WriteCall, len(m.WriteCalls))
	copy(calls, m.WriteCalls)
	return calls
}

// SetWriteError configures the mock to fail every WriteTable call.
func (m *MockWriter) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteFunc = func(context.Context, string, []string, [][]string) (string, error) {
		return "", err
	}
}
