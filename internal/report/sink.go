package report

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Sink receives records in the order they should be persisted.
type Sink interface {
	// Append persists one record. A failed Append leaves earlier records
	// intact; callers may keep appending later records.
	Append(rec Record) error
}

// WriterSink encodes records onto any io.Writer.
// Each record is written with a single Write call.
type WriterSink struct {
	mu     sync.Mutex
	w      io.Writer
	format Format
}

// NewWriterSink returns a sink writing records in format f to w.
func NewWriterSink(w io.Writer, f Format) (*WriterSink, error) {
	if w == nil {
		return nil, fmt.Errorf("NewWriterSink: writer is nil")
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("NewWriterSink: %w", err)
	}
	return &WriterSink{w: w, format: f}, nil
}

// Append implements Sink.
func (s *WriterSink) Append(rec Record) error {
	b, err := Encode(s.format, rec)
	if err != nil {
		return fmt.Errorf("Append: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.w.Write(b); err != nil {
		return fmt.Errorf("Append: write: %w", err)
	}
	return nil
}

// FileSink is an append-only report file.
type FileSink struct {
	*WriterSink
	f    *os.File
	path string
}

// NewFileSink creates (or truncates) the report file at path, so every run
// starts from an empty report, and opens it for appending.
func NewFileSink(path string, f Format) (*FileSink, error) {
	if path == "" {
		return nil, fmt.Errorf("NewFileSink: path is empty")
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("NewFileSink: open: %w", err)
	}

	ws, err := NewWriterSink(file, f)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("NewFileSink: %w", err)
	}

	return &FileSink{WriterSink: ws, f: file, path: path}, nil
}

// Path returns the report file location.
func (s *FileSink) Path() string {
	return s.path
}

// Close flushes and closes the report file.
func (s *FileSink) Close() error {
	if err := s.f.Sync(); err != nil {
		_ = s.f.Close()
		return fmt.Errorf("Close: sync: %w", err)
	}
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("Close: %w", err)
	}
	return nil
}
