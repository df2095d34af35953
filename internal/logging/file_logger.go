package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileLoggerConfig configures a FileLogger.
type FileLoggerConfig struct {
	// FilePath is where the JSON log lines are appended.
	FilePath string

	// Level is the minimum log level.
	Level LogLevel

	// MaxFileSize is the size threshold that triggers rotation, in bytes.
	MaxFileSize int64

	// RotateEnabled turns size-based rotation on.
	RotateEnabled bool
}

// FileLogger appends one JSON-encoded LogEntry per line to a log file,
// rotating it aside once it grows past MaxFileSize.
type FileLogger struct {
	mu      sync.Mutex
	config  FileLoggerConfig
	file    *os.File
	size    int64
	traceID string
}

// NewFileLogger opens (or creates) the log file with owner-only
// permissions and returns a logger appending to it.
func NewFileLogger(config FileLoggerConfig) (*FileLogger, error) {
	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	return &FileLogger{config: config, file: file, size: info.Size()}, nil
}

func (l *FileLogger) Debug(msg string, fields ...Field) { l.log(DEBUG, msg, fields) }
func (l *FileLogger) Info(msg string, fields ...Field)  { l.log(INFO, msg, fields) }
func (l *FileLogger) Warn(msg string, fields ...Field)  { l.log(WARN, msg, fields) }
func (l *FileLogger) Error(msg string, fields ...Field) { l.log(ERROR, msg, fields) }

// WithTraceID returns a logger stamping traceID on every entry. The
// underlying file handle is shared; writes stay serialized through the
// parent's mutex.
func (l *FileLogger) WithTraceID(traceID string) Logger {
	return &tracedFileLogger{parent: l, traceID: traceID}
}

// WithContext returns a logger carrying the context's trace ID, if any.
func (l *FileLogger) WithContext(ctx context.Context) Logger {
	if traceID := TraceIDFromContext(ctx); traceID != "" {
		return l.WithTraceID(traceID)
	}
	return l
}

// SetLevel sets the minimum log level.
func (l *FileLogger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Level = level
}

// Close flushes and closes the underlying file.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *FileLogger) log(level LogLevel, msg string, fields []Field) {
	l.logWithTrace(level, msg, fields, l.traceID)
}

func (l *FileLogger) logWithTrace(level LogLevel, msg string, fields []Field, traceID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.config.Level || l.file == nil {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     level.String(),
		Message:   redactSensitiveData(msg),
		TraceID:   traceID,
	}
	if len(fields) > 0 {
		entry.Fields = make(map[string]interface{}, len(fields))
		for _, f := range fields {
			if s, ok := f.Value.(string); ok {
				entry.Fields[f.Key] = redactSensitiveData(s)
				continue
			}
			entry.Fields[f.Key] = f.Value
		}
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return
	}
	payload = append(payload, '\n')

	if l.config.RotateEnabled && l.config.MaxFileSize > 0 && l.size+int64(len(payload)) > l.config.MaxFileSize {
		l.rotate()
	}

	n, err := l.file.Write(payload)
	if err == nil {
		l.size += int64(n)
	}
}

// rotate moves the current file aside with a timestamp suffix and starts
// a fresh one. Failures leave the current file in place; logging must
// never take the process down.
func (l *FileLogger) rotate() {
	if err := l.file.Close(); err != nil {
		return
	}
	rotated := fmt.Sprintf("%s.%s", l.config.FilePath, time.Now().Format("20060102-150405"))
	_ = os.Rename(l.config.FilePath, rotated)
	file, err := os.OpenFile(l.config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		l.file = nil
		return
	}
	l.file = file
	l.size = 0
}

// tracedFileLogger is a view onto a FileLogger with a fixed trace ID.
type tracedFileLogger struct {
	parent  *FileLogger
	traceID string
}

func (t *tracedFileLogger) Debug(msg string, fields ...Field) {
	t.parent.logWithTrace(DEBUG, msg, fields, t.traceID)
}
func (t *tracedFileLogger) Info(msg string, fields ...Field) {
	t.parent.logWithTrace(INFO, msg, fields, t.traceID)
}
func (t *tracedFileLogger) Warn(msg string, fields ...Field) {
	t.parent.logWithTrace(WARN, msg, fields, t.traceID)
}
func (t *tracedFileLogger) Error(msg string, fields ...Field) {
	t.parent.logWithTrace(ERROR, msg, fields, t.traceID)
}
func (t *tracedFileLogger) WithTraceID(traceID string) Logger {
	return &tracedFileLogger{parent: t.parent, traceID: traceID}
}
func (t *tracedFileLogger) WithContext(ctx context.Context) Logger {
	if traceID := TraceIDFromContext(ctx); traceID != "" {
		return t.WithTraceID(traceID)
	}
	return t
}
func (t *tracedFileLogger) SetLevel(level LogLevel) { t.parent.SetLevel(level) }
func (t *tracedFileLogger) Close() error            { return t.parent.Close() }
