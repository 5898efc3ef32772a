package test

import (
	"fmt"
	"strings"
	"sync"
)

// Logger captures log output in memory. It implements core.Logger and lets
// tests assert on what was logged and at which level.
type Logger struct {
	mu       sync.RWMutex
	messages []LogEntry
}

// LogEntry represents a single log message with its level
type LogEntry struct {
	Level   string
	Message string
}

// NewTestLogger creates a new test logger
func NewTestLogger() *Logger {
	return &Logger{messages: make([]LogEntry, 0)}
}

// Criticalf logs a critical message
func (l *Logger) Criticalf(s string, v ...any) {
	l.log("CRITICAL", s, v...)
}

// Errorf logs an error message
func (l *Logger) Errorf(s string, v ...any) {
	l.log("ERROR", s, v...)
}

// Warningf logs a warning message
func (l *Logger) Warningf(s string, v ...any) {
	l.log("WARN", s, v...)
}

// Noticef logs a notice message
func (l *Logger) Noticef(s string, v ...any) {
	l.log("NOTICE", s, v...)
}

// Debugf logs a debug message
func (l *Logger) Debugf(s string, v ...any) {
	l.log("DEBUG", s, v...)
}

func (l *Logger) log(level, format string, v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, LogEntry{
		Level:   level,
		Message: fmt.Sprintf(format, v...),
	})
}

// GetMessages returns all logged messages
func (l *Logger) GetMessages() []LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]LogEntry, len(l.messages))
	copy(result, l.messages)
	return result
}

// HasMessage checks if a message containing the substring was logged
func (l *Logger) HasMessage(substr string) bool {
	return l.has("", substr)
}

// HasError checks if an error containing the substring was logged
func (l *Logger) HasError(substr string) bool {
	return l.has("ERROR", substr)
}

// HasWarning checks if a warning containing the substring was logged
func (l *Logger) HasWarning(substr string) bool {
	return l.has("WARN", substr)
}

func (l *Logger) has(level, substr string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, entry := range l.messages {
		if level != "" && entry.Level != level {
			continue
		}
		if strings.Contains(entry.Message, substr) {
			return true
		}
	}
	return false
}

// Clear clears all logged messages
func (l *Logger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = l.messages[:0]
}

// ErrorCount returns the number of error messages
func (l *Logger) ErrorCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	count := 0
	for _, entry := range l.messages {
		if entry.Level == "ERROR" {
			count++
		}
	}
	return count
}
