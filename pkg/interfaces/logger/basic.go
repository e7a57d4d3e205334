package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// BasicLogger prints structured log lines to stderr. It exists so the server
// binary has something sensible out of the box; hosts embedding the packages
// are expected to bring their own Logger.
type BasicLogger struct {
	mu     *sync.Mutex
	fields []Field
}

var _ Logger = (*BasicLogger)(nil)

// New returns a basic logger writing to stderr.
func New() *BasicLogger {
	return &BasicLogger{mu: &sync.Mutex{}}
}

// With returns a logger that includes the given fields on every line.
func (l *BasicLogger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	next := &BasicLogger{mu: l.mu}
	next.fields = append(append(next.fields, l.fields...), fields...)
	return next
}

func (l *BasicLogger) Debug(msg string, fields ...Field) { l.log("DEBUG", msg, fields) }
func (l *BasicLogger) Info(msg string, fields ...Field)  { l.log("INFO", msg, fields) }
func (l *BasicLogger) Warn(msg string, fields ...Field)  { l.log("WARN", msg, fields) }
func (l *BasicLogger) Error(msg string, fields ...Field) { l.log("ERROR", msg, fields) }

func (l *BasicLogger) log(level, msg string, fields []Field) {
	line := fmt.Sprintf("[%s] %s", level, msg)
	if rendered := renderFields(append(append([]Field(nil), l.fields...), fields...)); rendered != "" {
		line += " " + rendered
	}
	l.mu.Lock()
	fmt.Fprintln(os.Stderr, line)
	l.mu.Unlock()
}

func renderFields(fields []Field) string {
	if len(fields) == 0 {
		return ""
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s=%v", f.Key, f.Value))
	}
	return strings.Join(parts, " ")
}
