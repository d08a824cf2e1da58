package common

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"time"
)

// PipelineLogger provides logging functionality for planning operations
type PipelineLogger interface {
	Log(level, message string, metadata map[string]interface{})
}

// Context keys for passing logger through context
type contextKey int

const (
	loggerKey contextKey = iota
)

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger PipelineLogger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext extracts the logger from context, or returns a no-op logger if not found
func LoggerFromContext(ctx context.Context) PipelineLogger {
	if logger, ok := ctx.Value(loggerKey).(PipelineLogger); ok {
		return logger
	}
	return &noOpLogger{}
}

// noOpLogger is a logger that does nothing (fallback when no logger in context)
type noOpLogger struct{}

func (l *noOpLogger) Log(level, message string, metadata map[string]interface{}) {
	// Do nothing
}

var levelRanks = map[string]int{
	"DEBUG": 0,
	"INFO":  1,
	"WARN":  2,
	"ERROR": 3,
}

// TextLogger writes pipeline logs through the standard logger, filtered by
// a minimum level. Metadata keys are sorted so output stays diffable.
type TextLogger struct {
	minRank int
}

// NewTextLogger creates a console logger. Unknown level names log everything.
func NewTextLogger(level string) *TextLogger {
	rank, ok := levelRanks[strings.ToUpper(level)]
	if !ok {
		rank = 0
	}
	return &TextLogger{minRank: rank}
}

func (l *TextLogger) Log(level, message string, metadata map[string]interface{}) {
	rank, ok := levelRanks[strings.ToUpper(level)]
	if !ok {
		rank = levelRanks["INFO"]
	}
	if rank < l.minRank {
		return
	}

	if len(metadata) == 0 {
		log.Printf("[%s] %s", strings.ToUpper(level), message)
		return
	}

	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, metadata[k])
	}
	log.Printf("[%s] %s%s", strings.ToUpper(level), message, b.String())
}

// JSONLogger writes pipeline logs as one JSON object per line, for log
// shippers that expect structured output.
type JSONLogger struct {
	minRank int
	out     io.Writer
}

// NewJSONLogger creates a structured logger writing to stderr.
func NewJSONLogger(level string) *JSONLogger {
	rank, ok := levelRanks[strings.ToUpper(level)]
	if !ok {
		rank = 0
	}
	return &JSONLogger{minRank: rank, out: os.Stderr}
}

func (l *JSONLogger) Log(level, message string, metadata map[string]interface{}) {
	rank, ok := levelRanks[strings.ToUpper(level)]
	if !ok {
		rank = levelRanks["INFO"]
	}
	if rank < l.minRank {
		return
	}

	entry := make(map[string]interface{}, len(metadata)+3)
	for k, v := range metadata {
		entry[k] = v
	}
	entry["level"] = strings.ToUpper(level)
	entry["message"] = message
	entry["time"] = time.Now().UTC().Format(time.RFC3339)

	line, err := json.Marshal(entry)
	if err != nil {
		log.Printf("[%s] %s", strings.ToUpper(level), message)
		return
	}
	fmt.Fprintln(l.out, string(line))
}

// NewLogger builds a pipeline logger for the given level and format.
// Unknown formats fall back to text.
func NewLogger(level, format string) PipelineLogger {
	if strings.EqualFold(format, "json") {
		return NewJSONLogger(level)
	}
	return NewTextLogger(level)
}
