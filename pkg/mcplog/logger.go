// Package mcplog writes one JSONL line per MCP tool call.
package mcplog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// maxParamLen is the longest string argument written verbatim.
const maxParamLen = 64

// Entry is one logged tool call.
type Entry struct {
	Ts            string         `json:"ts"`
	RequestID     string         `json:"request_id"`
	Tool          string         `json:"tool"`
	Params        map[string]any `json:"params"`
	DurationMs    int64          `json:"duration_ms"`
	ResponseBytes int            `json:"response_bytes"`
	IsError       bool           `json:"is_error"`
	Error         *string        `json:"error"`
}

// Logger appends entries to a file. Safe for concurrent use.
// A nil *Logger discards everything.
type Logger struct {
	mu   sync.Mutex
	f    *os.File
	enc  *json.Encoder
	path string
}

// Open opens path for appending, creating parent directories.
// An empty path returns a nil Logger.
func Open(path string) (*Logger, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("mcplog: create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("mcplog: open log file: %w", err)
	}
	return &Logger{f: f, enc: json.NewEncoder(f), path: path}, nil
}

// Path returns the file being written, or "" for a nil Logger.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Write appends e. Callers ignore the error; a failed log line must not fail
// the tool call.
func (l *Logger) Write(e Entry) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enc.Encode(e)
}

func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

// NewEntry builds the log line for one finished call.
func NewEntry(requestID string, req mcp.CallToolRequest, start time.Time, result *mcp.CallToolResult, err error) Entry {
	e := Entry{
		Ts:            start.UTC().Format(time.RFC3339),
		RequestID:     requestID,
		Tool:          req.Params.Name,
		Params:        SanitizeParams(req.GetArguments()),
		DurationMs:    Now().Sub(start).Milliseconds(),
		ResponseBytes: ResponseBytes(result),
		IsError:       result != nil && result.IsError,
	}
	if err != nil {
		msg := err.Error()
		e.Error = &msg
		e.IsError = true
	}
	return e
}

// SanitizeParams copies args, replacing long strings with a "<key>_len"
// entry holding their length.
func SanitizeParams(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		if s, ok := v.(string); ok && len(s) > maxParamLen {
			out[k+"_len"] = len(s)
		} else {
			out[k] = v
		}
	}
	return out
}

// ResponseBytes is the encoded size of a result's content, 0 for nil.
func ResponseBytes(result *mcp.CallToolResult) int {
	if result == nil {
		return 0
	}
	b, err := json.Marshal(result.Content)
	if err != nil {
		return 0
	}
	return len(b)
}

// ReadFile decodes every entry in a log file. Malformed lines are skipped.
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mcplog: open log file: %w", err)
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		var e Entry
		if json.Unmarshal(sc.Bytes(), &e) == nil {
			entries = append(entries, e)
		}
	}
	return entries, sc.Err()
}

// Now is replaced in tests.
var Now = func() time.Time { return time.Now() }
