// Package logging provides leveled logging and step tracing for episim.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - A StepTracer for per-step JSONL simulation traces (steps.jsonl)
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LevelTrace is a custom slog level below Debug for full per-agent logging.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Label the custom trace level
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// StepEvent is one simulation step's trace record: the step index, the
// simulation year, and the population deltas the step produced.
type StepEvent struct {
	Ti     int     `json:"ti"`
	Year   float64 `json:"year"`
	NAlive int     `json:"n_alive"`
	Births int     `json:"births"`
	Deaths int     `json:"deaths"`
	Wall   string  `json:"time"`
}

// StepTracer writes one StepEvent per timestep to a JSONL file.
// It is safe for concurrent use. A nil StepTracer is safe to use;
// all methods are no-ops on nil receiver.
type StepTracer struct {
	mu   sync.Mutex
	file *os.File
}

// NewStepTracer creates a tracer writing to dir/steps.jsonl.
// At "info" level (the default), returns nil and no file is created.
// At "debug" or "trace" level, the file is opened for append.
// Returns nil if the file cannot be opened. All methods are nil-safe.
func NewStepTracer(dir string, level string) *StepTracer {
	lvl := ParseLevel(level)
	if lvl == slog.LevelInfo {
		return nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}

	path := filepath.Join(dir, "steps.jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}

	return &StepTracer{file: f}
}

// LogStep writes ev as a single JSONL line, stamping the wall-clock time.
// Safe to call on nil receiver.
func (st *StepTracer) LogStep(ev StepEvent) {
	if st == nil || st.file == nil {
		return
	}
	ev.Wall = time.Now().UTC().Format(time.RFC3339Nano)

	st.mu.Lock()
	defer st.mu.Unlock()

	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	data = append(data, '\n')
	_, _ = st.file.Write(data)
}

// Close closes the underlying file. Safe to call on nil receiver.
func (st *StepTracer) Close() {
	if st == nil || st.file == nil {
		return
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	st.file.Close()
	st.file = nil
}
