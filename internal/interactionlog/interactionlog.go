// Package interactionlog records every generator prompt/response pair as JSON
// lines so model behaviour can be audited after a run.
package interactionlog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"peaceproc/internal/logging"
)

// FilePattern matches transcript files for retention pruning.
const FilePattern = "llm_interactions_*.jsonl"

// Entry is one JSONL line.
type Entry struct {
	Timestamp string         `json:"timestamp"`
	Component string         `json:"component"`
	Prompt    string         `json:"prompt"`
	Response  string         `json:"response"`
	Metadata  map[string]any `json:"metadata"`
}

// Log appends entries to llm_interactions_<YYYYMMDD_HHMMSS>.jsonl. A nil *Log
// discards entries.
type Log struct {
	path   string
	logger *slog.Logger
	now    func() time.Time

	mu sync.Mutex
}

// Open prepares a transcript file in dir named after started. The file is
// created lazily on the first entry.
func Open(dir string, started time.Time, logger *slog.Logger) (*Log, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create interaction log dir: %w", err)
	}
	name := fmt.Sprintf("llm_interactions_%s.jsonl", started.Format("20060102_150405"))
	return &Log{
		path:   filepath.Join(dir, name),
		logger: logging.NewComponentLogger(logger, "interactionlog"),
		now:    time.Now,
	}, nil
}

// Path reports the transcript location.
func (l *Log) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Record appends a single interaction. Write failures are logged, never returned,
// so auditing cannot fail a generation.
func (l *Log) Record(component, prompt, response string, metadata map[string]any) {
	if l == nil {
		return
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	entry := Entry{
		Timestamp: l.now().Format("2006-01-02T15:04:05.000000"),
		Component: component,
		Prompt:    prompt,
		Response:  response,
		Metadata:  metadata,
	}
	line, err := json.Marshal(entry)
	if err != nil {
		l.warn(err)
		return
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		l.warn(err)
		return
	}
	defer file.Close()
	if _, err := file.Write(line); err != nil {
		l.warn(err)
	}
}

func (l *Log) warn(err error) {
	logging.WarnWithContext(l.logger, "interaction log write failed", "interaction_log_failed",
		logging.String("path", l.path),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check log_dir permissions"),
		logging.String(logging.FieldImpact, "prompt/response pair not audited"),
	)
}
