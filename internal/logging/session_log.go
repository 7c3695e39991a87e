package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// SessionLogName is the per-session log file written inside a session directory.
const SessionLogName = "pipeline.log"

// OpenSessionLog returns a logger that writes to base and additionally appends
// JSON records at debug level to <dir>/pipeline.log. Every record carries
// session_id. The returned close function releases the file.
func OpenSessionLog(base *slog.Logger, dir, sessionID string) (*slog.Logger, func() error, error) {
	if base == nil {
		base = NewNop()
	}
	noop := func() error { return nil }
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return base.With(String(FieldSessionID, sessionID)), noop, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, noop, fmt.Errorf("create session dir: %w", err)
	}
	path := filepath.Join(dir, SessionLogName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, noop, fmt.Errorf("open session log %s: %w", path, err)
	}
	sessionHandler := newJSONHandler(file, slog.LevelDebug, false)
	logger := TeeLogger(base, sessionHandler).With(String(FieldSessionID, sessionID))
	return logger, file.Close, nil
}

// TeeLogger duplicates log output from base into the provided handlers.
func TeeLogger(base *slog.Logger, handlers ...slog.Handler) *slog.Logger {
	if base != nil {
		handlers = append([]slog.Handler{base.Handler()}, handlers...)
	}
	return slog.New(newFanoutHandler(handlers...))
}

type fanoutHandler struct {
	handlers []slog.Handler
}

func newFanoutHandler(handlers ...slog.Handler) slog.Handler {
	filtered := make([]slog.Handler, 0, len(handlers))
	for _, h := range handlers {
		if h == nil {
			continue
		}
		if _, noop := h.(NoopHandler); noop {
			continue
		}
		filtered = append(filtered, h)
	}
	switch len(filtered) {
	case 0:
		return NoopHandler{}
	case 1:
		return filtered[0]
	default:
		return &fanoutHandler{handlers: filtered}
	}
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}
		if err := handler.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithAttrs(attrs)
	}
	return &fanoutHandler{handlers: next}
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithGroup(name)
	}
	return &fanoutHandler{handlers: next}
}
