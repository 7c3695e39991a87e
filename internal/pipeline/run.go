package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"peaceproc/internal/logging"
	"peaceproc/internal/notifications"
	"peaceproc/internal/runstore"
	"peaceproc/internal/services"
)

// run tracks one workflow invocation: its state, its session log and its
// journal entry. Branch goroutines only touch it through note.
type run struct {
	o        *Orchestrator
	logger   *slog.Logger
	closeLog func() error
	started  time.Time

	mu       sync.Mutex
	state    State
	entry    runstore.Run
	recorded bool
}

type runSpec struct {
	workflow       Workflow
	sessionDir     string
	userPrompt     string
	emotionalState string
	initial        State
}

// begin opens the session log, stamps the context and records the run.
func (o *Orchestrator) begin(ctx context.Context, spec runSpec) (context.Context, *run) {
	ctx = services.WithWorkflow(ctx, string(spec.workflow))
	requestID, ok := services.RequestIDFromContext(ctx)
	if !ok {
		requestID = uuid.NewString()
		ctx = services.WithRequestID(ctx, requestID)
	}

	logger := o.logger.With(
		logging.String(logging.FieldWorkflow, string(spec.workflow)),
		logging.String(logging.FieldCorrelationID, requestID),
	)
	closeLog := func() error { return nil }
	sessionID := ""
	if spec.sessionDir != "" {
		sessionID = sessionIDFor(spec.sessionDir)
		ctx = services.WithSessionID(ctx, sessionID)
		sessionLogger, closer, err := logging.OpenSessionLog(logger, spec.sessionDir, sessionID)
		if err != nil {
			logging.WarnWithContext(logger, "session log unavailable", "session_log_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on the output directory"),
				logging.String(logging.FieldImpact, "run continues without a per-session log"),
			)
			logger = logger.With(logging.String(logging.FieldSessionID, sessionID))
		} else {
			logger, closeLog = sessionLogger, closer
		}
	}

	r := &run{
		o:        o,
		logger:   logger,
		closeLog: closeLog,
		started:  time.Now(),
		state:    spec.initial,
		entry: runstore.Run{
			Workflow:       string(spec.workflow),
			SessionID:      sessionID,
			SessionDir:     spec.sessionDir,
			UserPrompt:     spec.userPrompt,
			EmotionalState: spec.emotionalState,
			State:          string(spec.initial),
			Status:         runstore.StatusRunning,
		},
	}

	if o.deps.Recorder != nil {
		stored, err := o.deps.Recorder.Begin(ctx, r.entry)
		if err != nil {
			r.journalWarning("begin", err)
		} else if stored != nil {
			r.entry = *stored
			r.recorded = true
		}
	}

	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("state", string(spec.initial)),
		logging.String("run_id", r.entry.ID),
	)
	return ctx, r
}

// log returns the run logger carrying the stage and branch in ctx.
func (r *run) log(ctx context.Context) *slog.Logger {
	logger := r.logger
	if stage, ok := services.StageFromContext(ctx); ok {
		logger = logger.With(logging.String(logging.FieldStage, stage))
	}
	if branch, ok := services.BranchFromContext(ctx); ok {
		logger = logger.With(logging.String(logging.FieldBranch, branch))
	}
	return logger
}

// transition moves the run to next, logging and journaling the change.
func (r *run) transition(ctx context.Context, next State) error {
	r.mu.Lock()
	prev := r.state
	if !CanTransition(prev, next) {
		r.mu.Unlock()
		return illegalTransition(prev, next)
	}
	r.state = next
	r.entry.State = string(next)
	id, recorded := r.entry.ID, r.recorded
	r.mu.Unlock()

	r.logger.Info("state transition",
		logging.String(logging.FieldEventType, "state_transition"),
		logging.String("from_state", string(prev)),
		logging.String("to_state", string(next)),
	)
	if recorded {
		if err := r.o.deps.Recorder.Transition(context.WithoutCancel(ctx), id, string(next)); err != nil {
			r.journalWarning("transition", err)
		}
	}
	return nil
}

// note applies fn to the journal entry under the run lock.
func (r *run) note(fn func(*runstore.Run)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.entry)
}

// stage runs fn with stage_start/stage_complete bookkeeping.
func (r *run) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx = services.WithStage(ctx, name)
	logger := r.log(ctx)
	started := time.Now()
	logger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))
	if err := fn(ctx); err != nil {
		logging.ErrorWithContext(logger, "stage failed", "stage_failed",
			logging.Error(err),
			logging.ErrorKind(services.Kind(err)),
			logging.String(logging.FieldErrorHint, errorHint(err)),
			logging.Duration("stage_duration", time.Since(started)),
		)
		return err
	}
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(started)),
	)
	return nil
}

// succeed moves the run to DONE and publishes the completion.
func (r *run) succeed(ctx context.Context, artifact string, placeholder bool) {
	if err := r.transition(ctx, StateDone); err != nil {
		r.logger.Error("failed to mark run done", logging.Error(err))
	}
	r.note(func(entry *runstore.Run) {
		entry.Status = runstore.StatusCompleted
		entry.ArtifactPath = artifact
		entry.Placeholder = placeholder
	})
	elapsed := time.Since(r.started)
	r.logger.Info("run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("artifact", artifact),
		logging.Bool("placeholder", placeholder),
		logging.Duration("run_duration", elapsed),
	)
	r.publish(ctx, notifications.EventRunCompleted, notifications.Payload{
		"artifact":    artifact,
		"placeholder": placeholder,
		"duration":    elapsed,
	})
	r.close(ctx)
}

// fail moves the run to FAILED and returns err unchanged.
func (r *run) fail(ctx context.Context, err error) error {
	r.mu.Lock()
	prev := r.state
	r.state = StateFailed
	r.entry.State = string(StateFailed)
	r.entry.Status = runstore.StatusFailed
	r.entry.ErrorMessage = strings.TrimSpace(err.Error())
	r.entry.ErrorKind = services.Kind(err)
	id, recorded := r.entry.ID, r.recorded
	r.mu.Unlock()

	r.logger.Info("state transition",
		logging.String(logging.FieldEventType, "state_transition"),
		logging.String("from_state", string(prev)),
		logging.String("to_state", string(StateFailed)),
	)
	if recorded {
		if jerr := r.o.deps.Recorder.Transition(context.WithoutCancel(ctx), id, string(StateFailed)); jerr != nil {
			r.journalWarning("transition", jerr)
		}
	}

	attrs := []logging.Attr{
		logging.String("resolved_status", string(runstore.StatusFailed)),
		logging.String("failed_state", string(prev)),
		logging.String("error_message", strings.TrimSpace(err.Error())),
		logging.Alert("run_failure"),
		logging.ErrorKind(services.Kind(err)),
		logging.String(logging.FieldErrorHint, errorHint(err)),
		logging.Error(err),
		logging.Duration("run_duration", time.Since(r.started)),
		logging.String(logging.FieldEventType, "run_failed"),
	}
	r.logger.Error("run failed", logging.Args(attrs...)...)

	r.publish(ctx, notifications.EventRunFailed, notifications.Payload{
		"error":    err.Error(),
		"duration": time.Since(r.started),
	})
	r.close(ctx)
	return err
}

func (r *run) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	r.mu.Lock()
	payload["workflow"] = r.entry.Workflow
	payload["session_id"] = r.entry.SessionID
	r.mu.Unlock()
	if err := r.o.deps.Notifier.Publish(context.WithoutCancel(ctx), event, payload); err != nil {
		logging.WarnWithContext(r.logger, "notification failed", "notification_failed",
			logging.Error(err),
			logging.String("event", string(event)),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "no push notification for this run"),
		)
	}
}

func (r *run) close(ctx context.Context) {
	r.mu.Lock()
	entry := r.entry
	recorded := r.recorded
	r.mu.Unlock()
	if recorded {
		if err := r.o.deps.Recorder.Finish(context.WithoutCancel(ctx), &entry); err != nil {
			r.journalWarning("finish", err)
		}
	}
	if err := r.closeLog(); err != nil {
		r.logger.Debug("session log close failed", logging.Error(err))
	}
}

func (r *run) journalWarning(op string, err error) {
	logging.WarnWithContext(r.logger, "run journal write failed", "journal_write_failed",
		logging.Error(err),
		logging.String("operation", op),
		logging.String(logging.FieldErrorHint, "check journal.path and disk space"),
		logging.String(logging.FieldImpact, "run history is incomplete"),
	)
}

// errorHint tells the operator where to look for each error kind.
func errorHint(err error) string {
	switch services.Kind(err) {
	case "validation":
		return "check the request fields"
	case "configuration":
		return "check API keys and config.toml"
	case "timeout":
		return "raise pipeline.branch_timeout_seconds or check provider latency"
	case "not_found":
		return "check the music library and the session directory"
	case "upstream":
		return "check provider status and the interaction log"
	case "tool_unavailable":
		return "install ffmpeg/ffprobe or set video.ffmpeg_binary"
	default:
		return "check logs for details"
	}
}
