package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"peaceproc/internal/config"
	"peaceproc/internal/interactionlog"
	"peaceproc/internal/logging"
	"peaceproc/internal/notifications"
	"peaceproc/internal/pipeline"
	"peaceproc/internal/preflight"
	"peaceproc/internal/server"
)

// Daemon coordinates the HTTP service and enforces single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	runtime *pipeline.Runtime
	server  *server.Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Address      string
	LockFilePath string
	JournalPath  string
	Checks       []preflight.Result
}

// New constructs a daemon around an already wired runtime. hub may be nil,
// in which case /logs answers with no events.
func New(cfg *config.Config, rt *pipeline.Runtime, hub *logging.StreamHub, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || rt == nil || rt.Orchestrator == nil {
		return nil, errors.New("daemon requires config and pipeline runtime")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	opts := server.Options{
		Bind:       cfg.Paths.APIBind,
		OutputRoot: cfg.Paths.OutputRoot,
		Pipeline:   rt.Orchestrator,
		Logs:       hub,
		Logger:     logger,
	}
	if rt.Journal != nil {
		opts.Runs = rt.Journal
	}
	srv, err := server.New(opts)
	if err != nil {
		return nil, err
	}

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		runtime:  rt,
		server:   srv,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the lock, performs startup housekeeping and begins serving.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := os.MkdirAll(d.cfg.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("ensure log directory: %w", err)
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another peaceprocd instance is already running")
	}

	d.housekeeping(ctx)

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.server.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start api server: %w", err)
	}
	d.cancel = cancel

	d.running.Store(true)
	d.logger.Info("peaceproc daemon started",
		logging.String("lock", d.lockPath),
		logging.String("address", d.server.Addr()),
		logging.String(logging.FieldEventType, "daemon_start"),
	)
	return nil
}

func (d *Daemon) housekeeping(ctx context.Context) {
	if journal := d.runtime.Journal; journal != nil {
		abandoned, err := journal.MarkAbandoned(ctx)
		if err != nil {
			logging.WarnWithContext(d.logger, "abandoned run sweep failed", "journal_sweep_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the journal database at "+journal.Path()),
				logging.String(logging.FieldImpact, "interrupted runs stay marked running"),
			)
		} else if abandoned > 0 {
			d.logger.Info("abandoned runs marked failed",
				logging.Int64("count", abandoned),
				logging.String(logging.FieldEventType, "journal_sweep"),
			)
		}
	}

	removed := logging.CleanupOldLogs(d.logger, d.cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: d.cfg.Paths.LogDir, Pattern: "*.log"},
		logging.RetentionTarget{Dir: d.cfg.Paths.LogDir, Pattern: interactionlog.FilePattern},
	)
	if removed > 0 {
		d.logger.Info("old logs pruned", logging.Int("count", removed))
	}

	for _, failed := range preflight.Failures(preflight.RunAll(ctx, d.cfg, false)) {
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
			logging.String("check", failed.Name),
			logging.String("detail", failed.Detail),
			logging.String(logging.FieldErrorHint, "run peaceproc doctor for details"),
			logging.String(logging.FieldImpact, "requests touching this dependency will fail"),
		)
	}
}

// Stop stops serving and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.server.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Args(logging.Error(err))...)
	}
	d.running.Store(false)
	d.logger.Info("peaceproc daemon stopped", logging.String(logging.FieldEventType, "daemon_stop"))
}

// Close stops the daemon and releases the runtime.
func (d *Daemon) Close() error {
	d.Stop()
	return d.runtime.Close()
}

// Status returns the current daemon status. Reachability checks are skipped.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Address:      d.server.Addr(),
		LockFilePath: d.lockPath,
		Checks:       preflight.RunAll(ctx, d.cfg, false),
	}
	if d.runtime.Journal != nil {
		status.JournalPath = d.runtime.Journal.Path()
	}
	return status
}

// TestNotification sends a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := d.runtime.Notifier
	if notifier == nil {
		notifier = notifications.NewService(d.cfg)
	}
	if err := notifier.Publish(ctx, notifications.EventTest, nil); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}
