package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"peaceproc/internal/logging"
	"peaceproc/internal/services"
)

// Branch names, in join-report order.
const (
	BranchText  = "text"
	BranchImage = "image"
	BranchMusic = "music"
)

type branch struct {
	name  string
	state State
	run   func(ctx context.Context) error
}

type branchResult struct {
	name     string
	err      error
	duration time.Duration
}

// fanOut enters every branch state, runs the branches on a per-run pool and
// waits for all of them. Failures do not cancel siblings. The first failure
// in slice order is returned; later ones are logged.
func (o *Orchestrator) fanOut(ctx context.Context, r *run, branches []branch) error {
	pool, err := ants.NewPool(o.opts.BranchWorkers, ants.WithLogger(poolLogger{r.logger}))
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "pipeline", "branch pool", "", err)
	}
	defer pool.Release()

	for _, b := range branches {
		if err := r.transition(ctx, b.state); err != nil {
			return err
		}
	}

	results := make([]branchResult, len(branches))
	var wg sync.WaitGroup
	for i, b := range branches {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			results[i] = o.runBranch(ctx, r, b)
		})
		if submitErr != nil {
			wg.Done()
			results[i] = branchResult{
				name: b.name,
				err:  services.Wrap(services.ErrConfiguration, "pipeline", "submit branch", b.name, submitErr),
			}
		}
	}
	wg.Wait()

	var first error
	for _, res := range results {
		if res.err == nil {
			continue
		}
		if first == nil {
			first = res.err
			continue
		}
		logging.WarnWithContext(r.logger, "additional branch failed", "branch_failed",
			logging.String(logging.FieldBranch, res.name),
			logging.Error(res.err),
			logging.ErrorKind(services.Kind(res.err)),
			logging.String(logging.FieldErrorHint, errorHint(res.err)),
			logging.String(logging.FieldImpact, "reported alongside the first branch failure"),
		)
	}
	return first
}

// runBranch executes one branch under the optional branch timeout and turns
// panics and deadline expiry into errors.
func (o *Orchestrator) runBranch(ctx context.Context, r *run, b branch) (res branchResult) {
	res.name = b.name
	ctx = services.WithBranch(ctx, b.name)
	logger := r.log(ctx)
	started := time.Now()

	if o.opts.BranchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.BranchTimeout)
		defer cancel()
	}

	defer func() {
		if p := recover(); p != nil {
			res.err = services.Wrap(services.ErrUpstream, "pipeline", "branch "+b.name, "panic", fmt.Errorf("%v", p))
		}
		res.duration = time.Since(started)
		if res.err != nil {
			logger.Error("branch failed",
				logging.String(logging.FieldEventType, "branch_failed"),
				logging.Error(res.err),
				logging.ErrorKind(services.Kind(res.err)),
				logging.Duration("branch_duration", res.duration),
			)
			return
		}
		logger.Info("branch completed",
			logging.String(logging.FieldEventType, "branch_complete"),
			logging.Duration("branch_duration", res.duration),
		)
	}()

	logger.Info("branch started", logging.String(logging.FieldEventType, "branch_start"))
	res.err = b.run(ctx)
	if res.err != nil && o.opts.BranchTimeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(res.err, services.ErrTimeout) {
		res.err = services.Wrap(services.ErrTimeout, "pipeline", "branch "+b.name,
			fmt.Sprintf("exceeded %s", o.opts.BranchTimeout), res.err)
	}
	return res
}

// poolLogger routes ants diagnostics into slog.
type poolLogger struct {
	logger *slog.Logger
}

func (l poolLogger) Printf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...), logging.String(logging.FieldComponent, "branch-pool"))
}
