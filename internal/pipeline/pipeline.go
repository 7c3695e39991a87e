package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"peaceproc/internal/config"
	"peaceproc/internal/intent"
	"peaceproc/internal/logging"
	"peaceproc/internal/music"
	"peaceproc/internal/notifications"
	"peaceproc/internal/runstore"
	"peaceproc/internal/video"
)

// IntentAnalyzer produces the intent record for a prompt.
type IntentAnalyzer interface {
	Analyze(ctx context.Context, userPrompt, emotionalState string) (intent.Outcome, error)
}

// ScriptComposer writes narration text for an intent.
type ScriptComposer interface {
	Compose(ctx context.Context, record intent.Record) (string, error)
}

// ImageComposer builds an image prompt and renders it to a file.
type ImageComposer interface {
	CreatePrompt(ctx context.Context, record intent.Record) (string, error)
	GenerateImage(ctx context.Context, prompt, dest string) (string, error)
}

// Narrator converts text to a narration audio file.
type Narrator interface {
	Convert(ctx context.Context, text, dest string) (string, error)
}

// MusicSelector locates background music.
type MusicSelector interface {
	SelectType(ctx context.Context, record intent.Record) (music.TypeOutcome, error)
	Select(musicType music.Type, dest string) (string, error)
	DefaultTrack() string
}

// Assembler produces the final video or a placeholder.
type Assembler interface {
	CreateVideo(ctx context.Context, req video.Request) video.Result
}

// Recorder persists run history. *runstore.Store satisfies it.
type Recorder interface {
	Begin(ctx context.Context, run runstore.Run) (*runstore.Run, error)
	Transition(ctx context.Context, id, state string) error
	Finish(ctx context.Context, run *runstore.Run) error
}

// Deps are the stage components. Recorder and Notifier are optional.
type Deps struct {
	Intent    IntentAnalyzer
	Script    ScriptComposer
	Imagery   ImageComposer
	Narration Narrator
	Music     MusicSelector
	Video     Assembler
	Recorder  Recorder
	Notifier  notifications.Service
	Logger    *slog.Logger
}

// Options tune the orchestrator.
type Options struct {
	// DefaultOutputRoot hosts temp/, images/ and videos/ sessions when the
	// caller supplies no output path.
	DefaultOutputRoot string
	// UploadRoot backs /images/ and /videos/ references.
	UploadRoot string
	// BranchWorkers sizes the per-run pool. Defaults to 3.
	BranchWorkers int
	// BranchTimeout bounds each branch; zero is unbounded.
	BranchTimeout time.Duration
	// ScriptCharLimit truncates narration input. Defaults to 500 runes.
	ScriptCharLimit int
	// MusicMode is config.MusicModeFixed or config.MusicModeClassified.
	MusicMode string
	Clock     Clock
}

const (
	defaultBranchWorkers   = 3
	defaultScriptCharLimit = 500
	defaultEmotionalState  = "neutral"
)

// Orchestrator runs the workflows. It holds no per-run state and is safe
// for concurrent use.
type Orchestrator struct {
	deps   Deps
	opts   Options
	logger *slog.Logger
}

// New constructs an Orchestrator.
func New(deps Deps, opts Options) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewService(&config.Config{})
	}
	if opts.BranchWorkers <= 0 {
		opts.BranchWorkers = defaultBranchWorkers
	}
	if opts.ScriptCharLimit <= 0 {
		opts.ScriptCharLimit = defaultScriptCharLimit
	}
	if opts.BranchTimeout < 0 {
		opts.BranchTimeout = 0
	}
	if strings.TrimSpace(opts.MusicMode) == "" {
		opts.MusicMode = config.MusicModeFixed
	}
	if strings.TrimSpace(opts.UploadRoot) == "" {
		opts.UploadRoot = opts.DefaultOutputRoot
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Orchestrator{
		deps:   deps,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "orchestrator"),
	}
}

// Options returns the effective options.
func (o *Orchestrator) Options() Options {
	return o.opts
}

// RunRequest is the input of a full run.
type RunRequest struct {
	UserPrompt     string
	EmotionalState string
	// OutputPath defaults to <DefaultOutputRoot>/temp/<timestamp>.
	OutputPath string
}

// VideoRequest is the input of the video-only workflow.
type VideoRequest struct {
	Text string
	// ImagePath is optional; an unresolvable reference triggers a fresh image.
	ImagePath string
	// OutputPath defaults to <DefaultOutputRoot>/videos/<timestamp>.
	OutputPath string
}

// VideoOutcome reports where the video landed. Placeholder is set when the
// assembler fell back to a marker file; Path then names a file that does
// not exist.
type VideoOutcome struct {
	Path        string
	Placeholder bool
	MarkerPath  string
	SessionDir  string
}

// truncateRunes cuts text to at most limit runes.
func truncateRunes(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

func normalizeState(state string) string {
	if state = strings.TrimSpace(state); state == "" {
		return defaultEmotionalState
	}
	return state
}
