package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"peaceproc/internal/config"
	"peaceproc/internal/fileutil"
	"peaceproc/internal/intent"
	"peaceproc/internal/logging"
	"peaceproc/internal/runstore"
	"peaceproc/internal/services"
	"peaceproc/internal/video"
)

// SyntheticRecord is the intent record the step workflows build around
// caller-supplied text.
func SyntheticRecord(text string) intent.Record {
	return intent.Record{
		Intention:        "meditation",
		Theme:            "mindfulness",
		EmotionalContext: "calm",
		RewrittenPrompt:  text,
		KeyConcepts:      []string{"peace", "tranquility", "meditation"},
	}
}

// RunPipeline analyzes intent, runs the text, image and music branches
// concurrently and assembles the video in req.OutputPath.
func (o *Orchestrator) RunPipeline(ctx context.Context, req RunRequest) (VideoOutcome, error) {
	if strings.TrimSpace(req.UserPrompt) == "" {
		return VideoOutcome{}, services.Wrap(services.ErrValidation, "pipeline", "run", "user_prompt is required", nil)
	}
	emotional := normalizeState(req.EmotionalState)
	dir := strings.TrimSpace(req.OutputPath)
	if dir == "" {
		dir = TempRunPath(o.opts.DefaultOutputRoot, o.opts.Clock)
	}
	if err := EnsureSession(dir); err != nil {
		return VideoOutcome{}, err
	}

	ctx, r := o.begin(ctx, runSpec{
		workflow:       WorkflowRunPipeline,
		sessionDir:     dir,
		userPrompt:     req.UserPrompt,
		emotionalState: emotional,
		initial:        StateIntentPending,
	})

	record, err := o.analyze(ctx, r, req.UserPrompt, emotional)
	if err != nil {
		return VideoOutcome{}, r.fail(ctx, err)
	}
	if err := r.transition(ctx, StateIntentDone); err != nil {
		return VideoOutcome{}, r.fail(ctx, err)
	}

	imagePath := filepath.Join(dir, ImageName)
	narrationPath := filepath.Join(dir, NarrationName)
	var musicPath string
	err = o.fanOut(ctx, r, []branch{
		{name: BranchText, state: StateTextPending, run: func(ctx context.Context) error {
			return o.textBranch(ctx, r, record, dir, narrationPath)
		}},
		{name: BranchImage, state: StateImagePending, run: func(ctx context.Context) error {
			return o.imageBranch(ctx, r, record, imagePath)
		}},
		{name: BranchMusic, state: StateMusicPending, run: func(ctx context.Context) error {
			path, err := o.musicBranch(ctx, r, record, dir)
			musicPath = path
			return err
		}},
	})
	if err != nil {
		return VideoOutcome{}, r.fail(ctx, err)
	}
	if err := r.transition(ctx, StateAllBranchesDone); err != nil {
		return VideoOutcome{}, r.fail(ctx, err)
	}

	outcome, err := o.assemble(ctx, r, dir, imagePath, narrationPath, musicPath)
	if err != nil {
		return VideoOutcome{}, r.fail(ctx, err)
	}
	r.succeed(ctx, outcome.Path, outcome.Placeholder)
	return outcome, nil
}

// GenerateTextOnly analyzes intent and composes the script.
func (o *Orchestrator) GenerateTextOnly(ctx context.Context, userPrompt, emotionalState string) (string, error) {
	return o.composeText(ctx, WorkflowTextOnly, userPrompt, emotionalState)
}

func (o *Orchestrator) composeText(ctx context.Context, workflow Workflow, userPrompt, emotionalState string) (string, error) {
	if strings.TrimSpace(userPrompt) == "" {
		return "", services.Wrap(services.ErrValidation, "pipeline", string(workflow), "user_prompt is required", nil)
	}
	emotional := normalizeState(emotionalState)
	ctx, r := o.begin(ctx, runSpec{
		workflow:       workflow,
		userPrompt:     userPrompt,
		emotionalState: emotional,
		initial:        StateIntentPending,
	})

	record, err := o.analyze(ctx, r, userPrompt, emotional)
	if err != nil {
		return "", r.fail(ctx, err)
	}
	if err := r.transition(ctx, StateIntentDone); err != nil {
		return "", r.fail(ctx, err)
	}
	if err := r.transition(ctx, StateTextPending); err != nil {
		return "", r.fail(ctx, err)
	}
	var script string
	err = r.stage(ctx, "script", func(ctx context.Context) error {
		var err error
		script, err = o.deps.Script.Compose(ctx, record)
		return err
	})
	if err != nil {
		return "", r.fail(ctx, err)
	}
	r.succeed(ctx, "", false)
	return script, nil
}

// GenerateImageOnly renders an image for text into outputPath/image.png.
func (o *Orchestrator) GenerateImageOnly(ctx context.Context, text, outputPath string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", services.Wrap(services.ErrValidation, "pipeline", string(WorkflowImageOnly), "text_content is required", nil)
	}
	dir := strings.TrimSpace(outputPath)
	if dir == "" {
		dir = SessionPath(o.opts.DefaultOutputRoot, KindImages, NewSessionID(o.opts.Clock))
	}
	if err := EnsureSession(dir); err != nil {
		return "", err
	}

	ctx, r := o.begin(ctx, runSpec{
		workflow:   WorkflowImageOnly,
		sessionDir: dir,
		userPrompt: text,
		initial:    StateIntentDone,
	})
	if err := r.transition(ctx, StateImagePending); err != nil {
		return "", r.fail(ctx, err)
	}
	imagePath := filepath.Join(dir, ImageName)
	if err := o.imageBranch(ctx, r, SyntheticRecord(text), imagePath); err != nil {
		return "", r.fail(ctx, err)
	}
	r.succeed(ctx, imagePath, false)
	return imagePath, nil
}

// GenerateVideoOnly narrates req.Text over a supplied or freshly generated
// image with the fixed music track. Stages run sequentially: the image is
// settled before any speech is synthesized.
func (o *Orchestrator) GenerateVideoOnly(ctx context.Context, req VideoRequest) (VideoOutcome, error) {
	if strings.TrimSpace(req.Text) == "" {
		return VideoOutcome{}, services.Wrap(services.ErrValidation, "pipeline", string(WorkflowVideoOnly), "text_content is required", nil)
	}
	dir := strings.TrimSpace(req.OutputPath)
	if dir == "" {
		dir = SessionPath(o.opts.DefaultOutputRoot, KindVideos, NewSessionID(o.opts.Clock))
	}
	if err := EnsureSession(dir); err != nil {
		return VideoOutcome{}, err
	}

	ctx, r := o.begin(ctx, runSpec{
		workflow:   WorkflowVideoOnly,
		sessionDir: dir,
		userPrompt: req.Text,
		initial:    StateIntentDone,
	})

	imagePath, ok := ResolveImageReference(req.ImagePath, o.opts.UploadRoot)
	if ok {
		r.logger.Info("using supplied image",
			logging.Args(append(logging.DecisionAttrs("image_source", "supplied", "reference resolved"),
				logging.String("image_path", imagePath))...)...,
		)
	} else {
		if strings.TrimSpace(req.ImagePath) != "" {
			miss := services.Wrap(services.ErrPathResolution, "pipeline", "resolve image", req.ImagePath, nil)
			logging.WarnWithContext(r.logger, "image reference unresolved; generating a fresh image", "fallback_applied",
				append(logging.DecisionAttrs("image_source", "generated", "reference did not resolve"),
					logging.String("image_reference", req.ImagePath),
					logging.String("resolved_path", imagePath),
					logging.ErrorKind(services.Kind(miss)),
					logging.String(logging.FieldErrorHint, "check paths.upload_root and the uploaded file name"),
					logging.String(logging.FieldImpact, "a new image is generated for this video"),
				)...,
			)
		}
		if err := r.transition(ctx, StateImagePending); err != nil {
			return VideoOutcome{}, r.fail(ctx, err)
		}
		imagePath = filepath.Join(dir, ImageName)
		if err := o.imageBranch(ctx, r, SyntheticRecord(req.Text), imagePath); err != nil {
			return VideoOutcome{}, r.fail(ctx, err)
		}
	}

	if err := r.transition(ctx, StateTextPending); err != nil {
		return VideoOutcome{}, r.fail(ctx, err)
	}
	narrationPath := filepath.Join(dir, NarrationName)
	err := r.stage(ctx, "narration", func(ctx context.Context) error {
		script := truncateRunes(req.Text, o.opts.ScriptCharLimit)
		if err := writeScript(dir, script); err != nil {
			return err
		}
		_, err := o.deps.Narration.Convert(ctx, script, narrationPath)
		return err
	})
	if err != nil {
		return VideoOutcome{}, r.fail(ctx, err)
	}

	if err := r.transition(ctx, StateMusicPending); err != nil {
		return VideoOutcome{}, r.fail(ctx, err)
	}
	musicPath, err := o.fixedTrack(ctx, r)
	if err != nil {
		return VideoOutcome{}, r.fail(ctx, err)
	}
	if err := r.transition(ctx, StateAllBranchesDone); err != nil {
		return VideoOutcome{}, r.fail(ctx, err)
	}

	outcome, err := o.assemble(ctx, r, dir, imagePath, narrationPath, musicPath)
	if err != nil {
		return VideoOutcome{}, r.fail(ctx, err)
	}
	r.succeed(ctx, outcome.Path, outcome.Placeholder)
	return outcome, nil
}

func (o *Orchestrator) analyze(ctx context.Context, r *run, userPrompt, emotional string) (intent.Record, error) {
	var outcome intent.Outcome
	err := r.stage(ctx, "intent", func(ctx context.Context) error {
		var err error
		outcome, err = o.deps.Intent.Analyze(ctx, userPrompt, emotional)
		return err
	})
	if err != nil {
		return intent.Record{}, err
	}
	r.note(func(entry *runstore.Run) { entry.IntentKind = string(outcome.Kind) })
	return outcome.Record, nil
}

// textBranch composes the script, saves it and narrates the truncated text.
func (o *Orchestrator) textBranch(ctx context.Context, r *run, record intent.Record, dir, narrationPath string) error {
	var script string
	err := r.stage(ctx, "script", func(ctx context.Context) error {
		var err error
		if script, err = o.deps.Script.Compose(ctx, record); err != nil {
			return err
		}
		return writeScript(dir, script)
	})
	if err != nil {
		return err
	}
	return r.stage(ctx, "narration", func(ctx context.Context) error {
		_, err := o.deps.Narration.Convert(ctx, truncateRunes(script, o.opts.ScriptCharLimit), narrationPath)
		return err
	})
}

func (o *Orchestrator) imageBranch(ctx context.Context, r *run, record intent.Record, dest string) error {
	return r.stage(ctx, "image", func(ctx context.Context) error {
		prompt, err := o.deps.Imagery.CreatePrompt(ctx, record)
		if err != nil {
			return err
		}
		_, err = o.deps.Imagery.GenerateImage(ctx, prompt, dest)
		return err
	})
}

// musicBranch resolves the fixed track, or classifies and copies a library
// track into the session when the classified mode is configured.
func (o *Orchestrator) musicBranch(ctx context.Context, r *run, record intent.Record, dir string) (string, error) {
	if o.opts.MusicMode != config.MusicModeClassified {
		return o.fixedTrack(ctx, r)
	}
	var path string
	err := r.stage(ctx, "music", func(ctx context.Context) error {
		outcome, err := o.deps.Music.SelectType(ctx, record)
		if err != nil {
			return err
		}
		r.note(func(entry *runstore.Run) {
			entry.MusicType = string(outcome.Type)
			entry.MusicKind = string(outcome.Kind)
		})
		path, err = o.deps.Music.Select(outcome.Type, filepath.Join(dir, MusicName))
		return err
	})
	return path, err
}

func (o *Orchestrator) fixedTrack(ctx context.Context, r *run) (string, error) {
	var path string
	err := r.stage(ctx, "music", func(ctx context.Context) error {
		path = o.deps.Music.DefaultTrack()
		r.note(func(entry *runstore.Run) { entry.MusicKind = config.MusicModeFixed })
		r.log(ctx).Info("music track resolved",
			logging.Args(append(logging.DecisionAttrs("music_selection", config.MusicModeFixed, "fixed track policy"),
				logging.String("music_path", path))...)...,
		)
		return nil
	})
	return path, err
}

// assemble checks that every upstream artifact exists and runs the assembler.
func (o *Orchestrator) assemble(ctx context.Context, r *run, dir, imagePath, narrationPath, musicPath string) (VideoOutcome, error) {
	if err := requireArtifacts(
		artifact{"narration", narrationPath},
		artifact{"image", imagePath},
		artifact{"music", musicPath},
	); err != nil {
		return VideoOutcome{}, err
	}
	if err := r.transition(ctx, StateVideoPending); err != nil {
		return VideoOutcome{}, err
	}

	dest := filepath.Join(dir, VideoName)
	var result video.Result
	_ = r.stage(ctx, "video", func(ctx context.Context) error {
		result = o.deps.Video.CreateVideo(ctx, video.Request{
			Image:     imagePath,
			Narration: narrationPath,
			Music:     musicPath,
			Dest:      dest,
		})
		return nil
	})
	if result.Placeholder() {
		r.logger.Info("video result recorded",
			logging.Args(append(logging.DecisionAttrs("video_result", string(video.KindPlaceholder), result.Reason),
				logging.String("marker_path", result.MarkerPath))...)...,
		)
	}
	path := result.Path
	if path == "" {
		path = dest
	}
	return VideoOutcome{
		Path:        path,
		Placeholder: result.Placeholder(),
		MarkerPath:  result.MarkerPath,
		SessionDir:  dir,
	}, nil
}

type artifact struct {
	name string
	path string
}

func requireArtifacts(artifacts ...artifact) error {
	for _, a := range artifacts {
		if strings.TrimSpace(a.path) == "" || !fileutil.Exists(a.path) {
			return services.Wrap(services.ErrNotFound, "pipeline", "assemble", fmt.Sprintf("missing artifact %s: %s", a.name, a.path), nil)
		}
	}
	return nil
}

func writeScript(dir, script string) error {
	path := filepath.Join(dir, ScriptName)
	if err := fileutil.WriteFile(path, []byte("generated script:\n"+script)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
