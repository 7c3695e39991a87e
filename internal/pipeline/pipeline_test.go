package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"peaceproc/internal/config"
	"peaceproc/internal/imagery"
	"peaceproc/internal/intent"
	"peaceproc/internal/music"
	"peaceproc/internal/narration"
	"peaceproc/internal/pipeline"
	"peaceproc/internal/runstore"
	"peaceproc/internal/script"
	"peaceproc/internal/services"
	"peaceproc/internal/services/llm"
	"peaceproc/internal/testsupport"
	"peaceproc/internal/video"
)

const intentJSON = `{"intention":"relaxation","theme":"evening calm","emotional_context":"stressed","rewritten_prompt":"unwind after work","key_concepts":["breath","release"]}`

// fakeText answers by component tag. A component listed in block waits for
// context cancellation.
type fakeText struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	block     map[string]bool
	prompts   map[string][]string
}

func newFakeText() *fakeText {
	return &fakeText{
		responses: map[string]string{
			intent.Component:  intentJSON,
			script.Component:  "Close your eyes. Breathe in slowly. Let the day go",
			imagery.Component: "a quiet lake at dusk, soft watercolor",
			music.Component:   "piano",
		},
		errs:    map[string]error{},
		block:   map[string]bool{},
		prompts: map[string][]string{},
	}
}

func (f *fakeText) Generate(ctx context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	f.prompts[req.Component] = append(f.prompts[req.Component], req.Prompt)
	resp, err, block := f.responses[req.Component], f.errs[req.Component], f.block[req.Component]
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return resp, err
}

func (f *fakeText) calls(component string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts[component]...)
}

type fakeImages struct {
	mu    sync.Mutex
	calls int
	err   error
	delay time.Duration
	block bool
}

func (f *fakeImages) Generate(ctx context.Context, _ string) ([]string, error) {
	f.mu.Lock()
	f.calls++
	err, delay, block := f.err, f.delay, f.block
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return nil, services.Wrap(services.ErrUpstream, "image", "poll", "", ctx.Err())
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	return []string{"https://images.example/result.png"}, nil
}

func (f *fakeImages) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeFetcher struct{}

func (fakeFetcher) Fetch(context.Context, string) ([]byte, error) {
	return []byte("png-bytes"), nil
}

type fakeSpeech struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (f *fakeSpeech) Synthesize(_ context.Context, text string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("mp3-bytes"), nil
}

type harness struct {
	cfg     *config.Config
	text    *fakeText
	images  *fakeImages
	speech  *fakeSpeech
	stubs   testsupport.MediaStubs
	journal *runstore.Store
	orch    *pipeline.Orchestrator
}

type harnessOption func(*harnessConfig)

type harnessConfig struct {
	opts        pipeline.Options
	withMusic   bool
	libraryFile []string
	withFFmpeg  bool
}

func withOptions(fn func(*pipeline.Options)) harnessOption {
	return func(c *harnessConfig) { fn(&c.opts) }
}

func withoutMusic() harnessOption {
	return func(c *harnessConfig) { c.withMusic = false }
}

func withoutFFmpeg() harnessOption {
	return func(c *harnessConfig) { c.withFFmpeg = false }
}

func withLibrary(files ...string) harnessOption {
	return func(c *harnessConfig) { c.libraryFile = append(c.libraryFile, files...) }
}

func newHarness(t *testing.T, options ...harnessOption) *harness {
	t.Helper()
	hc := harnessConfig{withMusic: true, withFFmpeg: true}
	for _, opt := range options {
		opt(&hc)
	}

	var cfgOpts []testsupport.ConfigOption
	if hc.withMusic {
		cfgOpts = append(cfgOpts, testsupport.WithMusicLibrary(hc.libraryFile...))
	}
	cfg := testsupport.NewConfig(t, cfgOpts...)

	h := &harness{
		cfg:    cfg,
		text:   newFakeText(),
		images: &fakeImages{},
		speech: &fakeSpeech{},
	}
	if hc.withFFmpeg {
		h.stubs = testsupport.WriteMediaStubs(t, filepath.Join(testsupport.BaseDir(cfg), "bin"), 12, 30, false)
		cfg.Video.FFmpegBinary = h.stubs.FFmpeg
		cfg.Video.FFprobeBinary = h.stubs.FFprobe
	}
	h.journal = testsupport.MustOpenJournal(t, cfg)

	opts := hc.opts
	opts.DefaultOutputRoot = cfg.Paths.OutputRoot
	opts.UploadRoot = cfg.Paths.UploadRoot
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC) }
	}

	h.orch = pipeline.New(pipeline.Deps{
		Intent:    intent.New(h.text, nil),
		Script:    script.New(h.text, nil),
		Imagery:   imagery.New(h.text, h.images, fakeFetcher{}, nil),
		Narration: narration.New(h.speech, nil),
		Music: music.New(h.text, music.Options{
			MusicDir:     cfg.Paths.MusicDir,
			DefaultTrack: cfg.Music.DefaultTrack,
		}, nil),
		Video: video.New(video.Config{
			FFmpegBinary:  cfg.Video.FFmpegBinary,
			FFprobeBinary: cfg.Video.FFprobeBinary,
			MixTimeout:    10 * time.Second,
		}, nil),
		Recorder: h.journal,
	}, opts)
	return h
}

func (h *harness) onlyRun(t *testing.T) runstore.Run {
	t.Helper()
	runs, err := h.journal.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 journal run, got %d", len(runs))
	}
	return runs[0]
}

func (h *harness) states(t *testing.T, id string) []string {
	t.Helper()
	transitions, err := h.journal.Transitions(context.Background(), id)
	if err != nil {
		t.Fatalf("Transitions: %v", err)
	}
	states := make([]string, 0, len(transitions))
	for _, tr := range transitions {
		states = append(states, tr.State)
	}
	return states
}

func TestRunPipelineProducesVideo(t *testing.T) {
	h := newHarness(t)
	out := filepath.Join(h.cfg.Paths.OutputRoot, "temp", "session-a")

	outcome, err := h.orch.RunPipeline(context.Background(), pipeline.RunRequest{
		UserPrompt:     "I need to relax after a stressful day",
		EmotionalState: "stressed",
		OutputPath:     out,
	})
	if err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}
	if outcome.Placeholder {
		t.Fatalf("expected produced video, got placeholder %+v", outcome)
	}
	if outcome.Path != filepath.Join(out, pipeline.VideoName) || outcome.SessionDir != out {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	for _, name := range []string{pipeline.ScriptName, pipeline.ImageName, pipeline.NarrationName, pipeline.VideoName} {
		testsupport.RequireFile(t, filepath.Join(out, name))
	}
	if _, err := os.Stat(filepath.Join(out, video.MixedAudioName)); !os.IsNotExist(err) {
		t.Fatalf("expected mixed audio removed, stat err=%v", err)
	}

	scriptText, err := os.ReadFile(filepath.Join(out, pipeline.ScriptName))
	if err != nil {
		t.Fatalf("read script: %v", err)
	}
	if string(scriptText) != "generated script:\nClose your eyes. Breathe in slowly. Let the day go" {
		t.Fatalf("unexpected script file %q", scriptText)
	}
	if prompts := h.text.calls(script.Component); len(prompts) != 1 || !strings.Contains(prompts[0], "evening calm") {
		t.Fatalf("expected script prompt built from parsed intent, got %v", prompts)
	}

	run := h.onlyRun(t)
	if run.Status != runstore.StatusCompleted || run.Workflow != string(pipeline.WorkflowRunPipeline) {
		t.Fatalf("unexpected journal run %+v", run)
	}
	if run.SessionID != "session-a" || run.IntentKind != string(intent.KindParsed) || run.ArtifactPath != outcome.Path {
		t.Fatalf("unexpected journal details %+v", run)
	}
	want := []string{"INTENT_DONE", "TEXT_PENDING", "IMAGE_PENDING", "MUSIC_PENDING", "ALL_BRANCHES_DONE", "VIDEO_PENDING", "DONE"}
	if got := h.states(t, run.ID); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("transitions = %v, want %v", got, want)
	}
	testsupport.RequireFile(t, filepath.Join(out, "pipeline.log"))
}

func TestRunPipelineDefaultsToTempSession(t *testing.T) {
	h := newHarness(t)

	outcome, err := h.orch.RunPipeline(context.Background(), pipeline.RunRequest{UserPrompt: "calm me"})
	if err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}
	want := filepath.Join(h.cfg.Paths.OutputRoot, "temp", "20260314_092653")
	if outcome.SessionDir != want {
		t.Fatalf("session dir = %q, want %q", outcome.SessionDir, want)
	}
	if run := h.onlyRun(t); run.EmotionalState != "neutral" {
		t.Fatalf("expected neutral default state, got %q", run.EmotionalState)
	}
}

func TestRunPipelineTruncatesNarration(t *testing.T) {
	h := newHarness(t)
	long := strings.Repeat("é", 700)
	h.text.responses[script.Component] = long

	if _, err := h.orch.RunPipeline(context.Background(), pipeline.RunRequest{UserPrompt: "calm me"}); err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}
	if len(h.speech.texts) != 1 || len([]rune(h.speech.texts[0])) != 500 {
		t.Fatalf("expected 500-rune narration input, got %d texts", len(h.speech.texts))
	}
}

func TestRunPipelineRejectsEmptyPrompt(t *testing.T) {
	h := newHarness(t)

	_, err := h.orch.RunPipeline(context.Background(), pipeline.RunRequest{UserPrompt: "   "})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(h.text.calls(intent.Component)) != 0 {
		t.Fatal("expected no stage to run")
	}
	runs, _ := h.journal.List(context.Background(), 10)
	if len(runs) != 0 {
		t.Fatalf("expected no journal entry, got %d", len(runs))
	}
}

func TestRunPipelineIntentFallbackStillRuns(t *testing.T) {
	h := newHarness(t)
	h.text.responses[intent.Component] = "not json at all"

	if _, err := h.orch.RunPipeline(context.Background(), pipeline.RunRequest{UserPrompt: "help", EmotionalState: "anxious"}); err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}
	if run := h.onlyRun(t); run.IntentKind != string(intent.KindFallback) {
		t.Fatalf("expected fallback intent kind, got %q", run.IntentKind)
	}
}

func TestRunPipelineReportsFirstBranchFailureWithoutCancellingSiblings(t *testing.T) {
	h := newHarness(t)
	h.speech.err = services.Wrap(services.ErrUpstream, "tts", "synthesize", "speech boom", nil)
	h.images.err = services.Wrap(services.ErrUpstream, "image", "generate", "image boom", nil)
	h.images.delay = 50 * time.Millisecond

	_, err := h.orch.RunPipeline(context.Background(), pipeline.RunRequest{UserPrompt: "calm me"})
	if err == nil || !strings.Contains(err.Error(), "speech boom") {
		t.Fatalf("expected text branch failure first, got %v", err)
	}
	if h.images.count() != 1 {
		t.Fatalf("expected image branch to run to completion, calls=%d", h.images.count())
	}
	if lines := testsupport.ReadArgLog(t, h.stubs); len(lines) != 0 {
		t.Fatalf("expected no ffmpeg invocation, got %v", lines)
	}

	run := h.onlyRun(t)
	if run.Status != runstore.StatusFailed || run.State != string(pipeline.StateFailed) || run.ErrorKind != "upstream" {
		t.Fatalf("unexpected failed run %+v", run)
	}
	states := h.states(t, run.ID)
	if states[len(states)-1] != string(pipeline.StateFailed) {
		t.Fatalf("expected FAILED last, got %v", states)
	}
}

func TestRunPipelineMissingMusicFailsBeforeMux(t *testing.T) {
	h := newHarness(t, withoutMusic())

	_, err := h.orch.RunPipeline(context.Background(), pipeline.RunRequest{UserPrompt: "calm me"})
	if !errors.Is(err, services.ErrNotFound) || !strings.Contains(err.Error(), "missing artifact music") {
		t.Fatalf("expected missing music artifact, got %v", err)
	}
	if lines := testsupport.ReadArgLog(t, h.stubs); len(lines) != 0 {
		t.Fatalf("expected no ffmpeg invocation, got %v", lines)
	}
	states := h.states(t, h.onlyRun(t).ID)
	if got := states[len(states)-2:]; got[0] != "ALL_BRANCHES_DONE" || got[1] != "FAILED" {
		t.Fatalf("expected failure after join, got %v", states)
	}
}

func TestRunPipelineBranchTimeout(t *testing.T) {
	h := newHarness(t, withOptions(func(o *pipeline.Options) { o.BranchTimeout = 50 * time.Millisecond }))
	h.images.block = true

	_, err := h.orch.RunPipeline(context.Background(), pipeline.RunRequest{UserPrompt: "calm me"})
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if kind := services.Kind(err); kind != "timeout" {
		t.Fatalf("expected timeout kind, got %q", kind)
	}
}

func TestRunPipelinePlaceholderWhenFFmpegMissing(t *testing.T) {
	h := newHarness(t, withoutFFmpeg())

	outcome, err := h.orch.RunPipeline(context.Background(), pipeline.RunRequest{UserPrompt: "calm me"})
	if err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}
	if !outcome.Placeholder || outcome.MarkerPath != outcome.Path+video.PlaceholderSuffix {
		t.Fatalf("expected placeholder outcome, got %+v", outcome)
	}
	testsupport.RequireFile(t, outcome.MarkerPath)
	if _, err := os.Stat(outcome.Path); !os.IsNotExist(err) {
		t.Fatalf("expected no video file, stat err=%v", err)
	}
	if run := h.onlyRun(t); !run.Placeholder || run.Status != runstore.StatusCompleted {
		t.Fatalf("expected completed placeholder run, got %+v", run)
	}
}

func TestRunPipelineClassifiedMusic(t *testing.T) {
	h := newHarness(t,
		withLibrary("gentle_piano.mp3"),
		withOptions(func(o *pipeline.Options) { o.MusicMode = config.MusicModeClassified }),
	)

	outcome, err := h.orch.RunPipeline(context.Background(), pipeline.RunRequest{UserPrompt: "calm me"})
	if err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}
	testsupport.RequireFile(t, filepath.Join(outcome.SessionDir, pipeline.MusicName))
	run := h.onlyRun(t)
	if run.MusicType != string(music.Piano) || run.MusicKind != string(music.KindClassified) {
		t.Fatalf("unexpected music decision %+v", run)
	}
	joined := strings.Join(testsupport.ReadArgLog(t, h.stubs), "\n")
	if !strings.Contains(joined, filepath.Join(outcome.SessionDir, pipeline.MusicName)) {
		t.Fatalf("expected mix to use copied track, got %s", joined)
	}
}

func TestGenerateTextOnly(t *testing.T) {
	h := newHarness(t)

	text, err := h.orch.GenerateTextOnly(context.Background(), "help me focus", "")
	if err != nil {
		t.Fatalf("GenerateTextOnly: %v", err)
	}
	if text != h.text.responses[script.Component] {
		t.Fatalf("unexpected text %q", text)
	}
	if h.images.count() != 0 || len(h.speech.texts) != 0 {
		t.Fatal("text only must not call image or speech providers")
	}
	run := h.onlyRun(t)
	want := []string{"INTENT_DONE", "TEXT_PENDING", "DONE"}
	if got := h.states(t, run.ID); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("transitions = %v, want %v", got, want)
	}
}

func TestGenerateTextOnlyPropagatesComposerFailure(t *testing.T) {
	h := newHarness(t)
	h.text.errs[script.Component] = services.Wrap(services.ErrUpstream, "llm", "generate", "status 500", nil)

	_, err := h.orch.GenerateTextOnly(context.Background(), "help", "sad")
	if !errors.Is(err, services.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if run := h.onlyRun(t); run.Status != runstore.StatusFailed {
		t.Fatalf("expected failed run, got %+v", run)
	}
}

func TestGenerateTextStream(t *testing.T) {
	h := newHarness(t)

	chunks, errs := h.orch.GenerateTextStream(context.Background(), "help", "tired")
	var got []string
	for chunk := range chunks {
		got = append(got, chunk)
	}
	if err := <-errs; err != nil {
		t.Fatalf("stream error: %v", err)
	}
	want := []string{"Close your eyes. ", "Breathe in slowly. ", "Let the day go"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("chunks = %q, want %q", got, want)
	}
}

func TestGenerateTextStreamReportsFailure(t *testing.T) {
	h := newHarness(t)

	chunks, errs := h.orch.GenerateTextStream(context.Background(), "", "tired")
	for range chunks {
		t.Fatal("expected no chunks")
	}
	if err := <-errs; !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGenerateImageOnly(t *testing.T) {
	h := newHarness(t)

	path, err := h.orch.GenerateImageOnly(context.Background(), "a quiet forest", "")
	if err != nil {
		t.Fatalf("GenerateImageOnly: %v", err)
	}
	want := filepath.Join(h.cfg.Paths.OutputRoot, "images", "20260314_092653", pipeline.ImageName)
	if path != want {
		t.Fatalf("path = %q, want %q", path, want)
	}
	testsupport.RequireFile(t, path)
	prompts := h.text.calls(imagery.Component)
	if len(prompts) != 1 || !strings.Contains(prompts[0], "tranquility") {
		t.Fatalf("expected synthesized record in image prompt, got %v", prompts)
	}
	if len(h.text.calls(intent.Component)) != 0 {
		t.Fatal("image only must not analyze intent")
	}
}

func TestGenerateImageOnlyRequiresText(t *testing.T) {
	h := newHarness(t)
	if _, err := h.orch.GenerateImageOnly(context.Background(), " ", ""); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGenerateVideoOnlyFallsBackToFreshImage(t *testing.T) {
	h := newHarness(t)
	out := filepath.Join(h.cfg.Paths.OutputRoot, "videos", "sid-b")

	outcome, err := h.orch.GenerateVideoOnly(context.Background(), pipeline.VideoRequest{
		Text:       "Breathe in. Breathe out.",
		ImagePath:  "/images/nonexistent.png",
		OutputPath: out,
	})
	if err != nil {
		t.Fatalf("GenerateVideoOnly: %v", err)
	}
	testsupport.RequireFile(t, filepath.Join(out, pipeline.ImageName))
	testsupport.RequireFile(t, outcome.Path)
	if h.images.count() != 1 {
		t.Fatalf("expected a fresh image, calls=%d", h.images.count())
	}
	run := h.onlyRun(t)
	want := []string{"IMAGE_PENDING", "TEXT_PENDING", "MUSIC_PENDING", "ALL_BRANCHES_DONE", "VIDEO_PENDING", "DONE"}
	if got := h.states(t, run.ID); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("transitions = %v, want %v", got, want)
	}
}

func TestGenerateVideoOnlyImageFailureSkipsNarration(t *testing.T) {
	h := newHarness(t)
	h.images.err = services.Wrap(services.ErrUpstream, "image", "submit", "status 500", errors.New("boom"))
	out := filepath.Join(h.cfg.Paths.OutputRoot, "videos", "sid-c")

	_, err := h.orch.GenerateVideoOnly(context.Background(), pipeline.VideoRequest{
		Text:       "Breathe in. Breathe out.",
		ImagePath:  "/images/missing.png",
		OutputPath: out,
	})
	if !errors.Is(err, services.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	h.speech.mu.Lock()
	synthesized := len(h.speech.texts)
	h.speech.mu.Unlock()
	if synthesized != 0 {
		t.Fatalf("expected no speech synthesis, calls=%d", synthesized)
	}
	for _, name := range []string{pipeline.ScriptName, pipeline.NarrationName} {
		if _, statErr := os.Stat(filepath.Join(out, name)); !os.IsNotExist(statErr) {
			t.Fatalf("expected no %s, stat err=%v", name, statErr)
		}
	}
}

func TestGenerateVideoOnlyUsesUploadedImage(t *testing.T) {
	h := newHarness(t)
	uploaded := filepath.Join(h.cfg.Paths.UploadRoot, "images", "prev", "image.png")
	testsupport.WriteFile(t, uploaded, 16)

	outcome, err := h.orch.GenerateVideoOnly(context.Background(), pipeline.VideoRequest{
		Text:      strings.Repeat("a", 600),
		ImagePath: "/images/prev/image.png",
	})
	if err != nil {
		t.Fatalf("GenerateVideoOnly: %v", err)
	}
	if h.images.count() != 0 {
		t.Fatalf("expected no image generation, calls=%d", h.images.count())
	}
	if want := filepath.Join(h.cfg.Paths.OutputRoot, "videos", "20260314_092653"); outcome.SessionDir != want {
		t.Fatalf("session dir = %q, want %q", outcome.SessionDir, want)
	}
	if !strings.Contains(strings.Join(testsupport.ReadArgLog(t, h.stubs), "\n"), uploaded) {
		t.Fatal("expected mux to use the uploaded image")
	}
	data, err := os.ReadFile(filepath.Join(outcome.SessionDir, pipeline.ScriptName))
	if err != nil {
		t.Fatalf("read script: %v", err)
	}
	if want := "generated script:\n" + strings.Repeat("a", 500); string(data) != want {
		t.Fatalf("expected truncated script, got %d bytes", len(data))
	}
}

func TestGenerateVideoOnlyRequiresText(t *testing.T) {
	h := newHarness(t)
	_, err := h.orch.GenerateVideoOnly(context.Background(), pipeline.VideoRequest{})
	if !errors.Is(err, services.ErrValidation) || !strings.Contains(err.Error(), "text_content is required") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestConcurrentRunsUseDistinctSessions(t *testing.T) {
	h := newHarness(t)

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.orch.RunPipeline(context.Background(), pipeline.RunRequest{
				UserPrompt: "calm me",
				OutputPath: filepath.Join(h.cfg.Paths.OutputRoot, "temp", fmt.Sprintf("run-%d", i)),
			})
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		testsupport.RequireFile(t, filepath.Join(h.cfg.Paths.OutputRoot, "temp", fmt.Sprintf("run-%d", i), pipeline.VideoName))
	}
}
