package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"peaceproc/internal/config"
	"peaceproc/internal/fileutil"
	"peaceproc/internal/imagery"
	"peaceproc/internal/intent"
	"peaceproc/internal/interactionlog"
	"peaceproc/internal/logging"
	"peaceproc/internal/music"
	"peaceproc/internal/narration"
	"peaceproc/internal/notifications"
	"peaceproc/internal/runstore"
	"peaceproc/internal/script"
	"peaceproc/internal/services"
	"peaceproc/internal/services/dashscope"
	"peaceproc/internal/services/llm"
	"peaceproc/internal/services/minimax"
	"peaceproc/internal/video"
)

const downloadTimeout = 2 * time.Minute

// Runtime is an orchestrator wired to the real providers, plus the resources
// it owns.
type Runtime struct {
	Orchestrator *Orchestrator
	// Journal is nil when the run journal is disabled.
	Journal      *runstore.Store
	Interactions *interactionlog.Log
	Text         *llm.Client
	Notifier     notifications.Service
}

// NewFromConfig builds the provider clients, stage components, journal and
// notifier described by cfg.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New("pipeline: config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	interactions, err := interactionlog.Open(cfg.Paths.LogDir, time.Now(), logger)
	if err != nil {
		return nil, err
	}

	text := llm.NewClient(llm.Config{
		APIKey:         cfg.Text.APIKey,
		BaseURL:        cfg.Text.BaseURL,
		Model:          cfg.Text.Model,
		TimeoutSeconds: cfg.Text.TimeoutSeconds,
	}, llm.WithRetryMaxAttempts(1), llm.WithRecorder(interactions))

	images := dashscope.NewClient(dashscope.Config{
		APIKey:         cfg.Image.APIKey,
		BaseURL:        cfg.Image.BaseURL,
		Model:          cfg.Image.Model,
		Style:          cfg.Image.Style,
		Size:           cfg.Image.Size,
		PollInterval:   time.Duration(cfg.Image.PollIntervalSeconds) * time.Second,
		TimeoutSeconds: cfg.Image.TimeoutSeconds,
	}, dashscope.WithRecorder(interactions))

	speech := minimax.NewClient(minimax.Config{
		APIKey:         cfg.TTS.APIKey,
		GroupID:        cfg.TTS.GroupID,
		BaseURL:        cfg.TTS.BaseURL,
		Model:          cfg.TTS.Model,
		VoiceID:        cfg.TTS.VoiceID,
		Speed:          cfg.TTS.Speed,
		TimeoutSeconds: cfg.TTS.TimeoutSeconds,
	}, minimax.WithRecorder(interactions))

	library, err := music.LoadLibrary(cfg.Music.Manifest)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "load music library", "", err)
	}

	var journal *runstore.Store
	var recorder Recorder
	if cfg.Journal.Enabled {
		journal, err = runstore.Open(cfg.JournalPath())
		if err != nil {
			return nil, fmt.Errorf("open run journal: %w", err)
		}
		recorder = journal
	}

	notifier := notifications.NewService(cfg)
	orchestrator := New(Deps{
		Intent:    intent.New(text, logger),
		Script:    script.New(text, logger),
		Imagery:   imagery.New(text, images, fileutil.NewHTTPFetcher(downloadTimeout), logger),
		Narration: narration.New(speech, logger),
		Music: music.New(text, music.Options{
			MusicDir:     cfg.Paths.MusicDir,
			DefaultTrack: cfg.Music.DefaultTrack,
			Library:      library,
		}, logger),
		Video: video.New(video.Config{
			FFmpegBinary:  cfg.Video.FFmpegBinary,
			FFprobeBinary: cfg.Video.FFprobeBinary,
			MusicVolume:   cfg.Video.MusicVolume,
			MixTimeout:    time.Duration(cfg.Video.MixTimeoutSeconds) * time.Second,
			MuxTimeout:    time.Duration(cfg.Video.MuxTimeoutSeconds) * time.Second,
		}, logger),
		Recorder: recorder,
		Notifier: notifier,
		Logger:   logger,
	}, Options{
		DefaultOutputRoot: cfg.Paths.OutputRoot,
		UploadRoot:        cfg.Paths.UploadRoot,
		BranchWorkers:     cfg.Pipeline.BranchWorkers,
		BranchTimeout:     cfg.BranchTimeout(),
		ScriptCharLimit:   cfg.Pipeline.ScriptCharLimit,
		MusicMode:         cfg.Music.LibraryMode,
	})

	return &Runtime{
		Orchestrator: orchestrator,
		Journal:      journal,
		Interactions: interactions,
		Text:         text,
		Notifier:     notifier,
	}, nil
}

// Close releases the journal.
func (rt *Runtime) Close() error {
	if rt == nil || rt.Journal == nil {
		return nil
	}
	return rt.Journal.Close()
}
