package preflight

import (
	"context"

	"peaceproc/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes every preflight check for the given config. The text API
// is only contacted when reachable is true.
func RunAll(ctx context.Context, cfg *config.Config, reachable bool) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckAPIKey("Text API key", cfg.Text.APIKey),
		CheckAPIKey("Image API key", cfg.Image.APIKey),
		CheckAPIKey("Speech API key", cfg.TTS.APIKey),
		CheckAPIKey("Speech group ID", cfg.TTS.GroupID),
	}
	if reachable {
		results = append(results, CheckTextAPI(ctx, cfg.Text))
	}

	results = append(results,
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputRoot),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("Music directory", cfg.Paths.MusicDir),
		CheckMusicLibrary(cfg),
	)
	results = append(results, CheckMediaBinaries(cfg)...)
	return results
}

// Failures returns the required checks that did not pass.
func Failures(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}
