package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"peaceproc/internal/config"
	"peaceproc/internal/deps"
	"peaceproc/internal/fileutil"
	"peaceproc/internal/music"
	"peaceproc/internal/services/llm"
)

// CheckAPIKey reports whether a credential is configured.
func CheckAPIKey(name, value string) Result {
	if strings.TrimSpace(value) == "" {
		return Result{Name: name, Detail: "missing"}
	}
	return Result{Name: name, Passed: true, Detail: "configured"}
}

// CheckTextAPI verifies that the text API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckTextAPI(ctx context.Context, cfg config.Text) Result {
	const name = "Text API"
	if strings.TrimSpace(cfg.APIKey) == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	}, llm.WithRetryMaxAttempts(1))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeLLMError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable (%s)", cfg.BaseURL, client.Model())}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckMusicLibrary verifies the fixed track and, in classified mode, the
// library manifest and its files.
func CheckMusicLibrary(cfg *config.Config) Result {
	const name = "Music library"
	track := cfg.DefaultTrackPath()
	if !fileutil.Exists(track) {
		return Result{Name: name, Detail: fmt.Sprintf("default track %s not found", track)}
	}
	if cfg.Music.LibraryMode != config.MusicModeClassified {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("fixed track %s", track)}
	}

	library, err := music.LoadLibrary(cfg.Music.Manifest)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	selector := music.New(nil, music.Options{MusicDir: cfg.Paths.MusicDir, Library: library}, nil)
	var missing []string
	for _, musicType := range music.Types() {
		if !fileutil.Exists(selector.TrackPath(musicType)) {
			missing = append(missing, string(musicType))
		}
	}
	if len(missing) > 0 {
		return Result{Name: name, Detail: "missing tracks for " + strings.Join(missing, ", ")}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d classified tracks", len(music.Types()))}
}

// CheckMediaBinaries reports ffmpeg and ffprobe availability. Both are
// optional.
func CheckMediaBinaries(cfg *config.Config) []Result {
	statuses := deps.CheckBinaries(deps.MediaRequirements(cfg.Video.FFmpegBinary, cfg.Video.FFprobeBinary))
	results := make([]Result, 0, len(statuses))
	for _, status := range statuses {
		result := Result{Name: status.Name, Passed: status.Available, Optional: status.Optional}
		if status.Available {
			result.Detail = status.Path
		} else {
			result.Detail = status.Detail + " (videos degrade to placeholders)"
		}
		results = append(results, result)
	}
	return results
}

// summarizeLLMError produces a human-readable summary for health check failures.
func summarizeLLMError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (text API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (text API unreachable)"
	}
	return err.Error()
}
