// Package video assembles the final meditation video with ffmpeg.
//
// CreateVideo mixes narration and background music into one track whose
// length equals the narration, then muxes it with the still image. It never
// returns an error: when ffmpeg is missing or any step fails it writes a
// placeholder marker next to the intended output and reports a Placeholder
// result, so callers must check Result.Kind before treating the path as a
// real video.
package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"peaceproc/internal/fileutil"
	"peaceproc/internal/logging"
	"peaceproc/internal/media/ffprobe"
	"peaceproc/internal/services"
)

// MixedAudioName is the transient mixed track written next to the output.
const MixedAudioName = "mixed_audio.mp3"

// PlaceholderSuffix is appended to the output path for the fallback marker.
const PlaceholderSuffix = ".placeholder.txt"

const placeholderText = "This is a placeholder for a video file that would be generated by the video synthesizer using FFmpeg."

// Kind distinguishes a real video from the placeholder fallback.
type Kind string

const (
	KindProduced    Kind = "produced"
	KindPlaceholder Kind = "placeholder"
)

// Result describes the assembler outcome. Path is always the intended output;
// MarkerPath is set only for placeholders.
type Result struct {
	Kind       Kind
	Path       string
	MarkerPath string
	Reason     string
}

// Placeholder reports whether the assembler fell back.
func (r Result) Placeholder() bool {
	return r.Kind == KindPlaceholder
}

// Request names the inputs and output of one assembly.
type Request struct {
	Image     string
	Narration string
	Music     string
	Dest      string
	// Duration overrides the video length; zero follows the audio.
	Duration time.Duration
}

// Config carries the ffmpeg settings.
type Config struct {
	FFmpegBinary  string
	FFprobeBinary string
	MusicVolume   float64
	MixTimeout    time.Duration
	MuxTimeout    time.Duration
}

// Assembler runs ffmpeg.
type Assembler struct {
	cfg    Config
	logger *slog.Logger
}

// New constructs an Assembler.
func New(cfg Config, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = logging.NewNop()
	}
	if strings.TrimSpace(cfg.FFmpegBinary) == "" {
		cfg.FFmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(cfg.FFprobeBinary) == "" {
		cfg.FFprobeBinary = "ffprobe"
	}
	if cfg.MusicVolume <= 0 {
		cfg.MusicVolume = 0.4
	}
	return &Assembler{cfg: cfg, logger: logging.NewComponentLogger(logger, "video")}
}

// CreateVideo assembles req.Dest. See the package documentation for the
// fallback contract.
func (a *Assembler) CreateVideo(ctx context.Context, req Request) Result {
	logger := logging.WithContext(ctx, a.logger)
	started := time.Now()

	if err := fileutil.EnsureDir(filepath.Dir(req.Dest)); err != nil {
		return a.placeholder(logger, req.Dest, services.Wrap(services.ErrToolUnavailable, "video", "prepare", "", err))
	}
	if err := a.assemble(ctx, logger, req); err != nil {
		_ = os.Remove(req.Dest)
		return a.placeholder(logger, req.Dest, err)
	}

	logger.Info("video assembled",
		logging.String(logging.FieldEventType, "video_produced"),
		logging.String("video_path", req.Dest),
		logging.Duration("stage_duration", time.Since(started)),
	)
	return Result{Kind: KindProduced, Path: req.Dest}
}

func (a *Assembler) assemble(ctx context.Context, logger *slog.Logger, req Request) error {
	if err := a.checkFFmpeg(ctx); err != nil {
		return err
	}

	narration, err := ffprobe.Duration(ctx, a.cfg.FFprobeBinary, req.Narration)
	if err != nil {
		return services.Wrap(services.ErrToolUnavailable, "video", "probe narration", "", err)
	}
	music, err := ffprobe.Duration(ctx, a.cfg.FFprobeBinary, req.Music)
	if err != nil {
		return services.Wrap(services.ErrToolUnavailable, "video", "probe music", "", err)
	}

	mixed := filepath.Join(filepath.Dir(req.Dest), MixedAudioName)
	loop := narration > music
	logger.Debug("mixing audio",
		logging.Float64("narration_seconds", narration),
		logging.Float64("music_seconds", music),
		logging.Bool("loop_music", loop),
	)
	if err := a.run(ctx, a.cfg.MixTimeout, "mix", MixArgs(req.Narration, req.Music, mixed, a.cfg.MusicVolume, narration, loop)); err != nil {
		return err
	}
	if err := a.run(ctx, a.cfg.MuxTimeout, "mux", MuxArgs(req.Image, mixed, req.Dest, req.Duration)); err != nil {
		return err
	}
	if !fileutil.Exists(req.Dest) {
		return services.Wrap(services.ErrToolUnavailable, "video", "mux", "ffmpeg produced no output", nil)
	}
	if err := os.Remove(mixed); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.WarnWithContext(logger, "mixed audio cleanup failed", "cleanup_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove "+mixed+" manually"),
			logging.String(logging.FieldImpact, "transient file left in session directory"),
		)
	}
	return nil
}

// MixArgs builds the ffmpeg arguments that mix narration with attenuated
// music, clamped to the narration duration. loop repeats music that is
// shorter than the narration.
func MixArgs(narration, music, output string, volume, narrationSeconds float64, loop bool) []string {
	musicChain := "[1:a]volume=" + formatFloat(volume)
	if loop {
		musicChain += ",aloop=loop=-1:size=2e+09"
	}
	filter := musicChain + "[music];[0:a][music]amix=inputs=2:duration=first[aout]"
	return []string{
		"-y",
		"-i", narration,
		"-i", music,
		"-filter_complex", filter,
		"-map", "[aout]",
		"-c:a", "libmp3lame", "-q:a", "4",
		"-t", formatFloat(narrationSeconds),
		output,
	}
}

// MuxArgs builds the ffmpeg arguments that loop the still image under the
// mixed audio. A positive duration replaces "shortest" truncation.
func MuxArgs(image, audio, output string, duration time.Duration) []string {
	args := []string{
		"-y",
		"-loop", "1",
		"-i", image,
		"-i", audio,
		"-c:v", "libx264",
		"-tune", "stillimage",
		"-c:a", "aac",
		"-b:a", "192k",
		"-pix_fmt", "yuv420p",
	}
	if duration > 0 {
		args = append(args, "-t", formatFloat(duration.Seconds()))
	} else {
		args = append(args, "-shortest")
	}
	return append(args, output)
}

func (a *Assembler) checkFFmpeg(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, a.cfg.FFmpegBinary, "-version")
	if err := cmd.Run(); err != nil {
		return services.Wrap(services.ErrToolUnavailable, "video", "check ffmpeg", a.cfg.FFmpegBinary, err)
	}
	return nil
}

func (a *Assembler) run(ctx context.Context, timeout time.Duration, step string, args []string) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, a.cfg.FFmpegBinary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, "video", step, fmt.Sprintf("ffmpeg exceeded %s", timeout), err)
		}
		detail := strings.TrimSpace(stderr.String())
		if len(detail) > 400 {
			detail = detail[len(detail)-400:]
		}
		return services.Wrap(services.ErrToolUnavailable, "video", step, detail, err)
	}
	return nil
}

func (a *Assembler) placeholder(logger *slog.Logger, dest string, cause error) Result {
	marker := dest + PlaceholderSuffix
	reason := cause.Error()
	if err := fileutil.WriteFile(marker, []byte(placeholderText+"\n\nReason: "+reason+"\n")); err != nil {
		logging.ErrorWithContext(logger, "placeholder marker write failed", "placeholder_failed",
			logging.Error(err),
			logging.String("marker_path", marker),
		)
	}
	logging.WarnWithContext(logger, "video assembly degraded to placeholder", "fallback_applied",
		logging.Error(cause),
		logging.ErrorKind(services.Kind(cause)),
		logging.String("marker_path", marker),
		logging.String(logging.FieldErrorHint, "install ffmpeg/ffprobe or check the inputs, then run peaceproc doctor"),
		logging.String(logging.FieldImpact, "no video file; a placeholder marker was written"),
	)
	return Result{Kind: KindPlaceholder, Path: dest, MarkerPath: marker, Reason: reason}
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
