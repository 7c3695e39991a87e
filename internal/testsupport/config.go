package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"peaceproc/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Provider credentials are filled with placeholders and the journal points
// inside the temp tree.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputRoot = filepath.Join(base, "uploads")
	cfgVal.Paths.UploadRoot = filepath.Join(base, "uploads")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.MusicDir = filepath.Join(base, "music")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Music.Manifest = filepath.Join(base, "music", "library.yaml")
	cfgVal.Journal.Path = filepath.Join(base, "uploads", "runs.db")
	cfgVal.Text.APIKey = "test-text"
	cfgVal.Image.APIKey = "test-image"
	cfgVal.TTS.APIKey = "test-tts"
	cfgVal.TTS.GroupID = "test-group"
	cfgVal.Video.FFmpegBinary = filepath.Join(base, "bin", "missing-ffmpeg")
	cfgVal.Video.FFprobeBinary = filepath.Join(base, "bin", "missing-ffprobe")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithMusicLibrary writes the default track and the given library files into
// the music directory.
func WithMusicLibrary(files ...string) ConfigOption {
	return func(b *configBuilder) {
		names := append([]string{b.cfg.Music.DefaultTrack}, files...)
		for _, name := range names {
			WriteFile(b.t, filepath.Join(b.cfg.Paths.MusicDir, name), 64)
		}
	}
}

// WithStubbedMedia installs stub ffmpeg and ffprobe binaries and points the
// video config at them. See WriteMediaStubs for the stub behaviour.
func WithStubbedMedia(narrationSeconds, musicSeconds float64) ConfigOption {
	return func(b *configBuilder) {
		stubs := WriteMediaStubs(b.t, filepath.Join(b.baseDir, "bin"), narrationSeconds, musicSeconds, false)
		b.cfg.Video.FFmpegBinary = stubs.FFmpeg
		b.cfg.Video.FFprobeBinary = stubs.FFprobe
	}
}

// WithJournalDisabled turns the run journal off.
func WithJournalDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Journal.Enabled = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}

func mkdirAll(t testing.TB, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
}
