package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	OutputRoot string `toml:"output_root"`
	UploadRoot string `toml:"upload_root"`
	LogDir     string `toml:"log_dir"`
	MusicDir   string `toml:"music_dir"`
	APIBind    string `toml:"api_bind"`
}

// Text contains the OpenAI-compatible text generation endpoint settings.
type Text struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Image contains the DashScope image synthesis settings.
type Image struct {
	APIKey              string `toml:"api_key"`
	BaseURL             string `toml:"base_url"`
	Model               string `toml:"model"`
	Style               string `toml:"style"`
	Size                string `toml:"size"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
	TimeoutSeconds      int    `toml:"timeout_seconds"`
}

// TTS contains the MiniMax speech synthesis settings.
type TTS struct {
	APIKey         string  `toml:"api_key"`
	GroupID        string  `toml:"group_id"`
	BaseURL        string  `toml:"base_url"`
	Model          string  `toml:"model"`
	VoiceID        string  `toml:"voice_id"`
	Speed          float64 `toml:"speed"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// Music contains background music library settings.
type Music struct {
	// LibraryMode is "fixed" (always the default track) or "classified"
	// (ask the text generator for a music type and copy the matching file).
	LibraryMode  string `toml:"library_mode"`
	DefaultTrack string `toml:"default_track"`
	Manifest     string `toml:"manifest"`
}

// Video contains the ffmpeg-based assembler settings.
type Video struct {
	FFmpegBinary      string  `toml:"ffmpeg_binary"`
	FFprobeBinary     string  `toml:"ffprobe_binary"`
	MusicVolume       float64 `toml:"music_volume"`
	MixTimeoutSeconds int     `toml:"mix_timeout_seconds"`
	MuxTimeoutSeconds int     `toml:"mux_timeout_seconds"`
}

// Pipeline contains orchestration settings.
type Pipeline struct {
	BranchWorkers        int `toml:"branch_workers"`
	BranchTimeoutSeconds int `toml:"branch_timeout_seconds"`
	ScriptCharLimit      int `toml:"script_char_limit"`
}

// Journal contains configuration for the SQLite run history.
type Journal struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	RunCompleted   bool   `toml:"run_completed"`
	RunFailed      bool   `toml:"run_failed"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for peaceproc.
//
// Configuration sections by subsystem:
//   - Paths: output/upload roots, logs, music library and API bind address
//   - Text: text generator (intent, script, image prompt, music type)
//   - Image: image generator
//   - TTS: speech synthesizer
//   - Music: background music policy
//   - Video: ffmpeg/ffprobe assembly
//   - Pipeline: branch concurrency and timeouts
//   - Journal: run history database
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Text          Text          `toml:"text"`
	Image         Image         `toml:"image"`
	TTS           TTS           `toml:"tts"`
	Music         Music         `toml:"music"`
	Video         Video         `toml:"video"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Journal       Journal       `toml:"journal"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/peaceproc/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A .env file is loaded first so provider
// credentials can live outside the TOML file.
func Load(path string) (*Config, string, bool, error) {
	if err := loadDotEnv(); err != nil {
		return nil, "", false, err
	}

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadDotEnv reads PEACEPROC_ENV_FILE or ./.env without overriding variables
// that are already set.
func loadDotEnv() error {
	path := strings.TrimSpace(os.Getenv("PEACEPROC_ENV_FILE"))
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("peaceproc.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output layout (images/, videos/, temp/) and the
// log directory. The music library is not created; a missing library surfaces
// through doctor and at assembly time.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.OutputRoot,
		filepath.Join(c.Paths.OutputRoot, "images"),
		filepath.Join(c.Paths.OutputRoot, "videos"),
		filepath.Join(c.Paths.OutputRoot, "temp"),
		c.Paths.LogDir,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DefaultTrackPath returns the absolute path of the fixed background track.
func (c *Config) DefaultTrackPath() string {
	track := strings.TrimSpace(c.Music.DefaultTrack)
	if track == "" || filepath.IsAbs(track) {
		return track
	}
	return filepath.Join(c.Paths.MusicDir, track)
}

// JournalPath returns the run journal database location.
func (c *Config) JournalPath() string {
	if strings.TrimSpace(c.Journal.Path) != "" {
		return c.Journal.Path
	}
	return filepath.Join(c.Paths.OutputRoot, "runs.db")
}

// LockPath returns the single-instance lock file used by the service daemon.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "peaceprocd.lock")
}

// BranchTimeout returns the per-branch timeout, or zero when unbounded.
func (c *Config) BranchTimeout() time.Duration {
	if c.Pipeline.BranchTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Pipeline.BranchTimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
