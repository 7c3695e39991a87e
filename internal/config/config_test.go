package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"peaceproc/internal/config"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OUTPUT_DIR", "MUSIC_DIR",
		"TEXT_API_KEY", "DEEPSEEK_API_KEY", "TEXT_BASE_URL", "TEXT_MODEL_NAME",
		"DASHSCOPE_API_KEY", "IMAGE_API_KEY", "IMAGE_BASE_URL", "IMAGE_MODEL_NAME",
		"TTS_API_KEY", "TTS_GROUP_ID", "TTS_BASE_URL", "TTS_MODEL_NAME",
		"PEACEPROC_ENV_FILE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	clearProviderEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("TEXT_API_KEY", "text-key")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantOutput := filepath.Join(tempHome, ".local", "share", "peaceproc", "uploads")
	if cfg.Paths.OutputRoot != wantOutput {
		t.Fatalf("unexpected output root: got %q want %q", cfg.Paths.OutputRoot, wantOutput)
	}
	if cfg.Paths.UploadRoot != wantOutput {
		t.Fatalf("expected upload root to default to output root, got %q", cfg.Paths.UploadRoot)
	}
	if cfg.Paths.APIBind != "127.0.0.1:8008" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Text.APIKey != "text-key" {
		t.Fatalf("expected text key from env, got %q", cfg.Text.APIKey)
	}
	if cfg.Image.APIKey != "" {
		t.Fatalf("expected empty image key, got %q", cfg.Image.APIKey)
	}
	if cfg.Music.LibraryMode != config.MusicModeFixed {
		t.Fatalf("expected fixed music mode, got %q", cfg.Music.LibraryMode)
	}
	wantManifest := filepath.Join(cfg.Paths.MusicDir, "library.yaml")
	if cfg.Music.Manifest != wantManifest {
		t.Fatalf("unexpected manifest path: got %q want %q", cfg.Music.Manifest, wantManifest)
	}
	if got := cfg.DefaultTrackPath(); got != filepath.Join(cfg.Paths.MusicDir, "瑜伽冥想减压音乐 - Awakening.mp3") {
		t.Fatalf("unexpected default track path: %q", got)
	}
	if cfg.Pipeline.BranchWorkers != 3 {
		t.Fatalf("expected 3 branch workers, got %d", cfg.Pipeline.BranchWorkers)
	}
	if cfg.BranchTimeout() != 0 {
		t.Fatalf("expected unbounded branch timeout, got %s", cfg.BranchTimeout())
	}
	if cfg.JournalPath() != filepath.Join(wantOutput, "runs.db") {
		t.Fatalf("unexpected journal path: %q", cfg.JournalPath())
	}
}

func TestLoadCustomPath(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("HOME", t.TempDir())
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "peaceproc.toml")

	type payload struct {
		Paths struct {
			OutputRoot string `toml:"output_root"`
			UploadRoot string `toml:"upload_root"`
		} `toml:"paths"`
		Image struct {
			APIKey string `toml:"api_key"`
			Style  string `toml:"style"`
		} `toml:"image"`
		Pipeline struct {
			BranchTimeoutSeconds int `toml:"branch_timeout_seconds"`
		} `toml:"pipeline"`
		Music struct {
			LibraryMode string `toml:"library_mode"`
		} `toml:"music"`
	}
	custom := payload{}
	custom.Paths.OutputRoot = filepath.Join(tempDir, "out")
	custom.Paths.UploadRoot = filepath.Join(tempDir, "uploads")
	custom.Image.APIKey = "file-image"
	custom.Image.Style = "<sketch>"
	custom.Pipeline.BranchTimeoutSeconds = 90
	custom.Music.LibraryMode = "Classified"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.OutputRoot != filepath.Join(tempDir, "out") {
		t.Fatalf("unexpected output root: %q", cfg.Paths.OutputRoot)
	}
	if cfg.Paths.UploadRoot != filepath.Join(tempDir, "uploads") {
		t.Fatalf("unexpected upload root: %q", cfg.Paths.UploadRoot)
	}
	if cfg.Image.APIKey != "file-image" {
		t.Fatalf("expected image key from file, got %q", cfg.Image.APIKey)
	}
	if cfg.Image.Style != "<sketch>" {
		t.Fatalf("expected style override, got %q", cfg.Image.Style)
	}
	if cfg.BranchTimeout() != 90*time.Second {
		t.Fatalf("expected 90s branch timeout, got %s", cfg.BranchTimeout())
	}
	if cfg.Music.LibraryMode != config.MusicModeClassified {
		t.Fatalf("expected classified mode, got %q", cfg.Music.LibraryMode)
	}
	if cfg.Image.Size != "1024*1024" {
		t.Fatalf("expected default size to survive partial file, got %q", cfg.Image.Size)
	}
}

func TestConfigFileKeysWinOverEnvironment(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("HOME", t.TempDir())
	configPath := filepath.Join(t.TempDir(), "peaceproc.toml")

	type payload struct {
		TTS struct {
			APIKey  string `toml:"api_key"`
			GroupID string `toml:"group_id"`
		} `toml:"tts"`
	}
	custom := payload{}
	custom.TTS.APIKey = "file-tts"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	t.Setenv("TTS_API_KEY", "env-tts")
	t.Setenv("TTS_GROUP_ID", "env-group")
	t.Setenv("TTS_MODEL_NAME", "speech-01")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.TTS.APIKey != "file-tts" {
		t.Errorf("expected explicit file key to win, got %q", cfg.TTS.APIKey)
	}
	if cfg.TTS.GroupID != "env-group" {
		t.Errorf("expected group id from env, got %q", cfg.TTS.GroupID)
	}
	if cfg.TTS.Model != "speech-01" {
		t.Errorf("expected env model to replace default, got %q", cfg.TTS.Model)
	}
}

func TestLoadReadsDotEnvFile(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("HOME", t.TempDir())
	envPath := filepath.Join(t.TempDir(), "peaceproc.env")
	if err := os.WriteFile(envPath, []byte("DASHSCOPE_API_KEY=dotenv-image\n"), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("PEACEPROC_ENV_FILE", envPath)
	// godotenv sets the variable process-wide; restore it after the test.
	t.Setenv("DASHSCOPE_API_KEY", "")
	os.Unsetenv("DASHSCOPE_API_KEY")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Image.APIKey != "dotenv-image" {
		t.Fatalf("expected image key from env file, got %q", cfg.Image.APIKey)
	}
}

func TestLoadMissingExplicitEnvFileFails(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PEACEPROC_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	if _, _, _, err := config.Load(""); err == nil {
		t.Fatal("expected error for missing explicit env file")
	}
}

func TestEnsureDirectoriesCreatesLayout(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputRoot = filepath.Join(base, "uploads")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{"images", "videos", "temp"} {
		info, err := os.Stat(filepath.Join(cfg.Paths.OutputRoot, dir))
		if err != nil || !info.IsDir() {
			t.Fatalf("expected %s directory, err=%v", dir, err)
		}
	}
	if _, err := os.Stat(cfg.Paths.LogDir); err != nil {
		t.Fatalf("expected log dir: %v", err)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "DASHSCOPE_API_KEY") {
		t.Fatalf("sample config missing credential hint: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.OutputRoot, "peaceproc") {
		t.Fatalf("expected output root to contain peaceproc, got %q", cfg.Paths.OutputRoot)
	}
	if cfg.Pipeline.BranchWorkers != 3 {
		t.Fatalf("expected sample branch workers 3, got %d", cfg.Pipeline.BranchWorkers)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"bind":          func(c *config.Config) { c.Paths.APIBind = "no-port" },
		"music mode":    func(c *config.Config) { c.Music.LibraryMode = "random" },
		"volume":        func(c *config.Config) { c.Video.MusicVolume = 1.5 },
		"mix timeout":   func(c *config.Config) { c.Video.MixTimeoutSeconds = 0 },
		"workers":       func(c *config.Config) { c.Pipeline.BranchWorkers = 0 },
		"log level":     func(c *config.Config) { c.Logging.Level = "verbose" },
		"image timeout": func(c *config.Config) { c.Image.TimeoutSeconds = 0 },
		"default track": func(c *config.Config) { c.Music.DefaultTrack = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error for %s", name)
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
