package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeText()
	c.normalizeImage()
	c.normalizeTTS()
	if err := c.normalizeMusic(); err != nil {
		return err
	}
	c.normalizeVideo()
	c.normalizePipeline()
	if err := c.normalizeJournal(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	c.Paths.OutputRoot = envFallback(c.Paths.OutputRoot, defaultOutputRoot, "OUTPUT_DIR")
	if strings.TrimSpace(c.Paths.OutputRoot) == "" {
		c.Paths.OutputRoot = defaultOutputRoot
	}
	if c.Paths.OutputRoot, err = expandPath(c.Paths.OutputRoot); err != nil {
		return fmt.Errorf("paths.output_root: %w", err)
	}
	if strings.TrimSpace(c.Paths.UploadRoot) == "" {
		c.Paths.UploadRoot = c.Paths.OutputRoot
	}
	if c.Paths.UploadRoot, err = expandPath(c.Paths.UploadRoot); err != nil {
		return fmt.Errorf("paths.upload_root: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.MusicDir = envFallback(c.Paths.MusicDir, defaultMusicDir, "MUSIC_DIR")
	if strings.TrimSpace(c.Paths.MusicDir) == "" {
		c.Paths.MusicDir = defaultMusicDir
	}
	if c.Paths.MusicDir, err = expandPath(c.Paths.MusicDir); err != nil {
		return fmt.Errorf("paths.music_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeText() {
	c.Text.APIKey = envFallback(c.Text.APIKey, "", "TEXT_API_KEY", "DEEPSEEK_API_KEY")
	c.Text.BaseURL = envFallback(c.Text.BaseURL, defaultTextBaseURL, "TEXT_BASE_URL")
	c.Text.Model = envFallback(c.Text.Model, defaultTextModel, "TEXT_MODEL_NAME")
	if c.Text.BaseURL == "" {
		c.Text.BaseURL = defaultTextBaseURL
	}
	if c.Text.Model == "" {
		c.Text.Model = defaultTextModel
	}
	if c.Text.TimeoutSeconds <= 0 {
		c.Text.TimeoutSeconds = defaultTextTimeout
	}
}

func (c *Config) normalizeImage() {
	c.Image.APIKey = envFallback(c.Image.APIKey, "", "DASHSCOPE_API_KEY", "IMAGE_API_KEY")
	c.Image.BaseURL = envFallback(c.Image.BaseURL, defaultImageBaseURL, "IMAGE_BASE_URL")
	c.Image.Model = envFallback(c.Image.Model, defaultImageModel, "IMAGE_MODEL_NAME")
	if c.Image.BaseURL == "" {
		c.Image.BaseURL = defaultImageBaseURL
	}
	if c.Image.Model == "" {
		c.Image.Model = defaultImageModel
	}
	if c.Image.Style = strings.TrimSpace(c.Image.Style); c.Image.Style == "" {
		c.Image.Style = defaultImageStyle
	}
	if c.Image.Size = strings.TrimSpace(c.Image.Size); c.Image.Size == "" {
		c.Image.Size = defaultImageSize
	}
	if c.Image.PollIntervalSeconds <= 0 {
		c.Image.PollIntervalSeconds = defaultImagePollInterval
	}
	if c.Image.TimeoutSeconds <= 0 {
		c.Image.TimeoutSeconds = defaultImageTimeout
	}
}

func (c *Config) normalizeTTS() {
	c.TTS.APIKey = envFallback(c.TTS.APIKey, "", "TTS_API_KEY")
	c.TTS.GroupID = envFallback(c.TTS.GroupID, "", "TTS_GROUP_ID")
	c.TTS.BaseURL = envFallback(c.TTS.BaseURL, defaultTTSBaseURL, "TTS_BASE_URL")
	c.TTS.Model = envFallback(c.TTS.Model, defaultTTSModel, "TTS_MODEL_NAME")
	if c.TTS.BaseURL == "" {
		c.TTS.BaseURL = defaultTTSBaseURL
	}
	if c.TTS.Model == "" {
		c.TTS.Model = defaultTTSModel
	}
	if c.TTS.VoiceID = strings.TrimSpace(c.TTS.VoiceID); c.TTS.VoiceID == "" {
		c.TTS.VoiceID = defaultTTSVoice
	}
	if c.TTS.Speed <= 0 {
		c.TTS.Speed = defaultTTSSpeed
	}
	if c.TTS.TimeoutSeconds <= 0 {
		c.TTS.TimeoutSeconds = defaultTTSTimeout
	}
}

func (c *Config) normalizeMusic() error {
	c.Music.LibraryMode = strings.ToLower(strings.TrimSpace(c.Music.LibraryMode))
	if c.Music.LibraryMode == "" {
		c.Music.LibraryMode = defaultMusicMode
	}
	c.Music.DefaultTrack = strings.TrimSpace(c.Music.DefaultTrack)
	if c.Music.DefaultTrack == "" {
		c.Music.DefaultTrack = defaultMusicTrack
	}
	c.Music.Manifest = strings.TrimSpace(c.Music.Manifest)
	if c.Music.Manifest == "" {
		c.Music.Manifest = defaultMusicManifest
	}
	if !filepath.IsAbs(c.Music.Manifest) && !strings.HasPrefix(c.Music.Manifest, "~") {
		c.Music.Manifest = filepath.Join(c.Paths.MusicDir, c.Music.Manifest)
	}
	var err error
	if c.Music.Manifest, err = expandPath(c.Music.Manifest); err != nil {
		return fmt.Errorf("music.manifest: %w", err)
	}
	return nil
}

func (c *Config) normalizeVideo() {
	if c.Video.FFmpegBinary = strings.TrimSpace(c.Video.FFmpegBinary); c.Video.FFmpegBinary == "" {
		c.Video.FFmpegBinary = defaultFFmpegBinary
	}
	if c.Video.FFprobeBinary = strings.TrimSpace(c.Video.FFprobeBinary); c.Video.FFprobeBinary == "" {
		c.Video.FFprobeBinary = defaultFFprobeBinary
	}
	if c.Video.MusicVolume <= 0 {
		c.Video.MusicVolume = defaultMusicVolume
	}
	if c.Video.MixTimeoutSeconds <= 0 {
		c.Video.MixTimeoutSeconds = defaultMixTimeoutSeconds
	}
	if c.Video.MuxTimeoutSeconds < 0 {
		c.Video.MuxTimeoutSeconds = 0
	}
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.BranchWorkers <= 0 {
		c.Pipeline.BranchWorkers = defaultBranchWorkers
	}
	if c.Pipeline.BranchTimeoutSeconds < 0 {
		c.Pipeline.BranchTimeoutSeconds = 0
	}
	if c.Pipeline.ScriptCharLimit <= 0 {
		c.Pipeline.ScriptCharLimit = defaultScriptCharLimit
	}
}

func (c *Config) normalizeJournal() error {
	if strings.TrimSpace(c.Journal.Path) == "" {
		return nil
	}
	var err error
	if c.Journal.Path, err = expandPath(c.Journal.Path); err != nil {
		return fmt.Errorf("journal.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

// envFallback returns the first non-empty environment value among keys when
// current is empty or still equal to the repository default.
func envFallback(current, def string, keys ...string) string {
	current = strings.TrimSpace(current)
	if current != "" && current != def {
		return current
	}
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return current
}
