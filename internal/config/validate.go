package config

import (
	"errors"
	"fmt"
	"net"
)

// Validate ensures the configuration is usable. Provider credentials are not
// required here; stages report missing keys when they run and the doctor
// command lists them up front.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateMusic(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return ensurePositiveMap(map[string]int{
		"text.timeout_seconds":          c.Text.TimeoutSeconds,
		"image.timeout_seconds":         c.Image.TimeoutSeconds,
		"image.poll_interval_seconds":   c.Image.PollIntervalSeconds,
		"tts.timeout_seconds":           c.TTS.TimeoutSeconds,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func (c *Config) validatePaths() error {
	if c.Paths.OutputRoot == "" {
		return errors.New("paths.output_root must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
		return fmt.Errorf("paths.api_bind %q must be host:port: %w", c.Paths.APIBind, err)
	}
	return nil
}

func (c *Config) validateMusic() error {
	switch c.Music.LibraryMode {
	case MusicModeFixed, MusicModeClassified:
	default:
		return fmt.Errorf("music.library_mode must be %q or %q, got %q", MusicModeFixed, MusicModeClassified, c.Music.LibraryMode)
	}
	if c.Music.DefaultTrack == "" {
		return errors.New("music.default_track must be set")
	}
	return nil
}

func (c *Config) validateVideo() error {
	if c.Video.MusicVolume > 1 {
		return errors.New("video.music_volume must be between 0 and 1")
	}
	return ensurePositiveMap(map[string]int{
		"video.mix_timeout_seconds": c.Video.MixTimeoutSeconds,
	})
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.BranchWorkers < 1 {
		return errors.New("pipeline.branch_workers must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
