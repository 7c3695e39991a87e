// Package narration converts script text into a narration audio file.
package narration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"peaceproc/internal/fileutil"
	"peaceproc/internal/logging"
	"peaceproc/internal/services"
)

// SpeechSynthesizer returns encoded audio for text.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Narrator writes synthesized speech to disk.
type Narrator struct {
	synth  SpeechSynthesizer
	logger *slog.Logger
}

// New constructs a Narrator.
func New(synth SpeechSynthesizer, logger *slog.Logger) *Narrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Narrator{synth: synth, logger: logging.NewComponentLogger(logger, "narration")}
}

// Convert synthesizes text and writes the audio to dest.
func (n *Narrator) Convert(ctx context.Context, text, dest string) (string, error) {
	logger := logging.WithContext(ctx, n.logger)
	started := time.Now()

	audio, err := n.synth.Synthesize(ctx, text)
	if err != nil {
		return "", err
	}
	if len(audio) == 0 {
		return "", services.Wrap(services.ErrUpstream, "tts", "convert", "synthesizer returned no audio", nil)
	}
	if err := fileutil.WriteFile(dest, audio); err != nil {
		return "", fmt.Errorf("write narration %s: %w", dest, err)
	}
	logger.Info("narration written",
		logging.String(logging.FieldEventType, "narration_written"),
		logging.String("audio_path", dest),
		logging.Int("audio_bytes", len(audio)),
		logging.Int("text_chars", len([]rune(text))),
		logging.Duration("stage_duration", time.Since(started)),
	)
	return dest, nil
}
