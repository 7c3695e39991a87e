// Package imagery turns an intent record into an image brief and renders it
// through the image generator, downloading the result into the session.
package imagery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"peaceproc/internal/fileutil"
	"peaceproc/internal/intent"
	"peaceproc/internal/logging"
	"peaceproc/internal/services"
	"peaceproc/internal/services/llm"
)

// Component tags interaction log entries for prompt enhancement.
const Component = "ImagePromptCreator_Text"

const temperature = 0.6

// TextGenerator enhances base prompts.
type TextGenerator interface {
	Generate(ctx context.Context, req llm.Request) (string, error)
}

// ImageGenerator renders a prompt and returns result URLs.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) ([]string, error)
}

// Fetcher downloads a remote payload.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Composer builds image prompts and images.
type Composer struct {
	text    TextGenerator
	images  ImageGenerator
	fetcher Fetcher
	logger  *slog.Logger
}

// New constructs a Composer.
func New(text TextGenerator, images ImageGenerator, fetcher Fetcher, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Composer{
		text:    text,
		images:  images,
		fetcher: fetcher,
		logger:  logging.NewComponentLogger(logger, "imagery"),
	}
}

// BasePrompt describes the image from the record before enhancement.
func BasePrompt(record intent.Record) string {
	return fmt.Sprintf("Create a %s-focused image that captures the essence of %s.\n"+
		"The image should convey a sense of %s and incorporate elements of %s.",
		record.Intention, record.Theme, record.EmotionalContext, record.ConceptList())
}

// EnhancementPrompt wraps a base prompt in the enhancement instructions.
func EnhancementPrompt(base string) string {
	return fmt.Sprintf(`
Create a detailed, vivid, and specific image generation prompt based on the following theme and concepts.
Make it suitable for an AI image generator (like DALL-E) by including specific visual elements,
lighting, mood, style, and composition details.

Base prompt: %s

The image should be:
- High quality and aesthetically pleasing
- Suitable for a meditation or mindfulness video
- Emotionally resonant with the theme and concepts
- Not containing any text or human faces
- Avoiding any controversial, disturbing or explicit content

Enhance the prompt with specific details about:
- Visual elements and symbolism
- Color palette and lighting
- Artistic style
- Composition and perspective

Return ONLY the enhanced prompt text, without any explanations, introductions or additional notes.
`, base)
}

// CreatePrompt asks the text generator to enhance the base prompt and returns
// the answer verbatim.
func (c *Composer) CreatePrompt(ctx context.Context, record intent.Record) (string, error) {
	enhanced, err := c.text.Generate(ctx, llm.Request{
		Prompt:      EnhancementPrompt(BasePrompt(record)),
		Temperature: temperature,
		Component:   Component,
	})
	if err != nil {
		return "", err
	}
	return enhanced, nil
}

// GenerateImage renders prompt and writes the first result to dest.
func (c *Composer) GenerateImage(ctx context.Context, prompt, dest string) (string, error) {
	logger := logging.WithContext(ctx, c.logger)
	started := time.Now()

	urls, err := c.images.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	if len(urls) == 0 || strings.TrimSpace(urls[0]) == "" {
		return "", services.Wrap(services.ErrUpstream, "image", "generate", "generator returned no image url", nil)
	}

	payload, err := c.fetcher.Fetch(ctx, urls[0])
	if err != nil {
		var statusErr *fileutil.StatusError
		if errors.As(err, &statusErr) {
			return "", services.Wrap(services.ErrUpstream, "image", "download", fmt.Sprintf("status %d", statusErr.StatusCode), err)
		}
		return "", services.Wrap(services.ErrUpstream, "image", "download", "", err)
	}
	if err := fileutil.WriteFile(dest, payload); err != nil {
		return "", fmt.Errorf("write image %s: %w", dest, err)
	}

	logger.Info("image generated",
		logging.String(logging.FieldEventType, "image_generated"),
		logging.String("image_path", dest),
		logging.Int("image_bytes", len(payload)),
		logging.Duration("stage_duration", time.Since(started)),
	)
	return dest, nil
}
