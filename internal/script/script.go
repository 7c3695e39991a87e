// Package script composes the narration script for an intent record.
package script

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"peaceproc/internal/intent"
	"peaceproc/internal/logging"
	"peaceproc/internal/services/llm"
)

// Component tags interaction log entries written by the composer.
const Component = "PromptCreator"

const temperature = 0.6

// TextGenerator is the narrow view of the text provider the composer needs.
type TextGenerator interface {
	Generate(ctx context.Context, req llm.Request) (string, error)
}

// Composer writes narration scripts.
type Composer struct {
	gen    TextGenerator
	logger *slog.Logger
}

// New constructs a Composer.
func New(gen TextGenerator, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Composer{gen: gen, logger: logging.NewComponentLogger(logger, "script")}
}

// TemplateFor returns the template keyed by intention, matched
// case-insensitively, and whether a specific template was found.
func TemplateFor(intention string) (string, bool) {
	tmpl, ok := templates[strings.ToLower(strings.TrimSpace(intention))]
	if !ok {
		return defaultTemplate, false
	}
	return tmpl, true
}

// Prompt builds the full generator prompt for a record.
func Prompt(record intent.Record) string {
	tmpl, _ := TemplateFor(record.Intention)
	var b strings.Builder
	b.WriteString(generalRequirements)
	b.WriteString("\n")
	fmt.Fprintf(&b, tmpl, record.Theme, record.EmotionalContext, record.ConceptList())
	if rewritten := strings.TrimSpace(record.RewrittenPrompt); rewritten != "" {
		b.WriteString("\n\nAdditional context from user: ")
		b.WriteString(record.RewrittenPrompt)
	}
	b.WriteString("\n\n")
	b.WriteString(finalRequirements)
	return b.String()
}

// Compose asks the generator for a script and returns it as produced.
func (c *Composer) Compose(ctx context.Context, record intent.Record) (string, error) {
	logger := logging.WithContext(ctx, c.logger)
	_, matched := TemplateFor(record.Intention)
	started := time.Now()

	text, err := c.gen.Generate(ctx, llm.Request{
		Prompt:      Prompt(record),
		Temperature: temperature,
		Component:   Component,
	})
	if err != nil {
		return "", err
	}
	logger.Info("script composed",
		logging.String(logging.FieldEventType, "script_composed"),
		logging.String("intention", record.Intention),
		logging.Bool("template_matched", matched),
		logging.Int("script_chars", len([]rune(text))),
		logging.Duration("stage_duration", time.Since(started)),
	)
	return text, nil
}
