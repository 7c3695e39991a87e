// Package music picks the background track for a session.
//
// The full pipeline resolves one fixed default track unless the library is
// configured as "classified", in which case SelectType asks the text
// generator for one of six categories and Select copies the matching library
// file into the session. Classification never fails on odd output: anything
// outside the six tokens is coerced to ambient and tagged as such.
package music

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"peaceproc/internal/fileutil"
	"peaceproc/internal/intent"
	"peaceproc/internal/logging"
	"peaceproc/internal/services"
	"peaceproc/internal/services/llm"
)

// Component tags interaction log entries written by the selector.
const Component = "MusicSelector"

const (
	temperature = 0.3
	maxTokens   = 50
)

// Type is one of the six music categories.
type Type string

const (
	Ambient  Type = "ambient"
	Nature   Type = "nature"
	Piano    Type = "piano"
	Positive Type = "positive"
	Deep     Type = "deep"
	Gentle   Type = "gentle"
)

// Types lists the valid categories in prompt order.
func Types() []Type {
	return []Type{Ambient, Nature, Piano, Positive, Deep, Gentle}
}

// ParseType matches a normalized token against the valid categories.
func ParseType(raw string) (Type, bool) {
	candidate := Type(Normalize(raw))
	for _, t := range Types() {
		if candidate == t {
			return t, true
		}
	}
	return "", false
}

// Normalize lower-cases raw and strips surrounding whitespace. Quotes and
// punctuation are kept, so "Piano." is not a valid category.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// OutcomeKind tells whether the type came from the generator or the default.
type OutcomeKind string

const (
	KindClassified OutcomeKind = "classified"
	KindCoerced    OutcomeKind = "coerced"
)

// TypeOutcome is the tagged result of SelectType.
type TypeOutcome struct {
	Type Type
	Kind OutcomeKind
	Raw  string
}

// TextGenerator classifies intents.
type TextGenerator interface {
	Generate(ctx context.Context, req llm.Request) (string, error)
}

// Options locate the music library.
type Options struct {
	MusicDir     string
	DefaultTrack string
	Library      Library
}

// Selector resolves background music.
type Selector struct {
	gen    TextGenerator
	opts   Options
	logger *slog.Logger
}

// New constructs a Selector. A nil library uses DefaultLibrary.
func New(gen TextGenerator, opts Options, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.Library == nil {
		opts.Library = DefaultLibrary()
	}
	return &Selector{gen: gen, opts: opts, logger: logging.NewComponentLogger(logger, "music")}
}

// Prompt builds the classification request.
func Prompt(record intent.Record) string {
	return fmt.Sprintf(`
Analyze the following intention and emotional context, and select ONE of these music types that would best match:
- ambient (calm, peaceful meditative)
- nature (grounded, refreshed, connected to earth)
- piano (reflective, emotional, introspective)
- positive (happy, uplifted, motivated, energetic)
- deep (focused, concentrated, intense)
- gentle (soothing, comforting, soft)

Intention: %s
Theme: %s
Emotional Context: %s

Return ONLY one of the music type keywords listed above, nothing else.`,
		strings.ToLower(record.Intention), record.Theme, record.EmotionalContext)
}

// Classify maps a raw generator answer to a TypeOutcome. It never fails.
func Classify(raw string) TypeOutcome {
	if t, ok := ParseType(raw); ok {
		return TypeOutcome{Type: t, Kind: KindClassified, Raw: raw}
	}
	return TypeOutcome{Type: Ambient, Kind: KindCoerced, Raw: raw}
}

// SelectType asks the generator for a music category.
func (s *Selector) SelectType(ctx context.Context, record intent.Record) (TypeOutcome, error) {
	raw, err := s.gen.Generate(ctx, llm.Request{
		Prompt:      Prompt(record),
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Component:   Component,
	})
	if err != nil {
		return TypeOutcome{}, err
	}
	outcome := Classify(raw)
	logger := logging.WithContext(ctx, s.logger)
	if outcome.Kind == KindCoerced {
		logging.WarnWithContext(logger, "music type unrecognized; using ambient", "fallback_applied",
			append(logging.DecisionAttrs("music_type", string(outcome.Type), "generator answer outside the six types"),
				logging.String("raw_answer", raw),
				logging.String(logging.FieldImpact, "ambient track used"),
			)...,
		)
	} else {
		logger.Info("music type selected", logging.Args(
			append(logging.DecisionAttrs("music_type", string(outcome.Type), "classified"),
				logging.String(logging.FieldEventType, "music_classified"),
			)...,
		)...)
	}
	return outcome, nil
}

// TrackPath returns the library file for a type, using ambient for unknown
// types.
func (s *Selector) TrackPath(musicType Type) string {
	file, ok := s.opts.Library[musicType]
	if !ok {
		file = s.opts.Library[Ambient]
	}
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(s.opts.MusicDir, file)
}

// Select copies the library file for musicType to dest.
func (s *Selector) Select(musicType Type, dest string) (string, error) {
	src := s.TrackPath(musicType)
	if err := fileutil.CopyFile(src, dest); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", services.Wrap(services.ErrNotFound, "music", "select", fmt.Sprintf("library file %s", src), err)
		}
		return "", fmt.Errorf("copy music %s: %w", src, err)
	}
	return dest, nil
}

// DefaultTrack returns the fixed track used by the full pipeline.
func (s *Selector) DefaultTrack() string {
	track := s.opts.DefaultTrack
	if track == "" || filepath.IsAbs(track) {
		return track
	}
	return filepath.Join(s.opts.MusicDir, track)
}
