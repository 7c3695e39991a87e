// Package intent turns a free-text request and an emotional-state label into
// a structured Record by asking the text generator for a JSON analysis.
//
// Output that cannot be parsed never fails the run: Analyze returns the fixed
// fallback record tagged KindFallback so callers and tests can tell which
// branch fired. Transport failures from the generator still propagate.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"peaceproc/internal/logging"
	"peaceproc/internal/services"
	"peaceproc/internal/services/llm"
)

// Component tags interaction log entries written by the analyzer.
const Component = "IntentionRecognizer"

const temperature = 0.5

// Record is the structured interpretation of a request.
type Record struct {
	Intention        string   `json:"intention"`
	Theme            string   `json:"theme"`
	EmotionalContext string   `json:"emotional_context"`
	RewrittenPrompt  string   `json:"rewritten_prompt"`
	KeyConcepts      []string `json:"key_concepts"`
}

// Kind tells whether a Record came from the generator or the fallback.
type Kind string

const (
	KindParsed   Kind = "parsed"
	KindFallback Kind = "fallback"
)

// Outcome is the tagged result of Analyze.
type Outcome struct {
	Record Record
	Kind   Kind
	Raw    string
	// Reason explains a fallback; empty when parsed.
	Reason string
}

// TextGenerator is the narrow view of the text provider the analyzer needs.
type TextGenerator interface {
	Generate(ctx context.Context, req llm.Request) (string, error)
}

// Analyzer performs intent analysis.
type Analyzer struct {
	gen    TextGenerator
	logger *slog.Logger
}

// New constructs an Analyzer.
func New(gen TextGenerator, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Analyzer{gen: gen, logger: logging.NewComponentLogger(logger, "intent")}
}

// Fallback returns the default record used when the generator's answer cannot
// be parsed.
func Fallback(userPrompt, emotionalState string) Record {
	return Record{
		Intention:        "relaxation",
		Theme:            "mindfulness",
		EmotionalContext: emotionalState,
		RewrittenPrompt:  userPrompt,
		KeyConcepts:      []string{"peace", "calm"},
	}
}

// Prompt builds the structured-extraction request.
func Prompt(userPrompt, emotionalState string) string {
	return fmt.Sprintf(`
Analyze the following user input and emotional state. 
Identify the primary intention, theme, and context.

User Input: %s
Emotional State: %s

Please provide:
1. Primary intention (e.g., relaxation, motivation, education, etc.)
2. Underlying theme (e.g., nature, success, mindfulness, etc.)
3. Emotional context (considering both the stated emotional state and the content)
4. A refined/rewritten version of the prompt that captures the essence
5. Key concepts that should be addressed

Please format the response as a JSON object with the keys: intention, theme, emotional_context, rewritten_prompt, and key_concepts.
Do not output anything else after the JSON object.
`, userPrompt, emotionalState)
}

// Analyze issues a single generator call and parses the answer.
func (a *Analyzer) Analyze(ctx context.Context, userPrompt, emotionalState string) (Outcome, error) {
	if strings.TrimSpace(userPrompt) == "" {
		return Outcome{}, services.Wrap(services.ErrValidation, "intent", "analyze", "user_prompt is required", nil)
	}
	logger := logging.WithContext(ctx, a.logger)

	raw, err := a.gen.Generate(ctx, llm.Request{
		Prompt:      Prompt(userPrompt, emotionalState),
		Temperature: temperature,
		Component:   Component,
	})
	if err != nil {
		return Outcome{}, err
	}

	outcome := Parse(raw, userPrompt, emotionalState)
	if outcome.Kind == KindFallback {
		logging.WarnWithContext(logger, "intent response unparseable; using default record", "fallback_applied",
			append(logging.DecisionAttrs("intent_parse", string(KindFallback), outcome.Reason),
				logging.String(logging.FieldErrorHint, "inspect the interaction log for the raw model answer"),
				logging.String(logging.FieldImpact, "script and image use the generic relaxation record"),
			)...,
		)
		return outcome, nil
	}
	logger.Info("intent recognized",
		logging.String(logging.FieldEventType, "intent_parsed"),
		logging.String("intention", outcome.Record.Intention),
		logging.String("theme", outcome.Record.Theme),
		logging.Int("key_concepts", len(outcome.Record.KeyConcepts)),
	)
	return outcome, nil
}

var requiredKeys = []string{"intention", "theme", "emotional_context", "rewritten_prompt", "key_concepts"}

// Parse converts a raw generator answer into an Outcome. It never fails.
func Parse(raw, userPrompt, emotionalState string) Outcome {
	fallback := func(reason string) Outcome {
		return Outcome{Record: Fallback(userPrompt, emotionalState), Kind: KindFallback, Raw: raw, Reason: reason}
	}

	var fields map[string]json.RawMessage
	if err := llm.DecodeLLMJSON(llm.ExtractJSONBlock(llm.StripThink(raw)), &fields); err != nil {
		return fallback("invalid json")
	}
	for _, key := range requiredKeys {
		if _, ok := fields[key]; !ok {
			return fallback("missing key " + key)
		}
	}

	var record Record
	for key, target := range map[string]*string{
		"intention":         &record.Intention,
		"theme":             &record.Theme,
		"emotional_context": &record.EmotionalContext,
		"rewritten_prompt":  &record.RewrittenPrompt,
	} {
		if err := json.Unmarshal(fields[key], target); err != nil {
			return fallback(key + " is not a string")
		}
	}
	concepts, ok := decodeConcepts(fields["key_concepts"])
	if !ok {
		return fallback("key_concepts is not a string list")
	}
	record.KeyConcepts = concepts
	return Outcome{Record: record, Kind: KindParsed, Raw: raw}
}

func decodeConcepts(raw json.RawMessage) ([]string, bool) {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, true
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}, true
	}
	return nil, false
}

// ConceptList joins the key concepts the way the prompt templates expect.
func (r Record) ConceptList() string {
	return strings.Join(r.KeyConcepts, ", ")
}
