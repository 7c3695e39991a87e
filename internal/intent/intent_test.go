package intent

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"peaceproc/internal/services"
	"peaceproc/internal/services/llm"
)

type fakeGenerator struct {
	response string
	err      error
	requests []llm.Request
}

func (f *fakeGenerator) Generate(_ context.Context, req llm.Request) (string, error) {
	f.requests = append(f.requests, req)
	return f.response, f.err
}

func TestAnalyzeParsesGeneratorJSON(t *testing.T) {
	gen := &fakeGenerator{response: "<think>hmm</think>```json\n" + `{
		"intention": "relaxation",
		"theme": "evening calm",
		"emotional_context": "stressed but hopeful",
		"rewritten_prompt": "Help me unwind after work",
		"key_concepts": ["breath", "release"]
	}` + "\n```"}

	outcome, err := New(gen, nil).Analyze(context.Background(), "I need to relax after a stressful day", "stressed")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if outcome.Kind != KindParsed {
		t.Fatalf("expected parsed outcome, got %s (%s)", outcome.Kind, outcome.Reason)
	}
	want := Record{
		Intention:        "relaxation",
		Theme:            "evening calm",
		EmotionalContext: "stressed but hopeful",
		RewrittenPrompt:  "Help me unwind after work",
		KeyConcepts:      []string{"breath", "release"},
	}
	if !reflect.DeepEqual(outcome.Record, want) {
		t.Fatalf("unexpected record %+v", outcome.Record)
	}

	if len(gen.requests) != 1 {
		t.Fatalf("expected one generator call, got %d", len(gen.requests))
	}
	req := gen.requests[0]
	if req.Component != Component || req.Temperature != 0.5 {
		t.Fatalf("unexpected request %+v", req)
	}
	if !strings.Contains(req.Prompt, "User Input: I need to relax after a stressful day") ||
		!strings.Contains(req.Prompt, "Emotional State: stressed") {
		t.Fatalf("prompt missing inputs: %s", req.Prompt)
	}
}

func TestAnalyzeFallsBackOnInvalidOutput(t *testing.T) {
	cases := map[string]string{
		"prose":           "I think you want to relax.",
		"missing key":     `{"intention":"relaxation","theme":"x","emotional_context":"y","rewritten_prompt":"z"}`,
		"wrong type":      `{"intention":1,"theme":"x","emotional_context":"y","rewritten_prompt":"z","key_concepts":[]}`,
		"concepts object": `{"intention":"a","theme":"x","emotional_context":"y","rewritten_prompt":"z","key_concepts":{"a":1}}`,
		"empty":           "",
	}
	for name, response := range cases {
		t.Run(name, func(t *testing.T) {
			outcome, err := New(&fakeGenerator{response: response}, nil).Analyze(context.Background(), "quiet my mind", "anxious")
			if err != nil {
				t.Fatalf("Analyze: %v", err)
			}
			if outcome.Kind != KindFallback {
				t.Fatalf("expected fallback, got %s", outcome.Kind)
			}
			if !reflect.DeepEqual(outcome.Record, Fallback("quiet my mind", "anxious")) {
				t.Fatalf("unexpected fallback record %+v", outcome.Record)
			}
			if outcome.Record.EmotionalContext != "anxious" || outcome.Record.RewrittenPrompt != "quiet my mind" {
				t.Fatalf("fallback must echo inputs: %+v", outcome.Record)
			}
		})
	}
}

func TestParseAcceptsSingleConceptString(t *testing.T) {
	outcome := Parse(`{"intention":"focus","theme":"t","emotional_context":"e","rewritten_prompt":"r","key_concepts":"clarity"}`, "p", "s")
	if outcome.Kind != KindParsed {
		t.Fatalf("expected parsed, got %s", outcome.Reason)
	}
	if got := outcome.Record.ConceptList(); got != "clarity" {
		t.Fatalf("unexpected concepts %q", got)
	}
}

func TestAnalyzePropagatesTransportErrors(t *testing.T) {
	upstream := services.Wrap(services.ErrUpstream, "text", "generate", Component, errors.New("503"))
	_, err := New(&fakeGenerator{err: upstream}, nil).Analyze(context.Background(), "p", "s")
	if !errors.Is(err, services.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestAnalyzeRejectsEmptyPrompt(t *testing.T) {
	gen := &fakeGenerator{}
	_, err := New(gen, nil).Analyze(context.Background(), "  ", "s")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(gen.requests) != 0 {
		t.Fatal("generator must not be called for invalid input")
	}
}
