package script

import (
	"context"
	"errors"
	"strings"
	"testing"

	"peaceproc/internal/intent"
	"peaceproc/internal/services"
	"peaceproc/internal/services/llm"
)

type fakeGenerator struct {
	response string
	err      error
	last     llm.Request
}

func (f *fakeGenerator) Generate(_ context.Context, req llm.Request) (string, error) {
	f.last = req
	return f.response, f.err
}

func TestTemplateForMatchesCaseInsensitively(t *testing.T) {
	cases := []struct {
		intention string
		matched   bool
		contains  string
	}{
		{"relaxation", true, "relax and find inner peace"},
		{"  Motivation ", true, "motivates the listener"},
		{"EDUCATION", true, "teaches the listener"},
		{"emotional relief", false, "addresses the listener's needs"},
		{"", false, "addresses the listener's needs"},
	}
	for _, tc := range cases {
		tmpl, matched := TemplateFor(tc.intention)
		if matched != tc.matched {
			t.Fatalf("%q: matched=%v, want %v", tc.intention, matched, tc.matched)
		}
		if !strings.Contains(tmpl, tc.contains) {
			t.Fatalf("%q: template missing %q", tc.intention, tc.contains)
		}
	}
}

func TestPromptLayout(t *testing.T) {
	record := intent.Record{
		Intention:        "relaxation",
		Theme:            "ocean",
		EmotionalContext: "tired",
		RewrittenPrompt:  "help me sleep",
		KeyConcepts:      []string{"waves", "breath"},
	}
	prompt := Prompt(record)

	role := strings.Index(prompt, "## Role and style")
	theme := strings.Index(prompt, "Theme: ocean")
	extra := strings.Index(prompt, "Additional context from user: help me sleep")
	final := strings.Index(prompt, "Please OUTPUT full script after </think> tag")
	if role < 0 || theme < 0 || extra < 0 || final < 0 {
		t.Fatalf("prompt missing a section:\n%s", prompt)
	}
	if !(role < theme && theme < extra && extra < final) {
		t.Fatalf("sections out of order: %d %d %d %d", role, theme, extra, final)
	}
	if !strings.Contains(prompt, "Key Concepts: waves, breath") {
		t.Fatalf("key concepts not joined: %s", prompt)
	}

	record.RewrittenPrompt = ""
	if strings.Contains(Prompt(record), "Additional context from user") {
		t.Fatal("empty rewritten prompt must not add context line")
	}
}

func TestComposeReturnsGeneratorText(t *testing.T) {
	gen := &fakeGenerator{response: "Close your eyes. Breathe in."}
	got, err := New(gen, nil).Compose(context.Background(), intent.Fallback("p", "calm"))
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if got != "Close your eyes. Breathe in." {
		t.Fatalf("unexpected script %q", got)
	}
	if gen.last.Component != Component || gen.last.Temperature != 0.6 {
		t.Fatalf("unexpected request %+v", gen.last)
	}
}

func TestComposeFailures(t *testing.T) {
	_, err := New(&fakeGenerator{err: services.Wrap(services.ErrUpstream, "text", "generate", "", nil)}, nil).
		Compose(context.Background(), intent.Fallback("p", "s"))
	if !errors.Is(err, services.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestComposeReturnsBlankAnswerVerbatim(t *testing.T) {
	got, err := New(&fakeGenerator{response: "  "}, nil).Compose(context.Background(), intent.Fallback("p", "s"))
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if got != "  " {
		t.Fatalf("expected generator answer unchanged, got %q", got)
	}
}
