package pipeline

import (
	"context"
	"strings"
)

const sentenceSeparator = ". "

// SplitSentences cuts text on ". " and restores the separator on every
// chunk except the last.
func SplitSentences(text string) []string {
	parts := strings.Split(text, sentenceSeparator)
	chunks := make([]string, 0, len(parts))
	for i, part := range parts {
		if i < len(parts)-1 {
			part += sentenceSeparator
		}
		chunks = append(chunks, part)
	}
	return chunks
}

// GenerateTextStream composes the script like GenerateTextOnly and then
// yields it sentence by sentence. Both channels close when the stream ends;
// the error channel carries at most one error.
func (o *Orchestrator) GenerateTextStream(ctx context.Context, userPrompt, emotionalState string) (<-chan string, <-chan error) {
	chunks := make(chan string)
	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		defer close(chunks)

		script, err := o.composeText(ctx, WorkflowTextStream, userPrompt, emotionalState)
		if err != nil {
			errCh <- err
			return
		}
		for _, chunk := range SplitSentences(script) {
			select {
			case chunks <- chunk:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
	}()

	return chunks, errCh
}
