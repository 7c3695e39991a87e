// Package llm provides an OpenAI-compatible chat client used as the text
// generator by every stage that needs prose or a classification.
//
// # Entry Points
//
// NewClient: construct client from Config (api key, base URL, model, timeout).
// Client.Generate: send one user prompt, receive the answer with any
// reasoning block (text before </think>) and ```json fence removed.
// Client.HealthCheck: verify API key and model availability for doctor.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty completions and network
// timeouts with exponential backoff. Pipeline stages construct it with
// WithRetryMaxAttempts(1) so generation is attempted exactly once.
//
// # Interaction Log
//
// When a recorder is wired with WithRecorder, every successful generation is
// reported with its component tag, prompt, response, model, temperature and
// max_tokens.
package llm
