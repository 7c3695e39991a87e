// Package notifications publishes run events to ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// the orchestrator can publish unconditionally. Events are enumerated so
// completed and failed runs render consistent titles and tags.
package notifications
