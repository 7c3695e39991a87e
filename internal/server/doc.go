// Package server exposes the pipeline workflows over HTTP.
//
// The gin engine serves the JSON endpoints (/process, /generate-text,
// /generate-image, /generate-video), the sentence stream at
// /generate-text-stream, a health probe, and the operator views /runs and
// /logs. Every request carries an X-Request-ID that flows into the pipeline
// logs as the correlation id.
package server
