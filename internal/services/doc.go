// Package services defines shared utilities consumed by the pipeline stages
// and the provider clients.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, workflows, stages, branches and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so failures keep their
//     stage context and can be classified by kind (upstream, validation,
//     tool unavailable, path resolution, ...).
//
// Use these helpers when wiring new stage logic so error reporting and
// observability stay uniform across the pipeline.
package services
