// Package logging assembles structured slog loggers and formatting helpers used
// across peaceproc.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with session IDs, workflows, stages, branches and correlation IDs.
// Session loggers tee a run's records into a file inside its session
// directory, and the stream hub keeps a bounded window of recent events for
// the HTTP log endpoint.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape as the rest of the system.
package logging
