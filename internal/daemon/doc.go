// Package daemon runs the long-lived peaceproc service.
//
// It holds a flock-based single-instance lock, settles journal entries left
// running by a previous crash, prunes old logs, reports preflight problems,
// and owns the HTTP server lifecycle. Workflow logic lives in the pipeline
// package; the daemon only starts and stops things.
package daemon
