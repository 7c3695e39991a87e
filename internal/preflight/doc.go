// Package preflight provides readiness checks for the providers, binaries and
// filesystem paths peaceproc depends on.
//
// These checks run in two contexts:
//   - The CLI "peaceproc doctor" command renders every check as a table.
//   - The service daemon runs RunAll at startup and logs failures as
//     warnings. Missing credentials never stop the daemon; the affected
//     stage fails with a configuration error when it runs.
//
// Optional checks (ffmpeg, ffprobe) degrade output to placeholders rather
// than breaking a run, so they never count as failures.
package preflight
