// Package runstore keeps the SQLite history of pipeline runs.
//
// Each run records its workflow, session, inputs, intent and music outcomes,
// final artifact and status, plus every orchestrator state transition. The
// database is a single file under the output root, opened with the pure-Go
// modernc.org/sqlite driver. Schema changes bump schemaVersion; an old file
// must be deleted rather than migrated.
package runstore
