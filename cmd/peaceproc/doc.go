// Package main hosts the peaceproc CLI.
//
// Each workflow the HTTP service offers has a local command (run, text,
// stream, image, video) that wires the pipeline in-process from the same
// configuration. runs reads the journal, doctor runs the preflight checks,
// and config scaffolds or validates the TOML file.
package main
