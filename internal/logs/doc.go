// Package logs reads the daemon's /logs endpoint.
//
// StreamClient performs one fetch; Stream prints an initial tail and, in
// follow mode, long-polls for new events until the context ends.
package logs
