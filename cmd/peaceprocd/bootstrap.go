package main

import (
	"fmt"
	"log/slog"

	"peaceproc/internal/config"
	"peaceproc/internal/daemon"
	"peaceproc/internal/logging"
	"peaceproc/internal/pipeline"
)

// buildDaemon wires the pipeline runtime into a daemon. The runtime is
// released by daemon.Close.
func buildDaemon(cfg *config.Config, hub *logging.StreamHub, logger *slog.Logger) (*daemon.Daemon, error) {
	rt, err := pipeline.NewFromConfig(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("wire pipeline: %w", err)
	}
	d, err := daemon.New(cfg, rt, hub, logger)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("create daemon: %w", err)
	}
	return d, nil
}
