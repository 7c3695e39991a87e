package main

import (
	"fmt"
	"io"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"peaceproc/internal/logging"
	"peaceproc/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var session string
	var component string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent daemon log events",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := logs.NewStreamClient(cfg.Paths.APIBind)
			if err != nil {
				return fmt.Errorf("log API address: %w", err)
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			printed, err := logs.Stream(runCtx, client, logs.Options{
				Lines:     lines,
				Follow:    follow,
				SessionID: session,
				Component: component,
			}, func(evt logging.LogEvent) {
				writeLogEvent(out, evt)
			})
			if err != nil {
				if logs.IsAPIUnavailable(err) {
					return fmt.Errorf("daemon not reachable at %s; start peaceprocd", cfg.Paths.APIBind)
				}
				if runCtx.Err() != nil {
					return nil
				}
				return err
			}
			if !printed && !follow {
				fmt.Fprintln(out, "No log events")
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of recent events to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep streaming new events")
	cmd.Flags().StringVar(&session, "session", "", "Only show events for this session")
	cmd.Flags().StringVar(&component, "component", "", "Only show events from this component")
	return cmd
}

func writeLogEvent(w io.Writer, evt logging.LogEvent) {
	var b strings.Builder
	b.WriteString(evt.Timestamp.Local().Format("2006-01-02 15:04:05"))
	b.WriteByte(' ')
	b.WriteString(fmt.Sprintf("%-5s", strings.ToUpper(evt.Level)))
	if evt.Component != "" {
		b.WriteString(" [")
		b.WriteString(evt.Component)
		b.WriteByte(']')
	}
	if evt.SessionID != "" {
		b.WriteString(" session=")
		b.WriteString(evt.SessionID)
	}
	b.WriteByte(' ')
	b.WriteString(evt.Message)

	keys := make([]string, 0, len(evt.Fields))
	for key := range evt.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%s", key, evt.Fields[key])
	}
	fmt.Fprintln(w, b.String())
}

