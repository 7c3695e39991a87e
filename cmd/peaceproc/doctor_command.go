package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"peaceproc/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check credentials, directories, the music library and media tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg, !offline)

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintln(out, strings.Join(renderSectionHeader("Preflight", colorize), "\n"))
			for _, result := range results {
				fmt.Fprintln(out, renderCheckLine(result.Name, stateFor(result), result.Detail, colorize))
			}

			failed := preflight.Failures(results)
			if len(failed) > 0 {
				return fmt.Errorf("%d preflight check(s) failed", len(failed))
			}
			fmt.Fprintln(out, "All required checks passed")
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the text API reachability probe")
	return cmd
}

func stateFor(result preflight.Result) checkState {
	switch {
	case result.Passed:
		return checkOK
	case result.Optional:
		return checkWarn
	default:
		return checkFail
	}
}
