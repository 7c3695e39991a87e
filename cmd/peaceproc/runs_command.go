package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"peaceproc/internal/runstore"
)

var titleCaser = cases.Title(language.English)

type runRow struct {
	ID          string `json:"id"`
	Workflow    string `json:"workflow"`
	Status      string `json:"status"`
	State       string `json:"state"`
	SessionID   string `json:"session_id,omitempty"`
	MusicType   string `json:"music_type,omitempty"`
	Artifact    string `json:"artifact,omitempty"`
	Placeholder bool   `json:"placeholder"`
	Error       string `json:"error,omitempty"`
	CreatedAt   string `json:"created_at"`
	Duration    string `json:"duration,omitempty"`
}

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var statuses []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent runs from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Journal.Enabled {
				return errors.New("run journal disabled (journal.enabled = false)")
			}
			store, err := runstore.Open(cfg.JournalPath())
			if err != nil {
				return err
			}
			defer store.Close()

			filter := make([]runstore.Status, 0, len(statuses))
			for _, status := range statuses {
				if trimmed := strings.ToLower(strings.TrimSpace(status)); trimmed != "" {
					filter = append(filter, runstore.Status(trimmed))
				}
			}
			runs, err := store.List(cmd.Context(), limit, filter...)
			if err != nil {
				return err
			}

			rows := make([]runRow, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, toRunRow(run))
			}
			if asJSON {
				return writeJSON(cmd, rows)
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Workflow", "Status", "State", "Session", "Music", "Duration", "Placeholder", "Artifact"},
				tableRows(rows),
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs")
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Only runs with this status (running, completed, failed)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func toRunRow(run runstore.Run) runRow {
	row := runRow{
		ID:          run.ID,
		Workflow:    run.Workflow,
		Status:      string(run.Status),
		State:       run.State,
		SessionID:   run.SessionID,
		MusicType:   run.MusicType,
		Artifact:    run.ArtifactPath,
		Placeholder: run.Placeholder,
		Error:       run.ErrorMessage,
		CreatedAt:   run.CreatedAt.Local().Format("2006-01-02 15:04:05"),
	}
	if d := run.Duration(); d > 0 {
		row.Duration = d.Round(100 * time.Millisecond).String()
	}
	return row
}

func tableRows(rows []runRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		id := row.ID
		if len(id) > 8 {
			id = id[:8]
		}
		artifact := row.Artifact
		if artifact != "" {
			artifact = filepath.Base(artifact)
		}
		out = append(out, []string{
			id,
			humanLabel(row.Workflow),
			humanLabel(row.Status),
			row.State,
			row.SessionID,
			row.MusicType,
			row.Duration,
			yesNo(row.Placeholder),
			artifact,
		})
	}
	return out
}

// humanLabel turns generate_text_only into "Generate Text Only".
func humanLabel(value string) string {
	return titleCaser.String(strings.ReplaceAll(value, "_", " "))
}
