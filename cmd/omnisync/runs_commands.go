package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"omnisync/internal/runstore"
)

const shortIDLength = 8

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect generate run history",
	}
	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))
	runsCmd.AddCommand(newRunsReapCommand(ctx))
	return runsCmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var statusFlags []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatuses(statusFlags)
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *runstore.Store) error {
				runs, err := store.List(cmd.Context(), limit, statuses...)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				fmt.Fprintln(out, renderRunsTable(runs, shouldColorize(out)))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to show (0 for all)")
	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Filter by status (running, completed, failed, rejected)")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one run by id or unique id prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *runstore.Store) error {
				run, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					if errors.Is(err, runstore.ErrNotFound) {
						return fmt.Errorf("run %s not found", args[0])
					}
					return err
				}
				out := cmd.OutOrStdout()
				printRunDetail(out, run, shouldColorize(out))
				return nil
			})
		},
	}
}

func newRunsReapCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reap",
		Short: "Mark runs left running by an exited process as failed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *runstore.Store) error {
				count, err := store.MarkAbandoned(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Marked %d abandoned run(s) as failed\n", count)
				return nil
			})
		},
	}
}

func parseStatuses(values []string) ([]runstore.Status, error) {
	var statuses []runstore.Status
	for _, raw := range values {
		value := runstore.Status(strings.ToLower(strings.TrimSpace(raw)))
		if value == "" {
			continue
		}
		switch value {
		case runstore.StatusRunning, runstore.StatusCompleted, runstore.StatusFailed, runstore.StatusRejected:
			statuses = append(statuses, value)
		default:
			return nil, fmt.Errorf("unknown status %q", raw)
		}
	}
	return statuses, nil
}

func renderRunsTable(runs []*runstore.Run, colorize bool) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			colorizeStatus(run.Status, colorize),
			strconv.Itoa(run.Frames),
			strconv.Itoa(run.Synthesized),
			strconv.Itoa(run.Passthrough),
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			formatDuration(run.Duration()),
			run.OutputPath,
		})
	}
	return renderTable(
		[]string{"ID", "Status", "Frames", "Synth", "Pass", "Started", "Took", "Output"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft, alignRight, alignLeft},
	)
}

func printRunDetail(out io.Writer, run *runstore.Run, colorize bool) {
	fields := []struct{ label, value string }{
		{"ID", run.ID},
		{"Status", colorizeStatus(run.Status, colorize)},
		{"Video", run.VideoPath},
		{"Audio", run.AudioPath},
		{"Output", run.OutputPath},
		{"Final", run.FinalPath},
		{"FPS", strconv.FormatFloat(run.FPS, 'f', -1, 64)},
		{"Frames", strconv.Itoa(run.Frames)},
		{"Synthesized", strconv.Itoa(run.Synthesized)},
		{"Passthrough", strconv.Itoa(run.Passthrough)},
		{"Model", run.ModelDigest},
		{"Started", run.StartedAt.Local().Format(time.RFC3339)},
	}
	if run.FinishedAt != nil {
		fields = append(fields,
			struct{ label, value string }{"Finished", run.FinishedAt.Local().Format(time.RFC3339)},
			struct{ label, value string }{"Duration", formatDuration(run.Duration())},
		)
	}
	if run.ErrorMessage != "" {
		fields = append(fields, struct{ label, value string }{"Error", run.ErrorMessage})
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		fmt.Fprintf(out, "%-12s %s\n", f.label+":", f.value)
	}
}

func shortID(id string) string {
	if len(id) <= shortIDLength {
		return id
	}
	return id[:shortIDLength]
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}
