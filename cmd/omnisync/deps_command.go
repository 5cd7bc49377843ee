package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"omnisync/internal/deps"
	"omnisync/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external binaries, directories and capability services",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			statuses := deps.AnnotateVersions(cmd.Context(), preflight.CheckSystemDeps(cfg))
			fmt.Fprintln(out, sectionHeader("Binaries", colorize))
			for _, st := range statuses {
				kind, message := statusOK, st.Command
				if st.Detail != "" && st.Available {
					message = fmt.Sprintf("%s (%s)", st.Command, st.Detail)
				}
				if !st.Available {
					kind, message = statusError, st.Detail
					if st.Optional {
						kind = statusWarn
					}
				}
				fmt.Fprintln(out, renderStatusLine(st.Name, kind, message, colorize))
			}

			results := preflight.RunAll(cmd.Context(), cfg)
			fmt.Fprintln(out, sectionHeader("Environment", colorize))
			for _, r := range results {
				if isBinaryCheck(r.Name, statuses) {
					continue
				}
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}

			if missing := deps.Missing(statuses); len(missing) > 0 {
				names := make([]string, 0, len(missing))
				for _, m := range missing {
					names = append(names, m.Name)
				}
				return fmt.Errorf("missing required dependencies: %s", strings.Join(names, ", "))
			}
			if failures := preflight.Failures(results); len(failures) > 0 {
				return fmt.Errorf("environment checks failed: %s", preflight.Summary(failures))
			}
			return nil
		},
	}
}

func isBinaryCheck(name string, statuses []deps.Status) bool {
	for _, st := range statuses {
		if st.Name == name {
			return true
		}
	}
	return false
}

func sectionHeader(title string, colorize bool) string {
	line := fmt.Sprintf("== %s ==", title)
	if colorize {
		return ansiBlue + line + ansiReset
	}
	return line
}
