package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wlmr-rk/proj-nexus/internal/run"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded runs and their outcomes",
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	runs, err := run.List(runsDir())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs found.")
		return nil
	}

	var completed, failed int
	for _, r := range runs {
		switch r.Meta.Status {
		case "completed":
			completed++
		case "failed":
			failed++
		}
	}

	fmt.Fprintf(out, "Runs: %d total, %d completed, %d failed\n\n", len(runs), completed, failed)
	fmt.Fprintf(out, "%-40s %-10s %-9s %-6s %-8s %s\n", "Run ID", "Status", "Published", "Noop", "Failed", "Commit")
	fmt.Fprintln(out, strings.Repeat("─", 86))
	for _, r := range runs {
		m := r.Meta
		status := m.Status
		if m.DryRun {
			status += "*"
		}
		fmt.Fprintf(out, "%-40s %-10s %-9d %-6d %-8d %s\n",
			r.ID, status, m.Count(run.StatusPublished), m.Count(run.StatusNoop),
			m.Count(run.StatusFailed), m.GitCommit)
	}
	return nil
}
