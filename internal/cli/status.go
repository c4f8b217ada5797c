package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wlmr-rk/proj-nexus/internal/repo"
	"github.com/wlmr-rk/proj-nexus/internal/run"
)

var statusRepo string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the site repository state and the last run",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusRepo, "repo", "", "Site repository path (overrides site.repo_path)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(statusRepo)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	info, err := repo.Inspect(cfg.Site.RepoPath)
	if err != nil {
		return err
	}
	head := info.Head
	if head == "" {
		head = "(no commits)"
	}
	state := "clean"
	if !info.Clean {
		state = "dirty"
	}
	fmt.Fprintf(out, "Repository: %s\n", info.Root)
	fmt.Fprintf(out, "Branch:     %s @ %s (%s)\n", info.Branch, head, state)
	for _, name := range info.RemoteNames() {
		fmt.Fprintf(out, "Remote:     %s %s\n", name, strings.Join(info.Remotes[name], ", "))
	}
	fmt.Fprintf(out, "Snapshots:  %s\n", cfg.PublicPath())

	last, err := run.Latest(runsDir())
	if err != nil {
		fmt.Fprintln(out, "\nNo runs recorded yet.")
		return nil
	}
	fmt.Fprintf(out, "\nLast run %s (%s, %s ago)\n", last.ID, last.Meta.Status,
		time.Since(last.Meta.StartedAt).Round(time.Second))
	for _, r := range last.Meta.Results {
		line := fmt.Sprintf("  %-10s %-12s", r.Provider, r.Status)
		if r.Error != "" {
			line += " " + r.Error
		}
		fmt.Fprintln(out, strings.TrimRight(line, " "))
	}
	return nil
}
