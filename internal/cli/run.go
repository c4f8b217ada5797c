package cli

import (
	"strings"

	"github.com/spf13/cobra"

	vlog "github.com/wlmr-rk/proj-nexus/internal/log"
	"github.com/wlmr-rk/proj-nexus/internal/pipeline"
	"github.com/wlmr-rk/proj-nexus/internal/publish"
	"github.com/wlmr-rk/proj-nexus/internal/repo"
	"github.com/wlmr-rk/proj-nexus/internal/run"
	"github.com/wlmr-rk/proj-nexus/internal/source"
)

var (
	runDryRun bool
	runRepo   string
)

var runCmd = &cobra.Command{
	Use:   "run [provider...]",
	Short: "Fetch provider stats and publish the snapshots",
	Long: `Fetch stats from each named provider (or every enabled provider when none
are named), write <provider>-data.json into the site's public directory and
commit and push it.

Providers: ` + strings.Join(source.Names, ", "),
	ValidArgs: source.Names,
	RunE:      runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Print the snapshots instead of publishing them")
	runCmd.Flags().StringVar(&runRepo, "repo", "", "Site repository path (overrides site.repo_path)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(runRepo)
	if err != nil {
		return err
	}
	closeLog := setupLogging(cfg)
	defer closeLog()

	srcs, err := sources(args, cfg)
	if err != nil {
		return err
	}

	info, err := repo.Inspect(cfg.Site.RepoPath)
	if err != nil {
		vlog.Warn("could not inspect site repository", "path", cfg.Site.RepoPath, "err", err)
		info = &repo.Info{}
	}

	history, err := run.New(runsDir(), args, runDryRun, info.Branch, info.Head)
	if err != nil {
		vlog.Warn("could not record run", "err", err)
	}

	engine := &pipeline.Engine{
		DryRun:  runDryRun,
		Out:     cmd.OutOrStdout(),
		Display: pipeline.NewDisplay(cmd.ErrOrStderr(), cfg.Site.RepoPath, verboseConsole(cfg)),
		History: history,
	}
	if !runDryRun {
		pub, err := publish.New(cfg, nil)
		if err != nil {
			return err
		}
		engine.Publisher = pub
	}

	report, err := engine.RunAll(cmd.Context(), srcs)
	if err != nil {
		return err
	}
	return report.Err()
}
