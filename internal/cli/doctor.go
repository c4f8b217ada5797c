package cli

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wlmr-rk/proj-nexus/internal/config"
	"github.com/wlmr-rk/proj-nexus/internal/errors"
	"github.com/wlmr-rk/proj-nexus/internal/repo"
	"github.com/wlmr-rk/proj-nexus/internal/source"
)

var doctorRepo string

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check statsync prerequisites and configuration",
	RunE:  runDoctor,
}

func init() {
	doctorCmd.Flags().StringVar(&doctorRepo, "repo", "", "Site repository path (overrides site.repo_path)")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	allOK := true

	check := func(label string, ok bool, hint string) {
		if ok {
			fmt.Fprintf(out, "✅ %s\n", label)
		} else {
			fmt.Fprintf(out, "❌ %s: %s\n", label, hint)
			allOK = false
		}
	}

	// 1. config
	var cfg *config.Config
	var cfgErr error
	if configPath != "" {
		cfg, cfgErr = config.LoadFile(configPath)
	} else {
		cfg, cfgErr = config.Load()
	}
	check("config loadable", cfgErr == nil, fmt.Sprintf("fix config: %v", cfgErr))
	if cfgErr != nil {
		return errors.New("some checks failed")
	}
	if doctorRepo != "" {
		cfg.Site.RepoPath = doctorRepo
	}
	validateErr := cfg.Validate()
	check("config valid", validateErr == nil, fmt.Sprintf("%v", validateErr))

	// 2. git
	git := cfg.Publish.GitCommand
	if git == "" {
		git = "git"
	}
	_, err := exec.LookPath(git)
	check(git+" installed", err == nil, "install git or set publish.git_command")

	// 3. site repository
	if cfg.Site.RepoPath != "" {
		isRepo := repo.IsGitRepository(cfg.Site.RepoPath)
		check("site repository "+cfg.Site.RepoPath, isRepo,
			"not a git repository; clone the site there or fix site.repo_path")
		if isRepo {
			info, err := repo.Inspect(cfg.Site.RepoPath)
			check("site repository readable", err == nil, fmt.Sprintf("%v", err))
			if err == nil {
				check("origin remote configured", info.HasOrigin(), "run `git remote add origin <url>` in the site repository")
			}
		}
	}

	// 4. provider credentials
	for _, name := range source.Names {
		if !source.Enabled(name, cfg) {
			fmt.Fprintf(out, "➖ %s disabled\n", name)
			continue
		}
		missing := source.MissingCredentials(name, cfg)
		check(name+" credentials", len(missing) == 0, "set "+strings.Join(missing, ", "))
	}

	fmt.Fprintln(out)
	if allOK {
		fmt.Fprintln(out, "All checks passed. statsync is ready.")
		return nil
	}
	fmt.Fprintln(out, "Some checks failed. Fix the issues above before running statsync.")
	return errors.New("some checks failed")
}
