package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wlmr-rk/proj-nexus/internal/assets"
	"github.com/wlmr-rk/proj-nexus/internal/config"
	"github.com/wlmr-rk/proj-nexus/internal/errors"
)

var (
	initMinimal bool
	initEnv     bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize statsync configuration",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initMinimal, "minimal", false, "Write the config without comments")
	initCmd.Flags().BoolVar(&initEnv, "env", false, "Also write .env.example in the current directory")
}

func runInit(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	home, err := os.UserHomeDir()
	if err != nil {
		return errors.Wrap(err, "getting home dir")
	}

	configDir := filepath.Join(home, config.Dir)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return errors.Wrap(err, "creating config dir")
	}

	name := "config.yaml"
	if initMinimal {
		name = "config.minimal.yaml"
	}
	configFile := filepath.Join(configDir, "config.yaml")
	created, err := writeTemplate(name, configFile)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(out, "Created %s\n", configFile)
		fmt.Fprintln(out, "Set site.repo_path to your website clone.")
	} else {
		fmt.Fprintf(out, "Config already exists: %s\n", configFile)
	}

	if initEnv {
		created, err := writeTemplate("env.example", ".env.example")
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintln(out, "Created .env.example; copy it to .env and fill in the provider secrets.")
		}
	}
	return nil
}

// writeTemplate copies a template to dest unless dest already exists.
func writeTemplate(name, dest string) (bool, error) {
	if _, err := os.Stat(dest); err == nil {
		return false, nil
	}
	content, err := assets.LoadTemplate(name)
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(dest, []byte(content), 0644); err != nil {
		return false, errors.Wrapf(err, "writing %s", dest)
	}
	return true, nil
}
