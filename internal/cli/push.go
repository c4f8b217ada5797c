package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wlmr-rk/proj-nexus/internal/errors"
	"github.com/wlmr-rk/proj-nexus/internal/publish"
)

var pushRepo string

var pushCmd = &cobra.Command{
	Use:   "push <file> [value]",
	Short: "Publish a sample record to check the publish path",
	Long: `Write {"sample": <value>, "at": <now>} to <file> in the site's public
directory and run the same commit, pull and push sequence as a real run.
The value defaults to "ok".`,
	Args: func(cmd *cobra.Command, args []string) error {
		if err := cobra.RangeArgs(1, 2)(cmd, args); err != nil {
			cmd.Usage()
			return err
		}
		return nil
	},
	RunE: runPush,
}

func init() {
	pushCmd.Flags().StringVar(&pushRepo, "repo", "", "Site repository path (overrides site.repo_path)")
}

type sampleRecord struct {
	Sample string `json:"sample"`
	At     string `json:"at"`
}

func runPush(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(pushRepo)
	if err != nil {
		return err
	}
	closeLog := setupLogging(cfg)
	defer closeLog()

	value := "ok"
	if len(args) == 2 {
		value = args[1]
	}
	record := sampleRecord{Sample: value, At: time.Now().UTC().Format(time.RFC3339)}

	pub, err := publish.New(cfg, nil)
	if err != nil {
		return err
	}
	res, err := pub.Publish(cmd.Context(), args[0], record)
	if err != nil && res == nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case errors.Is(err, errors.ErrSync):
		// written but not synced; not fatal
		fmt.Fprintf(out, "⚠️  wrote %s but sync failed: %v\n", res.Path, err)
	case err != nil:
		return err
	case res.Outcome == publish.BenignNoop:
		fmt.Fprintf(out, "➖ %s unchanged, nothing to push\n", res.Path)
	default:
		fmt.Fprintf(out, "✅ published %s\n", res.Path)
	}
	return nil
}
