package cli

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/wlmr-rk/proj-nexus/internal/config"
	"github.com/wlmr-rk/proj-nexus/internal/errors"
	vlog "github.com/wlmr-rk/proj-nexus/internal/log"
	"github.com/wlmr-rk/proj-nexus/internal/source"
)

// loadConfig resolves config from --config or the layered files, applies
// flag overrides and validates the result.
func loadConfig(repoOverride string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, errors.Wrap(err, "loading config")
	}

	if repoOverride != "" {
		cfg.Site.RepoPath = repoOverride
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.WithHint(errors.Wrap(err, "invalid config"),
			"run `statsync init` and set site.repo_path, or pass --repo")
	}
	return cfg, nil
}

// setupLogging initializes the logger and returns a func that closes the log file.
func setupLogging(cfg *config.Config) func() {
	logFile := openLogFile()
	if logFile == nil {
		vlog.Init(cfg.LogLevel, nil)
		return func() {}
	}
	vlog.Init(cfg.LogLevel, logFile)
	return func() { logFile.Close() }
}

// verboseConsole reports whether info-level logs reach the terminal, in which
// case progress lines must not be redrawn in place.
func verboseConsole(cfg *config.Config) bool {
	return vlog.ParseLevel(cfg.LogLevel) <= slog.LevelInfo
}

func openLogFile() *os.File {
	if err := os.MkdirAll(config.Dir, 0755); err != nil {
		return nil
	}
	f, err := os.OpenFile(filepath.Join(config.Dir, "statsync.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil
	}
	return f
}

func runsDir() string {
	return filepath.Join(config.Dir, "runs")
}

func sources(names []string, cfg *config.Config) ([]source.Source, error) {
	timeout, err := cfg.HTTPTimeout()
	if err != nil {
		return nil, err
	}
	return source.Select(names, cfg, source.NewHTTPClient(timeout))
}
