package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Dir is the directory name used for user- and project-level config.
const Dir = ".statsync"

// Config is the top-level configuration structure.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Publish   PublishConfig   `yaml:"publish"`
	HTTP      HTTPConfig      `yaml:"http"`
	Providers ProvidersConfig `yaml:"providers"`
	LogLevel  string          `yaml:"log_level"`
}

// SiteConfig locates the website repository the snapshots are published into.
type SiteConfig struct {
	RepoPath  string `yaml:"repo_path"`
	PublicDir string `yaml:"public_dir"`
}

type PublishConfig struct {
	GitCommand     string `yaml:"git_command"`
	CommitTemplate string `yaml:"commit_template"`
	AllowEmpty     bool   `yaml:"allow_empty"`
	CommandTimeout string `yaml:"command_timeout"`
}

type HTTPConfig struct {
	Timeout string `yaml:"timeout"`
}

type ProvidersConfig struct {
	LeetCode LeetCodeConfig `yaml:"leetcode"`
	Spotify  OAuthConfig    `yaml:"spotify"`
	Strava   StravaConfig   `yaml:"strava"`
	WakaTime WakaTimeConfig `yaml:"wakatime"`
}

type LeetCodeConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Username string `yaml:"username"`
}

// OAuthConfig describes a provider that refreshes an access token before every fetch.
// The *Env fields name environment variables; secrets never live in the file.
type OAuthConfig struct {
	Enabled         bool   `yaml:"enabled"`
	TokenURL        string `yaml:"token_url"`
	APIBase         string `yaml:"api_base"`
	ClientIDEnv     string `yaml:"client_id_env"`
	ClientSecretEnv string `yaml:"client_secret_env"`
	RefreshTokenEnv string `yaml:"refresh_token_env"`
}

type StravaConfig struct {
	OAuthConfig `yaml:",inline"`
	PerPage     int `yaml:"per_page"`
}

type WakaTimeConfig struct {
	Enabled   bool   `yaml:"enabled"`
	APIRoot   string `yaml:"api_root"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// Validate checks that required fields are present.
func (c *Config) Validate() error {
	if c.Site.RepoPath == "" {
		return fmt.Errorf("site.repo_path is required")
	}
	if !filepath.IsAbs(c.Site.PublicDir) && strings.HasPrefix(filepath.Clean(c.Site.PublicDir), "..") {
		return fmt.Errorf("site.public_dir must stay inside the repository, got %q", c.Site.PublicDir)
	}
	if strings.Count(c.Publish.CommitTemplate, "%s") != 1 {
		return fmt.Errorf("publish.commit_template must contain exactly one %%s, got %q", c.Publish.CommitTemplate)
	}
	if _, err := c.HTTPTimeout(); err != nil {
		return fmt.Errorf("http.timeout: %w", err)
	}
	if _, err := c.CommandTimeout(); err != nil {
		return fmt.Errorf("publish.command_timeout: %w", err)
	}
	return nil
}

// PublicPath returns the absolute directory snapshots are written to.
func (c *Config) PublicPath() string {
	if filepath.IsAbs(c.Site.PublicDir) {
		return c.Site.PublicDir
	}
	return filepath.Join(c.Site.RepoPath, c.Site.PublicDir)
}

// HTTPTimeout parses http.timeout. Empty means no client timeout.
func (c *Config) HTTPTimeout() (time.Duration, error) {
	return parseDuration(c.HTTP.Timeout)
}

// CommandTimeout parses publish.command_timeout. Empty means no deadline.
func (c *Config) CommandTimeout() (time.Duration, error) {
	return parseDuration(c.Publish.CommandTimeout)
}

// LeetCodeUser returns the LeetCode username, with LEETCODE_USERNAME taking precedence.
func (c *Config) LeetCodeUser() string {
	if v := os.Getenv("LEETCODE_USERNAME"); v != "" {
		return v
	}
	return c.Providers.LeetCode.Username
}

// Secret resolves an environment variable name to its value.
func Secret(envName string) string {
	if envName == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(envName))
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// Load resolves config from defaults → user → project.
func Load() (*Config, error) {
	cfg := Defaults()

	// user-level config
	home, err := os.UserHomeDir()
	if err == nil {
		userPath := filepath.Join(home, Dir, "config.yaml")
		if err := mergeFile(cfg, userPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading user config: %w", err)
		}
	}

	// project-level config (highest priority)
	projectPath := filepath.Join(Dir, "config.yaml")
	if err := mergeFile(cfg, projectPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return cfg, nil
}

// LoadFile layers a single explicit file over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Defaults()
	if err := mergeFile(cfg, path); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	return cfg, nil
}

func mergeFile(dst *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	// Secrets belong in the environment; reject inline values early.
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err == nil {
		if providers, ok := raw["providers"].(map[string]interface{}); ok {
			for name, p := range providers {
				fields, ok := p.(map[string]interface{})
				if !ok {
					continue
				}
				for _, key := range []string{"client_secret", "refresh_token", "api_key"} {
					if _, has := fields[key]; has {
						return fmt.Errorf("providers.%s.%s must not be set in %s; "+
							"put the value in the environment and reference it with %s_env", name, key, path, key)
					}
				}
			}
		}
	}
	return yaml.Unmarshal(data, dst)
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Site: SiteConfig{
			PublicDir: "public",
		},
		Publish: PublishConfig{
			GitCommand:     "git",
			CommitTemplate: "chore: update %s",
			AllowEmpty:     true,
		},
		HTTP: HTTPConfig{
			Timeout: "30s",
		},
		Providers: ProvidersConfig{
			LeetCode: LeetCodeConfig{
				Enabled:  true,
				Endpoint: "https://leetcode.com/graphql",
			},
			Spotify: OAuthConfig{
				Enabled:         true,
				TokenURL:        "https://accounts.spotify.com/api/token",
				APIBase:         "https://api.spotify.com/v1",
				ClientIDEnv:     "SPOTIFY_CLIENT_ID",
				ClientSecretEnv: "SPOTIFY_CLIENT_SECRET",
				RefreshTokenEnv: "SPOTIFY_REFRESH_TOKEN",
			},
			Strava: StravaConfig{
				OAuthConfig: OAuthConfig{
					Enabled:         true,
					TokenURL:        "https://www.strava.com/oauth/token",
					APIBase:         "https://www.strava.com/api/v3",
					ClientIDEnv:     "STRAVA_CLIENT_ID",
					ClientSecretEnv: "STRAVA_CLIENT_SECRET",
					RefreshTokenEnv: "STRAVA_REFRESH_TOKEN",
				},
				PerPage: 30,
			},
			WakaTime: WakaTimeConfig{
				Enabled:   true,
				APIRoot:   "https://wakatime.com/api/v1/users/current",
				APIKeyEnv: "WAKATIME_API_KEY",
			},
		},
		LogLevel: "info",
	}
}
