package source

import (
	"net/http"
	"strings"

	"github.com/wlmr-rk/proj-nexus/internal/config"
	"github.com/wlmr-rk/proj-nexus/internal/errors"
)

// Names lists every provider in run order.
var Names = []string{"leetcode", "spotify", "strava", "wakatime"}

// Build constructs one adapter by provider name.
func Build(name string, cfg *config.Config, hc *http.Client) (Source, error) {
	switch strings.ToLower(name) {
	case "leetcode":
		return NewLeetCode(cfg, hc), nil
	case "spotify":
		return NewSpotify(cfg, hc), nil
	case "strava":
		return NewStrava(cfg, hc), nil
	case "wakatime":
		return NewWakaTime(cfg, hc), nil
	}
	return nil, errors.WithHintf(
		errors.InvalidRequestf("unknown provider %q", name),
		"known providers: %s", strings.Join(Names, ", "))
}

// Enabled reports whether the provider is switched on in config.
func Enabled(name string, cfg *config.Config) bool {
	p := cfg.Providers
	switch strings.ToLower(name) {
	case "leetcode":
		return p.LeetCode.Enabled
	case "spotify":
		return p.Spotify.Enabled
	case "strava":
		return p.Strava.Enabled
	case "wakatime":
		return p.WakaTime.Enabled
	}
	return false
}

// Select builds the named adapters, or every enabled adapter when names is empty.
func Select(names []string, cfg *config.Config, hc *http.Client) ([]Source, error) {
	if len(names) == 0 {
		for _, n := range Names {
			if Enabled(n, cfg) {
				names = append(names, n)
			}
		}
	}
	sources := make([]Source, 0, len(names))
	for _, n := range names {
		src, err := Build(n, cfg, hc)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

// MissingCredentials names the environment variables (or settings) a provider
// still needs before it can authenticate. Empty means ready.
func MissingCredentials(name string, cfg *config.Config) []string {
	var missing []string
	need := func(env string) {
		if config.Secret(env) == "" {
			missing = append(missing, env)
		}
	}
	p := cfg.Providers
	switch strings.ToLower(name) {
	case "leetcode":
		if cfg.LeetCodeUser() == "" {
			missing = append(missing, "LEETCODE_USERNAME")
		}
	case "spotify":
		need(p.Spotify.ClientIDEnv)
		need(p.Spotify.ClientSecretEnv)
		need(p.Spotify.RefreshTokenEnv)
	case "strava":
		need(p.Strava.ClientIDEnv)
		need(p.Strava.ClientSecretEnv)
		need(p.Strava.RefreshTokenEnv)
	case "wakatime":
		need(p.WakaTime.APIKeyEnv)
	}
	return missing
}
