package source

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wlmr-rk/proj-nexus/internal/config"
	"github.com/wlmr-rk/proj-nexus/internal/errors"
)

func TestBuildKnownProviders(t *testing.T) {
	cfg := config.Defaults()
	for _, name := range Names {
		src, err := Build(name, cfg, http.DefaultClient)
		require.NoError(t, err, name)
		assert.Equal(t, name, src.Name())
		assert.Equal(t, name+"-data.json", src.FileName())
	}
}

func TestBuildUnknownProvider(t *testing.T) {
	_, err := Build("myspace", config.Defaults(), http.DefaultClient)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
	assert.Contains(t, errors.FlattenHints(err), "leetcode")
}

func TestSelect(t *testing.T) {
	cfg := config.Defaults()
	cfg.Providers.Spotify.Enabled = false

	all, err := Select(nil, cfg, http.DefaultClient)
	require.NoError(t, err)
	var names []string
	for _, s := range all {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"leetcode", "strava", "wakatime"}, names)

	// explicit names run even when disabled
	picked, err := Select([]string{"Spotify"}, cfg, http.DefaultClient)
	require.NoError(t, err)
	require.Len(t, picked, 1)
	assert.Equal(t, "spotify", picked[0].Name())

	_, err = Select([]string{"leetcode", "nope"}, cfg, http.DefaultClient)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestMissingCredentials(t *testing.T) {
	cfg := config.Defaults()
	oauthEnv(t, "STATSYNC_TEST_SPOTIFY", &cfg.Providers.Spotify)
	cfg.Providers.Strava.ClientIDEnv = "STATSYNC_TEST_STRAVA_ID"
	cfg.Providers.Strava.ClientSecretEnv = "STATSYNC_TEST_STRAVA_SECRET"
	cfg.Providers.Strava.RefreshTokenEnv = "STATSYNC_TEST_STRAVA_REFRESH"
	t.Setenv("STATSYNC_TEST_STRAVA_ID", "id")
	t.Setenv("STATSYNC_TEST_STRAVA_SECRET", "")
	t.Setenv("STATSYNC_TEST_STRAVA_REFRESH", "")
	t.Setenv("LEETCODE_USERNAME", "")

	assert.Empty(t, MissingCredentials("spotify", cfg))
	assert.Equal(t, []string{"STATSYNC_TEST_STRAVA_SECRET", "STATSYNC_TEST_STRAVA_REFRESH"}, MissingCredentials("strava", cfg))
	assert.Equal(t, []string{"LEETCODE_USERNAME"}, MissingCredentials("leetcode", cfg))

	cfg.Providers.LeetCode.Username = "wlmr-rk"
	assert.Empty(t, MissingCredentials("leetcode", cfg))
}
