package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wlmr-rk/proj-nexus/internal/config"
	"github.com/wlmr-rk/proj-nexus/internal/errors"
)

const nowPlayingBody = `{
  "is_playing": true,
  "item": {
    "name": "Hoppípolla",
    "artists": [{"name": "Sigur Rós"}],
    "album": {"name": "Takk...", "images": [{"url": "https://i.scdn.co/image/large"}, {"url": "https://i.scdn.co/image/small"}]},
    "external_urls": {"spotify": "https://open.spotify.com/track/abc"}
  }
}`

const recentlyPlayedBody = `{
  "items": [
    {
      "track": {
        "name": "Teardrop",
        "artists": [{"name": "Massive Attack"}, {"name": "Elizabeth Fraser"}],
        "album": {"name": "Mezzanine", "images": []},
        "external_urls": {"spotify": "https://open.spotify.com/track/def"}
      }
    }
  ]
}`

type spotifyServer struct {
	*httptest.Server
	currentCalls atomic.Int32
	recentCalls  atomic.Int32
}

func newSpotifyServer(t *testing.T, current func(w http.ResponseWriter), recent string) *spotifyServer {
	t.Helper()
	s := &spotifyServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", tokenHandler(t, true))
	mux.HandleFunc("/v1/me/player/currently-playing", func(w http.ResponseWriter, r *http.Request) {
		requireBearer(t, r)
		s.currentCalls.Add(1)
		current(w)
	})
	mux.HandleFunc("/v1/me/player/recently-played", func(w http.ResponseWriter, r *http.Request) {
		requireBearer(t, r)
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		s.recentCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(recent))
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func testSpotify(t *testing.T, ts *httptest.Server) *Spotify {
	t.Helper()
	cfg := config.Defaults()
	cfg.Providers.Spotify.TokenURL = ts.URL + "/api/token"
	cfg.Providers.Spotify.APIBase = ts.URL + "/v1/"
	oauthEnv(t, "STATSYNC_TEST_SPOTIFY", &cfg.Providers.Spotify)
	return NewSpotify(cfg, ts.Client())
}

func TestSpotifyNowPlaying(t *testing.T) {
	srv := newSpotifyServer(t, func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(nowPlayingBody))
	}, recentlyPlayedBody)

	got, err := testSpotify(t, srv.Server).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Track{
		IsPlaying:     true,
		Title:         "Hoppípolla",
		Artist:        "Sigur Rós",
		Album:         "Takk...",
		AlbumImageURL: "https://i.scdn.co/image/large",
		SongURL:       "https://open.spotify.com/track/abc",
	}, got)
	assert.EqualValues(t, 1, srv.currentCalls.Load())
	assert.EqualValues(t, 0, srv.recentCalls.Load())
}

func TestSpotifyFallsBackWhenIdle(t *testing.T) {
	srv := newSpotifyServer(t, func(w http.ResponseWriter) {
		w.WriteHeader(http.StatusNoContent)
	}, recentlyPlayedBody)

	sp := testSpotify(t, srv.Server)
	got, err := sp.Collect(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, srv.recentCalls.Load())

	var recent spotifyRecentlyPlayed
	require.NoError(t, json.Unmarshal([]byte(recentlyPlayedBody), &recent))
	want, err := sp.Normalize(&SpotifyRaw{Recent: &recent})
	require.NoError(t, err)

	assert.Equal(t, want, got)
	track := got.(*Track)
	assert.False(t, track.IsPlaying)
	assert.Equal(t, "Massive Attack, Elizabeth Fraser", track.Artist)
	// no album art: default is an empty, omitted URL
	assert.Equal(t, "", track.AlbumImageURL)
}

func TestSpotifyFallsBackWhenPaused(t *testing.T) {
	srv := newSpotifyServer(t, func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"is_playing": false, "item": {"name": "Paused Song"}}`))
	}, recentlyPlayedBody)

	got, err := testSpotify(t, srv.Server).Collect(context.Background())
	require.NoError(t, err)
	track := got.(*Track)
	assert.Equal(t, "Teardrop", track.Title)
	assert.False(t, track.IsPlaying)
}

func TestSpotifyNormalizeDefaults(t *testing.T) {
	sp := &Spotify{}
	track, err := sp.Normalize(&SpotifyRaw{
		Current: &spotifyCurrentlyPlaying{IsPlaying: true, Item: &spotifyTrack{}},
	})
	require.NoError(t, err)
	assert.Equal(t, &Track{IsPlaying: true, Title: "Unknown", Artist: "Unknown", Album: "Unknown"}, track)

	data, err := json.Marshal(track)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "albumImageUrl")
}

func TestSpotifyNormalizeMalformed(t *testing.T) {
	sp := &Spotify{}
	cases := map[string]*SpotifyRaw{
		"nil":          nil,
		"no recent":    {},
		"no items key": {Recent: &spotifyRecentlyPlayed{}},
		"empty items":  {Recent: &spotifyRecentlyPlayed{Items: []spotifyPlayHistory{}}},
		"null track":   {Recent: &spotifyRecentlyPlayed{Items: []spotifyPlayHistory{{}}}},
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := sp.Normalize(raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrMalformed))
		})
	}
}

func TestSpotifyMissingCredential(t *testing.T) {
	srv := newSpotifyServer(t, func(w http.ResponseWriter) {}, recentlyPlayedBody)
	sp := testSpotify(t, srv.Server)
	t.Setenv("STATSYNC_TEST_SPOTIFY_REFRESH_TOKEN", "")

	_, err := sp.Collect(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrAuth))
	assert.Contains(t, err.Error(), "STATSYNC_TEST_SPOTIFY_REFRESH_TOKEN")
	assert.EqualValues(t, 0, srv.currentCalls.Load())
}

func TestSpotifyTokenExchangeFailures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"rejected grant": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid refresh token"}`))
		},
		"no access token": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"token_type":"Bearer"}`))
		},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/api/token", handler)
			ts := httptest.NewServer(mux)
			defer ts.Close()

			_, err := testSpotify(t, ts).Authenticate(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrAuth))
		})
	}
}
